// Package hse evolves a velocity field encoded as a normalized wavefunction under exp(-iHdt).
//
// The field u is mapped to amplitudes sqrt(u+1e-8), normalized, evolved by the propagator of the
// diffusion Hamiltonian, and read back as the probabilities |psi_i|^2.
// The readout is not an inverse of the encoding.
package hse

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/qburgers"
	qmat "github.com/fumin/qburgers/mat"
)

const (
	// encodeEpsilon keeps the square root away from exactly zero.
	encodeEpsilon = 1e-8
)

// State is a normalized wavefunction.
// Evolution never modifies a State in place.
type State struct {
	amps []complex128
}

// NewState encodes a field with values in [0, 1] as a unit norm wavefunction.
func NewState(field []float64) (State, error) {
	if len(field) == 0 {
		return State{}, errors.Errorf("empty")
	}
	amps := make([]complex128, len(field))
	var norm2 float64
	for i, u := range field {
		if math.IsNaN(u) || u < 0 || u > 1 {
			return State{}, errors.Errorf("%d %f", i, u)
		}
		a := math.Sqrt(u + encodeEpsilon)
		amps[i] = complex(a, 0)
		norm2 += a * a
	}
	norm := math.Sqrt(norm2)
	for i := range amps {
		amps[i] /= complex(norm, 0)
	}
	return State{amps: amps}, nil
}

// Len returns the number of amplitudes.
func (s State) Len() int { return len(s.amps) }

// At returns the i-th amplitude.
func (s State) At(i int) complex128 { return s.amps[i] }

// Amplitudes returns a copy of the amplitudes.
func (s State) Amplitudes() []complex128 {
	amps := make([]complex128, len(s.amps))
	copy(amps, s.amps)
	return amps
}

// Norm returns the Euclidean norm.
func (s State) Norm() float64 {
	var norm2 float64
	for _, a := range s.amps {
		norm2 += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(norm2)
}

// Probabilities returns |psi_i|^2, the field read back from the state.
func (s State) Probabilities() []float64 {
	p := make([]float64, len(s.amps))
	for i, a := range s.amps {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p
}

// Evolver applies the propagator U = exp(-iHdt) of a fixed Hamiltonian and time step.
type Evolver struct {
	n int
	// u is the row major propagator.
	u []complex128
}

// NewEvolver computes the propagator of h for a time step dt.
// A real symmetric h is diagonalized, so that U is unitary up to rounding.
// Other real matrices are exponentiated with Pade approximants through a real embedding.
func NewEvolver(h qmat.Matrix, dt float64) (*Evolver, error) {
	if h.Rows() != h.Cols() {
		return nil, errors.Errorf("%d %d", h.Rows(), h.Cols())
	}
	if math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, errors.Errorf("%f", dt)
	}
	coo := h.COO()
	hd, err := coo.RealDense()
	if err != nil {
		return nil, errors.Wrap(err, "complex hamiltonians are not supported")
	}

	e := &Evolver{n: h.Rows()}
	switch {
	case coo.Symmetric():
		e.u, err = eigenPropagator(hd, dt)
	default:
		e.u, err = padePropagator(hd, dt)
	}
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for i, v := range e.u {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return nil, errors.Errorf("%d %v", i, v)
		}
	}
	return e, nil
}

// eigenPropagator returns V diag(exp(-i lambda dt)) V^T.
func eigenPropagator(h *mat.Dense, dt float64) ([]complex128, error) {
	n, _ := h.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, h.At(i, j))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return nil, errors.Errorf("eigen decomposition failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	phases := make([]complex128, n)
	for k, lambda := range vals {
		phases[k] = cmplx.Exp(complex(0, -lambda*dt))
	}
	u := make([]complex128, n*n)
	for i := range n {
		for j := range n {
			var v complex128
			for k := range n {
				v += complex(vecs.At(i, k)*vecs.At(j, k), 0) * phases[k]
			}
			u[i*n+j] = v
		}
	}
	return u, nil
}

// padePropagator computes exp(-iHdt) for a real H.
// With M = H dt and psi = x + iy, the evolution is d/dt [x; y] = [[0, M], [-M, 0]] [x; y],
// whose real exponential holds Re(U) and Im(U) in its blocks.
func padePropagator(h *mat.Dense, dt float64) ([]complex128, error) {
	n, _ := h.Dims()
	block := mat.NewDense(2*n, 2*n, nil)
	for i := range n {
		for j := range n {
			m := h.At(i, j) * dt
			if m == 0 {
				continue
			}
			block.Set(i, n+j, m)
			block.Set(n+i, j, -m)
		}
	}

	var exp mat.Dense
	exp.Exp(block)

	// exp = [[Re U, -Im U], [Im U, Re U]].
	u := make([]complex128, n*n)
	for i := range n {
		for j := range n {
			u[i*n+j] = complex(exp.At(i, j), exp.At(n+i, j))
		}
	}
	return u, nil
}

// Dim returns the dimension of the propagator.
func (e *Evolver) Dim() int { return e.n }

// Propagator returns the (i, j) entry of U.
func (e *Evolver) Propagator(i, j int) complex128 { return e.u[i*e.n+j] }

// Step returns U psi.
func (e *Evolver) Step(psi State) (State, error) {
	if psi.Len() != e.n {
		return State{}, errors.Errorf("%d %d", psi.Len(), e.n)
	}
	out := make([]complex128, e.n)
	for i := range e.n {
		row := e.u[i*e.n : (i+1)*e.n]
		var v complex128
		for j, a := range psi.amps {
			v += row[j] * a
		}
		out[i] = v
	}
	return State{amps: out}, nil
}

// Evolve applies Step steps times.
func (e *Evolver) Evolve(psi State, steps int) (State, error) {
	if steps < 0 {
		return State{}, errors.Errorf("%d", steps)
	}
	var err error
	for i := range steps {
		psi, err = e.Step(psi)
		if err != nil {
			return State{}, errors.Wrap(err, fmt.Sprintf("step %d", i))
		}
	}
	return psi, nil
}

// Run solves the Burgers' equation with the HSE method and returns the field |psi|^2.
func Run(field []float64, steps int, dt, nu float64, boundary qburgers.Boundary) ([]float64, error) {
	n := len(field)
	h := qmat.COOZeros(1, 1)
	if err := qburgers.Hamiltonian(h, qmat.COOZeros(1, 1), n, nu, boundary); err != nil {
		return nil, errors.Wrap(err, "")
	}
	evolver, err := NewEvolver(h, dt)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	psi, err := NewState(field)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	psi, err = evolver.Evolve(psi, steps)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return psi.Probabilities(), nil
}
