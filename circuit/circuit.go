// Package circuit runs a gate level version of the HSE evolution on qubits.
//
// The program applies a Hadamard to every qubit, then repeats a layer of RX(theta) followed by a
// CZ with the next qubit in a ring. Qubit q is bit 1<<q of a basis state index.
package circuit

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/qburgers"
)

// HSE is the circuit program.
type HSE struct {
	Qubits int
	Theta  float64
	Layers int
}

// NewHSE returns the program for a field of n points, with ceil(log2 n) qubits and theta = -dt.
func NewHSE(n int, dt float64, layers int) (HSE, error) {
	if n < 1 {
		return HSE{}, errors.Errorf("%d", n)
	}
	h := HSE{Qubits: bits.Len(uint(n - 1)), Theta: -dt, Layers: layers}
	if err := h.validate(); err != nil {
		return HSE{}, errors.Wrap(err, "")
	}
	return h, nil
}

func (h HSE) validate() error {
	if h.Qubits < 2 {
		return errors.Errorf("at least 2 qubits are needed, got %d", h.Qubits)
	}
	// Keep the statevector within a few hundred megabytes.
	if h.Qubits > 24 {
		return errors.Errorf("too many qubits %d", h.Qubits)
	}
	if h.Layers < 0 {
		return errors.Errorf("%d", h.Layers)
	}
	if math.IsNaN(h.Theta) || math.IsInf(h.Theta, 0) {
		return errors.Errorf("%f", h.Theta)
	}
	return nil
}

// ProbabilitySource measures a program in the computational basis.
type ProbabilitySource interface {
	Probabilities(h HSE) ([]float64, error)
}

// Statevector simulates the program exactly and returns |amp|^2.
type Statevector struct{}

func (Statevector) Probabilities(h HSE) ([]float64, error) {
	amps, err := h.run()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	p := make([]float64, len(amps))
	for i, a := range amps {
		p[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return p, nil
}

// Sampler draws Shots measurements from the exact distribution and returns their frequencies.
type Sampler struct {
	Shots int
	Seed  uint64
}

func (s Sampler) Probabilities(h HSE) ([]float64, error) {
	if s.Shots <= 0 {
		return nil, errors.Errorf("%d", s.Shots)
	}
	exact, err := Statevector{}.Probabilities(h)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	cdf := make([]float64, len(exact))
	floats.CumSum(cdf, exact)
	total := cdf[len(cdf)-1]

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
	counts := make([]float64, len(exact))
	for range s.Shots {
		i := sort.SearchFloat64s(cdf, rng.Float64()*total)
		counts[min(i, len(counts)-1)]++
	}
	floats.Scale(1/float64(s.Shots), counts)
	return counts, nil
}

// CompareBackends returns the L2 distance between the distributions of ideal and sampled.
func CompareBackends(ideal, sampled ProbabilitySource, h HSE) (float64, error) {
	p, err := ideal.Probabilities(h)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "ideal")
	}
	q, err := sampled.Probabilities(h)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "sampled")
	}
	d, err := qburgers.L2Distance(p, q)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "")
	}
	return d, nil
}

func (h HSE) run() ([]complex128, error) {
	if err := h.validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	s := newState(h.Qubits)
	for q := range h.Qubits {
		s.applyH(q)
	}
	for range h.Layers {
		for q := range h.Qubits {
			s.applyRX(q, h.Theta)
			s.applyCZ(q, (q+1)%h.Qubits)
		}
	}
	return s.amps, nil
}

type state struct {
	amps []complex128
	// buf is the scratch space of gates that mix amplitudes.
	buf []complex128
}

func newState(qubits int) *state {
	n := 1 << qubits
	s := &state{amps: make([]complex128, n), buf: make([]complex128, n)}
	s.amps[0] = 1
	return s
}

func (s *state) applyH(q int) {
	f := complex(1/math.Sqrt2, 0)
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			s.buf[i] = f * (s.amps[i] + s.amps[j])
			s.buf[j] = f * (s.amps[i] - s.amps[j])
		}
	}
	s.amps, s.buf = s.buf, s.amps
}

func (s *state) applyRX(q int, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	js := complex(0, -math.Sin(theta/2))
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			s.buf[i] = c*s.amps[i] + js*s.amps[j]
			s.buf[j] = js*s.amps[i] + c*s.amps[j]
		}
	}
	s.amps, s.buf = s.buf, s.amps
}

func (s *state) applyCZ(control, target int) {
	mask := 1<<control | 1<<target
	for i := range s.amps {
		if i&mask == mask {
			s.amps[i] = -s.amps[i]
		}
	}
}
