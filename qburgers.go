// Package qburgers compares quantum inspired approximations of the 1D viscous Burgers' equation
// against a classical finite difference reference.
package qburgers

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/qburgers/mat"
)

const (
	// DefaultShock is the position of the step in the initial velocity profile.
	DefaultShock = 0.5
	// DefaultNu is the default viscosity.
	DefaultNu = 0.01
)

// Boundary selects the rows of the Hamiltonian at the two ends of the domain.
type Boundary int

const (
	// BoundaryZeroRows leaves the first and last rows empty.
	// The resulting matrix is not Hermitian, and evolution under it does not exactly preserve norms.
	BoundaryZeroRows Boundary = iota
	// BoundaryDirichlet truncates the stencil at the two ends, producing a real symmetric matrix.
	BoundaryDirichlet
)

func (b Boundary) String() string {
	switch b {
	case BoundaryZeroRows:
		return "zero-rows"
	case BoundaryDirichlet:
		return "dirichlet"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// ParseBoundary is the inverse of Boundary.String.
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", BoundaryZeroRows.String():
		return BoundaryZeroRows, nil
	case BoundaryDirichlet.String():
		return BoundaryDirichlet, nil
	default:
		return -1, errors.Errorf("unknown boundary %q", s)
	}
}

// Positions returns the grid x_i = i/n.
func Positions(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i) / float64(n)
	}
	return x
}

// StepField returns the initial velocity, which is 1 left of shock and 0 elsewhere.
func StepField(n int, shock float64) []float64 {
	u := make([]float64, n)
	for i, x := range Positions(n) {
		if x < shock {
			u[i] = 1
		}
	}
	return u
}

// Hamiltonian assembles into h the discretized diffusion operator nu/dx^2 * tridiag(-1, 2, -1).
// buf is a scratch matrix of the same kind as h.
func Hamiltonian(h, buf mat.Matrix, n int, nu float64, boundary Boundary) error {
	if err := checkGrid(n, nu); err != nil {
		return errors.Wrap(err, "")
	}
	scale := diffusionScale(n, nu)

	h.Zeros(n, n)
	row := make([]mat.Entry, 0, 3)
	for i := range n {
		row = stencil(row[:0], n, i, boundary)
		if len(row) == 0 {
			continue
		}
		buf.Zeros(n, n)
		for _, e := range row {
			buf.Set(e.Row, e.Col, e.V)
		}
		h.Add(scale, buf)
	}
	return nil
}

// HamiltonianExplicit writes the Hamiltonian directly to a COO directory without assembling it.
func HamiltonianExplicit(dir string, n int, nu float64, boundary Boundary) error {
	if err := checkGrid(n, nu); err != nil {
		return errors.Wrap(err, "")
	}
	scale := diffusionScale(n, nu)

	w, err := mat.NewCOOWriter(dir, n, n)
	if err != nil {
		return errors.Wrap(err, "")
	}
	row := make([]mat.Entry, 0, 3)
Loop:
	for i := range n {
		row = stencil(row[:0], n, i, boundary)
		for _, e := range row {
			e.V *= scale
			if err := w.Write(e); err != nil {
				break Loop
			}
		}
	}
	return w.Close()
}

func diffusionScale(n int, nu float64) complex128 {
	dx := 1 / float64(n)
	return complex(nu/(dx*dx), 0)
}

// stencil appends the unscaled entries of row i in column order.
func stencil(row []mat.Entry, n, i int, boundary Boundary) []mat.Entry {
	interior := i >= 1 && i <= n-2
	if !interior && boundary == BoundaryZeroRows {
		return row
	}
	if i-1 >= 0 {
		row = append(row, mat.Entry{Row: i, Col: i - 1, V: -1})
	}
	row = append(row, mat.Entry{Row: i, Col: i, V: 2})
	if i+1 <= n-1 {
		row = append(row, mat.Entry{Row: i, Col: i + 1, V: -1})
	}
	return row
}

func checkGrid(n int, nu float64) error {
	if n <= 2 {
		return errors.Errorf("grid too small %d", n)
	}
	if math.IsNaN(nu) || math.IsInf(nu, 0) || nu < 0 {
		return errors.Errorf("invalid viscosity %f", nu)
	}
	return nil
}

// RMSError returns sqrt(sum((approx-exact)^2) / n).
// Tables and plots call this the L2 error.
func RMSError(approx, exact []float64) (float64, error) {
	d, err := L2Distance(approx, exact)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "")
	}
	return d / math.Sqrt(float64(len(approx))), nil
}

// L2Distance returns the Euclidean distance sqrt(sum((a-b)^2)).
func L2Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return math.NaN(), errors.Errorf("%d %d", len(a), len(b))
	}
	if len(a) == 0 {
		return math.NaN(), errors.Errorf("empty")
	}
	for i := range a {
		if !finite(a[i]) || !finite(b[i]) {
			return math.NaN(), errors.Errorf("%d %f %f", i, a[i], b[i])
		}
	}
	return floats.Distance(a, b, 2), nil
}

// Upwind solves the Burgers' equation with first order upwind convection and central diffusion.
// Only interior points are updated, the two boundary values stay fixed.
func Upwind(field []float64, steps int, dt, nu float64) ([]float64, error) {
	n := len(field)
	if err := checkGrid(n, nu); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if steps < 0 {
		return nil, errors.Errorf("%d", steps)
	}
	dx := 1 / float64(n)

	u := make([]float64, n)
	copy(u, field)
	next := make([]float64, n)
	for range steps {
		copy(next, u)
		for i := 1; i < n-1; i++ {
			convection := u[i] * (u[i] - u[i-1]) / dx
			diffusion := nu * (u[i+1] - 2*u[i] + u[i-1]) / (dx * dx)
			next[i] = u[i] - dt*convection + dt*diffusion
		}
		u, next = next, u
	}
	return u, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
