package hse

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/fumin/qburgers"
	qmat "github.com/fumin/qburgers/mat"
)

func hamiltonian(t *testing.T, n int, nu float64, boundary qburgers.Boundary) *qmat.COO {
	h := qmat.COOZeros(1, 1)
	if err := qburgers.Hamiltonian(h, qmat.COOZeros(1, 1), n, nu, boundary); err != nil {
		t.Fatalf("%+v", err)
	}
	return h
}

func TestNewState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		field []float64
	}{
		{field: qburgers.StepField(8, qburgers.DefaultShock)},
		{field: []float64{0, 0, 0}},
		{field: []float64{0.25, 0.5, 1}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.field), func(t *testing.T) {
			t.Parallel()
			psi, err := NewState(test.field)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(psi.Norm()-1) > 1e-12 {
				t.Fatalf("%f", psi.Norm())
			}
			// Amplitudes keep the ordering of the field.
			for i := 1; i < len(test.field); i++ {
				if (test.field[i] > test.field[i-1]) != (real(psi.At(i)) > real(psi.At(i-1))) {
					t.Fatalf("%v %v", test.field, psi.Amplitudes())
				}
			}
		})
	}
}

func TestNewStateInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		field []float64
	}{
		{field: nil},
		{field: []float64{0.5, -0.1}},
		{field: []float64{1.5}},
		{field: []float64{math.NaN()}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.field), func(t *testing.T) {
			t.Parallel()
			if _, err := NewState(test.field); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestUnitarity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n     int
		dt    float64
		nu    float64
		steps int
	}{
		{n: 8, dt: 0.01, nu: 0.01, steps: 1},
		{n: 16, dt: 0.01, nu: 0.01, steps: 3},
		{n: 32, dt: 0.01, nu: 0.01, steps: 3},
		{n: 16, dt: 0.1, nu: 0.1, steps: 5},
		{n: 32, dt: 0.001, nu: 1, steps: 10},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			h := hamiltonian(t, test.n, test.nu, qburgers.BoundaryDirichlet)
			evolver, err := NewEvolver(h, test.dt)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			psi, err := NewState(qburgers.StepField(test.n, qburgers.DefaultShock))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			evolved, err := evolver.Evolve(psi, test.steps)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if diff := math.Abs(evolved.Norm() - psi.Norm()); diff > 1e-6 {
				t.Fatalf("%g %g", evolved.Norm(), psi.Norm())
			}

			// U U^dagger = I.
			n := evolver.Dim()
			for i := range n {
				for j := range n {
					var v complex128
					for k := range n {
						v += evolver.Propagator(i, k) * cmplx.Conj(evolver.Propagator(j, k))
					}
					var expected complex128
					if i == j {
						expected = 1
					}
					if cmplx.Abs(v-expected) > 1e-9 {
						t.Fatalf("%d %d %v", i, j, v)
					}
				}
			}
		})
	}
}

func TestComposability(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n        int
		boundary qburgers.Boundary
		t1       int
		t2       int
	}{
		{n: 8, boundary: qburgers.BoundaryZeroRows, t1: 1, t2: 3},
		{n: 16, boundary: qburgers.BoundaryZeroRows, t1: 2, t2: 7},
		{n: 16, boundary: qburgers.BoundaryDirichlet, t1: 0, t2: 4},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			h := hamiltonian(t, test.n, 0.01, test.boundary)
			evolver, err := NewEvolver(h, 0.01)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			psi, err := NewState(qburgers.StepField(test.n, qburgers.DefaultShock))
			if err != nil {
				t.Fatalf("%+v", err)
			}

			direct, err := evolver.Evolve(psi, test.t2)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			first, err := evolver.Evolve(psi, test.t1)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			composed, err := evolver.Evolve(first, test.t2-test.t1)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			for i := range direct.Len() {
				if cmplx.Abs(direct.At(i)-composed.At(i)) > 1e-12 {
					t.Fatalf("%d %v %v", i, direct.At(i), composed.At(i))
				}
			}
		})
	}
}

func TestZeroRowsPropagator(t *testing.T) {
	t.Parallel()
	const n = 8
	h := hamiltonian(t, n, 0.01, qburgers.BoundaryZeroRows)
	evolver, err := NewEvolver(h, 0.01)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Rows of H that are zero leave the corresponding amplitude untouched.
	for _, i := range []int{0, n - 1} {
		for j := range n {
			var expected complex128
			if i == j {
				expected = 1
			}
			if v := evolver.Propagator(i, j); cmplx.Abs(v-expected) > 1e-12 {
				t.Fatalf("%d %d %v", i, j, v)
			}
		}
	}

	psi, err := NewState(qburgers.StepField(n, qburgers.DefaultShock))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	evolved, err := evolver.Step(psi)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if cmplx.Abs(evolved.At(0)-psi.At(0)) > 1e-12 {
		t.Fatalf("%v %v", evolved.At(0), psi.At(0))
	}
	if psi.At(0) == evolved.At(0) && psi.At(3) == evolved.At(3) {
		t.Fatalf("state did not move")
	}
}

func TestPadeMatchesEigen(t *testing.T) {
	t.Parallel()
	const n, dt = 12, 0.05
	h := hamiltonian(t, n, 0.05, qburgers.BoundaryDirichlet)
	hd, err := h.RealDense()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	eig, err := eigenPropagator(hd, dt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	pade, err := padePropagator(hd, dt)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i := range eig {
		if cmplx.Abs(eig[i]-pade[i]) > 1e-10 {
			t.Fatalf("%d %v %v", i, eig[i], pade[i])
		}
	}
}

func TestStepDimension(t *testing.T) {
	t.Parallel()
	evolver, err := NewEvolver(hamiltonian(t, 8, 0.01, qburgers.BoundaryZeroRows), 0.01)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	psi, err := NewState([]float64{1, 0, 0})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := evolver.Step(psi); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	const n = 16
	field := qburgers.StepField(n, qburgers.DefaultShock)
	u, err := Run(field, 3, 0.01, 0.01, qburgers.BoundaryZeroRows)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(u) != n {
		t.Fatalf("%d", len(u))
	}
	var total float64
	for i, v := range u {
		if v < 0 {
			t.Fatalf("%d %f", i, v)
		}
		total += v
	}
	// The readout is a probability distribution, up to the drift of the zero row boundary.
	if math.Abs(total-1) > 1e-2 {
		t.Fatalf("%f", total)
	}
}
