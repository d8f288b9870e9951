package qburgers

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"testing"

	"github.com/fumin/qburgers/mat"
)

func TestHamiltonian(t *testing.T) {
	t.Parallel()
	type matrixSlice struct {
		y [2]int
		x [2]int
		s *mat.COO
	}
	tests := []struct {
		n           int
		nu          float64
		boundary    Boundary
		hamiltonian []matrixSlice
	}{
		{
			n:        8,
			nu:       1.0 / 64,
			boundary: BoundaryZeroRows,
			hamiltonian: []matrixSlice{
				{
					y: [2]int{0, 8},
					x: [2]int{0, 8},
					s: mat.M([][]complex128{
						{0, 0, 0, 0, 0, 0, 0, 0},
						{-1, 2, -1, 0, 0, 0, 0, 0},
						{0, -1, 2, -1, 0, 0, 0, 0},
						{0, 0, -1, 2, -1, 0, 0, 0},
						{0, 0, 0, -1, 2, -1, 0, 0},
						{0, 0, 0, 0, -1, 2, -1, 0},
						{0, 0, 0, 0, 0, -1, 2, -1},
						{0, 0, 0, 0, 0, 0, 0, 0},
					}),
				},
			},
		},
		{
			n:        4,
			nu:       1.0 / 16,
			boundary: BoundaryDirichlet,
			hamiltonian: []matrixSlice{
				{
					y: [2]int{0, 4},
					x: [2]int{0, 4},
					s: mat.M([][]complex128{
						{2, -1, 0, 0},
						{-1, 2, -1, 0},
						{0, -1, 2, -1},
						{0, 0, -1, 2},
					}),
				},
			},
		},
		{
			n:        64,
			nu:       1.0 / 4096,
			boundary: BoundaryZeroRows,
			hamiltonian: []matrixSlice{
				{
					y: [2]int{-3, 64},
					x: [2]int{-4, 64},
					s: mat.M([][]complex128{
						{-1, 2, -1, 0},
						{0, -1, 2, -1},
						{0, 0, 0, 0},
					}),
				},
				{
					y: [2]int{0, 3},
					x: [2]int{-4, 64},
					s: mat.COOZeros(3, 4),
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %s", test.n, test.boundary), func(t *testing.T) {
			t.Parallel()
			hamiltonian := mat.COOZeros(1, 1)
			buf := mat.COOZeros(1, 1)
			if err := Hamiltonian(hamiltonian, buf, test.n, test.nu, test.boundary); err != nil {
				t.Fatalf("%+v", err)
			}
			if !(hamiltonian.Rows() == test.n && hamiltonian.Cols() == test.n) {
				t.Fatalf("%d %d, expected %d", hamiltonian.Rows(), hamiltonian.Cols(), test.n)
			}
			for _, th := range test.hamiltonian {
				s := hamiltonian.Slice(th.y, th.x)
				if !s.Equal(th.s) {
					t.Fatalf("%s, expected %s", s, th.s)
				}
			}
		})
	}
}

func TestHamiltonianScale(t *testing.T) {
	t.Parallel()
	const n = 8
	const nu = 0.01
	h := mat.COOZeros(1, 1)
	if err := Hamiltonian(h, mat.COOZeros(1, 1), n, nu, BoundaryZeroRows); err != nil {
		t.Fatalf("%+v", err)
	}

	for j := range n {
		if v := h.At(0, j); v != 0 {
			t.Fatalf("row 0 col %d %v", j, v)
		}
		if v := h.At(n-1, j); v != 0 {
			t.Fatalf("row %d col %d %v", n-1, j, v)
		}
	}
	const scale = 0.64
	for i := 1; i < n-1; i++ {
		expected := map[int]float64{i - 1: -scale, i: 2 * scale, i + 1: -scale}
		for j := range n {
			v := h.At(i, j)
			if imag(v) != 0 || math.Abs(real(v)-expected[j]) > 1e-12 {
				t.Fatalf("%d %d %v, expected %f", i, j, v, expected[j])
			}
		}
	}
	if h.Symmetric() {
		t.Fatalf("zero boundary rows should break symmetry")
	}
}

func TestHamiltonianDisk(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	h := mat.DiskM(filepath.Join(dir, "h.db"), [][]complex128{{0}})
	defer h.Close()
	buf := mat.DiskM(filepath.Join(dir, "buf.db"), [][]complex128{{0}})
	defer buf.Close()

	const n, nu = 6, 0.02
	if err := Hamiltonian(h, buf, n, nu, BoundaryZeroRows); err != nil {
		t.Fatalf("%+v", err)
	}
	expected := mat.COOZeros(1, 1)
	if err := Hamiltonian(expected, mat.COOZeros(1, 1), n, nu, BoundaryZeroRows); err != nil {
		t.Fatalf("%+v", err)
	}
	if !h.COO().Equal(expected) {
		t.Fatalf("%s, expected %s", h.COO(), expected)
	}
	if h.NumNonZero() != 3*(n-2) {
		t.Fatalf("%d", h.NumNonZero())
	}
}

func TestHamiltonianExplicit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n        int
		nu       float64
		boundary Boundary
	}{
		{n: 8, nu: 0.01, boundary: BoundaryZeroRows},
		{n: 16, nu: 0.03, boundary: BoundaryDirichlet},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			if err := HamiltonianExplicit(dir, test.n, test.nu, test.boundary); err != nil {
				t.Fatalf("%+v", err)
			}
			explicit, err := mat.ReadCOO(dir)
			if err != nil {
				t.Fatalf("%+v", err)
			}

			expected := mat.COOZeros(1, 1)
			if err := Hamiltonian(expected, mat.COOZeros(1, 1), test.n, test.nu, test.boundary); err != nil {
				t.Fatalf("%+v", err)
			}
			if !explicit.Equal(expected) {
				t.Fatalf("%s, expected %s", explicit, expected)
			}
		})
	}
}

func TestHamiltonianInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n  int
		nu float64
	}{
		{n: 2, nu: 0.01},
		{n: 0, nu: 0.01},
		{n: 8, nu: math.NaN()},
		{n: 8, nu: -1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			if err := Hamiltonian(mat.COOZeros(1, 1), mat.COOZeros(1, 1), test.n, test.nu, BoundaryZeroRows); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestStepField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n     int
		field []float64
	}{
		{n: 8, field: []float64{1, 1, 1, 1, 0, 0, 0, 0}},
		{n: 5, field: []float64{1, 1, 1, 0, 0}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.n), func(t *testing.T) {
			t.Parallel()
			field := StepField(test.n, DefaultShock)
			if !slices.Equal(field, test.field) {
				t.Fatalf("%v, expected %v", field, test.field)
			}
		})
	}
}

func TestParseBoundary(t *testing.T) {
	t.Parallel()
	for _, b := range []Boundary{BoundaryZeroRows, BoundaryDirichlet} {
		parsed, err := ParseBoundary(b.String())
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if parsed != b {
			t.Fatalf("%s, expected %s", parsed, b)
		}
	}
	if b, err := ParseBoundary(""); err != nil || b != BoundaryZeroRows {
		t.Fatalf("%s %+v", b, err)
	}
	if _, err := ParseBoundary("periodic"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRMSError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a   []float64
		b   []float64
		rms float64
		l2  float64
	}{
		{a: []float64{0.3, 1, -2}, b: []float64{0.3, 1, -2}, rms: 0, l2: 0},
		{a: []float64{1, 1, 1, 1}, b: []float64{0, 0, 0, 0}, rms: 1, l2: 2},
		{a: []float64{3, 0}, b: []float64{0, 4}, rms: 5 / math.Sqrt2, l2: 5},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.a, test.b), func(t *testing.T) {
			t.Parallel()
			rms, err := RMSError(test.a, test.b)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(rms-test.rms) > 1e-12 {
				t.Fatalf("%f, expected %f", rms, test.rms)
			}
			rmsReverse, err := RMSError(test.b, test.a)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if rmsReverse != rms {
				t.Fatalf("%f, expected %f", rmsReverse, rms)
			}
			l2, err := L2Distance(test.a, test.b)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if math.Abs(l2-test.l2) > 1e-12 {
				t.Fatalf("%f, expected %f", l2, test.l2)
			}
		})
	}
}

func TestRMSErrorInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a []float64
		b []float64
	}{
		{a: []float64{1, 2}, b: []float64{1}},
		{a: []float64{}, b: []float64{}},
		{a: []float64{math.Inf(1)}, b: []float64{0}},
		{a: []float64{0}, b: []float64{math.NaN()}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.a, test.b), func(t *testing.T) {
			t.Parallel()
			if _, err := RMSError(test.a, test.b); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestUpwind(t *testing.T) {
	t.Parallel()
	const n, dt, nu = 8, 0.01, 0.01
	field := StepField(n, DefaultShock)

	u, err := Upwind(field, 1, dt, nu)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	dx := 1.0 / n
	expected := slices.Clone(field)
	// Only the two points next to the step move in the first step.
	expected[3] = 1 - dt*nu*1/(dx*dx)
	expected[4] = 0 - dt*0 + dt*nu*1/(dx*dx)
	for i := range u {
		if math.Abs(u[i]-expected[i]) > 1e-12 {
			t.Fatalf("%v, expected %v", u, expected)
		}
	}

	u, err = Upwind(field, 5, dt, nu)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if u[0] != field[0] || u[n-1] != field[n-1] {
		t.Fatalf("boundary moved %v", u)
	}
	if field[3] != 1 {
		t.Fatalf("input mutated %v", field)
	}
}
