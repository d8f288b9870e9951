package circuit

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestNewHSE(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n      int
		qubits int
	}{
		{n: 4, qubits: 2},
		{n: 5, qubits: 3},
		{n: 8, qubits: 3},
		{n: 32, qubits: 5},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.n), func(t *testing.T) {
			t.Parallel()
			h, err := NewHSE(test.n, 0.01, 3)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if h.Qubits != test.qubits {
				t.Fatalf("%d, expected %d", h.Qubits, test.qubits)
			}
			if h.Theta != -0.01 {
				t.Fatalf("%f", h.Theta)
			}
		})
	}
}

func TestNewHSEInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n      int
		layers int
	}{
		{n: 0, layers: 1},
		{n: 2, layers: 1},
		{n: 8, layers: -1},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test), func(t *testing.T) {
			t.Parallel()
			if _, err := NewHSE(test.n, 0.01, test.layers); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestStatevector(t *testing.T) {
	t.Parallel()
	tests := []struct {
		h     HSE
		probs []float64
	}{
		// Without layers, the state is the uniform superposition.
		{h: HSE{Qubits: 3, Theta: -0.3, Layers: 0}, probs: []float64{0.125, 0.125, 0.125, 0.125, 0.125, 0.125, 0.125, 0.125}},
		// CZ only changes phases.
		{h: HSE{Qubits: 2, Theta: 0, Layers: 4}, probs: []float64{0.25, 0.25, 0.25, 0.25}},
		{h: HSE{Qubits: 2, Theta: -1, Layers: 2}, probs: []float64{0.427018354568, 0.072981645432, 0.427018354568, 0.072981645432}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test.h), func(t *testing.T) {
			t.Parallel()
			probs, err := Statevector{}.Probabilities(test.h)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !floats.EqualApprox(probs, test.probs, 1e-9) {
				t.Fatalf("%v, expected %v", probs, test.probs)
			}
		})
	}
}

func TestStatevectorNorm(t *testing.T) {
	t.Parallel()
	for _, qubits := range []int{2, 3, 5, 8} {
		t.Run(fmt.Sprintf("%d", qubits), func(t *testing.T) {
			t.Parallel()
			probs, err := Statevector{}.Probabilities(HSE{Qubits: qubits, Theta: -0.7, Layers: 5})
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if len(probs) != 1<<qubits {
				t.Fatalf("%d", len(probs))
			}
			if math.Abs(floats.Sum(probs)-1) > 1e-12 {
				t.Fatalf("%f", floats.Sum(probs))
			}
		})
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()
	h, err := NewHSE(8, 0.5, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	sampler := Sampler{Shots: 20000, Seed: 1}
	probs, err := sampler.Probabilities(h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(floats.Sum(probs)-1) > 1e-12 {
		t.Fatalf("%f", floats.Sum(probs))
	}
	for i, p := range probs {
		if count := p * float64(sampler.Shots); math.Abs(count-math.Round(count)) > 1e-6 {
			t.Fatalf("%d %f", i, p)
		}
	}

	// Sampling is deterministic given the seed.
	again, err := sampler.Probabilities(h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !floats.Equal(probs, again) {
		t.Fatalf("%v, expected %v", again, probs)
	}

	d, err := CompareBackends(Statevector{}, sampler, h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if d < 0 || d > 0.05 {
		t.Fatalf("%f", d)
	}
	d, err = CompareBackends(Statevector{}, Statevector{}, h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if d != 0 {
		t.Fatalf("%f", d)
	}
}

func TestSamplerInvalid(t *testing.T) {
	t.Parallel()
	h := HSE{Qubits: 2, Theta: -0.1, Layers: 1}
	if _, err := (Sampler{Shots: 0}).Probabilities(h); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := (Sampler{Shots: 10}).Probabilities(HSE{Qubits: 1}); err == nil {
		t.Fatalf("expected error")
	}
}
