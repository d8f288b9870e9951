package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/qburgers/circuit"
	"github.com/fumin/qburgers/config"
	"github.com/fumin/qburgers/report"
)

func newCircuitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Run the gate level HSE circuit on the ideal and sampling backends",
		Long: `
Measures the HSE circuit exactly and with a finite number of shots, writes the two distributions
as quantum_hse_{ideal,noisy}_distribution.png, and prints their L2 distance.

run circuit --n 8 --dt 0.01 --layers 3 --shots 1024`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCircuit(a, cmd)
		},
	}
	def := config.Default()
	cmd.Flags().IntP("n", "n", 8, "number of grid points")
	cmd.Flags().Float64("dt", 0.01, "time step")
	cmd.Flags().Int("layers", def.Layers, "number of RX and CZ layers")
	cmd.Flags().Int("shots", def.Shots, "number of shots of the sampling backend")
	cmd.Flags().Uint64("seed", def.Seed, "seed of the sampling backend")
	return cmd
}

func runCircuit(a *app, cmd *cobra.Command) error {
	f := cmd.Flags()
	n, _ := f.GetInt("n")
	dt, _ := f.GetFloat64("dt")
	layers, _ := f.GetInt("layers")
	shots, _ := f.GetInt("shots")
	seed, _ := f.GetUint64("seed")

	h, err := circuit.NewHSE(n, dt, layers)
	if err != nil {
		return errors.Wrap(err, "")
	}
	ideal := circuit.Statevector{}
	sampler := circuit.Sampler{Shots: shots, Seed: seed}

	for _, b := range []struct {
		label  string
		source circuit.ProbabilitySource
	}{
		{label: "ideal", source: ideal},
		{label: "noisy", source: sampler},
	} {
		probs, err := b.source.Probabilities(h)
		if err != nil {
			return errors.Wrap(err, b.label)
		}
		png, err := report.Distribution(a.out(), b.label, probs)
		if err != nil {
			return errors.Wrap(err, b.label)
		}
		a.log.Info().Str("backend", b.label).Str("plot", png).Msg("distribution")
	}

	d, err := circuit.CompareBackends(ideal, sampler, h)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary(fmt.Sprintf("HSE circuit, %d qubits", h.Qubits),
		"layers", fmt.Sprintf("%d", h.Layers),
		"theta", fmt.Sprintf("%g", h.Theta),
		"shots", fmt.Sprintf("%d", shots),
		"l2 distance", fmt.Sprintf("%.6f", d),
	))
	return nil
}
