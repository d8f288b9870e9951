package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/qburgers"
	"github.com/fumin/qburgers/compare"
	"github.com/fumin/qburgers/mps"
	"github.com/fumin/qburgers/report"
)

func newCompareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the HSE, QTN and classical solvers on one grid",
		Long: `
Solves the Burgers' equation from a step profile with every method, prints terminal previews,
and writes comparison_N{N}.png and comparison_N{N}.msgpack to the output directory.

run compare --n 16 --steps 3 --dt 0.01 --nu 0.01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := compareConfig(cmd)
			if err != nil {
				return errors.Wrap(err, "")
			}
			return runCompare(a, cmd, cfg)
		},
	}

	def := compare.DefaultConfig(16)
	cmd.Flags().IntP("n", "n", def.N, "number of grid points")
	cmd.Flags().IntP("steps", "t", def.Steps, "number of time steps")
	cmd.Flags().Float64("dt", def.Dt, "time step")
	cmd.Flags().Float64("nu", def.Nu, "viscosity")
	cmd.Flags().Float64("shock", def.Shock, "position of the initial step")
	cmd.Flags().String("boundary", def.Boundary.String(), "Hamiltonian boundary rows: zero-rows or dirichlet")
	cmd.Flags().String("split", def.Split.String(), "two site split: column or svd")
	cmd.Flags().Float64("mix", def.Mix, "off diagonal weight of the two site gate")
	return cmd
}

func compareConfig(cmd *cobra.Command) (compare.Config, error) {
	f := cmd.Flags()
	cfg := compare.Config{}
	cfg.N, _ = f.GetInt("n")
	cfg.Steps, _ = f.GetInt("steps")
	cfg.Dt, _ = f.GetFloat64("dt")
	cfg.Nu, _ = f.GetFloat64("nu")
	cfg.Shock, _ = f.GetFloat64("shock")
	cfg.Mix, _ = f.GetFloat64("mix")

	var err error
	boundary, _ := f.GetString("boundary")
	if cfg.Boundary, err = qburgers.ParseBoundary(boundary); err != nil {
		return compare.Config{}, errors.Wrap(err, "")
	}
	split, _ := f.GetString("split")
	if cfg.Split, err = mps.ParseSplit(split); err != nil {
		return compare.Config{}, errors.Wrap(err, "")
	}
	return cfg, nil
}

func runCompare(a *app, cmd *cobra.Command, cfg compare.Config) error {
	r, err := compare.Run(cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	a.log.Info().Int("n", r.N).Dur("classical", r.TimeClassical).Dur("hse", r.TimeHSE).Dur("qtn", r.TimeQTN).Msg("compare")

	w := cmd.OutOrStdout()
	for _, f := range []struct {
		name  string
		field []float64
	}{
		{name: "classical", field: r.Classical},
		{name: "hse", field: r.HSE},
		{name: "qtn", field: r.QTN},
	} {
		fmt.Fprintln(w, report.ASCII(f.field, f.name))
		fmt.Fprintln(w)
	}

	if err := compare.WriteSnapshot(a.out(), r); err != nil {
		return errors.Wrap(err, "")
	}
	png, err := report.Comparison(a.out(), r)
	if err != nil {
		return errors.Wrap(err, "")
	}

	fmt.Fprintln(w, summary(fmt.Sprintf("N=%d T=%d dt=%g", r.N, r.Steps, r.Dt),
		"time classical", r.TimeClassical.String(),
		"time hse", r.TimeHSE.String(),
		"time qtn", r.TimeQTN.String(),
		"l2 error hse", fmt.Sprintf("%.6f", r.ErrHSE),
		"l2 error qtn", fmt.Sprintf("%.6f", r.ErrQTN),
		"plot", png,
	))
	return nil
}
