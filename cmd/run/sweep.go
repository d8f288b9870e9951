package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fumin/qburgers/compare"
	"github.com/fumin/qburgers/report"
)

// fnameParameters holds the parameters of the last sweep next to its table.
const fnameParameters = "sweep_parameters.yaml"

func newSweepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the comparison over several grid sizes",
		Long: `
Runs the comparison for every size of the sweep parameters, writing scaling_results.csv,
runtime_vs_N.png and l2_error_vs_N.png to the output directory, together with the parameters in
sweep_parameters.yaml. With --log-level debug the parameters are also printed.
Sizes whose snapshot already exists in the output directory are not solved again.

run sweep --config sweep.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(a, cmd)
		},
	}
	cmd.Flags().IntSlice("sizes", nil, "grid sizes, overriding the config file")
	cmd.Flags().Bool("fresh", false, "ignore existing snapshots")
	return cmd
}

func runSweep(a *app, cmd *cobra.Command) error {
	params := a.params
	if sizes, _ := cmd.Flags().GetIntSlice("sizes"); len(sizes) > 0 {
		params.Sizes = sizes
	}
	cfgs, err := compare.Configs(params)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if a.log.GetLevel() <= zerolog.DebugLevel {
		params.Print(cmd.OutOrStdout())
	}
	b, err := params.Marshal()
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.WriteFile(filepath.Join(a.out(), fnameParameters), b, 0644); err != nil {
		return errors.Wrap(err, "")
	}

	snapshots := a.out()
	if fresh, _ := cmd.Flags().GetBool("fresh"); fresh {
		snapshots = ""
	}
	results, err := compare.SweepDir(cmd.Context(), snapshots, cfgs, a.log)
	if err != nil {
		return errors.Wrap(err, "")
	}

	rows := compare.Rows(results)
	csvPath := filepath.Join(a.out(), compare.FnameResults)
	if err := compare.WriteCSV(csvPath, rows); err != nil {
		return errors.Wrap(err, "")
	}
	if err := plotScaling(a, rows); err != nil {
		return errors.Wrap(err, "")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, titleStyle.Render(params.Title))
	fmt.Fprintf(w, "%4s %3s %12s %12s %12s %12s %12s\n", "N", "T", "classical", "hse", "qtn", "l2 hse", "l2 qtn")
	for _, r := range rows {
		fmt.Fprintf(w, "%4d %3d %12.6f %12.6f %12.6f %12.6f %12.6f\n", r.N, r.T, r.TimeClassical, r.TimeHSE, r.TimeQTN, r.ErrHSE, r.ErrQTN)
	}
	fmt.Fprintln(w, summary("", "table", csvPath))
	return nil
}

func plotScaling(a *app, rows []compare.Row) error {
	runtime, err := report.Runtime(a.out(), rows)
	if err != nil {
		return errors.Wrap(err, "")
	}
	errs, err := report.Errors(a.out(), rows)
	if err != nil {
		return errors.Wrap(err, "")
	}
	a.log.Info().Str("runtime", runtime).Str("errors", errs).Msg("plots")
	return nil
}
