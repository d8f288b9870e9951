package main

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/qburgers/compare"
)

func newPlotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the scaling plots of an existing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			csvPath, _ := cmd.Flags().GetString("csv")
			if csvPath == "" {
				csvPath = filepath.Join(a.out(), compare.FnameResults)
			}
			rows, err := compare.ReadCSV(csvPath)
			if err != nil {
				return errors.Wrap(err, "")
			}
			return plotScaling(a, rows)
		},
	}
	cmd.Flags().String("csv", "", "scaling table (default <out>/"+compare.FnameResults+")")
	return cmd
}
