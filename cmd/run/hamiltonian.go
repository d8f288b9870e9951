package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/qburgers"
	"github.com/fumin/qburgers/mat"
)

func newHamiltonianCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hamiltonian",
		Short: "Write the discretized diffusion Hamiltonian as COO flat files",
		Long: `
Writes shape.csv and coo.csv for the Hamiltonian of a grid of n points.
By default the entries are streamed without assembling the matrix, --disk assembles it in a
temporary sqlite database first.

run hamiltonian --n 8 --dir out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHamiltonian(a, cmd)
		},
	}
	cmd.Flags().IntP("n", "n", 8, "number of grid points")
	cmd.Flags().Float64("nu", qburgers.DefaultNu, "viscosity")
	cmd.Flags().String("boundary", qburgers.BoundaryZeroRows.String(), "boundary rows: zero-rows or dirichlet")
	cmd.Flags().String("dir", "", "output directory (default <out>/hamiltonian)")
	cmd.Flags().Bool("disk", false, "assemble in a sqlite database before writing")
	return cmd
}

func runHamiltonian(a *app, cmd *cobra.Command) error {
	f := cmd.Flags()
	n, _ := f.GetInt("n")
	nu, _ := f.GetFloat64("nu")
	disk, _ := f.GetBool("disk")
	boundaryS, _ := f.GetString("boundary")
	boundary, err := qburgers.ParseBoundary(boundaryS)
	if err != nil {
		return errors.Wrap(err, "")
	}
	dir, _ := f.GetString("dir")
	if dir == "" {
		dir = filepath.Join(a.out(), "hamiltonian")
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}

	if !disk {
		if err := qburgers.HamiltonianExplicit(dir, n, nu, boundary); err != nil {
			return errors.Wrap(err, "")
		}
		a.log.Info().Str("dir", dir).Int("n", n).Msg("hamiltonian")
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "")
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer os.RemoveAll(tmpDir)
	h, err := mat.NewDiskMatrix(filepath.Join(tmpDir, "h.db"), [][]complex128{{0}})
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer h.Close()
	buf, err := mat.NewDiskMatrix(filepath.Join(tmpDir, "buf.db"), [][]complex128{{0}})
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer buf.Close()

	if err := qburgers.Hamiltonian(h, buf, n, nu, boundary); err != nil {
		return errors.Wrap(err, "")
	}
	if err := h.WriteCOO(dir); err != nil {
		return errors.Wrap(err, "")
	}
	a.log.Info().Str("dir", dir).Int("n", n).Int("nonzero", h.NumNonZero()).Msg("hamiltonian")
	return nil
}
