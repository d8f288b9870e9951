// Package report draws the comparison results as PNG files and terminal previews.
package report

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/fumin/qburgers/compare"
)

const (
	FnameRuntime = "runtime_vs_N.png"
	FnameErrors  = "l2_error_vs_N.png"

	width  = 8 * vg.Inch
	height = 5 * vg.Inch
)

// Comparison plots the fields of every method against x, and returns the path of the image in dir.
func Comparison(dir string, r compare.Result) (string, error) {
	if len(r.X) == 0 {
		return "", errors.Errorf("empty result")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Burgers equation: N=%d, T=%d", r.N, r.Steps)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "u(x)"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	lines := []interface{}{
		"Initial", xys(r.X, r.Initial),
		"Classical", xys(r.X, r.Classical),
		"HSE", xys(r.X, r.HSE),
		"QTN", xys(r.X, r.QTN),
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return "", errors.Wrap(err, "")
	}

	fpath := filepath.Join(dir, fmt.Sprintf("comparison_N%d.png", r.N))
	if err := p.Save(width, height, fpath); err != nil {
		return "", errors.Wrap(err, "")
	}
	return fpath, nil
}

// Runtime plots the wall clock time of every method against N.
func Runtime(dir string, rows []compare.Row) (string, error) {
	return scaling(filepath.Join(dir, FnameRuntime), "Runtime vs grid size", "time (s)", rows, []series{
		{name: "Classical", y: func(r compare.Row) float64 { return r.TimeClassical }},
		{name: "HSE", y: func(r compare.Row) float64 { return r.TimeHSE }},
		{name: "QTN", y: func(r compare.Row) float64 { return r.TimeQTN }},
	})
}

// Errors plots the error of the quantum inspired methods against N.
func Errors(dir string, rows []compare.Row) (string, error) {
	return scaling(filepath.Join(dir, FnameErrors), "L2 error vs grid size", "L2 error", rows, []series{
		{name: "HSE", y: func(r compare.Row) float64 { return r.ErrHSE }},
		{name: "QTN", y: func(r compare.Row) float64 { return r.ErrQTN }},
	})
}

type series struct {
	name string
	y    func(compare.Row) float64
}

func scaling(fpath, title, yLabel string, rows []compare.Row, ss []series) (string, error) {
	if len(rows) == 0 {
		return "", errors.Errorf("no rows")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "N"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	lines := make([]interface{}, 0, 2*len(ss))
	for _, s := range ss {
		pts := make(plotter.XYs, 0, len(rows))
		for _, r := range rows {
			pts = append(pts, plotter.XY{X: float64(r.N), Y: s.y(r)})
		}
		lines = append(lines, s.name, pts)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return "", errors.Wrap(err, "")
	}

	if err := p.Save(width, height, fpath); err != nil {
		return "", errors.Wrap(err, "")
	}
	return fpath, nil
}

// Distribution draws the measured probability of each basis state as a bar chart.
func Distribution(dir, label string, probs []float64) (string, error) {
	if len(probs) == 0 {
		return "", errors.Errorf("empty distribution")
	}
	bars, err := plotter.NewBarChart(plotter.Values(probs), vg.Points(12))
	if err != nil {
		return "", errors.Wrap(err, "")
	}
	bars.Color = plotutil.Color(0)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Quantum HSE %s distribution", label)
	p.Y.Label.Text = "probability"
	p.Add(bars)

	names := make([]string, len(probs))
	digits := len(strconv.FormatInt(int64(len(probs)-1), 2))
	for i := range probs {
		names[i] = fmt.Sprintf("%0*b", digits, i)
	}
	p.NominalX(names...)

	fpath := filepath.Join(dir, fmt.Sprintf("quantum_hse_%s_distribution.png", label))
	if err := p.Save(width, height, fpath); err != nil {
		return "", errors.Wrap(err, "")
	}
	return fpath, nil
}

// ASCII renders field as a terminal line chart.
func ASCII(field []float64, caption string) string {
	if len(field) == 0 {
		return caption
	}
	return asciigraph.Plot(field,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range min(len(x), len(y)) {
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}
