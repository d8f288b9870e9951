// Package config holds the parameters of a comparison sweep, read from a YAML file.
package config

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/fumin/qburgers"
	"github.com/fumin/qburgers/mps"
)

// Parameters obtained from the YAML input file
type Parameters struct {
	Title    string  `json:"Title"`
	Sizes    []int   `json:"Sizes"` // Grid sizes N of the sweep
	Steps    int     `json:"Steps"`
	Dt       float64 `json:"Dt"`
	Nu       float64 `json:"Nu"`
	Shock    float64 `json:"Shock"`
	Boundary string  `json:"Boundary"` // zero-rows or dirichlet
	Split    string  `json:"Split"`    // column or svd
	Mix      float64 `json:"Mix"`
	Layers   int     `json:"Layers"`
	Shots    int     `json:"Shots"`
	Seed     uint64  `json:"Seed"`
	Output   string  `json:"Output"`
}

// Default returns the parameters of the reference scaling study.
func Default() Parameters {
	return Parameters{
		Title:    "Burgers scaling study",
		Sizes:    []int{8, 16, 32, 64},
		Steps:    3,
		Dt:       0.01,
		Nu:       qburgers.DefaultNu,
		Shock:    qburgers.DefaultShock,
		Boundary: qburgers.BoundaryZeroRows.String(),
		Split:    mps.SplitColumn.String(),
		Mix:      mps.DefaultMix,
		Layers:   3,
		Shots:    1024,
		Seed:     1,
		Output:   "results",
	}
}

// Parse overlays the YAML document data on ip.
// Fields absent from data keep their current values.
func (ip *Parameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// ReadFile parses the file at path on top of Default and validates the result.
func ReadFile(path string) (Parameters, error) {
	ip := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, errors.Wrap(err, "")
	}
	if err := ip.Parse(b); err != nil {
		return Parameters{}, errors.Wrap(err, path)
	}
	if err := ip.Validate(); err != nil {
		return Parameters{}, errors.Wrap(err, path)
	}
	return ip, nil
}

// Validate checks that the parameters describe a runnable sweep.
func (ip *Parameters) Validate() error {
	if len(ip.Sizes) == 0 {
		return errors.Errorf("no sizes")
	}
	for _, n := range ip.Sizes {
		if n <= 2 {
			return errors.Errorf("size %d", n)
		}
	}
	if ip.Steps < 0 {
		return errors.Errorf("steps %d", ip.Steps)
	}
	for _, v := range []float64{ip.Dt, ip.Nu, ip.Shock, ip.Mix} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("%#v", ip)
		}
	}
	if ip.Dt <= 0 {
		return errors.Errorf("dt %f", ip.Dt)
	}
	if ip.Nu < 0 {
		return errors.Errorf("nu %f", ip.Nu)
	}
	if _, err := qburgers.ParseBoundary(ip.Boundary); err != nil {
		return errors.Wrap(err, "")
	}
	if _, err := mps.ParseSplit(ip.Split); err != nil {
		return errors.Wrap(err, "")
	}
	if ip.Layers < 0 {
		return errors.Errorf("layers %d", ip.Layers)
	}
	if ip.Shots <= 0 {
		return errors.Errorf("shots %d", ip.Shots)
	}
	return nil
}

// Marshal returns the parameters as YAML.
func (ip *Parameters) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(ip)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

func (ip *Parameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", ip.Title)
	fmt.Fprintf(w, "%v\t\t= Sizes\n", ip.Sizes)
	fmt.Fprintf(w, "[%d]\t\t\t= Steps\n", ip.Steps)
	fmt.Fprintf(w, "%8.5f\t\t= Dt\n", ip.Dt)
	fmt.Fprintf(w, "%8.5f\t\t= Nu\n", ip.Nu)
	fmt.Fprintf(w, "%8.5f\t\t= Shock\n", ip.Shock)
	fmt.Fprintf(w, "[%s]\t\t= Boundary\n", ip.Boundary)
	fmt.Fprintf(w, "[%s]\t\t= Split\n", ip.Split)
	fmt.Fprintf(w, "%8.5f\t\t= Mix\n", ip.Mix)
	fmt.Fprintf(w, "[%d]\t\t\t= Layers\n", ip.Layers)
	fmt.Fprintf(w, "[%d]\t\t\t= Shots\n", ip.Shots)
	fmt.Fprintf(w, "\"%s\"\t\t= Output\n", ip.Output)
}
