// Package mps implements a bond dimension one matrix product state of a velocity field,
// evolved by sweeping a two site gate across neighbouring sites.
//
// Amplitudes are stored in single precision. The column split shrinks them geometrically along
// the chain. Amplitudes below about 1e-38, field values below about 1e-76, are not faithful:
// they are rounded as float32 denormals or flushed to zero. Errors measured against fields of
// order one are not affected.
//
// References:
//   - The density-matrix renormalization group in the age of matrix product states, Ulrich Schollwock
package mps

import (
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"strconv"
	"strings"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// mpsLeftAxis is the axis of a_{l-1} in Figure 6.
	mpsLeftAxis  = 0
	mpsUpAxis    = 1
	mpsRightAxis = 2

	// Axes of a two site gate G[out_i, out_j, in_i, in_j].
	gateInLeftAxis  = 2
	gateInRightAxis = 3

	// physD is the physical dimension of a site.
	physD = 2

	// encodeEpsilon keeps the amplitudes of a site away from exactly zero.
	encodeEpsilon = 1e-6

	// DefaultMix is the off diagonal weight of the default near identity gate.
	DefaultMix = 0.01

	// Machine precision.
	epsilon = 0x1p-23
)

// Chain is a chain of site tensors of shape {1, 2, 1}.
// Sweeps modify the sites in place, the length of a Chain never changes.
type Chain struct {
	sites []*tensor.Dense
}

// NewChain encodes each field value u in [0, 1] as the site (sqrt(u+1e-6), sqrt(1-u+1e-6)).
func NewChain(field []float64) (*Chain, error) {
	if len(field) == 0 {
		return nil, errors.Errorf("empty")
	}
	c := &Chain{sites: make([]*tensor.Dense, 0, len(field))}
	for i, u := range field {
		if math.IsNaN(u) || u < 0 || u > 1 {
			return nil, errors.Errorf("%d %f", i, u)
		}
		s := tensor.Zeros(1, physD, 1)
		s.SetAt([]int{0, 0, 0}, complex(float32(math.Sqrt(u+encodeEpsilon)), 0))
		s.SetAt([]int{0, 1, 0}, complex(float32(math.Sqrt(1-u+encodeEpsilon)), 0))
		c.sites = append(c.sites, s)
	}
	return c, nil
}

// Len returns the number of sites.
func (c *Chain) Len() int { return len(c.sites) }

// Site returns the i-th site tensor.
func (c *Chain) Site(i int) *tensor.Dense { return c.sites[i] }

// Clone returns a deep copy of the chain.
func (c *Chain) Clone() *Chain {
	cc := &Chain{sites: make([]*tensor.Dense, 0, len(c.sites))}
	for _, s := range c.sites {
		cc.sites = append(cc.sites, resetCopy(tensor.Zeros(1), s))
	}
	return cc
}

// Field reads back the field as |amp_0|^2 of each site.
func (c *Chain) Field() []float64 {
	u := make([]float64, 0, len(c.sites))
	for _, s := range c.sites {
		a := complex128(s.At(0, 0, 0))
		u = append(u, real(a)*real(a)+imag(a)*imag(a))
	}
	return u
}

// Norm2 returns <c|c>.
func (c *Chain) Norm2() float64 {
	bufs := [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	return float64(real(InnerProduct(c.sites, c.sites, bufs)))
}

func (c *Chain) String() string {
	ss := make([]string, 0, len(c.sites))
	for _, s := range c.sites {
		ss = append(ss, format(s))
	}
	return strings.Join(ss, " ")
}

// InnerProduct computes the inner product between x and y.
// See Section 4.2.1 Efficient evaluation of contractions, Ulrich Schollwock.
func InnerProduct(x, y []*tensor.Dense, bufs [2]*tensor.Dense) complex64 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("%d %d", len(x), len(y)))
	}

	f := ones(bufs[0], 1, 1)
	const fTopAxis, fBottomAxis = 0, 1
	for i, xi := range x {
		yi := y[i]

		fyi := tensor.Product(bufs[1], f, yi, [][2]int{{fBottomAxis, mpsLeftAxis}})
		tensor.Product(f, xi.Conj(), fyi, [][2]int{{mpsLeftAxis, fTopAxis}, {mpsUpAxis, mpsUpAxis}})
	}

	if !slices.Equal(f.Shape(), []int{1, 1}) {
		panic(fmt.Sprintf("%#v", f.Shape()))
	}
	return f.At(0, 0)
}

// NearIdentityGate returns the two site gate that mixes |01> and |10> with weight mix,
// and leaves |00> and |11> unchanged.
// The returned tensor has shape {2, 2, 2, 2} with axes {out_i, out_j, in_i, in_j}.
func NearIdentityGate(mix float32) *tensor.Dense {
	g := [4][4]float32{
		{1, 0, 0, 0},
		{0, 1 - mix, mix, 0},
		{0, mix, 1 - mix, 0},
		{0, 0, 0, 1},
	}
	gate := tensor.Zeros(physD, physD, physD, physD)
	for r, row := range g {
		for c, v := range row {
			if v == 0 {
				continue
			}
			gate.SetAt([]int{r / physD, r % physD, c / physD, c % physD}, complex(v, 0))
		}
	}
	return gate
}

// Split selects how the gated two site state is factorized back into two sites.
type Split int

const (
	// SplitColumn takes A'[p] = psi[p, 0] and B'[p] = psi[p, 1].
	SplitColumn Split = iota
	// SplitSVD takes the leading singular triplet, A' = sqrt(s) u and B' = sqrt(s) v.
	// The amplitudes must be real.
	SplitSVD
)

func (s Split) String() string {
	switch s {
	case SplitColumn:
		return "column"
	case SplitSVD:
		return "svd"
	default:
		return fmt.Sprintf("Split(%d)", int(s))
	}
}

// ParseSplit is the inverse of Split.String.
func ParseSplit(s string) (Split, error) {
	switch s {
	case "", SplitColumn.String():
		return SplitColumn, nil
	case SplitSVD.String():
		return SplitSVD, nil
	default:
		return -1, errors.Errorf("unknown split %q", s)
	}
}

// UpdaterOptions are options for the two site sweep.
type UpdaterOptions struct {
	split Split
}

// NewUpdaterOptions returns the default sweep options.
func NewUpdaterOptions() UpdaterOptions {
	opt := UpdaterOptions{}
	opt.split = SplitColumn
	return opt
}

// Split sets the factorization of the two site state.
func (opt UpdaterOptions) Split(s Split) UpdaterOptions {
	opt.split = s
	return opt
}

// Updater applies a two site gate to every neighbouring pair of a Chain, left to right.
type Updater struct {
	gate  *tensor.Dense
	split Split
	bufs  [2]*tensor.Dense
	psi   *mat.Dense
}

// NewUpdater returns an Updater for a gate of shape {2, 2, 2, 2}.
func NewUpdater(gate *tensor.Dense, options ...UpdaterOptions) (*Updater, error) {
	if !slices.Equal(gate.Shape(), []int{physD, physD, physD, physD}) {
		return nil, errors.Errorf("%#v", gate.Shape())
	}
	opt := NewUpdaterOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	switch opt.split {
	case SplitColumn, SplitSVD:
	default:
		return nil, errors.Errorf("%s", opt.split)
	}

	u := &Updater{gate: gate, split: opt.split}
	u.bufs = [2]*tensor.Dense{tensor.Zeros(1), tensor.Zeros(1)}
	u.psi = mat.NewDense(physD, physD, nil)
	return u, nil
}

// Sweep performs steps passes over the chain, updating sites (i, i+1) for i = 0..n-2 in order.
func (u *Updater) Sweep(c *Chain, steps int) error {
	if c.Len() < 2 {
		return errors.Errorf("%d", c.Len())
	}
	if steps < 0 {
		return errors.Errorf("%d", steps)
	}
	for t := range steps {
		for i := 0; i < c.Len()-1; i++ {
			if err := u.update(c.sites[i], c.sites[i+1]); err != nil {
				return errors.Wrap(err, fmt.Sprintf("step %d site %d", t, i))
			}
		}
	}
	return nil
}

func (u *Updater) update(a, b *tensor.Dense) error {
	// joint is of shape {aLeft, aUp, bUp, bRight}.
	joint := tensor.Product(u.bufs[0], a, b, [][2]int{{mpsRightAxis, mpsLeftAxis}})
	// psi is of shape {out_i, out_j, aLeft, bRight}.
	psi := tensor.Product(u.bufs[1], u.gate, joint, [][2]int{{gateInLeftAxis, 1}, {gateInRightAxis, 2}})
	if !slices.Equal(psi.Shape(), []int{physD, physD, 1, 1}) {
		panic(fmt.Sprintf("%#v", psi.Shape()))
	}

	switch u.split {
	case SplitSVD:
		return u.splitSVD(a, b, psi)
	default:
		for p := range physD {
			a.SetAt([]int{0, p, 0}, psi.At(p, 0, 0, 0))
			b.SetAt([]int{0, p, 0}, psi.At(p, 1, 0, 0))
		}
		return nil
	}
}

func (u *Updater) splitSVD(a, b, psi *tensor.Dense) error {
	for p := range physD {
		for q := range physD {
			v := psi.At(p, q, 0, 0)
			if abs(complex(0, imag(v))) > epsilon*max(abs(v), 1) {
				return errors.Errorf("complex amplitude %d %d %v", p, q, v)
			}
			u.psi.Set(p, q, float64(real(v)))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(u.psi, mat.SVDFull); !ok {
		return errors.Errorf("svd failed %v", mat.Formatted(u.psi))
	}
	s := math.Sqrt(svd.Values(nil)[0])
	var uu, vv mat.Dense
	svd.UTo(&uu)
	svd.VTo(&vv)
	for p := range physD {
		a.SetAt([]int{0, p, 0}, complex(float32(s*uu.At(p, 0)), 0))
		b.SetAt([]int{0, p, 0}, complex(float32(s*vv.At(p, 0)), 0))
	}
	return nil
}

// Run encodes field as a Chain, sweeps gate over it steps times, and reads back the field.
func Run(field []float64, steps int, gate *tensor.Dense, options ...UpdaterOptions) ([]float64, error) {
	c, err := NewChain(field)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	u, err := NewUpdater(gate, options...)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := u.Sweep(c, steps); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return c.Field(), nil
}

func format(a *tensor.Dense) string {
	shapeStrs := make([]string, 0, len(a.Shape()))
	for _, d := range a.Shape() {
		shapeStrs = append(shapeStrs, strconv.Itoa(d))
	}
	shapeS := strings.Join(shapeStrs, ",")

	ss := make([]string, 0)
	for _, v := range a.All() {
		s := fmt.Sprintf("%v", v)
		s = strings.ReplaceAll(s, "i", "j")
		ss = append(ss, s)
	}
	s := strings.Join(ss, ",")

	return fmt.Sprintf("[%s][%s]", shapeS, s)
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}

func ones(t *tensor.Dense, shape ...int) *tensor.Dense {
	t.Reset(shape...)
	for ijk := range t.All() {
		t.SetAt(ijk, 1)
	}
	return t
}

func abs(x complex64) float32 {
	return float32(cmplx.Abs(complex128(x)))
}
