// Package mat implements the sparse complex matrices used to build Hamiltonians.
package mat

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/james-bowman/sparse"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a complex matrix that a Hamiltonian can be assembled into.
type Matrix interface {
	Zeros(int, int)
	Rows() int
	Cols() int

	Set(int, int, complex128)
	Add(complex128, Matrix)
	COO() *COO

	WriteCOO(string) error
}

// Entry is a non-zero element of a matrix.
type Entry struct {
	Row int
	Col int
	V   complex128
}

// COO is an in memory matrix in coordinate format.
// Data holds the non-zero entries in row major order.
type COO struct {
	rows int
	cols int
	Data []Entry
}

// M returns the COO of a dense matrix.
func M(dense [][]complex128) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0])}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, Entry{Row: i, Col: j, V: v})
		}
	}
	return m
}

func COOZeros(rows, cols int) *COO {
	return &COO{rows: rows, cols: cols}
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

func (m *COO) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	m.Data = m.Data[:0]
}

func (m *COO) find(i, j int) (int, bool) {
	return slices.BinarySearchFunc(m.Data, Entry{Row: i, Col: j}, rowMajor)
}

func (m *COO) At(i, j int) complex128 {
	idx, ok := m.find(i, j)
	if !ok {
		return 0
	}
	return m.Data[idx].V
}

func (m *COO) Set(i, j int, v complex128) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("%d %d %d %d", i, j, m.rows, m.cols))
	}
	idx, ok := m.find(i, j)
	switch {
	case ok && v == 0:
		m.Data = slices.Delete(m.Data, idx, idx+1)
	case ok:
		m.Data[idx].V = v
	case v != 0:
		m.Data = slices.Insert(m.Data, idx, Entry{Row: i, Col: j, V: v})
	}
}

// All iterates over the non-zero entries in row major order.
func (m *COO) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range m.Data {
			if !yield(e) {
				return
			}
		}
	}
}

func (a *COO) Equal(b *COO) bool {
	return a.rows == b.rows && a.cols == b.cols && slices.Equal(a.Data, b.Data)
}

// Slice returns the submatrix of rows [y0, y1) and columns [x0, x1).
// Negative bounds count from the end.
func (m *COO) Slice(yBoundN, xBoundN [2]int) *COO {
	yBound, xBound := yBoundN, xBoundN
	for i := range 2 {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := COOZeros(yBound[1]-yBound[0], xBound[1]-xBound[0])
	start, _ := m.find(yBound[0], 0)
	for _, e := range m.Data[start:] {
		if e.Row >= yBound[1] {
			break
		}
		if e.Col < xBound[0] || e.Col >= xBound[1] {
			continue
		}
		s.Data = append(s.Data, Entry{Row: e.Row - yBound[0], Col: e.Col - xBound[0], V: e.V})
	}
	return s
}

// Add sets a = a + c*b.
func (a *COO) Add(c complex128, bMatrix Matrix) {
	b := bMatrix.COO()
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("wrong dimensions %d %d %d %d", a.rows, a.cols, b.rows, b.cols))
	}

	// Merge the two row major lists.
	sum := make([]Entry, 0, len(a.Data)+len(b.Data))
	push := func(e Entry) {
		if e.V != 0 {
			sum = append(sum, e)
		}
	}
	var i, j int
	for i < len(a.Data) && j < len(b.Data) {
		ae, be := a.Data[i], b.Data[j]
		switch rowMajor(ae, be) {
		case -1:
			push(ae)
			i++
		case 1:
			push(Entry{Row: be.Row, Col: be.Col, V: c * be.V})
			j++
		default:
			push(Entry{Row: ae.Row, Col: ae.Col, V: ae.V + c*be.V})
			i++
			j++
		}
	}
	for _, ae := range a.Data[i:] {
		push(ae)
	}
	for _, be := range b.Data[j:] {
		push(Entry{Row: be.Row, Col: be.Col, V: c * be.V})
	}
	a.Data = sum
}

func (m *COO) COO() *COO {
	return m
}

func (m *COO) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
	}
	for _, e := range m.Data {
		dense[e.Row][e.Col] = e.V
	}
	return dense
}

// Real returns m as a real sparse matrix.
// It fails if any entry has a non-zero imaginary part.
func (m *COO) Real() (*sparse.CSR, error) {
	dok := sparse.NewDOK(m.rows, m.cols)
	for _, e := range m.Data {
		if imag(e.V) != 0 {
			return nil, errors.Errorf("not real %d %d %v", e.Row, e.Col, e.V)
		}
		dok.Set(e.Row, e.Col, real(e.V))
	}
	return dok.ToCSR(), nil
}

// RealDense is Real converted to a gonum dense matrix.
func (m *COO) RealDense() (*mat.Dense, error) {
	csr, err := m.Real()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return mat.DenseCopyOf(csr), nil
}

// Symmetric reports whether m is square and equal to its transpose.
func (m *COO) Symmetric() bool {
	if m.rows != m.cols {
		return false
	}
	for _, e := range m.Data {
		if m.At(e.Col, e.Row) != e.V {
			return false
		}
	}
	return true
}

func (m *COO) WriteCOO(dir string) error {
	w, err := NewCOOWriter(dir, m.rows, m.cols)
	if err != nil {
		return errors.Wrap(err, "")
	}
	for _, e := range m.Data {
		if err := w.Write(e); err != nil {
			break
		}
	}
	return w.Close()
}

func (m *COO) String() string {
	lines := make([]string, 0, m.rows)
	for _, row := range m.Dense() {
		cs := make([]string, 0, len(row))
		for _, v := range row {
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

func rowMajor(a, b Entry) int {
	if c := cmp.Compare(a.Row, b.Row); c != 0 {
		return c
	}
	return cmp.Compare(a.Col, b.Col)
}

func format(v float64) string {
	// Avoid "-0".
	if v == 0 {
		return " 0"
	}
	s := strconv.FormatFloat(v, 'g', 6, 64)
	// Align with negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}
	return s
}
