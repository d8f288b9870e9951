package mat

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

// COOWriter streams row major entries to a COO directory, made of FnameShape and FnameCOO.
// Each coo.csv record is value,row,col, where the value and row are left empty when they repeat
// those of the previous record.
type COOWriter struct {
	f    *os.File
	w    *csv.Writer
	prev Entry
	err  error
}

// NewCOOWriter creates the files of a rows by cols matrix in dir.
func NewCOOWriter(dir string, rows, cols int) (*COOWriter, error) {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", rows, cols)), 0644); err != nil {
		return nil, errors.Wrap(err, "")
	}
	f, err := os.Create(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return &COOWriter{f: f, w: csv.NewWriter(f), prev: Entry{Row: -1, Col: -1}}, nil
}

// Write appends e. After the first failure, Write returns the same error without writing.
func (w *COOWriter) Write(e Entry) error {
	if w.err != nil {
		return w.err
	}
	var vStr string
	if e.V != w.prev.V {
		vStr = FormatNumpy(e.V)
	}
	var rowStr string
	if e.Row != w.prev.Row {
		rowStr = strconv.Itoa(e.Row)
	}
	if err := w.w.Write([]string{vStr, rowStr, strconv.Itoa(e.Col)}); err != nil {
		w.err = errors.Wrap(err, "")
		return w.err
	}
	w.prev = e
	return nil
}

// Close flushes the records and returns the first error encountered by the writer.
func (w *COOWriter) Close() error {
	err := w.err
	w.w.Flush()
	if err1 := w.w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := w.f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// COOReader reads a COO file written by COOWriter.
type COOReader struct {
	f *os.File
	r *csv.Reader
	i int

	prev Entry
}

func NewCOOReader(dir string) (*COOReader, error) {
	f, err := os.Open(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	r := &COOReader{f: f, r: csv.NewReader(f), i: -1}
	r.r.FieldsPerRecord = 3
	return r, nil
}

func (r *COOReader) Close() error {
	return r.f.Close()
}

func (r *COOReader) Read() (Entry, error) {
	r.i++
	record, err := r.r.Read()
	if err == io.EOF {
		return Entry{}, io.EOF
	}
	if err != nil {
		return Entry{}, errors.Wrap(err, fmt.Sprintf("%d", r.i))
	}

	e := r.prev
	if record[0] != "" {
		if e.V, err = strconv.ParseComplex(strings.ReplaceAll(record[0], "j", "i"), 128); err != nil {
			return Entry{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}
	if record[1] != "" {
		if e.Row, err = strconv.Atoi(record[1]); err != nil {
			return Entry{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
		}
	}
	if e.Col, err = strconv.Atoi(record[2]); err != nil {
		return Entry{}, errors.Wrap(err, fmt.Sprintf("%d %#v", r.i, record))
	}

	r.prev = e
	return e, nil
}

func ReadCOO(dir string) (*COO, error) {
	rows, cols, err := readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	m := COOZeros(rows, cols)

	r, err := NewCOOReader(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer r.Close()
	for {
		e, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			return nil, errors.Errorf("%#v %d %d", e, rows, cols)
		}
		m.Data = append(m.Data, e)
	}
	slices.SortFunc(m.Data, rowMajor)

	return m, nil
}

func readShape(dir string) (int, int, error) {
	b, err := os.ReadFile(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	fields := strings.Split(strings.TrimSpace(string(b)), ",")
	if len(fields) != 2 {
		return -1, -1, errors.Errorf("%#v", fields)
	}
	var shape [2]int
	for i, s := range fields {
		if shape[i], err = strconv.Atoi(s); err != nil {
			return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", fields))
		}
	}
	return shape[0], shape[1], nil
}

// FormatNumpy formats v so that numpy.complex128 can parse it.
func FormatNumpy(v complex128) string {
	if imag(v) == 0 {
		return strconv.FormatFloat(real(v), 'g', -1, 64)
	}
	return strings.ReplaceAll(strconv.FormatComplex(v, 'g', -1, 128), "i", "j")
}
