package compare

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// FnameResults is the default name of the scaling table.
	FnameResults = "scaling_results.csv"
)

// Header is the header of the scaling table.
var Header = []string{"N", "T", "dt", "time_classical", "time_hse", "time_qtn", "l2_error_hse", "l2_error_qtn"}

// Row is a row of the scaling table, with times in seconds.
type Row struct {
	N             int
	T             int
	Dt            float64
	TimeClassical float64
	TimeHSE       float64
	TimeQTN       float64
	ErrHSE        float64
	ErrQTN        float64
}

func (r Row) record() []string {
	return []string{
		strconv.Itoa(r.N),
		strconv.Itoa(r.T),
		format(r.Dt),
		format(r.TimeClassical),
		format(r.TimeHSE),
		format(r.TimeQTN),
		format(r.ErrHSE),
		format(r.ErrQTN),
	}
}

func parseRow(record []string) (Row, error) {
	if len(record) != len(Header) {
		return Row{}, errors.Errorf("%#v", record)
	}
	var r Row
	var err error
	if r.N, err = strconv.Atoi(record[0]); err != nil {
		return Row{}, errors.Wrap(err, "")
	}
	if r.T, err = strconv.Atoi(record[1]); err != nil {
		return Row{}, errors.Wrap(err, "")
	}
	fs := []*float64{&r.Dt, &r.TimeClassical, &r.TimeHSE, &r.TimeQTN, &r.ErrHSE, &r.ErrQTN}
	for i, f := range fs {
		if *f, err = strconv.ParseFloat(record[2+i], 64); err != nil {
			return Row{}, errors.Wrap(err, "")
		}
	}
	return r, nil
}

// Rows returns the table rows of results.
func Rows(results []Result) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, r.Row())
	}
	return rows
}

// WriteCSV writes the scaling table to fpath.
func WriteCSV(fpath string, rows []Row) error {
	f, err := os.Create(fpath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	w := csv.NewWriter(f)

	if err1 := w.Write(Header); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	for _, r := range rows {
		if err != nil {
			break
		}
		if err1 := w.Write(r.record()); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
		}
	}

	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

// ReadCSV reads a scaling table written by WriteCSV.
func ReadCSV(fpath string) ([]Row, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := csv.NewReader(f)

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if !slices.Equal(header, Header) {
		return nil, errors.Errorf("%#v", header)
	}

	rows := make([]Row, 0)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "")
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d", len(rows)+1))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SnapshotPath returns the path of the snapshot of the size n comparison.
func SnapshotPath(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("comparison_N%d.msgpack", n))
}

// WriteSnapshot writes r to SnapshotPath(dir, r.N).
// The snapshot is written to a temporary file and then renamed into place.
func WriteSnapshot(dir string, r Result) error {
	b, err := msgpack.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fpath := SnapshotPath(dir, r.N)
	tmp := fpath + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return errors.Wrap(err, "")
	}
	if err := os.Rename(tmp, fpath); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(fpath string) (Result, error) {
	b, err := os.ReadFile(fpath)
	if err != nil {
		return Result{}, errors.Wrap(err, "")
	}
	var r Result
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return Result{}, errors.Wrap(err, fpath)
	}
	return r, nil
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
