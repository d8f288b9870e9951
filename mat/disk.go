package mat

import (
	"context"
	"database/sql"
	"fmt"
	"math/cmplx"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	tableMatrix = "m"

	queryTimeout = 3 * time.Second
	scanTimeout  = 48 * time.Hour
)

// DiskMatrix is a matrix whose non-zero entries live in a sqlite database.
// It serves Hamiltonians of grids too large to assemble comfortably in memory.
// The database file is removed on Close.
type DiskMatrix struct {
	Path string
	rows int
	cols int

	db *sql.DB
}

// DiskM is NewDiskMatrix that panics on error.
func DiskM(dbPath string, dense [][]complex128) *DiskMatrix {
	m, err := NewDiskMatrix(dbPath, dense)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return m
}

// NewDiskMatrix creates a database at dbPath holding dense.
func NewDiskMatrix(dbPath string, dense [][]complex128) (*DiskMatrix, error) {
	m := &DiskMatrix{Path: dbPath, rows: len(dense), cols: len(dense[0])}
	var err error
	m.db, err = newDB(m.Path)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	entries := M(dense).Data
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := m.upsert(ctx, 1, entries); err != nil {
		m.Close()
		return nil, errors.Wrap(err, "")
	}
	return m, nil
}

func (m *DiskMatrix) Close() error {
	var err error
	if err1 := m.db.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err1 := os.Remove(m.Path); err1 != nil && err == nil {
		err = err1
	}
	return err
}

func (m *DiskMatrix) Zeros(rows, cols int) {
	m.rows, m.cols = rows, cols
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`DELETE FROM %s`, tableMatrix)
	if _, err := m.db.ExecContext(ctx, sqlStr); err != nil {
		panic(fmt.Sprintf("%+v", errors.Wrap(err, "")))
	}
}

func (m *DiskMatrix) Rows() int { return m.rows }
func (m *DiskMatrix) Cols() int { return m.cols }

func (m *DiskMatrix) At(i, j int) complex128 {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT re, im FROM %s WHERE i=? AND j=?`, tableMatrix)
	var re, im float64
	err := m.db.QueryRowContext(ctx, sqlStr, i, j).Scan(&re, &im)
	switch {
	case err == sql.ErrNoRows:
		return 0
	case err != nil:
		panic(fmt.Sprintf("%+v", errors.Wrap(err, "")))
	default:
		return complex(re, im)
	}
}

func (m *DiskMatrix) Set(i, j int, v complex128) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("%d %d %d %d", i, j, m.rows, m.cols))
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (i, j, re, im) VALUES (?, ?, ?, ?)`, tableMatrix)
	args := []any{i, j, real(v), imag(v)}
	if v == 0 {
		sqlStr = fmt.Sprintf(`DELETE FROM %s WHERE i=? AND j=?`, tableMatrix)
		args = args[:2]
	}
	if _, err := m.db.ExecContext(ctx, sqlStr, args...); err != nil {
		panic(fmt.Sprintf("%+v", errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))))
	}
}

// Add sets a = a + c*b in a single transaction.
func (a *DiskMatrix) Add(c complex128, b Matrix) {
	if a.rows != b.Rows() || a.cols != b.Cols() {
		panic(fmt.Sprintf("wrong dimensions %d %d %d %d", a.rows, a.cols, b.Rows(), b.Cols()))
	}
	// Read b fully before writing, since b may be backed by the same database.
	entries := b.COO().Data

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	if err := a.upsert(ctx, c, entries); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
}

// upsert adds c times entries to the stored values, and drops the entries that become zero.
func (m *DiskMatrix) upsert(ctx context.Context, c complex128, entries []Entry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	sqlStr := fmt.Sprintf(`INSERT INTO %s (i, j, re, im) VALUES (?, ?, ?, ?)
		ON CONFLICT (i, j) DO UPDATE SET re = re + excluded.re, im = im + excluded.im`, tableMatrix)
	stmt, err := tx.PrepareContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer stmt.Close()
	for _, e := range entries {
		v := c * e.V
		if v == 0 {
			continue
		}
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return errors.Errorf("%#v %v", e, c)
		}
		if _, err := stmt.ExecContext(ctx, e.Row, e.Col, real(v), imag(v)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", e))
		}
	}

	sqlStr = fmt.Sprintf(`DELETE FROM %s WHERE re = 0 AND im = 0`, tableMatrix)
	if _, err := tx.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// scan calls fn on every entry in row major order.
func (m *DiskMatrix) scan(ctx context.Context, fn func(Entry) error) error {
	sqlStr := fmt.Sprintf(`SELECT i, j, re, im FROM %s ORDER BY i, j`, tableMatrix)
	rows, err := m.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var re, im float64
		if err := rows.Scan(&e.Row, &e.Col, &re, &im); err != nil {
			return errors.Wrap(err, "")
		}
		e.V = complex(re, im)
		if err := fn(e); err != nil {
			return errors.Wrap(err, "")
		}
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (a *DiskMatrix) COO() *COO {
	b := COOZeros(a.rows, a.cols)
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	err := a.scan(ctx, func(e Entry) error {
		b.Data = append(b.Data, e)
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}
	return b
}

func (m *DiskMatrix) NumNonZero() int {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf("SELECT count(1) FROM %s", tableMatrix)
	var n int
	if err := m.db.QueryRowContext(ctx, sqlStr).Scan(&n); err != nil {
		panic(fmt.Sprintf("%+v", errors.Wrap(err, "")))
	}
	return n
}

// WriteCOO streams the entries to dir without loading them in memory.
func (m *DiskMatrix) WriteCOO(dir string) error {
	w, err := NewCOOWriter(dir, m.rows, m.cols)
	if err != nil {
		return errors.Wrap(err, "")
	}
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	err = m.scan(ctx, w.Write)
	if err1 := w.Close(); err1 != nil && err == nil {
		err = err1
	}
	return err
}

func newDB(dbPath string) (*sql.DB, error) {
	// The database is scratch space, so durability is traded for speed.
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=OFF&_synchronous=OFF", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return db, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableMatrix)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	sqlStr = fmt.Sprintf(`CREATE TABLE %s (i INTEGER, j INTEGER, re REAL, im REAL, PRIMARY KEY (i, j)) STRICT`, tableMatrix)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
