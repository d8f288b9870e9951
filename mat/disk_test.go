package mat

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestDiskAdd(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a          [][]complex128
		c          complex128
		b          [][]complex128
		z          *COO
		numNonZero int
	}{
		{
			a: [][]complex128{
				{1, 0},
				{0, 2i},
			},
			c: 1i,
			b: [][]complex128{
				{1i, 0},
				{2, -5},
			},
			z: M([][]complex128{
				{0, 0},
				{2i, -3i},
			}),
			numNonZero: 2,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.a), func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()

			a := DiskM(filepath.Join(dir, "a.db"), test.a)
			defer a.Close()
			b := DiskM(filepath.Join(dir, "b.db"), test.b)
			defer b.Close()

			a.Add(test.c, b)
			if !a.COO().Equal(test.z) {
				t.Fatalf("%s, expected %s", a.COO(), test.z)
			}
			if a.NumNonZero() != test.numNonZero {
				t.Fatalf("%d, expected %d", a.NumNonZero(), test.numNonZero)
			}
		})
	}
}

func TestDiskAddCOO(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := DiskM(filepath.Join(dir, "a.db"), [][]complex128{{0}})
	defer a.Close()

	a.Zeros(3, 3)
	b := COOZeros(3, 3)
	b.Set(1, 0, -1)
	b.Set(1, 1, 2)
	b.Set(1, 2, -1)
	a.Add(0.5, b)
	a.Set(0, 0, 7)

	expected := M([][]complex128{
		{7, 0, 0},
		{-0.5, 1, -0.5},
		{0, 0, 0},
	})
	if !a.COO().Equal(expected) {
		t.Fatalf("%s, expected %s", a.COO(), expected)
	}
}

func TestDiskWriteCOO(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	dense := [][]complex128{
		{0, 1.5},
		{-2i, 0},
	}
	a := DiskM(filepath.Join(dir, "a.db"), dense)
	defer a.Close()

	cooDir := t.TempDir()
	if err := a.WriteCOO(cooDir); err != nil {
		t.Fatalf("%+v", err)
	}
	read, err := ReadCOO(cooDir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !read.Equal(M(dense)) {
		t.Fatalf("%s, expected %s", read, M(dense))
	}
}

func TestDiskSelfAdd(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := DiskM(filepath.Join(dir, "a.db"), [][]complex128{
		{1, -1},
		{0, 2i},
	})
	defer a.Close()

	// Adding -1 times itself empties the matrix.
	a.Add(-1, a)
	if n := a.NumNonZero(); n != 0 {
		t.Fatalf("%d %s", n, a.COO())
	}
	a.Set(1, 1, 3)
	a.Add(2, a)
	if v := a.At(1, 1); v != 9 {
		t.Fatalf("%v", v)
	}
	a.Set(1, 1, 0)
	if v := a.At(1, 1); v != 0 {
		t.Fatalf("%v", v)
	}
}
