package mathutil

import "testing"

func TestNewMat(t *testing.T) {
	m := NewMat(3, 4)
	if len(m) != 3 {
		t.Fatalf("rows = %d, want 3", len(m))
	}
	for i, row := range m {
		if len(row) != 4 {
			t.Fatalf("row %d cols = %d, want 4", i, len(row))
		}
	}
}

func TestNewMatRowsDoNotAlias(t *testing.T) {
	m := NewMat(2, 2)
	m[0] = append(m[0], 9)
	if m[1][0] != 0 {
		t.Errorf("append to row 0 overwrote row 1: %v", m[1])
	}
}

func TestCopyRows(t *testing.T) {
	dst := NewMat(2, 2)
	n := CopyRows(dst, Mat{{1, 2}, {3, 4}, {5, 6}})
	if n != 2 {
		t.Fatalf("copied %d rows, want 2", n)
	}
	if dst[1][1] != 4 {
		t.Errorf("dst[1][1] = %f, want 4", dst[1][1])
	}
}
