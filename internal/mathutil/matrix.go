// Package mathutil holds row-major matrix helpers shared by the frame
// windowing code.
package mathutil

// Mat is a 2D float64 matrix stored as row-major [][]float64.
type Mat = [][]float64

// NewMat creates a rows x cols matrix initialized to zero.
// All rows share one backing array.
func NewMat(rows, cols int) Mat {
	m := make(Mat, rows)
	data := make([]float64, rows*cols)
	for i := range m {
		m[i] = data[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// CopyRows copies src rows into dst row by row; it copies min(len(dst), len(src)) rows.
func CopyRows(dst, src Mat) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		copy(dst[i], src[i])
	}
	return n
}
