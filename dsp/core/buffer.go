package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
// Reused storage is not cleared.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	clear(buf)
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	return copy(dst, src)
}

// Matrix allocates a rows×cols matrix backed by one contiguous slice.
func Matrix(rows, cols int) [][]float64 {
	if rows <= 0 {
		return nil
	}
	if cols < 0 {
		cols = 0
	}
	backing := make([]float64, rows*cols)
	out := make([][]float64, rows)
	for r := range out {
		out[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out
}

// Clone2D returns a deep copy of m. Rows keep their individual lengths.
func Clone2D(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// IsRectangular reports whether every row of m has length cols.
func IsRectangular(m [][]float64, cols int) bool {
	for _, row := range m {
		if len(row) != cols {
			return false
		}
	}
	return true
}
