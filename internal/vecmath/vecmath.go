// Package vecmath provides the dense numeric containers for whole-population
// state. Per-day updates are expressed as flat loops over (agent x claim)
// matrices; every per-claim scalar is broadcast across rows explicitly by
// index arithmetic rather than per-agent branching.
package vecmath

import "math"

// Matrix is a dense row-major float64 matrix with row = agent and
// column = claim.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// New returns a zeroed Rows x Cols matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Full returns a Rows x Cols matrix with every cell set to v.
func Full(rows, cols int, v float64) *Matrix {
	m := New(rows, cols)
	for i := range m.Data {
		m.Data[i] = v
	}
	return m
}

// At returns the cell (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.Cols+j] }

// Set assigns the cell (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.Cols+j] = v }

// Add accumulates into the cell (i, j).
func (m *Matrix) Add(i, j int, v float64) { m.Data[i*m.Cols+j] += v }

// Row returns the backing slice for row i.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.Cols : (i+1)*m.Cols] }

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := New(m.Rows, m.Cols)
	copy(out.Data, m.Data)
	return out
}

// Fill sets every cell to v.
func (m *Matrix) Fill(v float64) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// Clamp bounds every cell to [lo, hi].
func (m *Matrix) Clamp(lo, hi float64) {
	for i, v := range m.Data {
		if v < lo {
			m.Data[i] = lo
		} else if v > hi {
			m.Data[i] = hi
		}
	}
}

// Scale multiplies every cell by f.
func (m *Matrix) Scale(f float64) {
	for i := range m.Data {
		m.Data[i] *= f
	}
}

// AddMatrix accumulates other into m cell-wise. Shapes must match.
func (m *Matrix) AddMatrix(other *Matrix) {
	for i, v := range other.Data {
		m.Data[i] += v
	}
}

// ColMax returns, for each row, the maximum value over the columns where
// mask[j] is true, and the index of that column. Rows with no masked
// column get (-inf, -1).
func (m *Matrix) ColMax(mask []bool) (maxVal []float64, argMax []int) {
	maxVal = make([]float64, m.Rows)
	argMax = make([]int, m.Rows)
	for i := 0; i < m.Rows; i++ {
		best := math.Inf(-1)
		arg := -1
		row := m.Row(i)
		for j, ok := range mask {
			if ok && row[j] > best {
				best = row[j]
				arg = j
			}
		}
		maxVal[i] = best
		argMax[i] = arg
	}
	return maxVal, argMax
}

// Bool is a dense row-major boolean matrix with the same layout as Matrix.
type Bool struct {
	Rows, Cols int
	Data       []bool
}

// NewBool returns an all-false Rows x Cols boolean matrix.
func NewBool(rows, cols int) *Bool {
	return &Bool{Rows: rows, Cols: cols, Data: make([]bool, rows*cols)}
}

// At returns the cell (i, j).
func (b *Bool) At(i, j int) bool { return b.Data[i*b.Cols+j] }

// Set assigns the cell (i, j).
func (b *Bool) Set(i, j int, v bool) { b.Data[i*b.Cols+j] = v }

// Count returns the number of true cells.
func (b *Bool) Count() int {
	n := 0
	for _, v := range b.Data {
		if v {
			n++
		}
	}
	return n
}

// Sigmoid returns 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Logit returns log(p / (1-p)). p must lie strictly in (0, 1).
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}
