package atacmatutils

import (
	"sort"
)

/*MAXEXACTCOUNT largest value a float32 entry holds exactly. Integer counts above it round */
const MAXEXACTCOUNT = 1 << 24

/*SparseMatrix feature x cell matrix, one column -> value map per feature row.
Values are float32 for both counts and weights: a count entry is exact up to MAXEXACTCOUNT */
type SparseMatrix struct {
	rows []map[uint32]float32
}

/*NewSparseMatrix matrix with nbRows empty rows. Row maps are allocated at their first entry */
func NewSparseMatrix(nbRows int) *SparseMatrix {
	return &SparseMatrix{rows: make([]map[uint32]float32, nbRows)}
}

/*Add add value to (row, col), creating the entry at the first contribution */
func (m *SparseMatrix) Add(row, col uint32, value float32) {
	if m.rows[row] == nil {
		m.rows[row] = make(map[uint32]float32)
	}

	m.rows[row][col] += value
}

/*Value ... */
func (m *SparseMatrix) Value(row, col uint32) float32 {
	return m.rows[row][col]
}

/*NbRows ... */
func (m *SparseMatrix) NbRows() int {
	return len(m.rows)
}

/*NNZ number of nonzero entries */
func (m *SparseMatrix) NNZ() int {
	total := 0

	for _, row := range m.rows {
		total += len(row)
	}

	return total
}

/*Sum of all entries */
func (m *SparseMatrix) Sum() float64 {
	var total float64

	for _, row := range m.rows {
		for _, value := range row {
			total += float64(value)
		}
	}

	return total
}

/*Row the entries of one row. The map must not be modified */
func (m *SparseMatrix) Row(row int) map[uint32]float32 {
	return m.rows[row]
}

/*SortedColumns append the columns of row in ascending order to cols and return it */
func (m *SparseMatrix) SortedColumns(row int, cols []uint32) []uint32 {
	for col := range m.rows[row] {
		cols = append(cols, col)
	}

	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })

	return cols
}
