package dataset

// Matrix 是 CSR 格式的用户×物品稀疏交互矩阵。
// (u,i) 处的值为该对的聚合分数，其余为 0；矩阵归本批次独占，每次运行从零重建。
type Matrix struct {
	NumRows int // 用户数
	NumCols int // 物品数

	RowPtr []int     // 长度 NumRows+1，行 u 的非零元素区间为 [RowPtr[u], RowPtr[u+1])
	ColIdx []int     // 非零元素的列下标
	Val    []float64 // 非零元素的值
}

// NewMatrix 从 (行下标, 列下标, 值) 三元组构建 CSR 矩阵。
// 聚合之后同一 (行, 列) 不会出现两个三元组，构建时不做去重。
func NewMatrix(numRows, numCols int, rows, cols []int, vals []float64) *Matrix {
	m := &Matrix{
		NumRows: numRows,
		NumCols: numCols,
		RowPtr:  make([]int, numRows+1),
		ColIdx:  make([]int, len(cols)),
		Val:     make([]float64, len(vals)),
	}

	// 两遍构建：先统计每行非零数做前缀和，再填充
	for _, r := range rows {
		m.RowPtr[r+1]++
	}
	for r := 0; r < numRows; r++ {
		m.RowPtr[r+1] += m.RowPtr[r]
	}
	next := make([]int, numRows)
	copy(next, m.RowPtr[:numRows])
	for k := range rows {
		pos := next[rows[k]]
		m.ColIdx[pos] = cols[k]
		m.Val[pos] = vals[k]
		next[rows[k]]++
	}
	return m
}

// Row 返回行 u 的非零列下标和对应值（内部 slice 视图，调用方不得修改）。
func (m *Matrix) Row(u int) ([]int, []float64) {
	if u < 0 || u >= m.NumRows {
		return nil, nil
	}
	start, end := m.RowPtr[u], m.RowPtr[u+1]
	return m.ColIdx[start:end], m.Val[start:end]
}

// NNZ 返回非零元素个数，等于聚合后唯一 (用户, 物品) 对的数量。
func (m *Matrix) NNZ() int {
	return len(m.Val)
}

// Transpose 返回转置矩阵（物品×用户）。ALS 的物品侧求解按物品行遍历用户。
func (m *Matrix) Transpose() *Matrix {
	t := &Matrix{
		NumRows: m.NumCols,
		NumCols: m.NumRows,
		RowPtr:  make([]int, m.NumCols+1),
		ColIdx:  make([]int, len(m.ColIdx)),
		Val:     make([]float64, len(m.Val)),
	}
	for _, c := range m.ColIdx {
		t.RowPtr[c+1]++
	}
	for c := 0; c < t.NumRows; c++ {
		t.RowPtr[c+1] += t.RowPtr[c]
	}
	next := make([]int, t.NumRows)
	copy(next, t.RowPtr[:t.NumRows])
	for r := 0; r < m.NumRows; r++ {
		for k := m.RowPtr[r]; k < m.RowPtr[r+1]; k++ {
			c := m.ColIdx[k]
			pos := next[c]
			t.ColIdx[pos] = r
			t.Val[pos] = m.Val[k]
			next[c]++
		}
	}
	return t
}
