package core

// ScoreEntry 是一次批次内 (用户, 物品) 的聚合交互分数。
// 分数是时间衰减权重之和，恒为正；每个 (用户, 物品) 对唯一。
type ScoreEntry struct {
	UserID int64
	ItemID int64
	Score  float64
}

// IndexMap 是外部 ID 与稠密矩阵下标之间的双向映射。
//
// 设计要点：
//   - 正向 map（ID → 下标）+ 反向 slice（下标 → ID），构造时一次建好
//   - 反向映射不做懒加载：预计算消除"首次调用才建缓存"的隐式可变状态
//   - 每个批次全量重建，映射只覆盖本批次观察到的 ID，不保留上一批的陈旧 ID
type IndexMap struct {
	toIdx map[int64]int
	toID  []int64
}

// NewIndexMap 按首次出现顺序为 ids 中的唯一 ID 分配稠密下标。
// 出现顺序没有业务含义，调用方只能依赖双射本身。
func NewIndexMap(ids []int64) *IndexMap {
	m := &IndexMap{
		toIdx: make(map[int64]int, len(ids)),
		toID:  make([]int64, 0, len(ids)),
	}
	for _, id := range ids {
		if _, ok := m.toIdx[id]; ok {
			continue
		}
		m.toIdx[id] = len(m.toID)
		m.toID = append(m.toID, id)
	}
	return m
}

// Idx 返回 ID 对应的矩阵下标；ID 不在本批次时 ok 为 false。
func (m *IndexMap) Idx(id int64) (int, bool) {
	idx, ok := m.toIdx[id]
	return idx, ok
}

// ID 返回下标对应的外部 ID；下标越界时 ok 为 false。
func (m *IndexMap) ID(idx int) (int64, bool) {
	if idx < 0 || idx >= len(m.toID) {
		return 0, false
	}
	return m.toID[idx], true
}

// Len 返回映射内的 ID 数量。
func (m *IndexMap) Len() int {
	return len(m.toID)
}

// IDs 返回全部外部 ID（下标顺序）。返回内部 slice，调用方不得修改。
func (m *IndexMap) IDs() []int64 {
	return m.toID
}
