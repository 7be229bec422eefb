// Package dataset 负责从数据源加载原始交互数据，计算时间衰减分数，
// 并构建稠密下标映射与稀疏用户-物品矩阵。
package dataset

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/UlicaLi/recommend-system/core"
)

// Result 是一次加载的全部产出：聚合分数、稀疏矩阵、双向下标映射。
type Result struct {
	Entries []core.ScoreEntry
	Matrix  *Matrix
	Users   *core.IndexMap
	Items   *core.IndexMap
}

// Loader 是离线批次的数据准备阶段。
//
// 核心流程：
//  1. 从 Source 读取窗口内的事件
//  2. 连续时间指数衰减计算权重：weight = decayRate ^ days_diff（days_diff 为小数天）
//  3. 按 (用户, 物品) 聚合权重求和得到分数
//  4. 建立 ID 映射并生成 CSR 矩阵
type Loader struct {
	Source     Source
	WindowDays int     // 仅计算最近 N 天的数据
	DecayRate  float64 // 每天的衰减系数，取值 (0,1)

	// Now 便于测试注入固定时刻；为 nil 时取 time.Now。
	Now func() time.Time
}

// Load 执行完整的数据准备。窗口内没有任何事件时返回 EMPTY_DATASET 错误，
// 调用方必须中止批次而不是带着空矩阵继续。
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	since := now.AddDate(0, 0, -l.WindowDays)

	events, err := l.Source.Fetch(ctx, since)
	if err != nil {
		return nil, err
	}
	log.Info().Int("rows", len(events)).Msg("原始数据加载完成")

	if len(events) == 0 {
		return nil, core.NewDomainError(core.ModuleDataset, core.ErrorCodeEmptyDataset,
			"dataset: no interactions within decay window")
	}

	entries := l.aggregate(now, events)
	log.Info().Int("pairs", len(entries)).Msg("聚合后交互对数量")

	users := make([]int64, 0, len(entries))
	items := make([]int64, 0, len(entries))
	for _, e := range entries {
		users = append(users, e.UserID)
		items = append(items, e.ItemID)
	}
	userMap := core.NewIndexMap(users)
	itemMap := core.NewIndexMap(items)

	rows := make([]int, len(entries))
	cols := make([]int, len(entries))
	vals := make([]float64, len(entries))
	for k, e := range entries {
		uIdx, _ := userMap.Idx(e.UserID)
		iIdx, _ := itemMap.Idx(e.ItemID)
		rows[k] = uIdx
		cols[k] = iIdx
		vals[k] = e.Score
	}
	matrix := NewMatrix(userMap.Len(), itemMap.Len(), rows, cols, vals)
	log.Info().
		Int("users", matrix.NumRows).
		Int("items", matrix.NumCols).
		Int("nnz", matrix.NNZ()).
		Msg("稀疏矩阵构建完成")

	return &Result{
		Entries: entries,
		Matrix:  matrix,
		Users:   userMap,
		Items:   itemMap,
	}, nil
}

// aggregate 逐事件计算衰减权重并按 (用户, 物品) 求和。
// 条目顺序为交互对的首次出现顺序；浮点求和的顺序差异在容差内可忽略。
func (l *Loader) aggregate(now time.Time, events []Interaction) []core.ScoreEntry {
	type pair struct{ user, item int64 }

	index := make(map[pair]int, len(events))
	entries := make([]core.ScoreEntry, 0, len(events))

	for _, ev := range events {
		daysDiff := now.Sub(ev.VisitedAt).Hours() / 24
		weight := math.Pow(l.DecayRate, daysDiff)

		p := pair{ev.UserID, ev.ItemID}
		if k, ok := index[p]; ok {
			entries[k].Score += weight
			continue
		}
		index[p] = len(entries)
		entries = append(entries, core.ScoreEntry{
			UserID: ev.UserID,
			ItemID: ev.ItemID,
			Score:  weight,
		})
	}
	return entries
}
