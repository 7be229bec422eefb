// Package engine 基于聚合分数与隐因子模型提供四类推荐检索：
// 常用（history）、发现（discovery）、相关（related）、热门（popular）。
package engine

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/UlicaLi/recommend-system/als"
	"github.com/UlicaLi/recommend-system/core"
	"github.com/UlicaLi/recommend-system/dataset"
)

// Engine 的全部状态在批次开始时一次构建完成，之后只读。
//
// 预构建索引：
//   - 用户历史索引：user_id → 按分数降序的物品列表，O(1) 查询
//   - 全局热门列表：物品按总分降序，读取时再截断
//
// 冷启动策略由调用方执行：history/discovery 返回空时调用方替换为 Popular；
// related 没有兜底，空结果本身合法（物品没有学到任何关联）。
type Engine struct {
	users *core.IndexMap
	items *core.IndexMap
	model *als.Model
	// matrix 保留训练矩阵的引用：discovery 需要按用户行做"已交互"排除
	matrix *dataset.Matrix

	history map[int64][]int64
	popular []int64
}

// New 从一次批次的产出构建引擎。
func New(res *dataset.Result, model *als.Model) *Engine {
	e := &Engine{
		users:  res.Users,
		items:  res.Items,
		model:  model,
		matrix: res.Matrix,
	}
	e.buildHistoryIndex(res.Entries)
	e.buildPopular(res.Entries)
	return e
}

// buildHistoryIndex 预构建用户历史行为索引。
// 排序规则：分数降序，物品 ID 升序打破平手，保证重复运行结果确定。
func (e *Engine) buildHistoryIndex(entries []core.ScoreEntry) {
	type scored struct {
		itemID int64
		score  float64
	}
	perUser := make(map[int64][]scored, e.users.Len())
	for _, en := range entries {
		perUser[en.UserID] = append(perUser[en.UserID], scored{en.ItemID, en.Score})
	}

	e.history = make(map[int64][]int64, len(perUser))
	for uid, list := range perUser {
		sort.Slice(list, func(i, j int) bool {
			if list[i].score != list[j].score {
				return list[i].score > list[j].score
			}
			return list[i].itemID < list[j].itemID
		})
		ids := make([]int64, len(list))
		for i, s := range list {
			ids[i] = s.itemID
		}
		e.history[uid] = ids
	}
	log.Info().Int("users", len(e.history)).Msg("用户历史行为索引构建完成")
}

// buildPopular 计算全局热门物品列表（按总分降序，物品 ID 升序打破平手）。
func (e *Engine) buildPopular(entries []core.ScoreEntry) {
	totals := make(map[int64]float64, e.items.Len())
	for _, en := range entries {
		totals[en.ItemID] += en.Score
	}

	type scored struct {
		itemID int64
		score  float64
	}
	list := make([]scored, 0, len(totals))
	for id, total := range totals {
		list = append(list, scored{id, total})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].itemID < list[j].itemID
	})

	e.popular = make([]int64, len(list))
	for i, s := range list {
		e.popular[i] = s.itemID
	}
	log.Info().Int("items", len(e.popular)).Msg("全局热门物品计算完成")
}

// History 返回用户的常用物品（场景A）：不经过模型，直接取衰减加权分数 Top N。
// 用户未知时返回空列表，由调用方应用兜底策略。
func (e *Engine) History(userID int64, limit int) []int64 {
	ids := e.history[userID]
	return truncate(ids, limit)
}

// Discovery 返回用户的发现推荐（场景B）：对全部物品算隐向量点积，
// 排除用户已交互过的物品后取 Top N。排除规则是"发现"区别于普通排序的关键。
// 用户不在模型中时返回空列表。
func (e *Engine) Discovery(userID int64, limit int) []int64 {
	uIdx, ok := e.users.Idx(userID)
	if !ok {
		return nil
	}

	seen := make(map[int]struct{})
	cols, _ := e.matrix.Row(uIdx)
	for _, c := range cols {
		seen[c] = struct{}{}
	}

	candidates := make([]scoredIdx, 0, e.items.Len()-len(seen))
	for iIdx := 0; iIdx < e.items.Len(); iIdx++ {
		if _, dup := seen[iIdx]; dup {
			continue
		}
		candidates = append(candidates, scoredIdx{iIdx, e.model.Predict(uIdx, iIdx)})
	}
	return e.topItems(candidates, limit)
}

// Related 返回与给定物品最相似的其他物品（场景C），比较器为隐向量余弦相似度。
// 物品自身始终被排除；物品不在模型中时返回空列表（没有兜底）。
func (e *Engine) Related(itemID int64, limit int) []int64 {
	selfIdx, ok := e.items.Idx(itemID)
	if !ok {
		return nil
	}

	candidates := make([]scoredIdx, 0, e.items.Len()-1)
	for iIdx := 0; iIdx < e.items.Len(); iIdx++ {
		if iIdx == selfIdx {
			continue
		}
		candidates = append(candidates, scoredIdx{iIdx, e.model.ItemSimilarity(selfIdx, iIdx)})
	}
	return e.topItems(candidates, limit)
}

// Popular 返回全局热门物品 Top N（冷启动兜底用）。
func (e *Engine) Popular(limit int) []int64 {
	return truncate(e.popular, limit)
}

// ActiveUsers 返回本批次内有交互的全部用户 ID。
func (e *Engine) ActiveUsers() []int64 { return e.users.IDs() }

// ActiveItems 返回本批次内被交互过的全部物品 ID。
func (e *Engine) ActiveItems() []int64 { return e.items.IDs() }

type scoredIdx struct {
	idx   int
	score float64
}

// topItems 按分数降序排序候选并转回外部物品 ID，平手按物品 ID 升序。
func (e *Engine) topItems(candidates []scoredIdx, limit int) []int64 {
	idOf := func(idx int) int64 {
		id, _ := e.items.ID(idx)
		return id
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return idOf(candidates[i].idx) < idOf(candidates[j].idx)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]int64, len(candidates))
	for i, c := range candidates {
		out[i] = idOf(c.idx)
	}
	return out
}

// truncate 截取前 limit 个；limit <= 0 时返回完整列表。
func truncate(ids []int64, limit int) []int64 {
	if len(ids) == 0 {
		return nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}
