// Package pipeline 编排离线批次：加载 → 训练 → 批量计算推荐列表 → 落库。
//
// 调度模型：单次批处理任务，跑完即退出。唯一的阻塞点是数据源查询（一次同步读）
// 和最终的缓存批量写（一次同步写）。逐用户/逐物品的列表计算彼此独立、
// 与顺序无关，用 errgroup 并发执行，各自产出独立条目后合并。
package pipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/UlicaLi/recommend-system/als"
	"github.com/UlicaLi/recommend-system/config"
	"github.com/UlicaLi/recommend-system/core"
	"github.com/UlicaLi/recommend-system/dataset"
	"github.com/UlicaLi/recommend-system/engine"
)

// UserLists 是单个用户的两类推荐列表。
type UserLists struct {
	History   []int64
	Discovery []int64
}

// Job 是一次完整的离线批次。依赖全部显式注入，便于测试替换。
type Job struct {
	Cfg    *config.Config
	Source dataset.Source
	Store  core.ListStore

	// Now 便于测试注入固定时刻；为 nil 时取 time.Now。
	Now func() time.Time
}

// Run 执行批次。致命错误（数据源不可用、空数据集、训练失败）直接返回；
// 缓存写入失败记录日志并返回 PUBLISH_FAILURE，已写入的部分保持原样，
// 下一次批次会全量覆盖。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()
	log.Info().Msg("推荐系统离线任务启动")

	loader := &dataset.Loader{
		Source:     j.Source,
		WindowDays: j.Cfg.TimeDecayWindow,
		DecayRate:  j.Cfg.TimeDecayRate,
		Now:        j.Now,
	}
	res, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	trainer := &als.Trainer{
		Factors:        j.Cfg.ALSFactors,
		Regularization: j.Cfg.ALSRegularization,
		Iterations:     j.Cfg.ALSIterations,
		Alpha:          j.Cfg.ALSAlpha,
		Seed:           j.Cfg.ALSSeed,
	}
	trainStart := time.Now()
	model, err := trainer.Fit(res.Matrix)
	if err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(trainStart)).Msg("ALS 模型训练完成")

	eng := engine.New(res, model)

	userLists, itemLists, err := j.computeAll(ctx, eng)
	if err != nil {
		return err
	}

	if err := j.publish(ctx, eng, userLists, itemLists); err != nil {
		log.Error().Err(err).Msg("推荐结果落库失败")
		return err
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("离线任务完成")
	return nil
}

// computeAll 为全部活跃用户和物品并发计算推荐列表。
// 各 goroutine 只写自己的局部结果，合并处加锁，无共享可变状态。
func (j *Job) computeAll(ctx context.Context, eng *engine.Engine) (map[int64]UserLists, map[int64][]int64, error) {
	concurrency := j.Cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	activeUsers := eng.ActiveUsers()
	activeItems := eng.ActiveItems()
	log.Info().
		Int("users", len(activeUsers)).
		Int("items", len(activeItems)).
		Int("concurrency", concurrency).
		Msg("开始批量计算推荐列表")

	var (
		mu        sync.Mutex
		userLists = make(map[int64]UserLists, len(activeUsers))
		itemLists = make(map[int64][]int64, len(activeItems))
	)

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for _, uid := range activeUsers {
		uid := uid
		eg.Go(func() error {
			lists := UserLists{
				History:   eng.History(uid, j.Cfg.RecHistoryCount),
				Discovery: eng.Discovery(uid, j.Cfg.RecDiscoveryCount),
			}
			mu.Lock()
			userLists[uid] = lists
			mu.Unlock()
			return nil
		})
	}
	for _, iid := range activeItems {
		iid := iid
		eg.Go(func() error {
			related := eng.Related(iid, j.Cfg.RecRelatedCount)
			mu.Lock()
			itemLists[iid] = related
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return userLists, itemLists, nil
}

// publish 按 key 模式组装全部待写列表并一次性批量落库。
// 空列表也进入映射：覆盖语义要求清掉上一批次的陈旧 key。
func (j *Job) publish(ctx context.Context, eng *engine.Engine, userLists map[int64]UserLists, itemLists map[int64][]int64) error {
	prefix := j.Cfg.RedisKeyPrefix

	lists := make(map[string][]int64, len(userLists)*2+len(itemLists)+1)
	for uid, l := range userLists {
		lists[core.UserHistoryKey(prefix, uid)] = l.History
		lists[core.UserDiscoveryKey(prefix, uid)] = l.Discovery
	}
	for iid, related := range itemLists {
		lists[core.ItemRelatedKey(prefix, iid)] = related
	}
	// 热门列表为 history/discovery 两个场景兜底，长度取两者较大值
	popularLimit := j.Cfg.RecHistoryCount
	if j.Cfg.RecDiscoveryCount > popularLimit {
		popularLimit = j.Cfg.RecDiscoveryCount
	}
	lists[core.GlobalPopularKey(prefix)] = eng.Popular(popularLimit)

	log.Info().
		Int("user_lists", len(userLists)).
		Int("item_lists", len(itemLists)).
		Str("store", j.Store.Name()).
		Msg("保存推荐结果")

	return j.Store.ReplaceLists(ctx, lists, j.Cfg.RedisExpireSeconds)
}
