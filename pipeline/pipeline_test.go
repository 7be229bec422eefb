package pipeline

import (
	"context"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/UlicaLi/recommend-system/config"
	"github.com/UlicaLi/recommend-system/core"
	"github.com/UlicaLi/recommend-system/dataset"
	"github.com/UlicaLi/recommend-system/store"
)

type fakeSource struct {
	events []dataset.Interaction
	err    error
}

func (f *fakeSource) Fetch(_ context.Context, since time.Time) ([]dataset.Interaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []dataset.Interaction
	for _, ev := range f.events {
		if !ev.VisitedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ALSFactors = 4
	cfg.ALSIterations = 5
	cfg.Concurrency = 2
	return cfg
}

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testEvents() []dataset.Interaction {
	ago := func(days float64) time.Time {
		return fixedNow.Add(-time.Duration(days * 24 * float64(time.Hour)))
	}
	return []dataset.Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: ago(0.5)},
		{UserID: 1, ItemID: 100, VisitedAt: ago(1.5)},
		{UserID: 1, ItemID: 200, VisitedAt: ago(2)},
		{UserID: 2, ItemID: 200, VisitedAt: ago(1)},
		{UserID: 2, ItemID: 300, VisitedAt: ago(3)},
		{UserID: 3, ItemID: 300, VisitedAt: ago(0.2)},
	}
}

func TestJob_Run_WritesAllKeys(t *testing.T) {
	cfg := testConfig()
	cache := store.NewMemoryStore()
	job := &Job{Cfg: cfg, Source: &fakeSource{events: testEvents()}, Store: cache, Now: func() time.Time { return fixedNow }}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx := context.Background()
	prefix := cfg.RedisKeyPrefix

	// 每个活跃用户都有 history；用户 1 最常用的应是 100
	hist, err := cache.GetList(ctx, core.UserHistoryKey(prefix, 1))
	if err != nil || len(hist) == 0 {
		t.Fatalf("user 1 history = %v, err %v", hist, err)
	}
	if hist[0] != 100 {
		t.Errorf("user 1 top history = %d, want 100", hist[0])
	}

	// discovery 不包含用户已交互的物品
	disc, _ := cache.GetList(ctx, core.UserDiscoveryKey(prefix, 1))
	for _, id := range disc {
		if id == 100 || id == 200 {
			t.Errorf("user 1 discovery contains interacted item %d", id)
		}
	}

	// 每个活跃物品都有 related，且不含自身
	for _, iid := range []int64{100, 200, 300} {
		related, _ := cache.GetList(ctx, core.ItemRelatedKey(prefix, iid))
		for _, id := range related {
			if id == iid {
				t.Errorf("item %d related contains itself", iid)
			}
		}
	}

	// 全局热门存在且非空
	popular, _ := cache.GetList(ctx, core.GlobalPopularKey(prefix))
	if len(popular) == 0 {
		t.Fatal("global popular list missing")
	}
	if cache.LastTTL() != cfg.RedisExpireSeconds {
		t.Errorf("ttl = %d, want %d", cache.LastTTL(), cfg.RedisExpireSeconds)
	}
}

// 相同输入重跑批次，缓存最终状态一致（覆盖写 + 固定种子 + 确定性平手规则）。
func TestJob_Run_Idempotent(t *testing.T) {
	cfg := testConfig()
	cache := store.NewMemoryStore()
	src := &fakeSource{events: testEvents()}
	job := &Job{Cfg: cfg, Source: src, Store: cache, Now: func() time.Time { return fixedNow }}

	ctx := context.Background()
	if err := job.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstKeys := cache.Keys()
	sort.Strings(firstKeys)
	firstState := make(map[string][]int64, len(firstKeys))
	for _, k := range firstKeys {
		firstState[k], _ = cache.GetList(ctx, k)
	}

	if err := job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	secondKeys := cache.Keys()
	sort.Strings(secondKeys)
	if !reflect.DeepEqual(firstKeys, secondKeys) {
		t.Fatalf("key sets differ: %v vs %v", firstKeys, secondKeys)
	}
	for _, k := range firstKeys {
		got, _ := cache.GetList(ctx, k)
		if !reflect.DeepEqual(got, firstState[k]) {
			t.Errorf("key %s changed across reruns: %v vs %v", k, firstState[k], got)
		}
	}
}

// 空数据集：批次中止，缓存不应有任何写入。
func TestJob_Run_EmptyDatasetAborts(t *testing.T) {
	cfg := testConfig()
	cache := store.NewMemoryStore()
	job := &Job{Cfg: cfg, Source: &fakeSource{}, Store: cache}

	err := job.Run(context.Background())
	if !core.IsEmptyDataset(err) {
		t.Fatalf("err = %v, want EMPTY_DATASET", err)
	}
	if len(cache.Keys()) != 0 {
		t.Fatalf("aborted run must not write cache, got keys %v", cache.Keys())
	}
}

func TestJob_Run_SourceUnavailableAborts(t *testing.T) {
	cfg := testConfig()
	cache := store.NewMemoryStore()
	srcErr := core.NewDomainError(core.ModuleDataset, core.ErrorCodeSourceUnavailable, "down")
	job := &Job{Cfg: cfg, Source: &fakeSource{err: srcErr}, Store: cache}

	err := job.Run(context.Background())
	if !core.IsSourceUnavailable(err) {
		t.Fatalf("err = %v, want SOURCE_UNAVAILABLE", err)
	}
	if len(cache.Keys()) != 0 {
		t.Fatal("aborted run must not write cache")
	}
}
