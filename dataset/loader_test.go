package dataset

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/UlicaLi/recommend-system/core"
)

// fakeSource 模拟数据源：按 since 过滤，和真实 SQL 查询的行为一致。
type fakeSource struct {
	events []Interaction
	err    error
}

func (f *fakeSource) Fetch(_ context.Context, since time.Time) ([]Interaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Interaction
	for _, ev := range f.events {
		if !ev.VisitedAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func day(t0 time.Time, daysAgo float64) time.Time {
	return t0.Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
}

func newLoader(src Source, t0 time.Time) *Loader {
	return &Loader{
		Source:     src,
		WindowDays: 180,
		DecayRate:  0.95,
		Now:        func() time.Time { return t0 },
	}
}

// 规格中的端到端示例：窗口 180 天、衰减 0.95，
// 事件 {(1,100,t0), (1,100,t0-1d), (1,200,t0-200d)}。
func TestLoader_EndToEndExample(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{events: []Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: t0},
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 1)},
		{UserID: 1, ItemID: 200, VisitedAt: day(t0, 200)}, // 窗口外，被过滤
	}}

	res, err := newLoader(src, t0).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if e.UserID != 1 || e.ItemID != 100 {
		t.Fatalf("entry = (%d,%d), want (1,100)", e.UserID, e.ItemID)
	}
	want := 1.0 + 0.95 // 0.95^0 + 0.95^1
	if math.Abs(e.Score-want) > 1e-9 {
		t.Errorf("score = %v, want %v", e.Score, want)
	}
	if res.Matrix.NumRows != 1 || res.Matrix.NumCols != 1 || res.Matrix.NNZ() != 1 {
		t.Errorf("matrix shape (%d,%d) nnz %d, want (1,1) nnz 1",
			res.Matrix.NumRows, res.Matrix.NumCols, res.Matrix.NNZ())
	}
}

// 衰减权重随事件年龄严格递减（连续时间衰减，0.5 天和 1.5 天得到不同权重）。
func TestLoader_DecayStrictlyDecreasing(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{events: []Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 0.5)},
		{UserID: 1, ItemID: 200, VisitedAt: day(t0, 1.5)},
		{UserID: 1, ItemID: 300, VisitedAt: day(t0, 30)},
	}}

	res, err := newLoader(src, t0).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	scores := make(map[int64]float64)
	for _, e := range res.Entries {
		scores[e.ItemID] = e.Score
	}
	if !(scores[100] > scores[200] && scores[200] > scores[300]) {
		t.Errorf("weights not strictly decreasing with age: %v", scores)
	}
}

// 聚合分数与输入事件顺序无关（浮点容差内）。
func TestLoader_AggregationOrderIndependent(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	events := []Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 0.3)},
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 2.7)},
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 15)},
		{UserID: 2, ItemID: 100, VisitedAt: day(t0, 4)},
	}
	reversed := make([]Interaction, len(events))
	for i, ev := range events {
		reversed[len(events)-1-i] = ev
	}

	resA, err := newLoader(&fakeSource{events: events}, t0).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	resB, err := newLoader(&fakeSource{events: reversed}, t0).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	scoreOf := func(entries []core.ScoreEntry, uid, iid int64) float64 {
		for _, e := range entries {
			if e.UserID == uid && e.ItemID == iid {
				return e.Score
			}
		}
		t.Fatalf("entry (%d,%d) missing", uid, iid)
		return 0
	}
	for _, pair := range [][2]int64{{1, 100}, {2, 100}} {
		a := scoreOf(resA.Entries, pair[0], pair[1])
		b := scoreOf(resB.Entries, pair[0], pair[1])
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("pair %v: %v vs %v", pair, a, b)
		}
	}
}

// 非零元素数等于聚合后唯一交互对数；形状等于唯一用户数 × 唯一物品数。
func TestLoader_MatrixShapeAndNNZ(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{events: []Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 1)},
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 2)}, // 同一对，聚合
		{UserID: 1, ItemID: 200, VisitedAt: day(t0, 1)},
		{UserID: 2, ItemID: 100, VisitedAt: day(t0, 3)},
		{UserID: 3, ItemID: 300, VisitedAt: day(t0, 5)},
	}}

	res, err := newLoader(src, t0).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(res.Entries); got != 4 {
		t.Errorf("distinct pairs = %d, want 4", got)
	}
	if res.Matrix.NNZ() != 4 {
		t.Errorf("nnz = %d, want 4", res.Matrix.NNZ())
	}
	if res.Matrix.NumRows != 3 || res.Matrix.NumCols != 3 {
		t.Errorf("shape = (%d,%d), want (3,3)", res.Matrix.NumRows, res.Matrix.NumCols)
	}
	if res.Users.Len() != 3 || res.Items.Len() != 3 {
		t.Errorf("index maps = (%d,%d), want (3,3)", res.Users.Len(), res.Items.Len())
	}
	for _, e := range res.Entries {
		if e.Score <= 0 {
			t.Errorf("score for (%d,%d) = %v, want > 0", e.UserID, e.ItemID, e.Score)
		}
	}
}

func TestLoader_EmptyDataset(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{events: []Interaction{
		{UserID: 1, ItemID: 100, VisitedAt: day(t0, 365)}, // 全部在窗口外
	}}

	_, err := newLoader(src, t0).Load(context.Background())
	if !core.IsEmptyDataset(err) {
		t.Fatalf("err = %v, want EMPTY_DATASET", err)
	}
}

func TestLoader_SourceError(t *testing.T) {
	srcErr := core.NewDomainError(core.ModuleDataset, core.ErrorCodeSourceUnavailable, "boom")
	src := &fakeSource{err: srcErr}

	_, err := newLoader(src, time.Now()).Load(context.Background())
	if !core.IsSourceUnavailable(err) {
		t.Fatalf("err = %v, want SOURCE_UNAVAILABLE", err)
	}
	if core.GetDomainError(err) != srcErr {
		t.Fatalf("source error should propagate unchanged")
	}
}
