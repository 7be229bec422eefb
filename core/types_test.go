package core

import "testing"

func TestIndexMap_Bijection(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int64
		wantLen int
	}{
		{name: "unique ids", ids: []int64{10, 20, 30}, wantLen: 3},
		{name: "duplicates collapse", ids: []int64{10, 20, 10, 30, 20}, wantLen: 3},
		{name: "empty", ids: nil, wantLen: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewIndexMap(tt.ids)
			if m.Len() != tt.wantLen {
				t.Fatalf("Len() = %d, want %d", m.Len(), tt.wantLen)
			}
			// 双射：每个 ID 的下标唯一，且反向映射还原出同一个 ID
			seen := make(map[int]bool)
			for _, id := range tt.ids {
				idx, ok := m.Idx(id)
				if !ok {
					t.Fatalf("Idx(%d) not found", id)
				}
				back, ok := m.ID(idx)
				if !ok || back != id {
					t.Fatalf("ID(%d) = %d, want %d", idx, back, id)
				}
				seen[idx] = true
			}
			if len(seen) != tt.wantLen {
				t.Fatalf("distinct indexes = %d, want %d", len(seen), tt.wantLen)
			}
		})
	}
}

func TestIndexMap_Unknown(t *testing.T) {
	m := NewIndexMap([]int64{1, 2})
	if _, ok := m.Idx(99); ok {
		t.Fatal("Idx(99) should not be found")
	}
	if _, ok := m.ID(-1); ok {
		t.Fatal("ID(-1) should not be found")
	}
	if _, ok := m.ID(2); ok {
		t.Fatal("ID(2) out of range should not be found")
	}
}

func TestCacheKeys(t *testing.T) {
	const prefix = "rec:sys:"
	if got := UserHistoryKey(prefix, 42); got != "rec:sys:user:42:history" {
		t.Errorf("UserHistoryKey = %q", got)
	}
	if got := UserDiscoveryKey(prefix, 42); got != "rec:sys:user:42:discovery" {
		t.Errorf("UserDiscoveryKey = %q", got)
	}
	if got := ItemRelatedKey(prefix, 7); got != "rec:sys:item:7:related" {
		t.Errorf("ItemRelatedKey = %q", got)
	}
	if got := GlobalPopularKey(prefix); got != "rec:sys:global:popular" {
		t.Errorf("GlobalPopularKey = %q", got)
	}
}

func TestDomainError_Taxonomy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		check     func(error) bool
		wantFatal bool
	}{
		{"source unavailable", NewDomainError(ModuleDataset, ErrorCodeSourceUnavailable, "x"), IsSourceUnavailable, true},
		{"empty dataset", NewDomainError(ModuleDataset, ErrorCodeEmptyDataset, "x"), IsEmptyDataset, true},
		{"training failure", NewDomainError(ModuleALS, ErrorCodeTrainingFailure, "x"), IsTrainingFailure, true},
		{"not found", NewDomainError(ModuleEngine, ErrorCodeNotFound, "x"), IsNotFound, false},
		{"publish failure", NewDomainError(ModuleStore, ErrorCodePublishFailure, "x"), IsPublishFailure, false},
		{"unavailable", NewDomainError(ModuleStore, ErrorCodeUnavailable, "x"), IsUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Error("check function should match its own error")
			}
			if IsFatal(tt.err) != tt.wantFatal {
				t.Errorf("IsFatal = %v, want %v", IsFatal(tt.err), tt.wantFatal)
			}
		})
	}
	if IsFatal(nil) || IsNotFound(nil) {
		t.Error("nil error should not match any class")
	}
}
