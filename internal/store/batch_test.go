// Copyright 2026 FoodBlock Protocol
//
// Unit tests for batch insert ordering
package store

import (
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

func TestCollectDependencyHashes(t *testing.T) {
	b := &block.Block{
		Hash: "self",
		Refs: map[string]any{
			"updates": "prev",
			"target":  "target-hash",
			"merges":  []any{"m1", "m2"},
		},
	}
	got := collectDependencyHashes(b)
	want := map[string]bool{"prev": true, "target-hash": true, "m1": true, "m2": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want keys %v", got, want)
	}
	for _, h := range got {
		if !want[h] {
			t.Errorf("unexpected dependency hash %q", h)
		}
	}
}

func TestDependsOnPendingDetectsSameBatchPredecessor(t *testing.T) {
	predecessor := &block.Block{Hash: "pred"}
	successor := &block.Block{Hash: "succ", Refs: map[string]any{"updates": "pred"}}

	inBatch := map[string]bool{"pred": true, "succ": true}
	pending := map[int]BatchItem{0: {Block: predecessor}}

	if !dependsOnPending(successor, inBatch, pending) {
		t.Error("expected successor to depend on the still-pending predecessor")
	}
}

func TestDependsOnPendingFalseOnceDependencyResolved(t *testing.T) {
	successor := &block.Block{Hash: "succ", Refs: map[string]any{"updates": "pred"}}
	inBatch := map[string]bool{"pred": true, "succ": true}
	pending := map[int]BatchItem{} // predecessor already resolved and removed

	if dependsOnPending(successor, inBatch, pending) {
		t.Error("expected no dependency once the predecessor has been resolved")
	}
}

func TestDependsOnPendingFalseForOutOfBatchReference(t *testing.T) {
	successor := &block.Block{Hash: "succ", Refs: map[string]any{"updates": "elsewhere"}}
	inBatch := map[string]bool{"succ": true}
	pending := map[int]BatchItem{}

	if dependsOnPending(successor, inBatch, pending) {
		t.Error("a reference outside the batch should never block an insert")
	}
}
