// Copyright 2026 FoodBlock Protocol
//
// Dependency-ordered batch insert
package store

import (
	"context"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

// BatchItem is one block submitted through POST /batch (§4.4.4), carrying
// its wrapper fields alongside the parsed block.
type BatchItem struct {
	Block           *block.Block
	AuthorHash      string
	Signature       string
	ProtocolVersion string
}

// BatchItemResult reports what happened to a single submitted item.
type BatchItemResult struct {
	Hash     string
	Inserted bool
	Exists   bool
	Skipped  bool
	Error    string
}

// BatchResult is the overall outcome of InsertBatch.
type BatchResult struct {
	Results    []BatchItemResult
	Unresolved []string // hashes whose same-batch dependencies (refs.updates/target/merges) never resolved, even after every pass
}

// InsertBatch inserts items across multiple passes so that a block
// referencing a same-batch predecessor via refs.updates succeeds once its
// predecessor has landed, regardless of submission order (§4.4.4). An item
// is deferred, not attempted, while any hash it depends on is still
// pending elsewhere in the same batch; it is only attempted once every
// same-batch dependency has been resolved (inserted or permanently
// errored). Items that remain blocked after no pass makes progress are
// reported unresolved rather than silently dropped, and each item's error
// is isolated from its peers.
func (r *BlocksRepository) InsertBatch(ctx context.Context, items []BatchItem) (*BatchResult, error) {
	inBatch := make(map[string]bool, len(items))
	for _, it := range items {
		inBatch[it.Block.Hash] = true
	}

	pending := make(map[int]BatchItem, len(items))
	for i, it := range items {
		pending[i] = it
	}
	results := make(map[int]BatchItemResult, len(items))

	for len(pending) > 0 {
		progressed := false
		for i, it := range pending {
			if dependsOnPending(it.Block, inBatch, pending) {
				continue
			}
			outcome, err := r.Insert(ctx, it.Block, it.AuthorHash, it.Signature, it.ProtocolVersion)
			if err != nil {
				results[i] = BatchItemResult{Hash: it.Block.Hash, Error: err.Error()}
				delete(pending, i)
				progressed = true
				continue
			}
			results[i] = BatchItemResult{
				Hash:     it.Block.Hash,
				Inserted: !outcome.Exists,
				Exists:   outcome.Exists,
			}
			delete(pending, i)
			progressed = true
		}
		if !progressed {
			break
		}
	}

	var unresolved []string
	for i, it := range pending {
		results[i] = BatchItemResult{Hash: it.Block.Hash, Skipped: true}
		unresolved = append(unresolved, it.Block.Hash)
	}

	ordered := make([]BatchItemResult, len(items))
	for i := range items {
		ordered[i] = results[i]
	}
	return &BatchResult{Results: ordered, Unresolved: unresolved}, nil
}

// dependsOnPending reports whether b references (via refs.updates,
// refs.target, or refs.merges) a hash that belongs to this batch and has
// not yet been resolved.
func dependsOnPending(b *block.Block, inBatch map[string]bool, pending map[int]BatchItem) bool {
	stillPending := make(map[string]bool, len(pending))
	for _, it := range pending {
		stillPending[it.Block.Hash] = true
	}
	for _, h := range collectDependencyHashes(b) {
		if h != b.Hash && inBatch[h] && stillPending[h] {
			return true
		}
	}
	return false
}

func collectDependencyHashes(b *block.Block) []string {
	var out []string
	if h, ok := refString(b.Refs, "updates"); ok {
		out = append(out, h)
	}
	if h, ok := refString(b.Refs, "target"); ok {
		out = append(out, h)
	}
	out = append(out, refStrings(b.Refs, "merges")...)
	return out
}
