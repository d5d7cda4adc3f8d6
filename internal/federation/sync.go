// Copyright 2026 FoodBlock Protocol
//
// Federation push and cursor-based pull
package federation

import (
	"context"
	"fmt"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

// Inserter is the subset of *store.BlocksRepository sync needs, kept as
// an interface so tests can substitute a fake.
type Inserter interface {
	Insert(ctx context.Context, b *block.Block, authorHash, signature, protocolVersion string) (*store.InsertOutcome, error)
}

// SyncResult reports what Sync did in both directions.
type SyncResult struct {
	Pulled      int
	PullFailed  []string
	Pushed      int
	PushFailed  []string
	Cursor      string
}

// Sync runs the §4.8 composite operation against one peer: pull
// everything since the peer's last known cursor, insert locally, then
// push everything authored locally since the last sync.
func Sync(ctx context.Context, client *Client, inserter Inserter, peerURL string, peer *store.Peer, localSince []map[string]any) (*SyncResult, error) {
	result := &SyncResult{}

	cursor := ""
	if peer != nil {
		cursor = peer.LastCursor
	}

	for {
		pulled, err := client.Pull(ctx, peerURL, PullRequest{Since: cursor, Limit: 500})
		if err != nil {
			return nil, fmt.Errorf("federation: pull from %s: %w", peerURL, err)
		}
		for _, raw := range pulled.Blocks {
			b, authorHash, signature, protoVersion, err := decodeWireBlock(raw)
			if err != nil {
				result.PullFailed = append(result.PullFailed, fmt.Sprint(raw["hash"]))
				continue
			}
			if _, err := inserter.Insert(ctx, b, authorHash, signature, protoVersion); err != nil {
				result.PullFailed = append(result.PullFailed, b.Hash)
				continue
			}
			result.Pulled++
		}
		result.Cursor = pulled.Cursor
		if !pulled.HasMore {
			break
		}
		cursor = pulled.Cursor
	}

	if len(localSince) > 0 {
		hashes := make([]string, 0, len(localSince))
		for _, raw := range localSince {
			if h, ok := raw["hash"].(string); ok {
				hashes = append(hashes, h)
			}
		}
		pushResult, err := client.Push(ctx, peerURL, PushRequest{Blocks: localSince})
		if err != nil {
			result.PushFailed = hashes
		} else {
			result.Pushed = pushResult.Inserted
		}
	}

	return result, nil
}

// decodeWireBlock parses one element of a pull response's blocks array,
// which carries the wrapper fields alongside the block triple.
func decodeWireBlock(raw map[string]any) (*block.Block, string, string, string, error) {
	hash, _ := raw["hash"].(string)
	typ, _ := raw["type"].(string)
	state, _ := raw["state"].(map[string]any)
	refs, _ := raw["refs"].(map[string]any)
	if typ == "" {
		return nil, "", "", "", fmt.Errorf("federation: block missing type")
	}
	b := &block.Block{Hash: hash, Type: typ, State: state, Refs: refs}

	authorHash, _ := raw["author_hash"].(string)
	signature, _ := raw["signature"].(string)
	protoVersion, _ := raw["protocol_version"].(string)
	return b, authorHash, signature, protoVersion, nil
}
