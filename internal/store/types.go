// Copyright 2026 FoodBlock Protocol
//
// Shared record and outcome types
package store

import "time"

// Visibility values recognized by the store (§3.3).
const (
	VisibilityPublic  = "public"
	VisibilityNetwork = "network"
	VisibilitySector  = "sector"
	VisibilityChain   = "chain"
	VisibilityDirect  = "direct"
	VisibilityPrivate = "private"
	VisibilityInternal = "internal"
)

// Record is the stored form of a block: the hashed triple plus the derived
// columns from §3.3.
type Record struct {
	Hash            string         `json:"hash"`
	Type            string         `json:"type"`
	State           map[string]any `json:"state"`
	Refs            map[string]any `json:"refs"`
	AuthorHash      *string        `json:"author_hash,omitempty"`
	Signature       *string        `json:"signature,omitempty"`
	ProtocolVersion *string        `json:"protocol_version,omitempty"`
	ChainID         string         `json:"chain_id"`
	IsHead          bool           `json:"is_head"`
	Visibility      string         `json:"visibility"`
	CreatedAt       time.Time      `json:"created_at"`
}

// InsertOutcome reports what the insert pipeline (§4.4.2) actually did.
type InsertOutcome struct {
	Block  *Record
	Exists bool // idempotent re-insert of a known hash
	Fork   bool // became the genesis of its own new chain
}
