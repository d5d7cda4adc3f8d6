// Copyright 2026 FoodBlock Protocol
//
// Agent permission gate and auto-approval policy
// Package agent implements the permission gate and draft/approve lifecycle
// for actor.agent-authored blocks (§4.7). Grounded on internal/block's
// primitives (Create/Update) — an agent's confirmed block is produced by
// calling block.Update over the draft exactly the way any other author
// would, so the graph carries the approval trail rather than a side table
// (§4.7 "all transitions are normal blocks").
package agent

import (
	"fmt"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/eventbus"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// Identity is the declared policy of an actor.agent block (§4.7), read
// from its state at permission-check time.
type Identity struct {
	Hash               string
	OperatorHash       string
	Capabilities       []string
	MaxAmount          float64
	HasMaxAmount       bool
	AutoApproveUnder   float64
	HasAutoApprove     bool
	RateLimitPerHour   int
	HasRateLimit       bool
}

// IdentityFromState reads an Identity out of a decoded actor.agent block.
func IdentityFromState(hash string, state, refs map[string]any) Identity {
	id := Identity{Hash: hash}
	if op, ok := refs["operator"].(string); ok {
		id.OperatorHash = op
	}
	if caps, ok := state["capabilities"].([]any); ok {
		for _, c := range caps {
			if s, ok := c.(string); ok {
				id.Capabilities = append(id.Capabilities, s)
			}
		}
	}
	if v, ok := numberField(state, "max_amount"); ok {
		id.MaxAmount, id.HasMaxAmount = v, true
	}
	if v, ok := numberField(state, "auto_approve_under"); ok {
		id.AutoApproveUnder, id.HasAutoApprove = v, true
	}
	if v, ok := numberField(state, "rate_limit_per_hour"); ok {
		id.RateLimitPerHour, id.HasRateLimit = int(v), true
	}
	return id
}

func numberField(state map[string]any, key string) (float64, bool) {
	v, ok := state[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// amountFields are the heuristic value-bearing keys §4.7 names.
var amountFields = []string{"total", "amount", "value"}

// blockAmount extracts the monetary value a block represents, if any
// (§4.7 step 2's heuristic).
func blockAmount(state map[string]any) (float64, bool) {
	for _, key := range amountFields {
		if v, ok := numberField(state, key); ok {
			return v, true
		}
	}
	return 0, false
}

// RateCounter reports how many blocks an agent has authored in the
// trailing hour. The store-backed implementation counts refs.agent ==
// hash over the graph (§4.7 step 3); tests may substitute a fake.
type RateCounter interface {
	CountSince(agentHash string, since time.Time) (int, error)
}

// CheckPermission runs the three-layer gate of §4.7 against a proposed
// block authored (directly or via draft) by the agent described by id.
// Returns an *fberr.Error of kind KindPermissionDenied for capability/
// amount failures, KindRateLimited for the rate gate and KindInternal when
// the counter fails, matching the HTTP status mapping in §7. These are new
// error values, not the fberr sentinels.
func CheckPermission(id Identity, typ string, state map[string]any, counter RateCounter) error {
	if !capabilityAllows(id.Capabilities, typ) {
		return fberr.Wrap(fberr.KindPermissionDenied, fmt.Sprintf("agent %s has no capability for %s", id.Hash, typ), nil)
	}

	if amount, ok := blockAmount(state); ok && id.HasMaxAmount {
		if amount > id.MaxAmount {
			return fberr.New(fberr.KindPermissionDenied, fmt.Sprintf("amount %.2f exceeds agent max_amount %.2f", amount, id.MaxAmount))
		}
	}

	if id.HasRateLimit && counter != nil {
		count, err := counter.CountSince(id.Hash, time.Now().Add(-time.Hour))
		if err != nil {
			return fberr.Wrap(fberr.KindInternal, "check agent rate", err)
		}
		if count >= id.RateLimitPerHour {
			return fberr.New(fberr.KindRateLimited, fmt.Sprintf("agent %s exceeded %d blocks/hour", id.Hash, id.RateLimitPerHour))
		}
	}

	return nil
}

func capabilityAllows(capabilities []string, typ string) bool {
	for _, c := range capabilities {
		if eventbus.MatchesPattern(c, typ) {
			return true
		}
	}
	return false
}

// ShouldAutoApprove reports whether a draft's amount (if any) falls under
// the agent's auto_approve_under threshold (§4.7 draft/approve lifecycle).
// A draft with no monetary amount auto-approves only when a positive
// threshold is declared at all.
func ShouldAutoApprove(id Identity, state map[string]any) bool {
	if !id.HasAutoApprove || id.AutoApproveUnder <= 0 {
		return false
	}
	amount, ok := blockAmount(state)
	if !ok {
		return true
	}
	return amount < id.AutoApproveUnder
}
