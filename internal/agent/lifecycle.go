// Copyright 2026 FoodBlock Protocol
//
// Agent draft confirm/reject lifecycle
package agent

import (
	"github.com/foodxdevelopment/foodblock/internal/block"
)

// Draft states per §4.7: draft -> auto_approved | approved | rejected |
// superseded. Terminal states are immutable; represented here only as
// documentation constants since the graph itself is the source of truth
// (no side table tracks them).
const (
	StatusDraft        = "draft"
	StatusAutoApproved = "auto_approved"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
	StatusSuperseded   = "superseded"
)

// ConfirmDraft builds the confirmed successor to a draft block: an
// update() with state.draft removed and refs.approved_agent set to the
// agent that authored the draft (§4.7). Used both for system
// auto-approval and for an operator's explicit approval — the only
// difference is who signs the resulting wrapper.
func ConfirmDraft(draft *block.Block, agentHash string) (*block.Block, error) {
	state := cloneWithoutDraft(draft.State)
	refs := cloneRefs(draft.Refs)
	refs["approved_agent"] = agentHash
	return block.Update(draft.Hash, draft.Type, state, refs)
}

// RejectDraft builds the update block an operator emits to reject a
// draft: the draft remains in the graph (non-head) and the rejection
// block carries state.rejected=true (§4.7).
func RejectDraft(draft *block.Block, reason string) (*block.Block, error) {
	state := cloneWithoutDraft(draft.State)
	state["rejected"] = true
	if reason != "" {
		state["rejection_reason"] = reason
	}
	return block.Update(draft.Hash, draft.Type, state, cloneRefs(draft.Refs))
}

func cloneWithoutDraft(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		if k == "draft" {
			continue
		}
		out[k] = v
	}
	return out
}

func cloneRefs(refs map[string]any) map[string]any {
	out := make(map[string]any, len(refs)+1)
	for k, v := range refs {
		out[k] = v
	}
	return out
}
