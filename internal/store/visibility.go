// Copyright 2026 FoodBlock Protocol
//
// Block visibility and encryption helpers
package store

import "strings"

// deriveVisibility implements §4.4.2 step 5: honor an explicit
// state.visibility hint, else fall back to a type-based default.
func deriveVisibility(typ string, state map[string]any) string {
	if hint, ok := state["visibility"].(string); ok && hint != "" {
		return hint
	}
	switch {
	case strings.HasPrefix(typ, "transfer.payment") || strings.HasPrefix(typ, "transfer.subscription"):
		return VisibilityDirect
	case strings.HasPrefix(typ, "observe.reading"):
		return VisibilityNetwork
	case strings.HasPrefix(typ, "actor.agent"):
		return VisibilityInternal
	default:
		return VisibilityPublic
	}
}
