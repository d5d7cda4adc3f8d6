// Copyright 2026 FoodBlock Protocol
//
// Unit tests for scanning and ref helpers
package store

import "testing"

func TestRefString(t *testing.T) {
	refs := map[string]any{"updates": "abc123"}
	if v, ok := refString(refs, "updates"); !ok || v != "abc123" {
		t.Errorf("got %q, %v, want abc123, true", v, ok)
	}
	if _, ok := refString(refs, "missing"); ok {
		t.Error("expected ok=false for a missing key")
	}
	if _, ok := refString(map[string]any{"merges": []any{"a"}}, "merges"); ok {
		t.Error("expected ok=false for a non-string value")
	}
}

func TestRefStrings(t *testing.T) {
	refs := map[string]any{"merges": []any{"a", "b", 3}}
	got := refStrings(refs, "merges")
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRefStringsMissingKey(t *testing.T) {
	if got := refStrings(map[string]any{}, "merges"); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestStringOrEmpty(t *testing.T) {
	if got := stringOrEmpty(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	s := "hello"
	if got := stringOrEmpty(&s); got != "hello" {
		t.Errorf("got %q, want hello", got)
	}
}

func TestDeriveVisibilityHonorsExplicitHint(t *testing.T) {
	state := map[string]any{"visibility": "sector"}
	if v := deriveVisibility("substance.product", state); v != "sector" {
		t.Errorf("got %q, want sector", v)
	}
}

func TestDeriveVisibilityDefaultsByType(t *testing.T) {
	cases := []struct {
		typ  string
		want string
	}{
		{"transfer.payment.card", VisibilityDirect},
		{"transfer.subscription.monthly", VisibilityDirect},
		{"observe.reading.temperature", VisibilityNetwork},
		{"actor.agent", VisibilityInternal},
		{"substance.product", VisibilityPublic},
	}
	for _, c := range cases {
		if got := deriveVisibility(c.typ, map[string]any{}); got != c.want {
			t.Errorf("%s: got %q, want %q", c.typ, got, c.want)
		}
	}
}
