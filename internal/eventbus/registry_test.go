// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the pattern-dispatch registry
package eventbus

import "testing"

func TestMatchesPattern(t *testing.T) {
	cases := []struct {
		pattern, typ string
		want         bool
	}{
		{"*", "transfer.order", true},
		{"transfer.order", "transfer.order", true},
		{"transfer.order", "transfer.payment", false},
		{"transfer.*", "transfer.order", true},
		{"transfer.*", "transfer", true},
		{"transfer.*", "transform.batch", false},
		{"observe.*", "observe.reading.temperature", true},
	}
	for _, c := range cases {
		if got := MatchesPattern(c.pattern, c.typ); got != c.want {
			t.Errorf("MatchesPattern(%q, %q) = %v, want %v", c.pattern, c.typ, got, c.want)
		}
	}
}

func TestRegistryDispatchesToMatchingHandlers(t *testing.T) {
	r := NewRegistry()
	var gotExact, gotPrefix, gotWildcard bool
	r.Register("transfer.order", func(BlockEvent) { gotExact = true })
	r.Register("transfer.*", func(BlockEvent) { gotPrefix = true })
	r.Register("*", func(BlockEvent) { gotWildcard = true })
	r.Register("observe.reading", func(BlockEvent) { t.Fatal("unrelated handler must not fire") })

	for _, h := range r.Matching("transfer.order") {
		h(BlockEvent{Type: "transfer.order"})
	}
	if !gotExact || !gotPrefix || !gotWildcard {
		t.Fatalf("expected all three matching handlers to fire: exact=%v prefix=%v wildcard=%v", gotExact, gotPrefix, gotWildcard)
	}
}

func TestBrokerFiltersEvents(t *testing.T) {
	b := NewBroker()
	ch, unsubscribe := b.Subscribe(Filter{Type: "transfer.*"})
	defer unsubscribe()

	b.Publish(BlockEvent{Type: "substance.product", Hash: "irrelevant"})
	b.Publish(BlockEvent{Type: "transfer.order", Hash: "abc"})

	select {
	case ev := <-ch:
		if ev.Hash != "abc" {
			t.Fatalf("got hash %q, want abc", ev.Hash)
		}
	default:
		t.Fatal("expected a filtered event to be delivered")
	}
}
