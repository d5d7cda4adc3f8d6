// Copyright 2026 FoodBlock Protocol
//
// SSE broker for live block events
package eventbus

import (
	"strings"
	"sync"
)

// subscriberBuffer bounds how many undelivered events a slow SSE client
// can accumulate before being dropped (§5 "slow clients are dropped after
// a bounded write-buffer").
const subscriberBuffer = 64

// Filter narrows which events a subscriber receives (§4.6 GET /stream).
type Filter struct {
	Type   string // exact, or trailing "*" prefix
	Author string
	Ref    string // matches any value in any ref role
}

func (f Filter) matches(event BlockEvent) bool {
	if f.Type != "" {
		if strings.HasSuffix(f.Type, "*") {
			if !strings.HasPrefix(event.Type, strings.TrimSuffix(f.Type, "*")) {
				return false
			}
		} else if f.Type != event.Type {
			return false
		}
	}
	if f.Author != "" && f.Author != event.AuthorHash {
		return false
	}
	if f.Ref != "" && !refsContain(event.Refs, f.Ref) {
		return false
	}
	return true
}

// refsContain reports whether any ref role in refs names hash, tolerating
// both single-hash values and hash arrays (e.g. refs.merges).
func refsContain(refs map[string]any, hash string) bool {
	for _, v := range refs {
		switch t := v.(type) {
		case string:
			if t == hash {
				return true
			}
		case []any:
			for _, e := range t {
				if s, ok := e.(string); ok && s == hash {
					return true
				}
			}
		}
	}
	return false
}

type subscriber struct {
	ch     chan BlockEvent
	filter Filter
}

// Broker fans out block events to SSE subscribers, preserving per-
// connection insertion order while making no cross-connection ordering
// guarantee (§5).
type Broker struct {
	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int
}

// NewBroker returns an empty SSE broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int]*subscriber)}
}

// Subscribe registers a new SSE connection and returns its event channel
// and an unsubscribe function to call on client disconnect.
func (b *Broker) Subscribe(filter Filter) (<-chan BlockEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan BlockEvent, subscriberBuffer), filter: filter}
	b.subscribers[id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if s, ok := b.subscribers[id]; ok {
			close(s.ch)
			delete(b.subscribers, id)
		}
	}
	return sub.ch, unsubscribe
}

// Publish delivers event to every subscriber whose filter matches. A
// subscriber whose buffer is full is dropped rather than allowed to
// block the publisher (§5 backpressure).
func (b *Broker) Publish(event BlockEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscribers {
		if !sub.filter.matches(event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			close(sub.ch)
			delete(b.subscribers, id)
		}
	}
}

// Count reports the number of active SSE connections, used to enforce a
// per-process connection cap (§4.6 "Connections are capped per-process").
func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
