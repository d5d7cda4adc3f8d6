// Copyright 2026 FoodBlock Protocol
//
// Postgres LISTEN/NOTIFY event source
package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/foodxdevelopment/foodblock/internal/logging"
)

const (
	backoffMin = time.Second
	backoffMax = 30 * time.Second
	channel    = "new_block"
)

// Listener owns the single long-lived LISTEN connection (§9 "Global
// listener state... an owned resource started at server boot with
// explicit lifecycle, not ambient mutable state"). It is the sole source
// of new_block events; the insert pipeline never emits them directly
// (§4.4.2 step 7, §9 "exactly-one event source").
type Listener struct {
	databaseURL string
	registry    *Registry
	broker      *Broker
	logger      *logging.Logger

	listener *pq.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewListener constructs a Listener over databaseURL, dispatching to
// registry's handlers and fanning out to broker's SSE subscribers.
func NewListener(databaseURL string, registry *Registry, broker *Broker) *Listener {
	return &Listener{
		databaseURL: databaseURL,
		registry:    registry,
		broker:      broker,
		logger:      logging.New("EventBus", logging.LevelInfo),
	}
}

// Start begins listening in a background goroutine. Call Stop to shut
// down cleanly.
func (l *Listener) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.logger.Warnf("listener event: %v", err)
		}
	}
	l.listener = pq.NewListener(l.databaseURL, backoffMin, backoffMax, reportProblem)

	go l.run(ctx)
}

// Stop releases the listener connection and waits for the run loop to
// exit.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
	if l.listener != nil {
		l.listener.Close()
	}
	if l.done != nil {
		<-l.done
	}
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	if err := l.listener.Listen(channel); err != nil {
		l.logger.Errorf("subscribe to %s: %v", channel, err)
		return
	}
	l.logger.Infof("listening on %s", channel)

	for {
		select {
		case <-ctx.Done():
			return
		case notification, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			if notification == nil {
				// pq signals a dropped connection with a nil notification;
				// it resubscribes internally once reconnected.
				continue
			}
			l.dispatch(notification.Extra)
		case <-time.After(90 * time.Second):
			// pq recommends an occasional ping to detect half-open
			// connections faster than its own keep-alive.
			go func() { _ = l.listener.Ping() }()
		}
	}
}

// dispatch fans the trigger's JSON payload ({hash,type,author_hash,refs}) out
// to matching handlers and SSE subscribers.
func (l *Listener) dispatch(payload string) {
	var raw struct {
		Hash       string         `json:"hash"`
		Type       string         `json:"type"`
		AuthorHash string         `json:"author_hash"`
		Refs       map[string]any `json:"refs"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		l.logger.Warnf("malformed notify payload: %v", err)
		return
	}
	event := BlockEvent{Hash: raw.Hash, Type: raw.Type, AuthorHash: raw.AuthorHash, Refs: raw.Refs}
	for _, h := range l.registry.Matching(raw.Type) {
		go safeInvoke(h, event)
	}
	l.broker.Publish(event)
}

func safeInvoke(h Handler, event BlockEvent) {
	defer func() {
		if r := recover(); r != nil {
			logging.New("EventBus", logging.LevelInfo).Errorf("handler panic: %v", r)
		}
	}()
	h(event)
}
