package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/schema"
)

// Bus fans workspace events out to per-scope subscribers. A subscriber only
// receives the fields it asked for.
type Bus struct {
	mu    sync.Mutex
	subs  map[string]map[chan schema.WorkspaceEvent]fieldSet
	log   pslog.Logger
	depth int
}

type fieldSet map[schema.EventField]struct{}

func (f fieldSet) wants(field schema.EventField) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[field]
	return ok
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[string]map[chan schema.WorkspaceEvent]fieldSet),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for scope and returns a channel + cancel.
// With no fields every event of the scope is delivered.
func (b *Bus) Subscribe(scope string, fields ...schema.EventField) (<-chan schema.WorkspaceEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.WorkspaceEvent, b.depth)
	filter := make(fieldSet, len(fields))
	for _, field := range fields {
		filter[field] = struct{}{}
	}
	b.mu.Lock()
	scopeSubs := b.subs[scope]
	if scopeSubs == nil {
		scopeSubs = make(map[chan schema.WorkspaceEvent]fieldSet)
		b.subs[scope] = scopeSubs
	}
	scopeSubs[ch] = filter
	count := len(scopeSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("scope", scope).Debug("eventbus subscribe", "subs", count, "fields", fields)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if subs := b.subs[scope]; subs != nil {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(b.subs, scope)
				}
			}
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				b.log.With("scope", scope).Debug("eventbus unsubscribe")
			}
		})
	}
}

// Subscribers returns the subscriber count for scope.
func (b *Bus) Subscribers(scope string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[scope])
}

// OnWorkspaceEvent publishes an event to the subscribers of its scope.
func (b *Bus) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	scopeSubs := b.subs[event.Scope]
	subs := make([]chan schema.WorkspaceEvent, 0, len(scopeSubs))
	for sub, filter := range scopeSubs {
		if filter.wants(event.Field) {
			subs = append(subs, sub)
		}
	}
	// Sends happen under the lock so a concurrent cancel cannot close a
	// channel mid-send; sends never block.
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 && b.log != nil {
		b.log.With("scope", event.Scope).Trace("eventbus dropped", "field", event.Field, "count", dropped)
	}
}
