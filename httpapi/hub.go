package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                    `json:"seq"`
	Type      string                    `json:"type"`
	Scope     string                    `json:"scope"`
	Field     schema.EventField         `json:"field,omitempty"`
	Data      any                       `json:"data,omitempty"`
	Snapshot  *schema.WorkspaceSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Hub broadcasts workspace events per scope and keeps a bounded history so
// reconnecting clients can resume from Last-Event-ID.
type Hub struct {
	mu          sync.Mutex
	scopes      map[string]*scopeHub
	historySize int
	log         pslog.Logger
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int, logger pslog.Logger) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Hub{
		scopes:      make(map[string]*scopeHub),
		historySize: historySize,
		log:         logger,
	}
}

// OnWorkspaceEvent implements core.EventSink.
func (h *Hub) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	if event.Scope == "" {
		return
	}
	h.log.With("scope", event.Scope).Trace("hub workspace event", "field", event.Field)
	h.publish(event.Scope, StreamEvent{
		Type:      "workspace",
		Field:     event.Field,
		Data:      event.Data,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber for a scope.
func (h *Hub) Subscribe(scope string) (<-chan StreamEvent, func(), uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.getOrCreateScopeLocked(scope)
	ch := make(chan StreamEvent, 256)
	sh.subs[ch] = struct{}{}
	seq := sh.seq
	log := h.log.With("scope", scope)
	log.Info("hub subscribe", "subs", len(sh.subs), "history", len(sh.history))
	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(sh.subs, ch)
			close(ch)
			remaining := len(sh.subs)
			h.mu.Unlock()
			log.Info("hub unsubscribe", "subs", remaining)
		})
	}
	return ch, unsub, seq
}

// Replay returns events of scope after the provided seq.
func (h *Hub) Replay(scope string, after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	sh := h.scopes[scope]
	if sh == nil {
		return nil
	}
	events := make([]StreamEvent, 0, len(sh.history))
	for _, event := range sh.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	h.log.With("scope", scope).Debug("hub replay", "after", after, "count", len(events))
	return events
}

// Forget drops the history of a closed scope.
func (h *Hub) Forget(scope string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sh := h.scopes[scope]; sh != nil && len(sh.subs) == 0 {
		delete(h.scopes, scope)
	}
}

func (h *Hub) publish(scope string, event StreamEvent) {
	h.mu.Lock()
	sh := h.getOrCreateScopeLocked(scope)
	sh.seq++
	event.Seq = sh.seq
	event.Scope = scope
	sh.history = append(sh.history, event)
	if len(sh.history) > h.historySize {
		sh.history = sh.history[len(sh.history)-h.historySize:]
	}
	dropped := 0
	for sub := range sh.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()

	if dropped > 0 {
		h.log.With("scope", scope).Warn("hub event dropped", "type", event.Type, "field", event.Field, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateScopeLocked(scope string) *scopeHub {
	sh := h.scopes[scope]
	if sh == nil {
		sh = &scopeHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.scopes[scope] = sh
	}
	return sh
}

type scopeHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}
