package event

import (
	"encoding/json"
	"sort"
)

// Log is an append-only session log. It is owned by exactly one session and
// is not safe for concurrent mutation.
type Log struct {
	events []TimedEvent
}

// NewLog builds a log from existing events, stable-sorted by time.
func NewLog(events []TimedEvent) *Log {
	return &Log{events: Sorted(events)}
}

// Append adds an event, clamping its time so the log stays non-decreasing.
// The stored event is returned.
func (l *Log) Append(ev TimedEvent) TimedEvent {
	if n := len(l.events); n > 0 && ev.Time < l.events[n-1].Time {
		ev.Time = l.events[n-1].Time
	}
	if ev.Time < 0 {
		ev.Time = 0
	}
	l.events = append(l.events, ev)
	return ev
}

// Len returns the number of events.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.events)
}

// Events returns a copy of the events in order.
func (l *Log) Events() []TimedEvent {
	if l == nil {
		return nil
	}
	return append([]TimedEvent(nil), l.events...)
}

// MarshalJSON encodes the log as an array of events.
func (l *Log) MarshalJSON() ([]byte, error) {
	if l == nil || l.events == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.events)
}

// Sorted returns a copy of events stable-sorted by time; equal timestamps
// keep their append order.
func Sorted(events []TimedEvent) []TimedEvent {
	out := append([]TimedEvent(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// CountAtOrBefore returns the number of events with Time <= t in a
// time-sorted slice.
func CountAtOrBefore(sorted []TimedEvent, t int64) int {
	return sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Time > t
	})
}

// Duration returns the timestamp of the last event in a sorted slice.
func Duration(sorted []TimedEvent) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)-1].Time
}
