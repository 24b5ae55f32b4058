package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"pkt.systems/sourcecast/schema"
)

// ErrMalformedEvent indicates a known event type whose data does not decode.
var ErrMalformedEvent = errors.New("malformed event")

type wireEvent struct {
	Time int64           `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the event as {"time", "type", "data"}.
func (e TimedEvent) MarshalJSON() ([]byte, error) {
	data, err := encodeData(e.Payload)
	if err != nil {
		return nil, err
	}
	typ := string(e.Kind())
	if u, ok := e.Payload.(Unknown); ok {
		typ = u.Type
	}
	return json.Marshal(wireEvent{Time: e.Time, Type: typ, Data: data})
}

// UnmarshalJSON decodes an event. Unrecognised types decode to Unknown.
func (e *TimedEvent) UnmarshalJSON(raw []byte) error {
	var wire wireEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	payload, err := decodeData(Kind(wire.Type), wire.Data)
	if err != nil {
		return fmt.Errorf("%w: %s at %d: %v", ErrMalformedEvent, wire.Type, wire.Time, err)
	}
	if u, ok := payload.(Unknown); ok {
		u.Type = wire.Type
		payload = u
	}
	e.Time = wire.Time
	e.Payload = payload
	return nil
}

func encodeData(p Payload) (json.RawMessage, error) {
	switch v := p.(type) {
	case nil, ForcePause:
		return nil, nil
	case CodeDelta:
		if v.Lines == nil {
			v.Lines = []string{}
		}
		return json.Marshal(v)
	case CursorPosition:
		return json.Marshal(Position(v))
	case SelectionRange:
		return json.Marshal(v)
	case ChapterSelect:
		return json.Marshal(int(v.Chapter))
	case ExternalLibrarySelect:
		return json.Marshal(string(v.Library))
	case ActiveTabChange:
		return json.Marshal(string(v.Tab))
	case Unknown:
		if len(v.Raw) == 0 {
			return nil, nil
		}
		return json.RawMessage(v.Raw), nil
	default:
		return nil, fmt.Errorf("unsupported payload %T", p)
	}
}

func decodeData(kind Kind, data json.RawMessage) (Payload, error) {
	switch kind {
	case KindCodeDelta:
		var v CodeDelta
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		if v.Action != DeltaInsert && v.Action != DeltaRemove {
			return nil, fmt.Errorf("unknown delta action %q", v.Action)
		}
		return v, nil
	case KindCursorPositionChange:
		var v Position
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		return CursorPosition(v), nil
	case KindSelectionRangeData:
		var v SelectionRange
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case KindChapterSelect:
		var v int
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		return ChapterSelect{Chapter: schema.Chapter(v)}, nil
	case KindExternalLibrarySelect:
		var v string
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		return ExternalLibrarySelect{Library: schema.ExternalLibrary(v)}, nil
	case KindActiveTabChange:
		var v string
		if err := strictUnmarshal(data, &v); err != nil {
			return nil, err
		}
		return ActiveTabChange{Tab: schema.TabID(v)}, nil
	case KindForcePause:
		return ForcePause{}, nil
	default:
		var raw []byte
		if len(data) > 0 {
			raw = append([]byte(nil), data...)
		}
		return Unknown{Raw: raw}, nil
	}
}

func strictUnmarshal(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

// DecodeAll decodes a JSON array of events. Malformed entries are returned as
// per-index errors and skipped; the remaining events are kept.
func DecodeAll(raw []byte) ([]TimedEvent, []error, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, err
	}
	events := make([]TimedEvent, 0, len(items))
	var skipped []error
	for idx, item := range items {
		var ev TimedEvent
		if err := json.Unmarshal(item, &ev); err != nil {
			skipped = append(skipped, fmt.Errorf("input %d: %w", idx, err))
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}
