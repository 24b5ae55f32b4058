package event

import (
	"encoding/json"

	"pkt.systems/sourcecast/schema"
)

// Init is the baseline editor snapshot that precedes every recorded delta.
// It is the only valid rollback target during replay.
type Init = schema.RecordingInit

// PlaybackData is a recorded session: its baseline plus ordered inputs.
type PlaybackData struct {
	Init   *Init        `json:"init,omitempty"`
	Inputs []TimedEvent `json:"inputs"`
}

// ParsePlaybackData decodes a serialized playback payload. Malformed inputs
// are skipped and returned as diagnostics; a missing baseline is reported by
// the caller, not here.
func ParsePlaybackData(raw []byte) (PlaybackData, []error, error) {
	var wire struct {
		Init   *Init           `json:"init"`
		Inputs json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return PlaybackData{}, nil, err
	}
	data := PlaybackData{Init: wire.Init}
	if len(wire.Inputs) == 0 || string(wire.Inputs) == "null" {
		data.Inputs = []TimedEvent{}
		return data, nil, nil
	}
	inputs, skipped, err := DecodeAll(wire.Inputs)
	if err != nil {
		return PlaybackData{}, nil, err
	}
	data.Inputs = Sorted(inputs)
	return data, skipped, nil
}
