// Package playback adapts the external audio clock that drives sourcecast
// replay. The replay engine reads time and status from a Clock and never
// advances time on its own.
package playback

import (
	"fmt"
	"sync"

	"pkt.systems/sourcecast/schema"
)

// Clock exposes the current playback position in milliseconds and status.
type Clock interface {
	CurrentTime() int64
	Status() schema.PlaybackStatus
}

// Control is the control surface of the external player.
type Control interface {
	SetCurrentTime(t int64)
	SetStatus(status schema.PlaybackStatus) error
	Duration() int64
}

// Player is an in-process stand-in for the audio element. It implements both
// Clock and Control and enforces the playback status transitions.
type Player struct {
	mu           sync.Mutex
	current      int64
	status       schema.PlaybackStatus
	duration     int64
	acknowledged bool
}

// NewPlayer returns a stopped player of the given duration.
func NewPlayer(duration int64) *Player {
	if duration < 0 {
		duration = 0
	}
	return &Player{status: schema.PlaybackStopped, duration: duration}
}

// CurrentTime implements Clock.
func (p *Player) CurrentTime() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Status implements Clock.
func (p *Player) Status() schema.PlaybackStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Duration implements Control.
func (p *Player) Duration() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetDuration updates the known duration, e.g. once audio metadata loads.
func (p *Player) SetDuration(d int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d < 0 {
		d = 0
	}
	p.duration = d
	if p.current > d && d > 0 {
		p.current = d
	}
}

// SetCurrentTime implements Control. It may move time in either direction.
func (p *Player) SetCurrentTime(t int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = p.clampLocked(t)
}

// SetStatus implements Control and validates the transition.
func (p *Player) SetStatus(next schema.PlaybackStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.setStatusLocked(next)
}

// Play starts or resumes playback.
func (p *Player) Play() error {
	return p.SetStatus(schema.PlaybackPlaying)
}

// Pause pauses playback on user request.
func (p *Player) Pause() error {
	return p.SetStatus(schema.PlaybackPaused)
}

// Stop resets playback to the start.
func (p *Player) Stop() error {
	return p.SetStatus(schema.PlaybackStopped)
}

// Acknowledge resumes playback after a forced pause.
func (p *Player) Acknowledge() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != schema.PlaybackForcedPaused {
		return fmt.Errorf("%w: acknowledge from %s", schema.ErrInvalidTransition, p.status)
	}
	p.acknowledged = true
	return p.setStatusLocked(schema.PlaybackPlaying)
}

// Seek moves the playback position without changing status.
func (p *Player) Seek(t int64) {
	p.SetCurrentTime(t)
}

// Advance moves time forward by delta while playing; it is how a host
// forwards audio timeupdate notifications.
func (p *Player) Advance(delta int64) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == schema.PlaybackPlaying && delta > 0 {
		p.current = p.clampLocked(p.current + delta)
	}
	return p.current
}

func (p *Player) clampLocked(t int64) int64 {
	if t < 0 {
		return 0
	}
	if p.duration > 0 && t > p.duration {
		return p.duration
	}
	return t
}

func (p *Player) setStatusLocked(next schema.PlaybackStatus) error {
	prev := p.status
	if prev == next {
		return nil
	}
	switch next {
	case schema.PlaybackStopped:
		p.current = 0
	case schema.PlaybackPlaying:
		switch prev {
		case schema.PlaybackStopped, schema.PlaybackPaused:
		case schema.PlaybackForcedPaused:
			if !p.acknowledged {
				return schema.ErrAcknowledgementRequired
			}
		default:
			return fmt.Errorf("%w: %s -> %s", schema.ErrInvalidTransition, prev, next)
		}
	case schema.PlaybackPaused, schema.PlaybackForcedPaused:
		if prev != schema.PlaybackPlaying {
			return fmt.Errorf("%w: %s -> %s", schema.ErrInvalidTransition, prev, next)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", schema.ErrInvalidTransition, next)
	}
	p.status = next
	p.acknowledged = false
	return nil
}
