package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidChapter indicates a chapter outside 1-4.
	ErrInvalidChapter = errors.New("invalid chapter")
	// ErrInvalidVariant indicates an unknown language variant.
	ErrInvalidVariant = errors.New("invalid variant")
	// ErrInvalidExternalLibrary indicates an unknown external library.
	ErrInvalidExternalLibrary = errors.New("invalid external library")
	// ErrRecordingUnavailable indicates a sourcecast without a baseline snapshot.
	ErrRecordingUnavailable = errors.New("recording unavailable")
	// ErrSourcecastNotFound indicates a uid missing from the index.
	ErrSourcecastNotFound = errors.New("sourcecast not found")
	// ErrSessionNotFound indicates an unknown recording session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPlayerNotFound indicates an unknown player.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidTransition indicates a playback status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid playback transition")
	// ErrAcknowledgementRequired indicates a forced pause must be acknowledged before resuming.
	ErrAcknowledgementRequired = errors.New("forced pause requires acknowledgement")
)
