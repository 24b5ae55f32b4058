package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/schema"
)

type contextKey int

const (
	sessionKey contextKey = iota
	playerKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithSession annotates the logger with a recording session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithPlayer annotates the logger with a player id when available.
func WithPlayer(log pslog.Logger, playerID schema.PlayerID) pslog.Logger {
	if playerID != "" {
		log = log.With("player", playerID)
	}
	return log
}

// WithSourcecast annotates the logger with sourcecast metadata when available.
func WithSourcecast(log pslog.Logger, uid schema.SourcecastUID, title string) pslog.Logger {
	if uid != "" {
		log = log.With("sourcecast", uid)
	}
	if title != "" {
		log = log.With("title", title)
	}
	return log
}

// SessionLogger returns the context logger annotated with the session id,
// unless the context already carries that marker.
func SessionLogger(ctx context.Context, sessionID schema.SessionID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
		return log
	}
	return WithSession(log, sessionID)
}

// PlayerLogger returns the context logger annotated with the player id,
// unless the context already carries that marker.
func PlayerLogger(ctx context.Context, playerID schema.PlayerID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if current, ok := ctx.Value(playerKey).(schema.PlayerID); ok && current == playerID {
		return log
	}
	return WithPlayer(log, playerID)
}

// ContextWithSessionLogger attaches an annotated logger and the session marker.
func ContextWithSessionLogger(ctx context.Context, sessionID schema.SessionID) context.Context {
	if ctx == nil || sessionID == "" {
		return ctx
	}
	ctx = pslog.ContextWithLogger(ctx, SessionLogger(ctx, sessionID))
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithPlayerLogger attaches an annotated logger and the player marker.
func ContextWithPlayerLogger(ctx context.Context, playerID schema.PlayerID) context.Context {
	if ctx == nil || playerID == "" {
		return ctx
	}
	ctx = pslog.ContextWithLogger(ctx, PlayerLogger(ctx, playerID))
	return context.WithValue(ctx, playerKey, playerID)
}
