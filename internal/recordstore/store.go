// Package recordstore keeps recorded sessions in SQLite. It is the durable
// sink behind live recording.
package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
	"pkt.systems/pslog"
	"pkt.systems/sourcecast/internal/event"
	"pkt.systems/sourcecast/internal/recordstore/migrations"
	"pkt.systems/sourcecast/schema"
)

// ErrDuplicateEvent reports an event sequence number stored twice.
var ErrDuplicateEvent = errors.New("duplicate recording event")

// Summary describes a stored session.
type Summary struct {
	ID        schema.SessionID `json:"id"`
	StartedAt time.Time        `json:"started_at"`
	Chapter   schema.Chapter   `json:"chapter"`
	Events    int              `json:"events"`
	Duration  int64            `json:"duration_ms"`
}

// Recording is a stored session decoded for replay.
type Recording struct {
	ID           schema.SessionID
	StartedAt    time.Time
	PlaybackData event.PlaybackData
	// Skipped lists stored events that no longer decode.
	Skipped []error
}

// Store persists recording sessions in SQLite.
type Store struct {
	db  *sql.DB
	log pslog.Logger
}

// Open opens the store at path and applies embedded migrations.
func Open(ctx context.Context, path string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("recording db path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o700); err != nil {
		return nil, err
	}
	dsn := clean + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	logger = logger.With("recording_db", clean)
	logger.Debug("recording store open")
	return &Store{db: db, log: logger}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartSession stores a new session and its baseline.
func (s *Store) StartSession(ctx context.Context, id schema.SessionID, init event.Init, startedAt time.Time) error {
	if id == "" {
		return fmt.Errorf("%w: session id is required", schema.ErrInvalidRequest)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recording_sessions (id, started_at, editor_value, chapter, variant, external_library)
VALUES (?, ?, ?, ?, ?, ?)`,
		string(id), startedAt.UTC().UnixMilli(), init.EditorValue, int(init.Chapter), string(init.Variant), string(init.ExternalLibrary),
	)
	if err != nil {
		s.log.Warn("recording session insert failed", "session", id, "err", err)
		return fmt.Errorf("insert session: %w", err)
	}
	s.log.Debug("recording session stored", "session", id)
	return nil
}

// Append stores one event of session id at sequence number seq.
func (s *Store) Append(ctx context.Context, id schema.SessionID, seq int, ev event.TimedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recording_events (session_id, seq, time_ms, kind, payload) VALUES (?, ?, ?, ?, ?)`,
		string(id), seq, ev.Time, string(ev.Kind()), string(payload),
	)
	if err != nil {
		switch constraintCode(err) {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s/%d", ErrDuplicateEvent, id, seq)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	s.log.Trace("recording event stored", "session", id, "seq", seq, "kind", ev.Kind())
	return nil
}

// LoadSession reads a session with its events in sequence order.
func (s *Store) LoadSession(ctx context.Context, id schema.SessionID) (Recording, error) {
	var (
		startedAt int64
		init      event.Init
		chapter   int
		variant   string
		library   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, editor_value, chapter, variant, external_library FROM recording_sessions WHERE id = ?`,
		string(id),
	).Scan(&startedAt, &init.EditorValue, &chapter, &variant, &library)
	if errors.Is(err, sql.ErrNoRows) {
		return Recording{}, fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	if err != nil {
		return Recording{}, fmt.Errorf("load session: %w", err)
	}
	init.Chapter = schema.Chapter(chapter)
	init.Variant = schema.Variant(variant)
	init.ExternalLibrary = schema.ExternalLibrary(library)

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, payload FROM recording_events WHERE session_id = ? ORDER BY seq`,
		string(id),
	)
	if err != nil {
		return Recording{}, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	rec := Recording{
		ID:           id,
		StartedAt:    time.UnixMilli(startedAt).UTC(),
		PlaybackData: event.PlaybackData{Init: &init, Inputs: []event.TimedEvent{}},
	}
	for rows.Next() {
		var (
			seq     int
			payload string
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return Recording{}, fmt.Errorf("scan event: %w", err)
		}
		var ev event.TimedEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			rec.Skipped = append(rec.Skipped, fmt.Errorf("event %d: %w", seq, err))
			continue
		}
		rec.PlaybackData.Inputs = append(rec.PlaybackData.Inputs, ev)
	}
	if err := rows.Err(); err != nil {
		return Recording{}, fmt.Errorf("iterate events: %w", err)
	}
	rec.PlaybackData.Inputs = event.Sorted(rec.PlaybackData.Inputs)
	s.log.Debug("recording session loaded", "session", id, "events", len(rec.PlaybackData.Inputs), "skipped", len(rec.Skipped))
	return rec, nil
}

// ListSessions returns stored sessions, newest first. limit <= 0 means all.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT s.id, s.started_at, s.chapter, COUNT(e.seq), COALESCE(MAX(e.time_ms), 0)
FROM recording_sessions s
LEFT JOIN recording_events e ON e.session_id = s.id
GROUP BY s.id
ORDER BY s.started_at DESC, s.id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var (
			summary   Summary
			id        string
			startedAt int64
			chapter   int
		)
		if err := rows.Scan(&id, &startedAt, &chapter, &summary.Events, &summary.Duration); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		summary.ID = schema.SessionID(id)
		summary.StartedAt = time.UnixMilli(startedAt).UTC()
		summary.Chapter = schema.Chapter(chapter)
		out = append(out, summary)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its events.
func (s *Store) DeleteSession(ctx context.Context, id schema.SessionID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recording_sessions WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", schema.ErrSessionNotFound, id)
	}
	s.log.Info("recording session deleted", "session", id)
	return nil
}

func constraintCode(err error) int {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}
