package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/pslog"
)

func TestWithSourcecastAddsFields(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	log := WithSourcecast(logger, "cast-1", "Recursion")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["sourcecast"] != "cast-1" {
		t.Fatalf("expected sourcecast field, got %+v", entry)
	}
	if entry["title"] != "Recursion" {
		t.Fatalf("expected title field, got %+v", entry)
	}
}

func TestWithSourcecastSkipsEmptyTitle(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	WithSourcecast(logger, "cast-1", "").Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["title"]; ok {
		t.Fatalf("did not expect title for uid-only sourcecast")
	}
}

func TestContextWithSessionLoggerDeduplicates(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	ctx = ContextWithSessionLogger(ctx, "sess-1")
	SessionLogger(ctx, "sess-1").Info("hello")

	line := capture.buf.String()
	if bytes.Count([]byte(line), []byte(`"session"`)) != 1 {
		t.Fatalf("expected one session field, got %s", line)
	}
	entry := capture.firstEntry(t)
	if entry["session"] != "sess-1" {
		t.Fatalf("expected session field, got %+v", entry)
	}
}

func TestPlayerLoggerAddsField(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture)
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	PlayerLogger(ctx, "p-1").Info("hello")

	entry := capture.firstEntry(t)
	if entry["player"] != "p-1" {
		t.Fatalf("expected player field, got %+v", entry)
	}
}

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
