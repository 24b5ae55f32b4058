package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/schema"
)

const (
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
)

// recordingFields are forwarded to recording sockets so the recorder UI can
// mirror the tab strip and REPL without polling.
var recordingFields = []schema.EventField{
	schema.FieldTabs,
	schema.FieldActiveTab,
	schema.FieldSubst,
	schema.FieldRepl,
}

// socketMessage is written to recording websocket clients.
type socketMessage struct {
	Type  string                          `json:"type"`
	Field schema.EventField               `json:"field,omitempty"`
	Data  any                             `json:"data,omitempty"`
	Ack   *schema.AppendRecordingResponse `json:"ack,omitempty"`
	Error string                          `json:"error,omitempty"`
}

type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) send(msg socketMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	return w.conn.WriteJSON(msg)
}

func (w *socketWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait))
}

// handleRecordingSocket ingests recording events over a websocket. Each text
// message is one event or an array of events and is answered with an ack.
func (s *Server) handleRecordingSocket(w http.ResponseWriter, r *http.Request) {
	id := schema.SessionID(r.PathValue("id"))
	log := pslog.Ctx(r.Context()).With("session", id)

	// An empty append validates the session before the upgrade.
	if _, err := s.service.AppendRecording(r.Context(), schema.AppendRecordingRequest{
		SessionID: id,
		Events:    json.RawMessage("[]"),
	}); err != nil {
		writeServiceError(w, r, "http recording socket rejected", err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("http recording socket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	log.Info("http recording socket opened")

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()
	writer := &socketWriter{conn: conn}

	events, unsubscribe := s.bus.Subscribe(string(id), recordingFields...)
	defer unsubscribe()
	go s.forwardSocketEvents(ctx, writer, events, log)

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(socketPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})

	for {
		kind, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("http recording socket read failed", "err", err)
			} else {
				log.Info("http recording socket closed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(socketPongWait))
		resp, err := s.service.AppendRecording(ctx, schema.AppendRecordingRequest{
			SessionID: id,
			Events:    eventArray(payload),
		})
		msg := socketMessage{Type: "ack", Ack: &resp}
		if err != nil {
			msg = socketMessage{Type: "error", Error: err.Error()}
		}
		if err := writer.send(msg); err != nil {
			log.Warn("http recording socket write failed", "err", err)
			return
		}
	}
}

func (s *Server) forwardSocketEvents(ctx context.Context, writer *socketWriter, events <-chan schema.WorkspaceEvent, log pslog.Logger) {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writer.ping(); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writer.send(socketMessage{Type: "workspace", Field: event.Field, Data: event.Data}); err != nil {
				log.Debug("http recording socket forward failed", "field", event.Field, "err", err)
				return
			}
		}
	}
}
