package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/internal/eventbus"
	"pkt.systems/sourcecast/internal/logx"
	"pkt.systems/sourcecast/internal/version"
	"pkt.systems/sourcecast/schema"
)

const maxBodyBytes = 8 << 20

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	service  core.Service
	hub      *Hub
	bus      *eventbus.Bus
	basePath string
	upgrader websocket.Upgrader
	baseCtx  context.Context
}

// NewServer constructs an HTTP server. bus may be nil, in which case
// websocket clients only receive acknowledgements.
func NewServer(cfg Config, service core.Service, hub *Hub, bus *eventbus.Bus) *Server {
	if hub == nil {
		hub = NewHub(0, nil)
	}
	return &Server{
		cfg:      cfg,
		service:  service,
		hub:      hub,
		bus:      bus,
		basePath: normalizeBasePath(cfg.BasePath),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		baseCtx: context.Background(),
	}
}

// SetBaseContext sets the parent context for long-lived streams.
func (s *Server) SetBaseContext(ctx context.Context) {
	if s == nil || ctx == nil {
		return
	}
	s.baseCtx = ctx
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/sourcecasts", s.handleListSourcecasts)
	mux.HandleFunc("GET /api/sourcecasts/{uid}", s.handleGetSourcecast)
	mux.HandleFunc("GET /api/sourcecasts/{uid}/share", s.handleShare)
	mux.HandleFunc("POST /api/tabs/resolve", s.handleResolveTabs)

	mux.HandleFunc("POST /api/recordings", s.handleStartRecording)
	mux.HandleFunc("POST /api/recordings/{id}/events", s.handleAppendRecording)
	mux.HandleFunc("POST /api/recordings/{id}/stop", s.handleStopRecording)
	mux.HandleFunc("POST /api/recordings/{id}/publish", s.handlePublishRecording)
	mux.HandleFunc("GET /api/recordings/{id}/ws", s.handleRecordingSocket)

	mux.HandleFunc("POST /api/players", s.handleOpenPlayer)
	mux.HandleFunc("GET /api/players/{id}", s.handleGetPlayer)
	mux.HandleFunc("POST /api/players/{id}/control", s.handleControlPlayer)
	mux.HandleFunc("DELETE /api/players/{id}", s.handleClosePlayer)

	mux.HandleFunc("GET /api/stream/{scope}", s.handleStream)

	handler := withRequestLogging(mux)
	if s.basePath == "" {
		return handler
	}
	prefix := s.basePath
	root := http.NewServeMux()
	root.Handle(prefix+"/", http.StripPrefix(prefix, handler))
	root.HandleFunc(prefix, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != prefix {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, prefix+"/", http.StatusTemporaryRedirect)
	})
	return root
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": version.Current()})
}

func (s *Server) handleListSourcecasts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.ListSourcecasts(r.Context(), schema.ListSourcecastsRequest{Query: r.URL.Query().Get("q")})
	if err != nil {
		writeServiceError(w, r, "http sourcecast list failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSourcecast(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.GetSourcecast(r.Context(), schema.GetSourcecastRequest{UID: schema.SourcecastUID(r.PathValue("uid"))})
	if err != nil {
		writeServiceError(w, r, "http sourcecast get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	uid := schema.SourcecastUID(r.PathValue("uid"))
	if _, err := s.service.GetSourcecast(r.Context(), schema.GetSourcecastRequest{UID: uid}); err != nil {
		writeServiceError(w, r, "http sourcecast share failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uid": uid, "url": ShareURL(s.cfg.BaseURL, s.cfg.BasePath, uid)})
}

func (s *Server) handleResolveTabs(w http.ResponseWriter, r *http.Request) {
	var req schema.ResolveTabsRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	resp, err := s.service.ResolveTabs(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "http tabs resolve failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	var req schema.StartRecordingRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	resp, err := s.service.StartRecording(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "http recording start failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAppendRecording(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.AppendRecording(r.Context(), schema.AppendRecordingRequest{
		SessionID: schema.SessionID(r.PathValue("id")),
		Events:    eventArray(body),
	})
	if err != nil {
		writeServiceError(w, r, "http recording append failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.StopRecording(r.Context(), schema.StopRecordingRequest{SessionID: schema.SessionID(r.PathValue("id"))})
	if err != nil {
		writeServiceError(w, r, "http recording stop failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublishRecording(w http.ResponseWriter, r *http.Request) {
	var req schema.PublishRecordingRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.SessionID = schema.SessionID(r.PathValue("id"))
	resp, err := s.service.PublishRecording(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "http recording publish failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleOpenPlayer(w http.ResponseWriter, r *http.Request) {
	var req schema.OpenPlayerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	resp, err := s.service.OpenPlayer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "http player open failed", err)
		return
	}
	logx.PlayerLogger(r.Context(), resp.PlayerID).Info("http player opened", "uid", req.UID)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.service.GetPlayer(r.Context(), schema.GetPlayerRequest{PlayerID: schema.PlayerID(r.PathValue("id"))})
	if err != nil {
		writeServiceError(w, r, "http player get failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleControlPlayer(w http.ResponseWriter, r *http.Request) {
	var req schema.ControlPlayerRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.PlayerID = schema.PlayerID(r.PathValue("id"))
	resp, err := s.service.ControlPlayer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, "http player control failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClosePlayer(w http.ResponseWriter, r *http.Request) {
	id := schema.PlayerID(r.PathValue("id"))
	if _, err := s.service.ClosePlayer(r.Context(), schema.ClosePlayerRequest{PlayerID: id}); err != nil {
		writeServiceError(w, r, "http player close failed", err)
		return
	}
	s.hub.Forget(string(id))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	scope := r.PathValue("scope")
	log := pslog.Ctx(r.Context()).With("scope", scope)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	// Subscribe before replaying so nothing published in between is lost.
	ch, unsubscribe, _ := s.hub.Subscribe(scope)
	defer unsubscribe()

	if player, err := s.service.GetPlayer(r.Context(), schema.GetPlayerRequest{PlayerID: schema.PlayerID(scope)}); err == nil {
		snapshot := player.Snapshot
		_ = writeSSEvent(w, StreamEvent{
			Type:      "snapshot",
			Scope:     scope,
			Snapshot:  &snapshot,
			Timestamp: time.Now(),
		})
	}
	sent := lastID
	replayCount := 0
	if lastID > 0 {
		for _, event := range s.hub.Replay(scope, lastID) {
			_ = writeSSEvent(w, event)
			sent = event.Seq
			replayCount++
		}
	}
	flusher.Flush()

	log.Info("http stream opened", "last_id", lastID, "replay", replayCount)
	done := s.baseCtx.Done()
	for {
		select {
		case <-r.Context().Done():
			log.Info("http stream closed")
			return
		case <-done:
			log.Info("http stream closed", "reason", "shutdown")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= sent {
				continue
			}
			_ = writeSSEvent(w, event)
			sent = event.Seq
			flusher.Flush()
		}
	}
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, schema.ErrSourcecastNotFound),
		errors.Is(err, schema.ErrSessionNotFound),
		errors.Is(err, schema.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidChapter),
		errors.Is(err, schema.ErrInvalidVariant),
		errors.Is(err, schema.ErrInvalidExternalLibrary):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrInvalidTransition),
		errors.Is(err, schema.ErrAcknowledgementRequired):
		return http.StatusConflict
	case errors.Is(err, schema.ErrRecordingUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusForError(err)
	log := pslog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Warn(msg, "err", err)
	} else {
		log.Debug(msg, "status", status, "err", err)
	}
	writeError(w, status, err)
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), target); err != nil {
		pslog.Ctx(r.Context()).Debug("http request decode failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err))
		return false
	}
	return true
}

// eventArray accepts either a single event object or an array of events.
func eventArray(body []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		return json.RawMessage("[" + trimmed + "]")
	}
	return json.RawMessage(trimmed)
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
