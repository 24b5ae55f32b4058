package sourcecast

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/httpapi"
	"pkt.systems/sourcecast/internal/eventbus"
	"pkt.systems/sourcecast/internal/recordstore"
	"pkt.systems/sourcecast/schema"
)

// Server composes the sourcecast service with its HTTP surface.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Service    schema.ServiceConfig
	HTTP       httpapi.Config
	HubHistory int
	// RecordingDB is the SQLite file live recordings are streamed to.
	RecordingDB string
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	ServiceDeps core.ServiceDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP       bool
	enableRecordings bool
}

// WithHTTP enables the HTTP API server.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithRecordingStore streams recordings to the SQLite store at
// ServerConfig.RecordingDB.
func WithRecordingStore() ServerOption {
	return func(o *serverOptions) { o.enableRecordings = true }
}

// New constructs a composable sourcecast server.
func New(ctx context.Context, cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP {
		return nil, errors.New("no services enabled")
	}
	normalized, err := schema.NormalizeServiceConfig(cfg.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = normalized

	serviceDeps := deps.ServiceDeps
	logger := serviceDeps.Logger
	if logger == nil {
		logger = pslog.Ctx(ctx)
		serviceDeps.Logger = logger
	}

	var store *recordstore.Store
	if options.enableRecordings {
		store, err = recordstore.Open(ctx, cfg.RecordingDB, logger)
		if err != nil {
			return nil, err
		}
		if serviceDeps.RecordingSink == nil {
			serviceDeps.RecordingSink = store
		}
		if serviceDeps.Recordings == nil {
			serviceDeps.Recordings = store
		}
	}

	hub := httpapi.NewHub(cfg.HubHistory, logger)
	bus := eventbus.New(logger)
	sinks := make([]core.EventSink, 0, 3)
	if serviceDeps.EventSink != nil {
		sinks = append(sinks, serviceDeps.EventSink)
	}
	sinks = append(sinks, hub, bus)
	serviceDeps.EventSink = eventFanout{sinks: sinks}

	service, err := core.NewService(cfg.Service, serviceDeps)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		httpSrv: httpapi.NewServer(cfg.HTTP, service, hub, bus),
		store:   store,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	httpSrv *httpapi.Server
	store   *recordstore.Store
	logger  pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
	closed  bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http_addr", s.cfg.HTTP.Addr,
		"http_base_url", s.cfg.HTTP.BaseURL,
		"http_base_path", s.cfg.HTTP.BasePath,
		"recording_db", s.cfg.RecordingDB,
		"recordings", s.options.enableRecordings,
	)
	s.httpSrv.SetBaseContext(s.ctx)
	go func() {
		if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
			log.Error("http server failed", "err", err)
			s.errCh <- err
		}
	}()
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	closeStore := !s.closed
	s.closed = true
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if closeStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warn("server recording store close failed", "err", err)
		} else {
			log.Info("server recording store closed")
		}
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
