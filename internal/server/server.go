// Package server implements the weft development preview server. It scans
// the configured component roots, serves component previews with their
// collected assets, exposes the asset middleware in autorefresh mode, and
// pushes live-reload notifications over a websocket when sources change.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/weftlabs/weft/internal/config"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/logging"
	"github.com/weftlabs/weft/internal/registry"
	"github.com/weftlabs/weft/internal/scanner"
	"github.com/weftlabs/weft/internal/serving"
	"github.com/weftlabs/weft/internal/types"
	"github.com/weftlabs/weft/internal/watcher"
)

const watchDebounce = 300 * time.Millisecond

// PreviewServer serves component previews with live reload.
type PreviewServer struct {
	config  *config.Config
	logger  logging.Logger
	roots   *registry.Roots
	engine  *engine.Engine
	scanner *scanner.ComponentScanner
	watcher *watcher.FileWatcher
	handler http.Handler

	httpServer  *http.Server
	serverMutex sync.Mutex

	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *client
	unregister   chan *websocket.Conn

	shutdownOnce sync.Once
}

// New wires a preview server from the given configuration.
func New(cfg *config.Config, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	logger = logger.WithComponent("server")

	roots := registry.NewRoots()
	for _, folder := range cfg.Components.Roots {
		roots.AddFolder(folder)
	}

	eng := engine.New(registry.NewComponentRegistry(), engine.Options{
		MountPrefix: cfg.Static.Prefix,
		Logger:      logger,
	})

	s := &PreviewServer{
		config:     cfg,
		logger:     logger,
		roots:      roots,
		engine:     eng,
		scanner:    scanner.New(eng, roots, logger),
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *websocket.Conn),
	}

	if cfg.Development.HotReload {
		fw, err := watcher.NewFileWatcher(watchDebounce, logger)
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
		s.watcher = fw
	}

	s.handler = s.buildHandler()
	return s, nil
}

// Engine exposes the server's render engine.
func (s *PreviewServer) Engine() *engine.Engine {
	return s.engine
}

// Handler returns the full request handler, asset middleware included.
func (s *PreviewServer) Handler() http.Handler {
	return s.handler
}

// buildHandler assembles the chi router and wraps it in the asset
// middleware. The middleware runs in autorefresh mode so edited asset
// files are visible on the next request without a restart.
func (s *PreviewServer) buildHandler() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(s.requestLogger)

	router.Get("/", s.handleIndex)
	router.Get("/healthz", s.handleHealth)
	router.Get("/api/components", s.handleComponentList)
	router.Get("/preview/*", s.handlePreview)
	router.Get("/ws", s.handleWebSocket)

	return serving.NewAssetServer(s.roots, router, serving.Options{
		Prefix:      s.config.Static.Prefix,
		AllowedExt:  s.config.Static.AllowedExt,
		Autorefresh: true,
		Logger:      s.logger,
	})
}

func (s *PreviewServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}

// Start scans the roots, begins watching for changes, and serves HTTP
// until ctx is cancelled or Stop is called.
func (s *PreviewServer) Start(ctx context.Context) error {
	if err := s.scanner.ScanAll(ctx); err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	for _, tmplErr := range s.scanner.Errors().TemplateErrors() {
		s.logger.Warn(ctx, tmplErr, "component failed to compile")
	}

	if s.watcher != nil {
		if err := s.setupWatcher(ctx); err != nil {
			return err
		}
	}

	go s.runHub(ctx)
	go s.pumpRegistryEvents(ctx, s.engine.Registry().Watch())

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.serverMutex.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info(ctx, "preview server listening",
		"addr", addr,
		"components", s.engine.Registry().Count())

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully. Safe to call more than once.
func (s *PreviewServer) Stop() {
	s.shutdownOnce.Do(func() {
		if s.watcher != nil {
			s.watcher.Stop()
		}

		s.serverMutex.Lock()
		httpServer := s.httpServer
		s.serverMutex.Unlock()
		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error(context.Background(), err, "shutdown failed")
			}
		}
	})
}

func (s *PreviewServer) setupWatcher(ctx context.Context) error {
	s.watcher.AddFilter(watcher.ComponentFilter)
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddHandler(s.handleFileChanges)

	for _, root := range s.roots.All() {
		if err := s.watcher.AddRecursive(root.Path); err != nil {
			s.logger.Warn(ctx, err, "cannot watch root", "path", root.Path)
		}
	}
	s.watcher.Start(ctx)
	return nil
}

// handleFileChanges rescans changed component sources and tells connected
// browsers about asset edits. Source changes reach browsers through the
// registry event pump once the rescan registers them; asset file changes
// only need the reload since the middleware re-resolves them per request.
func (s *PreviewServer) handleFileChanges(events []watcher.ChangeEvent) error {
	ctx := context.Background()
	assetChanged := false
	for _, event := range events {
		if watcher.WeftFilter(event.Path) {
			s.rescan(ctx, event)
		} else {
			assetChanged = true
		}
	}
	if assetChanged {
		s.notifyReload()
	}
	return nil
}

// pumpRegistryEvents turns component registrations and removals into
// reload notifications. Routing reloads through the registry also covers
// programmatic Compile and RegisterTempl calls, not just file events.
func (s *PreviewServer) pumpRegistryEvents(ctx context.Context, events <-chan types.ComponentEvent) {
	defer s.engine.Registry().UnWatch(events)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			s.notifyReload()
		}
	}
}

func (s *PreviewServer) rescan(ctx context.Context, event watcher.ChangeEvent) {
	if event.Type == watcher.EventTypeDeleted {
		s.engine.Registry().RemoveByPath(event.Path)
		return
	}
	for _, root := range s.roots.All() {
		if err := s.scanner.ScanFile(ctx, root, event.Path); err == nil {
			return
		}
	}
	s.logger.Debug(ctx, "changed file matched no root", "path", event.Path)
}
