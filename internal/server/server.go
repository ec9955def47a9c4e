package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edge-status/internal/config"
	"edge-status/internal/display"
	"edge-status/internal/hook"
	"edge-status/internal/page"
	"edge-status/internal/storage"
	"edge-status/internal/trace"
	"edge-status/internal/ui"
)

// Server exposes the display targets and snapshot history over HTTP.
type Server struct {
	ctrl   *display.Controller
	status *display.TextNode
	time   *display.TextNode
	store  *storage.SnapshotStore
	logger *slog.Logger
}

type targetView struct {
	Text    string `json:"text"`
	Version uint64 `json:"version"`
}

type targetsView struct {
	Status   targetView `json:"cfs"`
	Time     targetView `json:"time"`
	State    string     `json:"state"`
	Fallback bool       `json:"fallback"`
}

type clickView struct {
	targetView
	Fallback bool `json:"fallback"`
}

// New returns a Server over the controller's status and load-time targets.
func New(ctrl *display.Controller, status, timeNode *display.TextNode, store *storage.SnapshotStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{ctrl: ctrl, status: status, time: timeNode, store: store, logger: logger}
}

// Handler builds the UI/API mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/targets", s.handleTargets)
	mux.HandleFunc("/api/click", s.handleClick)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
	mux.HandleFunc("/api/snapshots", s.handleSnapshots)
	mux.HandleFunc("/api/snapshots/", s.handleSnapshot)
	mux.HandleFunc("/", ui.Handler)
	return mux
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st, sv := s.status.Read()
	tt, tv := s.time.Read()
	writeJSON(w, http.StatusOK, targetsView{
		Status: targetView{Text: st, Version: sv},
		Time:     targetView{Text: tt, Version: tv},
		State:    s.ctrl.State().String(),
		Fallback: st == s.ctrl.FallbackText(),
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.ctrl.Click(r.Context()); err != nil {
		switch {
		case errors.Is(err, display.ErrToggleDisabled):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			s.logger.Warn("click rejected", "err", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		}
		return
	}
	text, version := s.status.Read()
	writeJSON(w, http.StatusOK, clickView{
		targetView: targetView{Text: text, Version: version},
		Fallback:   text == s.ctrl.FallbackText(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	text, written := s.ctrl.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"text": text, "written": written})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.store.List(limit))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	snap, ok := s.store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Run binds cfg.Listen and calls Serve. start is the process start the load
// time is measured from.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, start time.Time) error {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	return Serve(ctx, ln, cfg, logger, start)
}

// Serve wires the controller, history store, webhook and host-page watcher and
// serves the UI on ln until ctx is cancelled. The controller starts only once
// ln is accepting, so the load time covers binding and the on-load refresh.
func Serve(ctx context.Context, ln net.Listener, cfg *config.Config, logger *slog.Logger, start time.Time) error {
	if logger == nil {
		logger = slog.Default()
	}
	defer ln.Close()

	transport, err := trace.NewTransport(cfg.TLS.CAFile, cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return err
	}
	fetcher := trace.NewFetcher(cfg.Origin, cfg.TracePath, transport, cfg.Timeout())

	store, err := storage.NewSnapshotStore(cfg.SnapshotFile, cfg.MaxSnapshots)
	if err != nil {
		return err
	}
	defer store.Close()

	placeholder := ""
	if cfg.PageFile != "" {
		placeholder, err = page.LoadPlaceholder(cfg.PageFile, cfg.StatusTargetID)
		if err != nil {
			return err
		}
	}

	statusHook := hook.New(cfg.Hook.Endpoint, cfg.HookTimeout(), logger)
	defer statusHook.Wait()

	statusNode := display.NewTextNode(placeholder)
	timeNode := display.NewTextNode("")
	opts := display.Options{
		Status:       statusNode,
		Time:         timeNode,
		Fetcher:      fetcher,
		Formatter:    trace.Formatter{Prefix: cfg.Prefix, Strict: cfg.StrictFields},
		URL:          fetcher.URL,
		FallbackText: cfg.FallbackText,
		Interval:     cfg.RefreshInterval(),
		Toggle:       cfg.Toggle,
		SingleFlight: cfg.SingleFlight,
		Recorder:     store,
		Logger:       logger,
		Start:        start,
	}
	if statusHook != nil {
		opts.Notifier = statusHook
	}
	ctrl, err := display.New(opts)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if cfg.PageFile != "" {
		w, err := page.NewWatcher(cfg.PageFile, cfg.StatusTargetID, ctrl.SetOriginal, logger)
		if err != nil {
			logger.Warn("host page watch disabled", "err", err)
		} else {
			go func() { _ = w.Run(ctx) }()
		}
	}

	srv := &http.Server{
		Handler: New(ctrl, statusNode, timeNode, store, logger).Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("status UI listening", "addr", ln.Addr().String(), "trace", fetcher.URL)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go func() { _ = ctrl.Run(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
