// Package server exposes refinement sessions over HTTP.
//
// Routes:
//
//	GET  /stream?prompt=...        stream one session as SSE, or as lines with format=lines
//	POST /api/tasks                launch a background session
//	GET  /api/tasks                list sessions
//	GET  /api/tasks/{id}           session status
//	GET  /api/tasks/{id}/draft     current draft as markdown, html or json
//	GET  /api/outputs/{id}         recorded stream events of a background session
//	GET  /ws                       websocket broadcast of every background session
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/render"
	"github.com/rickchristie/refine/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// WelcomeMessage is the first message every websocket client receives.
	WelcomeMessage = "Refinement session initialized. The writer and the reviewer are ready."

	// MessageTaskSubmit is the client message type that launches a task.
	MessageTaskSubmit = "task_submit"

	defaultWSBuffer = 256
	writeWait       = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server serves the refine HTTP API.
type Server struct {
	manager  *session.Manager
	config   refine.Config
	logger   *zap.Logger
	upgrader websocket.Upgrader
	wsBuffer int
}

// New creates a Server for the sessions of manager.
func New(manager *session.Manager) *Server {
	return &Server{
		manager: manager,
		config:  refine.DefaultConfig(),
		logger:  zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		wsBuffer: defaultWSBuffer,
	}
}

// WithConfig sets the session settings used when a request does not override them.
// Returns the server for chaining.
func (s *Server) WithConfig(cfg refine.Config) *Server {
	s.config = cfg.WithDefaults()
	return s
}

// WithLogger sets the logger. Returns the server for chaining.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("GET /api/tasks/{id}/draft", s.handleGetDraft)
	mux.HandleFunc("GET /api/outputs/{id}", s.handleOutputs)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts the HTTP server and the
// session manager down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return s.manager.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ----------------------------------------------------------------------------
// Streaming
// ----------------------------------------------------------------------------

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.configFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h, err := s.manager.Start(r.URL.Query().Get("prompt"), cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	stream, err := s.manager.Open(r.Context(), h.ID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	defer stream.Close()

	lines := r.URL.Query().Get("format") == "lines"
	sw := newSSEWriter(w)
	if lines {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Session-Id", h.ID)
		w.WriteHeader(http.StatusOK)
	} else {
		w.Header().Set("X-Session-Id", h.ID)
		sw.init()
	}

	logger := s.logger.With(zap.String("session", h.ID))
	for ev, err := range stream.All(r.Context()) {
		if err != nil {
			logger.Debug("client went away", zap.Error(err))
			return
		}
		if lines {
			err = sw.writeLine(EncodeLine(ev))
		} else {
			var payload string
			if payload, err = SSEPayload(ev); err == nil {
				err = sw.writeData(payload)
			}
		}
		if err != nil {
			logger.Debug("stream write failed", zap.Error(err))
			return
		}
	}
}

// ----------------------------------------------------------------------------
// Task API
// ----------------------------------------------------------------------------

// TaskRequest is the body of POST /api/tasks. Zero settings use the server defaults.
type TaskRequest struct {
	Content   string `json:"content"`
	Threshold int    `json:"threshold,omitempty"`
	MaxIters  int    `json:"max_iters,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid task data: %w", err))
		return
	}
	cfg := s.config
	if req.Threshold != 0 {
		cfg = cfg.WithThreshold(req.Threshold)
	}
	if req.MaxIters != 0 {
		cfg = cfg.WithMaxIters(req.MaxIters)
	}

	h, err := s.manager.Launch(req.Content, cfg)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleListTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	info, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	info, err := s.manager.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	body, contentType, err := renderDraft(info.Draft, r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleOutputs(w http.ResponseWriter, r *http.Request) {
	outputs, err := s.manager.Outputs(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, outputs)
}

// renderDraft renders d in the requested format: "markdown" (the default), "html" or "json".
func renderDraft(d refine.Draft, format string) (body, contentType string, err error) {
	switch format {
	case "", "markdown", "md":
		return render.Markdown(d), "text/markdown; charset=utf-8", nil
	case "html":
		body, err := render.HTML(d)
		if err != nil {
			return "", "", err
		}
		return body, "text/html; charset=utf-8", nil
	case "json":
		return d.JSON(), "application/json", nil
	default:
		return "", "", fmt.Errorf("unknown draft format %q", format)
	}
}

// configFromQuery reads optional threshold and max_iters query parameters over the server
// defaults.
func (s *Server) configFromQuery(r *http.Request) (refine.Config, error) {
	cfg := s.config
	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: threshold %q is not a number", refine.ErrInvalidConfig, v)
		}
		cfg = cfg.WithThreshold(n)
	}
	if v := q.Get("max_iters"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: max_iters %q is not a number", refine.ErrInvalidConfig, v)
		}
		cfg = cfg.WithMaxIters(n)
	}
	return cfg, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyOpened):
		return http.StatusConflict
	case errors.Is(err, session.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, refine.ErrInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"message": err.Error()})
}
