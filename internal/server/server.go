// Package server exposes the timeline engine over HTTP and WebSocket:
// session creation, frame selection, playback, and status reporting.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fsru-tools/fleet-timeline/internal/dispatcher"
	"github.com/fsru-tools/fleet-timeline/internal/influx"
	"github.com/fsru-tools/fleet-timeline/internal/timeline"
	"github.com/fsru-tools/fleet-timeline/internal/view"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
	"github.com/fsru-tools/fleet-timeline/pkg/streaming"
)

//go:embed static
var staticFS embed.FS

// Config holds the shell settings.
type Config struct {
	Addr             string
	PlaybackInterval time.Duration
}

// Server routes shell commands to the engine through the dispatcher.
type Server struct {
	cfg        Config
	engine     *timeline.Engine
	dispatcher *dispatcher.Dispatcher
	registry   *Registry
	logger     *slog.Logger
	influx     *influx.Manager

	httpServer *http.Server
}

// selectFrameRequest is the dispatcher payload for frame selection.
type selectFrameRequest struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`
}

// sessionRequest is the dispatcher payload for session-scoped queries.
type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// New creates a server and registers its command handlers.
func New(cfg Config, engine *timeline.Engine, d *dispatcher.Dispatcher, logger *slog.Logger, ifx *influx.Manager) *Server {
	if cfg.PlaybackInterval <= 0 {
		cfg.PlaybackInterval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		engine:     engine,
		dispatcher: d,
		registry:   NewRegistry(),
		logger:     logger,
		influx:     ifx,
	}

	d.Register(streaming.TypeSelectFrame, s.handleSelectFrame, dispatcher.Logged())
	d.Register(streaming.TypeTimeline, s.handleTimeline)
	d.Register(streaming.TypeStatus, s.handleStatus)

	return s
}

// Registry exposes the session registry, for status reporting.
func (s *Server) Registry() *Registry { return s.registry }

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthcheck", s.httpHealthcheck)
	mux.HandleFunc("POST /api/sessions", s.httpCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.httpDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/timeline", s.httpTimeline)
	mux.HandleFunc("GET /api/sessions/{id}/frame", s.httpFrame)
	mux.HandleFunc("GET /api/sessions/{id}/status", s.httpStatus)
	mux.HandleFunc("GET /ws", s.httpWebSocket)
	mux.Handle("GET /", http.FileServer(mustSub(staticFS, "static")))

	return mux
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		s.logger.Info("server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", "error", err)
		}
	}()
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ---- dispatcher handlers ----

// handleSelectFrame renders one frame for a session. The per-session mutex
// serializes renders so the baseline rule advances in request order.
func (s *Server) handleSelectFrame(e dispatcher.Event) (any, error) {
	var req selectFrameRequest
	if err := json.Unmarshal(e.Payload, &req); err != nil {
		return nil, fmt.Errorf("bad select_frame payload: %w", err)
	}

	ls := s.registry.Get(req.SessionID)
	if ls == nil {
		return nil, fmt.Errorf("unknown session: %s", req.SessionID)
	}

	ls.mu.Lock()
	start := time.Now()
	frame, err := s.engine.Render(ls.session, req.Index)
	if err == nil {
		ls.current = req.Index
	}
	ls.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if s.influx != nil && s.influx.IsValid {
		point := influx.RenderPoint(req.SessionID, frame.Index, len(frame.Rows), len(frame.ChangedNames), time.Since(start))
		if werr := s.influx.WritePoint(context.Background(), "render_metrics", point); werr != nil {
			s.logger.Warn("failed to write render point", "error", werr)
		}
	}

	return &frame, nil
}

func (s *Server) handleTimeline(e dispatcher.Event) (any, error) {
	var req sessionRequest
	if err := json.Unmarshal(e.Payload, &req); err != nil {
		return nil, fmt.Errorf("bad timeline payload: %w", err)
	}

	ls := s.registry.Get(req.SessionID)
	if ls == nil {
		return nil, fmt.Errorf("unknown session: %s", req.SessionID)
	}

	snaps := ls.session.Snapshots()
	entries := make([]streaming.TimelineEntry, len(snaps))
	for i, snap := range snaps {
		entries[i] = streaming.TimelineEntry{
			Index:     i,
			Timestamp: snap.Timestamp,
			Source:    snap.SourcePath,
		}
	}
	return streaming.TimelinePayload{Entries: entries}, nil
}

func (s *Server) handleStatus(e dispatcher.Event) (any, error) {
	var req sessionRequest
	if err := json.Unmarshal(e.Payload, &req); err != nil {
		return nil, fmt.Errorf("bad status payload: %w", err)
	}

	ls := s.registry.Get(req.SessionID)
	if ls == nil {
		return nil, fmt.Errorf("unknown session: %s", req.SessionID)
	}

	stats := s.engine.Stats()

	ls.mu.Lock()
	current, playing := ls.current, ls.playing
	ls.mu.Unlock()

	return streaming.StatusPayload{
		CurrentIndex:    current,
		FrameCount:      ls.session.Len(),
		Playing:         playing,
		Renders:         stats.Renders,
		LoadErrors:      stats.LoadErrors,
		CachedSnapshots: stats.CachedSnapshots,
	}, nil
}

// ---- HTTP handlers ----

func (s *Server) httpHealthcheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) httpCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.engine.NewSession()
	if err != nil {
		httpError(w, http.StatusServiceUnavailable, err)
		return
	}

	ls, err := s.registry.Create(session)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("session created", "session", ls.id, "frames", session.Len())
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         ls.id,
		"frameCount": session.Len(),
	})
}

func (s *Server) httpDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if s.registry.Get(id) == nil {
		httpError(w, http.StatusNotFound, fmt.Errorf("unknown session: %s", id))
		return
	}
	s.registry.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) httpTimeline(w http.ResponseWriter, r *http.Request) {
	result, err := s.dispatch(streaming.TypeTimeline, sessionRequest{SessionID: r.PathValue("id")})
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) httpFrame(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("invalid index: %w", err))
		return
	}

	result, err := s.dispatch(streaming.TypeSelectFrame, selectFrameRequest{
		SessionID: r.PathValue("id"),
		Index:     index,
	})
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}

	frame := result.(*core.Frame)

	if r.URL.Query().Get("format") == "geojson" {
		body, err := view.FrameGeoJSON(*frame)
		if err != nil {
			httpError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	writeJSON(w, http.StatusOK, frame)
}

func (s *Server) httpStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.dispatch(streaming.TypeStatus, sessionRequest{SessionID: r.PathValue("id")})
	if err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// dispatch marshals the payload and routes the command through the dispatcher.
func (s *Server) dispatch(command string, payload any) (any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", command, err)
	}
	return s.dispatcher.Dispatch(dispatcher.Event{
		Command:   command,
		Payload:   raw,
		Timestamp: time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func mustSub(fsys embed.FS, dir string) http.FileSystem {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
