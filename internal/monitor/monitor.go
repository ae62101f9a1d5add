// Package monitor periodically reports engine counters to the log and,
// when connected, to InfluxDB.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsru-tools/fleet-timeline/internal/influx"
	"github.com/fsru-tools/fleet-timeline/internal/timeline"
)

// SessionCounter reports how many sessions are currently live.
type SessionCounter interface {
	SessionCount() int
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Engine   *timeline.Engine
	Sessions SessionCounter
	Logger   *slog.Logger
	Influx   *influx.Manager
	Interval time.Duration
}

// Service manages periodic status reporting.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		deps: deps,
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start launches the reporting loop. It is a no-op when already running.
// A fresh stop channel per start keeps restarts safe.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go s.run(stop)
}

// Stop halts the reporting loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopChan)
	s.stopChan = nil
}

func (s *Service) run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.report()
		}
	}
}

func (s *Service) report() {
	stats := s.deps.Engine.Stats()

	sessions := 0
	if s.deps.Sessions != nil {
		sessions = s.deps.Sessions.SessionCount()
	}

	s.deps.Logger.Info("engine status",
		"renders", stats.Renders,
		"loadErrors", stats.LoadErrors,
		"cachedSnapshots", stats.CachedSnapshots,
		"sessions", sessions,
	)

	if s.deps.Influx != nil && s.deps.Influx.IsValid {
		point := influx.StatusPoint(stats.Renders, stats.LoadErrors, stats.CachedSnapshots, sessions)
		if err := s.deps.Influx.WritePoint(context.Background(), "engine_status", point); err != nil {
			s.deps.Logger.Warn("failed to write status point", "error", err)
		}
	}
}
