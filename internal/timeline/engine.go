package timeline

import (
	"fmt"
	"log/slog"

	"github.com/fsru-tools/fleet-timeline/internal/cache"
	"github.com/fsru-tools/fleet-timeline/internal/detect"
	"github.com/fsru-tools/fleet-timeline/internal/snapshot"
	"github.com/fsru-tools/fleet-timeline/internal/view"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// Config carries the engine settings recognized as constants: the snapshot
// directory, the filename grammar, and the movement threshold.
type Config struct {
	Dir            string
	Prefix         string
	Suffix         string
	ThresholdMiles float64
}

// Stats is a point-in-time view of engine counters for status reporting.
type Stats struct {
	Renders         int `json:"renders"`
	LoadErrors      int `json:"loadErrors"`
	CachedSnapshots int `json:"cachedSnapshots"`
}

// Engine wires the locator, loader, change detector and view builder into
// one synchronous render path: selected index in, annotated frame out.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	loader *snapshot.Loader
	cache  *cache.VesselCache

	renders    cache.SafeCounter
	loadErrors cache.SafeCounter
}

// New creates an engine. Threshold zero falls back to the default policy
// constant.
func New(cfg Config, logger *slog.Logger) *Engine {
	if cfg.ThresholdMiles <= 0 {
		cfg.ThresholdMiles = detect.DefaultThresholdMiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		loader: snapshot.NewLoader(logger),
		cache:  cache.NewVesselCache(),
	}
}

// NewSession rescans the snapshot directory and returns a fresh session
// over the ordered timeline. Returns ErrEmptyTimeline when nothing usable
// is found; the caller must surface that instead of rendering.
func (e *Engine) NewSession() (*Session, error) {
	locator := NewLocator(e.cfg.Dir, e.cfg.Prefix, e.cfg.Suffix, e.logger)
	snapshots, err := locator.Scan()
	if err != nil {
		return nil, err
	}
	e.logger.Info("timeline scanned", "dir", e.cfg.Dir, "snapshots", len(snapshots))
	return NewSession(snapshots), nil
}

// Render loads the selected snapshot, applies the edge-triggered baseline
// rule of the session, and returns the annotated frame. A snapshot that
// fails to load degrades to an empty vessel list so the timeline stays
// navigable; only an out-of-range index is an error.
func (e *Engine) Render(s *Session, index int) (core.Frame, error) {
	if index < 0 || index >= s.Len() {
		return core.Frame{}, fmt.Errorf("snapshot index %d out of range [0,%d)", index, s.Len())
	}
	snap := s.Snapshots()[index]

	vessels, ok := e.cache.Get(snap.SourcePath)
	if !ok {
		var err error
		vessels, err = e.loader.Load(snap.SourcePath)
		if err != nil {
			// Recoverable: render the frame empty rather than break the timeline.
			e.loadErrors.Inc()
			e.logger.Warn("snapshot degraded to empty vessel list", "error", err)
		}
		e.cache.Add(snap.SourcePath, vessels)
	}

	changes := s.Advance(index, vessels, e.cfg.ThresholdMiles)
	e.renders.Inc()

	return view.BuildFrame(index, snap, vessels, changes), nil
}

// Stats returns current engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Renders:         e.renders.Value(),
		LoadErrors:      e.loadErrors.Value(),
		CachedSnapshots: e.cache.Len(),
	}
}

// ResetCache drops cached vessel lists, for use after a directory rescan.
func (e *Engine) ResetCache() {
	e.cache.Reset()
}

// Threshold returns the active movement threshold in miles.
func (e *Engine) Threshold() float64 { return e.cfg.ThresholdMiles }
