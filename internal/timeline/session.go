package timeline

import (
	"github.com/fsru-tools/fleet-timeline/internal/detect"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// Session holds the ordered snapshot list and the baseline from the last
// frame the user actually viewed. Change detection always compares against
// that baseline, which may be several frames away when the user jumps the
// slider; that is deliberate, it measures perceptible change between what
// the user looks at now and what they looked at before.
//
// A Session is owned by its caller and is not safe for concurrent use.
type Session struct {
	snapshots []core.Snapshot

	lastIndex int
	baseline  detect.Baseline
}

// NewSession wraps an ordered snapshot list. No frame counts as viewed
// yet; the first Advance seeds the baseline and reports no changes.
func NewSession(snapshots []core.Snapshot) *Session {
	return &Session{
		snapshots: snapshots,
		lastIndex: -1,
	}
}

// Snapshots returns the ordered snapshot list.
func (s *Session) Snapshots() []core.Snapshot { return s.snapshots }

// Len returns the number of snapshots on the timeline.
func (s *Session) Len() int { return len(s.snapshots) }

// LastIndex returns the index of the last viewed frame, or -1 before the
// first render.
func (s *Session) LastIndex() int { return s.lastIndex }

// Advance applies the edge-triggered baseline rule for a newly selected
// index and returns the resulting change set.
//
// Re-selecting the current index returns an empty set and leaves the
// baseline untouched, so redundant renders cause no baseline drift.
// Selecting a different index classifies the given vessels against the
// stored baseline, then makes them the new baseline.
func (s *Session) Advance(index int, vessels []core.VesselRecord, thresholdMiles float64) detect.ChangeSet {
	if s.lastIndex == -1 {
		s.baseline = detect.BaselineFrom(vessels)
		s.lastIndex = index
		return detect.ChangeSet{}
	}

	if index == s.lastIndex {
		return detect.ChangeSet{}
	}

	changes := detect.Classify(s.baseline, vessels, thresholdMiles)
	s.baseline = detect.BaselineFrom(vessels)
	s.lastIndex = index
	return changes
}
