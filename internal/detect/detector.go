// Package detect classifies vessel movement between a baseline position
// mapping and the vessel list of a newly selected snapshot.
package detect

import (
	"sort"

	"github.com/fsru-tools/fleet-timeline/internal/geo"
	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// DefaultThresholdMiles is the displacement beyond which a vessel counts
// as moved.
const DefaultThresholdMiles = 5.0

// Kind is the classification of a changed vessel.
type Kind string

const (
	// KindNew marks a vessel absent from the baseline.
	KindNew Kind = "new"
	// KindMoved marks a vessel displaced beyond the threshold.
	KindMoved Kind = "moved"
)

// ChangeSet maps changed vessel names to their classification. Vessels
// that are unchanged, or that cannot be compared, are not present.
type ChangeSet map[string]Kind

// Contains reports whether the named vessel changed.
func (c ChangeSet) Contains(name string) bool {
	_, ok := c[name]
	return ok
}

// Names returns the changed vessel names in sorted order.
func (c ChangeSet) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Baseline is the position mapping from the last viewed snapshot. A nil
// position means the vessel was present but reported no coordinates; such
// a vessel is known, so it is not "new", but it cannot be compared either.
type Baseline map[string]*core.Position

// BaselineFrom builds a baseline from a vessel list. All named vessels are
// recorded; those without coordinates map to nil.
func BaselineFrom(vessels []core.VesselRecord) Baseline {
	b := make(Baseline, len(vessels))
	for _, v := range vessels {
		if pos, ok := v.Position(); ok {
			p := pos
			b[v.Name] = &p
		} else {
			b[v.Name] = nil
		}
	}
	return b
}

// Classify compares the current vessel list against the baseline and
// returns the set of changed vessels. Vessels missing coordinates in the
// current snapshot are never classified. Neither input is mutated.
func Classify(prev Baseline, current []core.VesselRecord, thresholdMiles float64) ChangeSet {
	changes := make(ChangeSet)
	for _, vessel := range current {
		pos, ok := vessel.Position()
		if !ok {
			continue
		}
		prevPos, known := prev[vessel.Name]
		if !known {
			changes[vessel.Name] = KindNew
			continue
		}
		if prevPos == nil {
			// Known vessel with no comparable previous position.
			continue
		}
		dist := geo.DistanceMiles(prevPos.Lat, prevPos.Lon, pos.Lat, pos.Lon)
		if dist > thresholdMiles {
			changes[vessel.Name] = KindMoved
		}
	}
	return changes
}
