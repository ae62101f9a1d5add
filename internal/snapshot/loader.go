// Package snapshot reads vessel lists out of snapshot files. A corrupt or
// unreadable file degrades to an empty vessel list so the surrounding
// timeline stays navigable.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

// LoadError reports a snapshot file that could not be read or parsed.
// It is recoverable: the caller renders the frame with no vessels.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading snapshot %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader decodes snapshot files into vessel records.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads one snapshot file and returns its vessel records. On failure
// it returns an empty list together with a *LoadError; the error is
// informational and must not abort the timeline.
func (l *Loader) Load(path string) ([]core.VesselRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return []core.VesselRecord{}, &LoadError{Path: path, Err: err}
	}

	var env envelopeJSON
	if err := json.Unmarshal(raw, &env); err != nil {
		return []core.VesselRecord{}, &LoadError{Path: path, Err: err}
	}

	// Prefer the nested shape only when data actually carries a vessel
	// list; a data object without one still leaves a top-level vessels
	// array usable. Anything else decodes to an empty list, which is not
	// an error.
	vessels := env.Vessels
	if env.Data != nil && env.Data.Vessels != nil {
		vessels = env.Data.Vessels
	}

	records := make([]core.VesselRecord, 0, len(vessels))
	for _, v := range vessels {
		if v.Name == nil || *v.Name == "" {
			// A nameless vessel cannot be matched across snapshots.
			l.logger.Debug("skipping vessel without name", "path", path)
			continue
		}
		rec := core.VesselRecord{
			Name: *v.Name,
			Lat:  v.Lat,
			Lon:  v.Lon,
		}
		if v.TypeSpecific != nil {
			rec.TypeSpecific = *v.TypeSpecific
		}
		if v.NavigationStatus != nil {
			rec.NavigationStatus = *v.NavigationStatus
		}
		if v.CountryISO != nil {
			rec.CountryISO = *v.CountryISO
		}
		records = append(records, rec)
	}

	return records, nil
}
