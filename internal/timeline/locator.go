// Package timeline reconstructs the snapshot timeline: it discovers and
// orders snapshot files, tracks the last viewed frame per session, and
// drives change detection between viewed frames.
package timeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

const (
	// DefaultPrefix and DefaultSuffix describe the observed snapshot
	// filename pattern vessel_data_<stamp>.json.
	DefaultPrefix = "vessel_data_"
	DefaultSuffix = ".json"

	// stampLayout is the canonical timestamp grammar inside filenames.
	stampLayout = "20060102T150405Z"
	// stampLayoutFrac additionally accepts fractional seconds, a secondary
	// grammar seen in some capture runs.
	stampLayoutFrac = "20060102T150405.999999999Z"
)

// ErrEmptyTimeline is returned when a scan finds no usable snapshot files.
// The caller must not proceed to load or render.
var ErrEmptyTimeline = errors.New("no snapshot files found")

// MalformedFilenameError reports a file that matched the pattern but whose
// timestamp did not parse. The file is excluded from the timeline; a parse
// failure is never masked by substituting the current time, since that
// would silently corrupt chronological ordering.
type MalformedFilenameError struct {
	Name string
	Err  error
}

func (e *MalformedFilenameError) Error() string {
	return fmt.Sprintf("malformed snapshot filename %q: %v", e.Name, e.Err)
}

func (e *MalformedFilenameError) Unwrap() error { return e.Err }

// ParseStamp extracts the timestamp from a snapshot filename.
func ParseStamp(name, prefix, suffix string) (time.Time, error) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, suffix) {
		return time.Time{}, &MalformedFilenameError{
			Name: base,
			Err:  fmt.Errorf("expected %s<stamp>%s", prefix, suffix),
		}
	}
	stamp := base[len(prefix) : len(base)-len(suffix)]

	t, err := time.Parse(stampLayout, stamp)
	if err == nil {
		return t.UTC(), nil
	}
	if t, fracErr := time.Parse(stampLayoutFrac, stamp); fracErr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &MalformedFilenameError{Name: base, Err: err}
}

// FormatStamp renders a timestamp back into the canonical filename
// grammar. FormatStamp(ParseStamp(x)) reproduces the stamp substring for
// filenames without fractional seconds.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

// Locator discovers snapshot files in a directory.
type Locator struct {
	dir    string
	prefix string
	suffix string
	logger *slog.Logger
}

// NewLocator creates a locator for dir. Empty prefix/suffix fall back to
// the defaults.
func NewLocator(dir, prefix, suffix string, logger *slog.Logger) *Locator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{dir: dir, prefix: prefix, suffix: suffix, logger: logger}
}

// Scan lists the directory and returns snapshots sorted ascending by
// timestamp, ties broken by path. Directory order is never trusted. Files
// with malformed timestamps are skipped with a warning; if nothing usable
// remains the scan fails with ErrEmptyTimeline.
func (l *Locator) Scan() ([]core.Snapshot, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory %s: %w", l.dir, err)
	}

	snapshots := make([]core.Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, l.prefix) || !strings.HasSuffix(name, l.suffix) {
			continue
		}
		ts, err := ParseStamp(name, l.prefix, l.suffix)
		if err != nil {
			l.logger.Warn("excluding snapshot file", "file", name, "error", err)
			continue
		}
		snapshots = append(snapshots, core.Snapshot{
			Timestamp:  ts,
			SourcePath: filepath.Join(l.dir, name),
		})
	}

	if len(snapshots) == 0 {
		return nil, ErrEmptyTimeline
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].Timestamp.Equal(snapshots[j].Timestamp) {
			return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
		}
		return snapshots[i].SourcePath < snapshots[j].SourcePath
	})

	return snapshots, nil
}
