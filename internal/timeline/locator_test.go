package timeline

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"vessels":[]}`), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestParseStamp_Canonical(t *testing.T) {
	ts, err := ParseStamp("vessel_data_20250408T140312Z.json", DefaultPrefix, DefaultSuffix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 4, 8, 14, 3, 12, 0, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("expected %v, got %v", want, ts)
	}
}

func TestParseStamp_FractionalSeconds(t *testing.T) {
	ts, err := ParseStamp("vessel_data_20250408T140312.250Z.json", DefaultPrefix, DefaultSuffix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 4, 8, 14, 3, 12, 250_000_000, time.UTC)
	if !ts.Equal(want) {
		t.Errorf("expected %v, got %v", want, ts)
	}
}

func TestParseStamp_Malformed(t *testing.T) {
	cases := []string{
		"vessel_data_.json",
		"vessel_data_2025-04-08.json",
		"vessel_data_20250408T140312.json", // missing Z
		"vessel_data_notadate.json",
		"other_20250408T140312Z.json",
		"vessel_data_20250408T140312Z.csv",
	}
	for _, name := range cases {
		_, err := ParseStamp(name, DefaultPrefix, DefaultSuffix)
		if err == nil {
			t.Errorf("%s: expected error", name)
			continue
		}
		var malformed *MalformedFilenameError
		if !errors.As(err, &malformed) {
			t.Errorf("%s: expected *MalformedFilenameError, got %T", name, err)
		}
	}
}

func TestParseStamp_RoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Whole seconds between 1970 and 2099; the canonical grammar has no
	// fractional part.
	genStamp := gen.Int64Range(0, 4102444799).Map(func(sec int64) time.Time {
		return time.Unix(sec, 0).UTC()
	})

	properties.Property("formatting a parsed stamp reproduces it", prop.ForAll(
		func(ts time.Time) bool {
			name := DefaultPrefix + FormatStamp(ts) + DefaultSuffix
			parsed, err := ParseStamp(name, DefaultPrefix, DefaultSuffix)
			if err != nil {
				return false
			}
			return FormatStamp(parsed) == FormatStamp(ts) && parsed.Equal(ts)
		},
		genStamp,
	))

	properties.TestingRun(t)
}

func TestScan_SortsByTimestampThenPath(t *testing.T) {
	dir := t.TempDir()
	// Written out of chronological order on purpose
	touch(t, dir, "vessel_data_20250408T150000Z.json")
	touch(t, dir, "vessel_data_20250408T130000Z.json")
	touch(t, dir, "vessel_data_20250408T140000Z.json")

	snapshots, err := NewLocator(dir, "", "", discard()).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snapshots))
	}
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].Timestamp.Before(snapshots[i-1].Timestamp) {
			t.Errorf("snapshots out of order at %d: %v before %v",
				i, snapshots[i].Timestamp, snapshots[i-1].Timestamp)
		}
	}
}

func TestScan_SkipsMalformedWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "vessel_data_20250408T130000Z.json")
	touch(t, dir, "vessel_data_garbage.json")
	touch(t, dir, "unrelated.txt")

	snapshots, err := NewLocator(dir, "", "", discard()).Scan()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	_, err := NewLocator(t.TempDir(), "", "", discard()).Scan()
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("expected ErrEmptyTimeline, got %v", err)
	}
}

func TestScan_OnlyMalformedFilesIsEmptyTimeline(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "vessel_data_garbage.json")

	_, err := NewLocator(dir, "", "", discard()).Scan()
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("expected ErrEmptyTimeline, got %v", err)
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	_, err := NewLocator(filepath.Join(t.TempDir(), "nope"), "", "", discard()).Scan()
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if errors.Is(err, ErrEmptyTimeline) {
		t.Fatal("a missing directory is not an empty timeline")
	}
}
