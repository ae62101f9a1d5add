package detect

import (
	"reflect"
	"testing"

	"github.com/fsru-tools/fleet-timeline/pkg/core"
)

func fptr(v float64) *float64 { return &v }

func vessel(name string, lat, lon float64) core.VesselRecord {
	return core.VesselRecord{Name: name, Lat: fptr(lat), Lon: fptr(lon)}
}

func TestClassify_NewVessel(t *testing.T) {
	changes := Classify(Baseline{}, []core.VesselRecord{vessel("X", 0, 0)}, DefaultThresholdMiles)

	if !changes.Contains("X") {
		t.Fatal("expected X classified as changed")
	}
	if changes["X"] != KindNew {
		t.Errorf("expected KindNew, got %q", changes["X"])
	}
}

func TestClassify_MovedBeyondThreshold(t *testing.T) {
	prev := Baseline{"X": {Lat: 0, Lon: 0}}
	// 0.1 degrees of longitude at the equator is ~6.9 miles
	changes := Classify(prev, []core.VesselRecord{vessel("X", 0, 0.1)}, DefaultThresholdMiles)

	if changes["X"] != KindMoved {
		t.Errorf("expected KindMoved, got %q", changes["X"])
	}
}

func TestClassify_SmallMoveUnchanged(t *testing.T) {
	prev := Baseline{"X": {Lat: 0, Lon: 0}}
	// 0.01 degrees is ~0.69 miles, below the threshold
	changes := Classify(prev, []core.VesselRecord{vessel("X", 0, 0.01)}, DefaultThresholdMiles)

	if changes.Contains("X") {
		t.Error("expected X unchanged below the threshold")
	}
}

func TestClassify_MissingCurrentCoordinatesNeverChanged(t *testing.T) {
	prev := Baseline{}
	current := []core.VesselRecord{{Name: "Ghost"}}
	changes := Classify(prev, current, DefaultThresholdMiles)

	if changes.Contains("Ghost") {
		t.Error("a vessel without current coordinates must not be classified")
	}
}

func TestClassify_KnownVesselWithoutPreviousCoordinates(t *testing.T) {
	prev := Baseline{"X": nil}
	changes := Classify(prev, []core.VesselRecord{vessel("X", 10, 10)}, DefaultThresholdMiles)

	if changes.Contains("X") {
		t.Error("a known vessel without a comparable previous position is unchanged")
	}
}

func TestClassify_DoesNotMutateInputs(t *testing.T) {
	prev := Baseline{"X": {Lat: 1, Lon: 2}}
	current := []core.VesselRecord{vessel("X", 30, 40), vessel("Y", 5, 6)}

	Classify(prev, current, DefaultThresholdMiles)

	if len(prev) != 1 || prev["X"].Lat != 1 || prev["X"].Lon != 2 {
		t.Error("baseline was mutated")
	}
	if *current[0].Lat != 30 || current[1].Name != "Y" {
		t.Error("current vessel list was mutated")
	}
}

func TestChangeSet_NamesSorted(t *testing.T) {
	changes := ChangeSet{"Zulu": KindMoved, "Alpha": KindNew, "Mike": KindMoved}
	want := []string{"Alpha", "Mike", "Zulu"}
	if got := changes.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBaselineFrom_RecordsVesselsWithoutCoordinates(t *testing.T) {
	vessels := []core.VesselRecord{
		vessel("A", 1, 2),
		{Name: "B"},
	}
	b := BaselineFrom(vessels)

	if len(b) != 2 {
		t.Fatalf("expected 2 baseline entries, got %d", len(b))
	}
	if b["A"] == nil || b["A"].Lat != 1 || b["A"].Lon != 2 {
		t.Errorf("unexpected position for A: %+v", b["A"])
	}
	pos, known := b["B"]
	if !known {
		t.Fatal("B must be recorded in the baseline")
	}
	if pos != nil {
		t.Error("B has no coordinates, baseline entry must be nil")
	}
}
