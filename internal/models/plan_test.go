package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func intPtr(i int) *int { return &i }
func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string { return &s }

// TestSetValuesEqual verifies value comparison through pointers, including nil fields.
func TestSetValuesEqual(t *testing.T) {
	a := SetValues{Reps: intPtr(10), WeightKg: floatPtr(50), RestSec: intPtr(60)}
	b := SetValues{Reps: intPtr(10), WeightKg: floatPtr(50), RestSec: intPtr(60)}
	if !a.Equal(b) {
		t.Error("equal values compared unequal")
	}
	b.RPE = floatPtr(8)
	if a.Equal(b) {
		t.Error("nil vs set RPE compared equal")
	}
	if !(SetValues{}).Equal(SetValues{}) {
		t.Error("empty values compared unequal")
	}
}

// TestSetValuesClone verifies that mutating a clone leaves the original intact.
func TestSetValuesClone(t *testing.T) {
	orig := SetValues{Reps: intPtr(8), WeightKg: floatPtr(40)}
	c := orig.Clone()
	*c.Reps = 12
	if *orig.Reps != 8 {
		t.Errorf("original reps = %d, want 8", *orig.Reps)
	}
	if c.RPE != nil {
		t.Error("clone invented an RPE")
	}
}

// TestDefaultSetValues verifies the synthesized default set.
func TestDefaultSetValues(t *testing.T) {
	d := DefaultSetValues()
	if *d.Reps != 10 || *d.WeightKg != 0 || d.RPE != nil || d.Rest() != 60 {
		t.Errorf("defaults = reps %d weight %v rpe %v rest %d", *d.Reps, *d.WeightKg, d.RPE, d.Rest())
	}
}

// TestDisplayName verifies the custom name overrides the catalog name unless empty.
func TestDisplayName(t *testing.T) {
	e := PlannedExercise{Name: "Bench Press"}
	if got := e.DisplayName(); got != "Bench Press" {
		t.Errorf("DisplayName() = %q", got)
	}
	e.CustomName = strPtr("")
	if got := e.DisplayName(); got != "Bench Press" {
		t.Errorf("DisplayName() with empty custom = %q", got)
	}
	e.CustomName = strPtr("Paused Bench")
	if got := e.DisplayName(); got != "Paused Bench" {
		t.Errorf("DisplayName() = %q, want Paused Bench", got)
	}
}

// TestSetBlockJSON verifies embedded set values flatten into the block object.
func TestSetBlockJSON(t *testing.T) {
	data, err := json.Marshal(SetBlock{Count: 3, SetValues: SetValues{Reps: intPtr(10)}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"count":3,"reps":10,"weight_kg":null,"rpe":null,"rest_sec":null}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

// TestValidateWorkout verifies authored plans are checked for names and ranges.
func TestValidateWorkout(t *testing.T) {
	ok := NewWorkout{
		Name: "Push",
		Exercises: []NewExercise{{
			Name: "Bench Press",
			Sets: []NewSetConfig{{Count: 3, Reps: intPtr(8), WeightKg: floatPtr(80)}},
		}},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid plan rejected: %v", err)
	}

	bad := []NewWorkout{
		{},
		{Name: "Push", Exercises: []NewExercise{{}}},
		{Name: "Push", Exercises: []NewExercise{{Name: "Dips", Sets: []NewSetConfig{{Count: -1}}}}},
		{Name: "Push", Exercises: []NewExercise{{Name: "Dips", Sets: []NewSetConfig{{Count: 100}}}}},
		{Name: "Push", Exercises: []NewExercise{{Name: "Dips", Sets: []NewSetConfig{{Count: 1, WeightKg: floatPtr(-2)}}}}},
	}
	for i, w := range bad {
		if err := w.Validate(); !errors.Is(err, ErrInvalidPlan) {
			t.Errorf("plan %d: err = %v, want ErrInvalidPlan", i, err)
		}
	}
}

// TestValidateBlocks verifies blocks must carry a positive count.
func TestValidateBlocks(t *testing.T) {
	if err := ValidateBlocks([]SetBlock{{Count: 2}}); err != nil {
		t.Errorf("valid blocks rejected: %v", err)
	}
	if err := ValidateBlocks([]SetBlock{{Count: 2}, {Count: 0}}); !errors.Is(err, ErrInvalidPlan) {
		t.Errorf("err = %v, want ErrInvalidPlan", err)
	}
}
