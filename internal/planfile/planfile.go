// Package planfile reads workout plans authored as YAML.
//
// A plan file holds one or more workouts:
//
//	workouts:
//	  - name: Push day
//	    exercises:
//	      - name: Bench Press
//	        sets:
//	          - {count: 3, reps: 8, weight_kg: 60, rest_sec: 90}
//	          - {count: 1, reps: 5, weight_kg: 70}
package planfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/claude/setlog/internal/models"
	"gopkg.in/yaml.v3"
)

type document struct {
	Workouts []models.NewWorkout `yaml:"workouts"`
}

// Load reads and validates the plan file at path.
func Load(path string) ([]models.NewWorkout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan document. Unknown keys are rejected so a typo such
// as "weight" instead of "weight_kg" does not silently drop a value.
func Parse(data []byte) ([]models.NewWorkout, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: plan file is empty", models.ErrInvalidPlan)
		}
		return nil, fmt.Errorf("parsing plan file: %w", err)
	}
	if len(doc.Workouts) == 0 {
		return nil, fmt.Errorf("%w: plan file has no workouts", models.ErrInvalidPlan)
	}

	for i, w := range doc.Workouts {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("workout %d (%q): %w", i+1, w.Name, err)
		}
	}
	return doc.Workouts, nil
}
