package server

import (
	"testing"

	"github.com/meltforce/gymtrack/internal/models"
)

// TestSessionViewNoDataSentinel verifies derived-workout sets without a
// prior weight render the sentinel instead of "0 kg".
func TestSessionViewNoDataSentinel(t *testing.T) {
	s := &models.Session{
		Slot: 3,
		Exercises: map[string]*models.ExerciseResult{
			"Squat":    {Name: "Squat", Sets: []models.SetEntry{{Weight: 60.8, Completed: true}}},
			"Deadlift": {Name: "Deadlift", Sets: []models.SetEntry{{Weight: 0}}},
		},
	}
	order := []models.Exercise{
		{Name: "Squat", Sets: 1, Reps: "8 (light)"},
		{Name: "Deadlift", Sets: 1, Reps: "5 (light)"},
	}

	v := NewSessionView(s, order, map[string]float64{"Squat": 81})

	if !v.ReadOnly {
		t.Error("slot-3 view not read-only")
	}
	if got := v.Exercises[0].Sets[0].Display; got != "60.8 kg" {
		t.Errorf("squat display = %q, want %q", got, "60.8 kg")
	}
	if got := v.Exercises[1].Sets[0].Display; got != NoDataSentinel {
		t.Errorf("deadlift display = %q, want %q", got, NoDataSentinel)
	}
}

// TestSessionViewZeroWeightWritable verifies a writable session shows an
// empty display for unentered sets, not the sentinel.
func TestSessionViewZeroWeightWritable(t *testing.T) {
	s := &models.Session{
		Slot: 1,
		Exercises: map[string]*models.ExerciseResult{
			"Squat": {Name: "Squat", Sets: []models.SetEntry{{Weight: 0}}},
		},
	}
	order := []models.Exercise{{Name: "Squat", Sets: 1, Reps: "8"}}

	v := NewSessionView(s, order, nil)
	if got := v.Exercises[0].Sets[0].Display; got != "" {
		t.Errorf("display = %q, want empty", got)
	}
}

// TestSessionViewPriorLabels verifies the prior-weight annotation.
func TestSessionViewPriorLabels(t *testing.T) {
	s := &models.Session{
		Slot: 1,
		Exercises: map[string]*models.ExerciseResult{
			"Squat": {Name: "Squat", Sets: []models.SetEntry{{Weight: 0}}},
			"Curl":  {Name: "Curl", Sets: []models.SetEntry{{Weight: 0}}},
		},
	}
	order := []models.Exercise{
		{Name: "Squat", Sets: 1},
		{Name: "Curl", Sets: 1},
	}

	v := NewSessionView(s, order, map[string]float64{"Squat": 82.5})
	if got := v.Exercises[0].PriorWeight; got != "(last: 82.5 kg)" {
		t.Errorf("squat prior = %q, want %q", got, "(last: 82.5 kg)")
	}
	if got := v.Exercises[1].PriorWeight; got != "(new exercise)" {
		t.Errorf("curl prior = %q, want %q", got, "(new exercise)")
	}
}

// TestSessionViewOrder verifies exercises render in plan order, not map
// iteration order.
func TestSessionViewOrder(t *testing.T) {
	s := &models.Session{
		Slot: 1,
		Exercises: map[string]*models.ExerciseResult{
			"A": {Name: "A", Sets: []models.SetEntry{{}}},
			"B": {Name: "B", Sets: []models.SetEntry{{}}},
			"C": {Name: "C", Sets: []models.SetEntry{{}}},
		},
	}
	order := []models.Exercise{{Name: "C", Sets: 1}, {Name: "A", Sets: 1}, {Name: "B", Sets: 1}}

	v := NewSessionView(s, order, nil)
	want := []string{"C", "A", "B"}
	for i, name := range want {
		if v.Exercises[i].Name != name {
			t.Errorf("exercise[%d] = %q, want %q", i, v.Exercises[i].Name, name)
		}
	}
}

// TestPlanViewDerivedPreview verifies flagged exercises from both
// workouts appear with their source labels.
func TestPlanViewDerivedPreview(t *testing.T) {
	p := models.Plan{
		ID: 2,
		WorkoutA: models.Workout{Exercises: []models.Exercise{
			{Name: "Bench Press", Sets: 3, IncludeInDerived: true},
			{Name: "Fly", Sets: 3},
		}},
		WorkoutB: models.Workout{Exercises: []models.Exercise{
			{Name: "Row", Sets: 3, IncludeInDerived: true},
		}},
	}

	v := NewPlanView(p, 2)
	if !v.Active {
		t.Error("plan not marked active")
	}
	if len(v.DerivedPreview) != 2 {
		t.Fatalf("preview has %d entries, want 2", len(v.DerivedPreview))
	}
	if v.DerivedPreview[0].Name != "Bench Press" || v.DerivedPreview[0].From != "Workout A" {
		t.Errorf("preview[0] = %+v, want Bench Press from Workout A", v.DerivedPreview[0])
	}
	if v.DerivedPreview[1].Name != "Row" || v.DerivedPreview[1].From != "Workout B" {
		t.Errorf("preview[1] = %+v, want Row from Workout B", v.DerivedPreview[1])
	}
}

// TestFormatWeight verifies whole weights drop the decimal.
func TestFormatWeight(t *testing.T) {
	if got := formatWeight(80); got != "80" {
		t.Errorf("formatWeight(80) = %q, want %q", got, "80")
	}
	if got := formatWeight(82.5); got != "82.5" {
		t.Errorf("formatWeight(82.5) = %q, want %q", got, "82.5")
	}
}
