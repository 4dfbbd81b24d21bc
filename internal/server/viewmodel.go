package server

import (
	"fmt"

	"github.com/meltforce/gymtrack/internal/models"
)

// View models are pure data-to-presentation transformations: no
// persistence, no network. The front end renders them verbatim, which
// keeps all display logic testable without a UI.

// NoDataSentinel is what a derived-workout set shows when no prior
// weight exists anywhere.
const NoDataSentinel = "no data"

// PlanView is a plan plus presentation extras.
type PlanView struct {
	models.Plan
	Active         bool              `json:"active"`
	DerivedPreview []DerivedExercise `json:"derivedPreview"`
}

// DerivedExercise is one line of the derived-workout preview shown in
// the plan editor.
type DerivedExercise struct {
	Name string `json:"name"`
	From string `json:"from"` // "Workout A" or "Workout B"
	Note string `json:"note"` // weight-reduction hint
}

// NewPlanView builds the view for one plan.
func NewPlanView(p models.Plan, activeID int) PlanView {
	v := PlanView{Plan: p, Active: p.ID == activeID}
	for _, ex := range p.WorkoutA.Exercises {
		if ex.IncludeInDerived {
			v.DerivedPreview = append(v.DerivedPreview, DerivedExercise{
				Name: ex.Name, From: "Workout A", Note: "-25% weight",
			})
		}
	}
	for _, ex := range p.WorkoutB.Exercises {
		if ex.IncludeInDerived {
			v.DerivedPreview = append(v.DerivedPreview, DerivedExercise{
				Name: ex.Name, From: "Workout B", Note: "-25% weight",
			})
		}
	}
	return v
}

// SessionView is the active session rendered for display.
type SessionView struct {
	Slot        int            `json:"slot"`
	WorkoutName string         `json:"workoutName"`
	Date        string         `json:"date"`
	ReadOnly    bool           `json:"readOnly"` // derived workout: weights precomputed
	Exercises   []ExerciseView `json:"exercises"`
}

// ExerciseView is one exercise row of a session.
type ExerciseView struct {
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Reps        string    `json:"reps"`
	PriorWeight string    `json:"priorWeight"` // "(last: 80 kg)" or "(new exercise)"
	Sets        []SetView `json:"sets"`
	TotalVolume float64   `json:"totalVolume"`
	MaxWeight   float64   `json:"maxWeight"`
}

// SetView is one set cell.
type SetView struct {
	Weight    float64 `json:"weight"`
	Display   string  `json:"display"` // formatted weight or the no-data sentinel
	Completed bool    `json:"completed"`
}

// NewSessionView builds the view for a session. order carries the
// slot's exercises in plan order (the session map is unordered);
// priors maps exercise name to its resolved prior weight.
func NewSessionView(s *models.Session, order []models.Exercise, priors map[string]float64) SessionView {
	v := SessionView{
		Slot:        s.Slot,
		WorkoutName: s.WorkoutName,
		Date:        s.Date,
		ReadOnly:    s.Slot == 3,
	}

	for _, ex := range order {
		result, ok := s.Exercises[ex.Name]
		if !ok {
			continue
		}

		ev := ExerciseView{
			Name:        ex.Name,
			Category:    string(ex.Category),
			Reps:        ex.Reps,
			TotalVolume: result.TotalVolume,
			MaxWeight:   result.MaxWeight,
			PriorWeight: "(new exercise)",
		}
		if prior := priors[ex.Name]; prior > 0 {
			ev.PriorWeight = fmt.Sprintf("(last: %s kg)", formatWeight(prior))
		}

		for _, set := range result.Sets {
			sv := SetView{Weight: set.Weight, Completed: set.Completed}
			if set.Weight > 0 {
				sv.Display = formatWeight(set.Weight) + " kg"
			} else if v.ReadOnly {
				sv.Display = NoDataSentinel
			}
			ev.Sets = append(ev.Sets, sv)
		}
		v.Exercises = append(v.Exercises, ev)
	}
	return v
}

func formatWeight(w float64) string {
	if w == float64(int64(w)) {
		return fmt.Sprintf("%.0f", w)
	}
	return fmt.Sprintf("%.1f", w)
}
