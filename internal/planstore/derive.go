package planstore

import "github.com/meltforce/gymtrack/internal/models"

// LightFactor is the system-wide weight multiplier applied when a
// derived-workout session starts from a prior weight.
const LightFactor = 0.75

// lightSuffix marks derived-workout reps targets.
const lightSuffix = " (light)"

// DeriveLight computes the derived third workout from the two authored
// ones: flagged workout-A exercises in original order, then flagged
// workout-B exercises in original order. Copies carry the light reps
// marker and drop the derivation flag. No de-duplication by name: an
// exercise flagged in both workouts appears twice.
func DeriveLight(a, b models.Workout) models.Workout {
	derived := models.Workout{
		ID:          3,
		Name:        "Third Workout - Light",
		Description: "Derived from flagged exercises, weights reduced 25%",
	}
	for _, src := range [][]models.Exercise{a.Exercises, b.Exercises} {
		for _, ex := range src {
			if !ex.IncludeInDerived {
				continue
			}
			ex.Reps += lightSuffix
			ex.IncludeInDerived = false
			derived.Exercises = append(derived.Exercises, ex)
		}
	}
	return derived
}
