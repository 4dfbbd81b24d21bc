package models

import (
	"fmt"
	"strings"
)

// Category classifies an exercise by the muscle group it targets.
type Category string

const (
	CategoryChest     Category = "Chest"
	CategoryBack      Category = "Back"
	CategoryShoulders Category = "Shoulders"
	CategoryLegs      Category = "Legs"
	CategoryBiceps    Category = "Biceps"
	CategoryTriceps   Category = "Triceps"
	CategoryAbs       Category = "Abs"
	CategoryCardio    Category = "Cardio"
)

var categories = map[Category]bool{
	CategoryChest: true, CategoryBack: true, CategoryShoulders: true,
	CategoryLegs: true, CategoryBiceps: true, CategoryTriceps: true,
	CategoryAbs: true, CategoryCardio: true,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return categories[c] }

// Equipment names the gear an exercise is performed with.
type Equipment string

const (
	EquipmentBarbell     Equipment = "Barbell"
	EquipmentDumbbells   Equipment = "Dumbbells"
	EquipmentBodyweight  Equipment = "Bodyweight"
	EquipmentMachine     Equipment = "Machine"
	EquipmentCables      Equipment = "Cables"
	EquipmentEZBar       Equipment = "EZ Bar"
	EquipmentParallettes Equipment = "Parallettes"
)

var equipments = map[Equipment]bool{
	EquipmentBarbell: true, EquipmentDumbbells: true, EquipmentBodyweight: true,
	EquipmentMachine: true, EquipmentCables: true, EquipmentEZBar: true,
	EquipmentParallettes: true,
}

// Valid reports whether e is a known equipment kind.
func (e Equipment) Valid() bool { return equipments[e] }

// Exercise is one entry of an authored workout. IncludeInDerived marks
// the exercise for inclusion in the derived light workout; it is only
// meaningful on workout A/B exercises.
type Exercise struct {
	Name             string    `json:"name"`
	Sets             int       `json:"sets"`
	Reps             string    `json:"reps"`
	Category         Category  `json:"category"`
	Equipment        Equipment `json:"equipment"`
	IncludeInDerived bool      `json:"includeInDerived,omitempty"`
}

// Validate checks the exercise against the schema rules applied at the
// persistence boundary.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("exercise name is empty")
	}
	if e.Sets < 1 {
		return fmt.Errorf("exercise %q: sets must be >= 1, got %d", e.Name, e.Sets)
	}
	if e.Category != "" && !e.Category.Valid() {
		return fmt.Errorf("exercise %q: unknown category %q", e.Name, e.Category)
	}
	if e.Equipment != "" && !e.Equipment.Valid() {
		return fmt.Errorf("exercise %q: unknown equipment %q", e.Name, e.Equipment)
	}
	return nil
}

// Workout is one of the three slots of a plan.
type Workout struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Exercises   []Exercise `json:"exercises"`
}

// Plan is a named collection of three workouts. WorkoutA and WorkoutB
// are user-authored; WorkoutC is derived from their flagged exercises.
type Plan struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	WorkoutA    Workout `json:"workoutA"`
	WorkoutB    Workout `json:"workoutB"`
	WorkoutC    Workout `json:"workoutC"`
}

// WorkoutBySlot returns the workout for slot 1, 2 or 3, or nil for any
// other slot number.
func (p *Plan) WorkoutBySlot(slot int) *Workout {
	switch slot {
	case 1:
		return &p.WorkoutA
	case 2:
		return &p.WorkoutB
	case 3:
		return &p.WorkoutC
	}
	return nil
}

// Validate checks plan structure without applying the plan-store save
// rules (those live in the plan store, where the derived workout is
// recomputed first).
func (p *Plan) Validate() error {
	if p.ID < 1 {
		return fmt.Errorf("plan id must be >= 1, got %d", p.ID)
	}
	for _, w := range []*Workout{&p.WorkoutA, &p.WorkoutB, &p.WorkoutC} {
		for _, ex := range w.Exercises {
			if err := ex.Validate(); err != nil {
				return fmt.Errorf("workout %q: %w", w.Name, err)
			}
		}
	}
	return nil
}
