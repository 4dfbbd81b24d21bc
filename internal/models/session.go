package models

import "time"

// SetEntry is one recorded set. Completed is true iff Weight > 0.
type SetEntry struct {
	Weight    float64 `json:"weight"`
	Reps      string  `json:"reps"`
	Completed bool    `json:"completed"`
}

// ExerciseResult accumulates the recorded sets for one exercise within
// a session, together with the derived volume and max figures.
type ExerciseResult struct {
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Sets        []SetEntry `json:"sets"`
	TotalVolume float64    `json:"totalVolume"`
	MaxWeight   float64    `json:"maxWeight"`
}

// Recompute refreshes TotalVolume and MaxWeight from the set entries.
// Only positive weights contribute.
func (r *ExerciseResult) Recompute() {
	r.TotalVolume = 0
	r.MaxWeight = 0
	for _, s := range r.Sets {
		if s.Weight > 0 {
			r.TotalVolume += s.Weight
			if s.Weight > r.MaxWeight {
				r.MaxWeight = s.Weight
			}
		}
	}
}

// Session is one instance of performing a slot's exercises. It is
// mutated while the workout is in progress and never after save.
type Session struct {
	Slot        int                        `json:"workoutSlotNumber"`
	WorkoutName string                     `json:"workoutName"`
	Date        string                     `json:"date"` // YYYY-MM-DD
	Timestamp   time.Time                  `json:"timestamp"`
	Exercises   map[string]*ExerciseResult `json:"exercises"`
}

// HasData reports whether at least one set across all exercises has a
// positive weight. Sessions without data are not saveable.
func (s *Session) HasData() bool {
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if set.Weight > 0 {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy of the session. The recorder hands out
// clones so callers cannot mutate the in-progress state.
func (s *Session) Clone() *Session {
	cp := &Session{
		Slot:        s.Slot,
		WorkoutName: s.WorkoutName,
		Date:        s.Date,
		Timestamp:   s.Timestamp,
		Exercises:   make(map[string]*ExerciseResult, len(s.Exercises)),
	}
	for name, ex := range s.Exercises {
		exCopy := *ex
		exCopy.Sets = append([]SetEntry(nil), ex.Sets...)
		cp.Exercises[name] = &exCopy
	}
	return cp
}

// PendingSyncItem is a session whose remote submission failed, waiting
// in the persisted sync queue. Attempts counts flush failures; items
// that exceed the configured limit move to the dead-letter table
// instead of being dropped.
type PendingSyncItem struct {
	ID         string    `json:"id"`
	Payload    *Session  `json:"payload"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Attempts   int       `json:"attempts"`
}
