package models

// Wire shapes for the remote workout endpoint. The backend is an
// opaque collaborator; these mirror exactly what it sends and accepts.

// RemoteEnvelope is the POST body for all write actions.
type RemoteEnvelope struct {
	Action string `json:"action"` // saveWorkoutSession | saveActiveScheda
	Data   any    `json:"data"`
}

// RemoteResult is the generic response for write actions and ping.
type RemoteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RemoteHistory is the response to action=getHistory.
type RemoteHistory struct {
	Success  bool            `json:"success"`
	Workouts []RemoteWorkout `json:"workouts"`
}

// RemoteWorkout is one historical session as the backend returns it.
// Sets carries raw per-set weights in recorded order.
type RemoteWorkout struct {
	Date          string           `json:"date,omitempty"`
	Timestamp     string           `json:"timestamp,omitempty"`
	SessionNumber int              `json:"sessionNumber"`
	SessionName   string           `json:"sessionName"`
	Exercises     []RemoteExercise `json:"exercises"`
}

// RemoteExercise is one exercise inside a RemoteWorkout.
type RemoteExercise struct {
	Name      string    `json:"name"`
	MaxWeight float64   `json:"maxWeight"`
	Volume    float64   `json:"volume"`
	Sets      []float64 `json:"sets"`
}

// RemoteRecords is the response to action=getRecords.
type RemoteRecords struct {
	Success bool           `json:"success"`
	Records []RemoteRecord `json:"records"`
}

// RemoteRecord is one personal best as tracked by the backend.
type RemoteRecord struct {
	Exercise    string  `json:"exercise"`
	MaxWeight   float64 `json:"maxWeight"`
	Date        string  `json:"date"`
	SessionType string  `json:"sessionType"`
}
