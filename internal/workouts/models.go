package workouts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxExercisesPerLog = 50
	MaxSetsPerExercise = 50
	MaxNotesLength     = 1000
)

// SessionDTO is the active workout session for API responses.
type SessionDTO struct {
	RoutineID   uuid.UUID `json:"routine_id"`
	RoutineName string    `json:"routine_name"`
	StartedAt   time.Time `json:"started_at"`

	Exercises []SessionExerciseDTO `json:"exercises"`

	CurrentExercise int `json:"current_exercise"`
	CurrentSet      int `json:"current_set"`

	// Complete is true once the cursor has passed every planned set of
	// every exercise. The client offers finalization at this point.
	Complete bool `json:"complete"`
}

// SessionExerciseDTO is one exercise within the active session.
type SessionExerciseDTO struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	GroupID    uuid.UUID `json:"group_id"`
	Name       string    `json:"name"`

	PlannedSets     int     `json:"planned_sets"`
	PlannedReps     int     `json:"planned_reps"`
	PlannedWeightKg float64 `json:"planned_weight_kg"`

	TrackingMode            string  `json:"tracking_mode"`
	TimeSeconds             int     `json:"time_seconds,omitempty"`
	Unilateral              bool    `json:"unilateral,omitempty"`
	LoadMode                string  `json:"load_mode"`
	LoadMultiplier          float64 `json:"load_multiplier,omitempty"`
	RestBetweenSetsSec      int     `json:"rest_between_sets_sec"`
	RestBetweenExercisesSec int     `json:"rest_between_exercises_sec"`

	Notes string         `json:"notes,omitempty"`
	Sets  []LoggedSetDTO `json:"sets"`
}

// LoggedSetDTO is one recorded weight/reps pair.
type LoggedSetDTO struct {
	SetIndex int     `json:"set_index"`
	WeightKg float64 `json:"weight_kg"`
	Reps     int     `json:"reps"`
}

// StartSessionRequest starts a session from a routine.
type StartSessionRequest struct {
	RoutineID uuid.UUID `json:"routine_id"`
}

// LogSetRequest records a set at the cursor, or re-edits an earlier set of
// the cursor's exercise when SetIndex is given. Notes, when present,
// replaces the free-form note on the cursor's exercise and is carried into
// the finished log.
type LogSetRequest struct {
	WeightKg float64 `json:"weight_kg"`
	Reps     int     `json:"reps"`
	SetIndex *int    `json:"set_index,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// RestDTO describes the rest countdown dispatched after a logged set.
type RestDTO struct {
	DurationSec int    `json:"duration_sec"`
	Kind        string `json:"kind"` // "between_sets" or "between_exercises"
}

// LogSetResponse returns the advanced session and the dispatched rest.
type LogSetResponse struct {
	Session SessionDTO `json:"session"`
	Rest    *RestDTO   `json:"rest,omitempty"`
}

// WorkoutLogDTO is a finished or manually entered workout.
type WorkoutLogDTO struct {
	ID          uuid.UUID        `json:"id"`
	RoutineID   *uuid.UUID       `json:"routine_id,omitempty"`
	RoutineName string           `json:"routine_name"`
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
	Exercises   []LoggedExercise `json:"exercises"`
	CreatedAt   time.Time        `json:"created_at"`
}

// LoggedExercise is one exercise of a workout log.
type LoggedExercise struct {
	GroupID        uuid.UUID      `json:"group_id,omitempty"`
	Name           string         `json:"name"`
	LoadMode       string         `json:"load_mode,omitempty"`
	LoadMultiplier float64        `json:"load_multiplier,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	Sets           []LoggedSetDTO `json:"sets"`
}

// ListLogsResponse is a page of workout history, newest first.
type ListLogsResponse struct {
	Logs []WorkoutLogDTO `json:"logs"`
}

// ManualLogRequest records a past workout directly, bypassing the live
// session flow.
type ManualLogRequest struct {
	Date        string           `json:"date"` // YYYY-MM-DD
	RoutineName string           `json:"routine_name"`
	Exercises   []LoggedExercise `json:"exercises"`
}

// ============================================================================
// Validation
// ============================================================================

// ValidateLogSetRequest validates a set-logging request.
func ValidateLogSetRequest(req *LogSetRequest) error {
	if math.IsNaN(req.WeightKg) || math.IsInf(req.WeightKg, 0) || req.WeightKg < 0 {
		return fmt.Errorf("weight must be a non-negative number")
	}
	if req.Reps < 0 {
		return fmt.Errorf("reps must not be negative")
	}
	if req.SetIndex != nil && *req.SetIndex < 0 {
		return fmt.Errorf("set_index must not be negative")
	}
	if req.Notes != nil && len(*req.Notes) > MaxNotesLength {
		return fmt.Errorf("notes too long")
	}
	return nil
}

// ValidateManualLogRequest validates a manual workout record.
func ValidateManualLogRequest(req *ManualLogRequest) error {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	req.RoutineName = strings.TrimSpace(req.RoutineName)
	if len(req.Exercises) == 0 {
		return fmt.Errorf("at least one exercise is required")
	}
	if len(req.Exercises) > MaxExercisesPerLog {
		return fmt.Errorf("at most %d exercises per workout", MaxExercisesPerLog)
	}
	for i := range req.Exercises {
		ex := &req.Exercises[i]
		ex.Name = strings.TrimSpace(ex.Name)
		if ex.Name == "" {
			return fmt.Errorf("exercise %d: name is required", i)
		}
		if len(ex.Notes) > MaxNotesLength {
			return fmt.Errorf("exercise %d: notes too long", i)
		}
		if len(ex.Sets) == 0 {
			return fmt.Errorf("exercise %d: at least one set is required", i)
		}
		if len(ex.Sets) > MaxSetsPerExercise {
			return fmt.Errorf("exercise %d: at most %d sets", i, MaxSetsPerExercise)
		}
		for j, set := range ex.Sets {
			if math.IsNaN(set.WeightKg) || math.IsInf(set.WeightKg, 0) || set.WeightKg < 0 {
				return fmt.Errorf("exercise %d set %d: weight must be a non-negative number", i, j)
			}
			if set.Reps < 0 {
				return fmt.Errorf("exercise %d set %d: reps must not be negative", i, j)
			}
		}
	}
	return nil
}
