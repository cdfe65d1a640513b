package routines

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxNameLength       = 200
	MaxExercisesPerPlan = 50
)

// RoutineDTO represents a workout routine for API responses.
type RoutineDTO struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Exercises    []ExerciseDTO `json:"exercises"`
	LastFinished *time.Time    `json:"last_finished,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ExerciseDTO represents one exercise slot of a routine.
type ExerciseDTO struct {
	ID      uuid.UUID `json:"id"`
	GroupID uuid.UUID `json:"group_id"`
	Name    string    `json:"name"`

	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`

	TrackingMode string `json:"tracking_mode"`
	TimeSeconds  int    `json:"time_seconds,omitempty"`
	Unilateral   bool   `json:"unilateral,omitempty"`

	LoadMode       string  `json:"load_mode"`
	LoadMultiplier float64 `json:"load_multiplier,omitempty"`

	RestBetweenSetsSec      int `json:"rest_between_sets_sec"`
	RestBetweenExercisesSec int `json:"rest_between_exercises_sec"`

	// DoneSeries lists the indices of the sets completed in the current
	// cycle for this instance.
	DoneSeries []int `json:"done_series,omitempty"`
}

// CreateRoutineRequest is a request to create a routine.
type CreateRoutineRequest struct {
	Name      string            `json:"name"`
	Exercises []ExerciseRequest `json:"exercises"`
}

// UpdateRoutineRequest renames a routine.
type UpdateRoutineRequest struct {
	Name string `json:"name"`
}

// ExerciseRequest is a request to add an exercise to a routine.
type ExerciseRequest struct {
	Name string `json:"name"`

	Sets     int     `json:"sets"`
	Reps     int     `json:"reps"`
	WeightKg float64 `json:"weight_kg"`

	TrackingMode string `json:"tracking_mode"`
	TimeSeconds  int    `json:"time_seconds"`
	Unilateral   bool   `json:"unilateral"`

	LoadMode       string  `json:"load_mode"`
	LoadMultiplier float64 `json:"load_multiplier"`

	RestBetweenSetsSec      int `json:"rest_between_sets_sec"`
	RestBetweenExercisesSec int `json:"rest_between_exercises_sec"`
}

// UpdateExerciseRequest is a partial update of an exercise. Nil fields are
// left unchanged. Configuration changes propagate to every exercise sharing
// the same group; DoneSeries stays local to the instance.
type UpdateExerciseRequest struct {
	Sets     *int     `json:"sets,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`

	TrackingMode *string `json:"tracking_mode,omitempty"`
	TimeSeconds  *int    `json:"time_seconds,omitempty"`
	Unilateral   *bool   `json:"unilateral,omitempty"`

	LoadMode       *string  `json:"load_mode,omitempty"`
	LoadMultiplier *float64 `json:"load_multiplier,omitempty"`

	RestBetweenSetsSec      *int `json:"rest_between_sets_sec,omitempty"`
	RestBetweenExercisesSec *int `json:"rest_between_exercises_sec,omitempty"`

	DoneSeries *[]int `json:"done_series,omitempty"`
}

// ReplaceExerciseRequest swaps an exercise for a different movement.
// KeepProgression keeps the old group so accumulated history carries over.
type ReplaceExerciseRequest struct {
	Name            string `json:"name"`
	KeepProgression bool   `json:"keep_progression"`
}

// ReplaceExerciseResponse reports the updated routine and whether the swap
// stayed inside the old exercise group.
type ReplaceExerciseResponse struct {
	Routine         RoutineDTO `json:"routine"`
	IsVariantChange bool       `json:"is_variant_change"`
}

// ListRoutinesResponse is a list of the user's routines.
type ListRoutinesResponse struct {
	Routines []RoutineDTO `json:"routines"`
}

// ============================================================================
// Validation
// ============================================================================

// ValidateCreateRoutineRequest validates a routine creation request.
func ValidateCreateRoutineRequest(req *CreateRoutineRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	if len(req.Exercises) > MaxExercisesPerPlan {
		return fmt.Errorf("at most %d exercises per routine", MaxExercisesPerPlan)
	}
	for i := range req.Exercises {
		if err := ValidateExerciseRequest(&req.Exercises[i]); err != nil {
			return fmt.Errorf("exercise %d: %w", i, err)
		}
	}
	return nil
}

// ValidateExerciseRequest validates and normalizes an exercise request.
func ValidateExerciseRequest(req *ExerciseRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("exercise name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("exercise name must be at most %d characters", MaxNameLength)
	}
	if req.Sets < 1 {
		return fmt.Errorf("sets must be at least 1")
	}
	if req.Reps < 0 {
		return fmt.Errorf("reps must not be negative")
	}
	if math.IsNaN(req.WeightKg) || math.IsInf(req.WeightKg, 0) || req.WeightKg < 0 {
		return fmt.Errorf("weight must be a non-negative number")
	}

	if req.TrackingMode == "" {
		req.TrackingMode = "reps"
	}
	if req.TrackingMode != "reps" && req.TrackingMode != "time" {
		return fmt.Errorf("tracking_mode must be reps or time")
	}
	if req.TrackingMode == "time" && req.TimeSeconds <= 0 {
		return fmt.Errorf("time_seconds is required for time tracking")
	}

	if req.LoadMode == "" {
		req.LoadMode = "external"
	}
	switch req.LoadMode {
	case "external", "bodyweight", "assisted":
	default:
		return fmt.Errorf("load_mode must be external, bodyweight or assisted")
	}
	if req.LoadMultiplier < 0 {
		return fmt.Errorf("load_multiplier must not be negative")
	}

	if req.RestBetweenSetsSec < 0 || req.RestBetweenExercisesSec < 0 {
		return fmt.Errorf("rest intervals must not be negative")
	}
	return nil
}

// ValidateUpdateExerciseRequest validates a partial exercise update.
func ValidateUpdateExerciseRequest(req *UpdateExerciseRequest) error {
	if req.Sets != nil && *req.Sets < 1 {
		return fmt.Errorf("sets must be at least 1")
	}
	if req.Reps != nil && *req.Reps < 0 {
		return fmt.Errorf("reps must not be negative")
	}
	if req.WeightKg != nil {
		w := *req.WeightKg
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("weight must be a non-negative number")
		}
	}
	if req.TrackingMode != nil && *req.TrackingMode != "reps" && *req.TrackingMode != "time" {
		return fmt.Errorf("tracking_mode must be reps or time")
	}
	if req.TimeSeconds != nil && *req.TimeSeconds < 0 {
		return fmt.Errorf("time_seconds must not be negative")
	}
	if req.LoadMode != nil {
		switch *req.LoadMode {
		case "external", "bodyweight", "assisted":
		default:
			return fmt.Errorf("load_mode must be external, bodyweight or assisted")
		}
	}
	if req.LoadMultiplier != nil && *req.LoadMultiplier < 0 {
		return fmt.Errorf("load_multiplier must not be negative")
	}
	if req.RestBetweenSetsSec != nil && *req.RestBetweenSetsSec < 0 {
		return fmt.Errorf("rest intervals must not be negative")
	}
	if req.RestBetweenExercisesSec != nil && *req.RestBetweenExercisesSec < 0 {
		return fmt.Errorf("rest intervals must not be negative")
	}
	if req.DoneSeries != nil {
		for _, idx := range *req.DoneSeries {
			if idx < 0 {
				return fmt.Errorf("done_series indices must not be negative")
			}
		}
	}
	return nil
}

// ValidateReplaceExerciseRequest validates an exercise replacement request.
func ValidateReplaceExerciseRequest(req *ReplaceExerciseRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}
