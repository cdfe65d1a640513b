package routines

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrRoutineNotFound  = errors.New("routine not found")
	ErrExerciseNotFound = errors.New("exercise not found")
)

// Service provides workout routine management and exercise group
// synchronization.
type Service struct {
	routinesStorage storage.RoutinesStorage
}

// NewService creates a new routines service.
func NewService(routinesStorage storage.RoutinesStorage) *Service {
	return &Service{routinesStorage: routinesStorage}
}

// ListRoutines returns the user's routines.
func (s *Service) ListRoutines(ctx context.Context) (*ListRoutinesResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	list, err := s.routinesStorage.ListRoutines(ctx, userID)
	if err != nil {
		return nil, err
	}

	dtos := make([]RoutineDTO, 0, len(list))
	for _, routine := range list {
		dtos = append(dtos, routineToDTO(routine))
	}
	return &ListRoutinesResponse{Routines: dtos}, nil
}

// CreateRoutine creates a routine. Each exercise whose name matches an
// existing exercise anywhere in the user's routines joins that exercise's
// group and inherits its configuration.
func (s *Service) CreateRoutine(ctx context.Context, req *CreateRoutineRequest) (*RoutineDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateCreateRoutineRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	existing, err := s.routinesStorage.ListRoutines(ctx, userID)
	if err != nil {
		return nil, err
	}

	routine := storage.Routine{
		OwnerID:   userID,
		Name:      req.Name,
		Exercises: make([]storage.Exercise, 0, len(req.Exercises)),
	}
	for i := range req.Exercises {
		routine.Exercises = append(routine.Exercises, s.newExercise(&req.Exercises[i], existing))
	}

	if err := s.routinesStorage.CreateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	dto := routineToDTO(routine)
	return &dto, nil
}

// UpdateRoutine renames a routine.
func (s *Service) UpdateRoutine(ctx context.Context, id uuid.UUID, req *UpdateRoutineRequest) (*RoutineDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > MaxNameLength {
		return nil, fmt.Errorf("%w: invalid name", ErrInvalidRequest)
	}

	routine, err := s.ownedRoutine(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	routine.Name = req.Name
	if err := s.routinesStorage.UpdateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	dto := routineToDTO(routine)
	return &dto, nil
}

// DeleteRoutine removes a routine with all its exercises. Exercises in other
// routines sharing groups with the deleted ones are left untouched.
func (s *Service) DeleteRoutine(ctx context.Context, id uuid.UUID) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	if _, err := s.ownedRoutine(ctx, userID, id); err != nil {
		return err
	}
	return s.routinesStorage.DeleteRoutine(ctx, id)
}

// AddExercise appends an exercise to a routine, inheriting group and
// configuration from a same-named exercise when one exists.
func (s *Service) AddExercise(ctx context.Context, routineID uuid.UUID, req *ExerciseRequest) (*RoutineDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateExerciseRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	routine, err := s.ownedRoutine(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	all, err := s.routinesStorage.ListRoutines(ctx, userID)
	if err != nil {
		return nil, err
	}

	routine.Exercises = append(routine.Exercises, s.newExercise(req, all))
	if err := s.routinesStorage.UpdateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	dto := routineToDTO(routine)
	return &dto, nil
}

// UpdateExercise applies a partial update to one exercise and then
// propagates the configuration change to every other exercise of the same
// group across the user's routines. DoneSeries never propagates: completed
// set indices stay with their own instance.
func (s *Service) UpdateExercise(ctx context.Context, routineID, exerciseID uuid.UUID, req *UpdateExerciseRequest) (*RoutineDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateUpdateExerciseRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	routine, err := s.ownedRoutine(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	idx := exerciseIndex(routine.Exercises, exerciseID)
	if idx < 0 {
		return nil, ErrExerciseNotFound
	}

	applyUpdate(&routine.Exercises[idx], req)
	if err := s.routinesStorage.UpdateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	// The primary write is committed. A propagation failure is logged and
	// does not roll it back.
	if err := s.PropagateConfig(ctx, userID, routine.Exercises[idx]); err != nil {
		log.Printf("group sync: propagation failed for group %s: %v", routine.Exercises[idx].GroupID, err)
	}

	dto := routineToDTO(routine)
	return &dto, nil
}

// DeleteExercise removes one exercise from a routine.
func (s *Service) DeleteExercise(ctx context.Context, routineID, exerciseID uuid.UUID) (*RoutineDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	routine, err := s.ownedRoutine(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	idx := exerciseIndex(routine.Exercises, exerciseID)
	if idx < 0 {
		return nil, ErrExerciseNotFound
	}

	routine.Exercises = append(routine.Exercises[:idx], routine.Exercises[idx+1:]...)
	if err := s.routinesStorage.UpdateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	dto := routineToDTO(routine)
	return &dto, nil
}

// ReplaceExercise swaps an exercise for a different movement. With
// KeepProgression the replacement stays in the old group (a variant change),
// otherwise it gets a fresh group and progression starts over. The old
// instance is removed either way.
func (s *Service) ReplaceExercise(ctx context.Context, routineID, exerciseID uuid.UUID, req *ReplaceExerciseRequest) (*ReplaceExerciseResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateReplaceExerciseRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	routine, err := s.ownedRoutine(ctx, userID, routineID)
	if err != nil {
		return nil, err
	}

	idx := exerciseIndex(routine.Exercises, exerciseID)
	if idx < 0 {
		return nil, ErrExerciseNotFound
	}

	old := routine.Exercises[idx]
	replacement := old
	replacement.ID = uuid.New()
	replacement.Name = req.Name
	replacement.DoneSeries = nil
	if !req.KeepProgression {
		replacement.GroupID = uuid.New()
	}

	routine.Exercises[idx] = replacement
	if err := s.routinesStorage.UpdateRoutine(ctx, &routine); err != nil {
		return nil, err
	}

	return &ReplaceExerciseResponse{
		Routine:         routineToDTO(routine),
		IsVariantChange: req.KeepProgression,
	}, nil
}

// PropagateConfig writes src's configuration to every other exercise of the
// same group across the owner's routines. Per-instance state (DoneSeries)
// never propagates.
func (s *Service) PropagateConfig(ctx context.Context, ownerID string, src storage.Exercise) error {
	all, err := s.routinesStorage.ListRoutines(ctx, ownerID)
	if err != nil {
		return err
	}

	var firstErr error
	for i := range all {
		changed := false
		for j := range all[i].Exercises {
			peer := &all[i].Exercises[j]
			if peer.ID == src.ID || peer.GroupID != src.GroupID {
				continue
			}
			copyConfig(peer, src)
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.routinesStorage.UpdateRoutine(ctx, &all[i]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ============================================================================
// Helper methods
// ============================================================================

// newExercise builds a storage exercise from a request. A case-insensitive
// name match against the user's existing exercises wins over the request's
// own configuration: the new instance joins the matched group and inherits
// its settings so duplicate movements stay consistent from the start.
func (s *Service) newExercise(req *ExerciseRequest, existing []storage.Routine) storage.Exercise {
	if match, ok := findByName(existing, req.Name); ok {
		inherited := match
		inherited.ID = uuid.New()
		inherited.Name = req.Name
		inherited.DoneSeries = nil
		return inherited
	}

	return storage.Exercise{
		ID:                      uuid.New(),
		GroupID:                 uuid.New(),
		Name:                    req.Name,
		Sets:                    req.Sets,
		Reps:                    req.Reps,
		WeightKg:                req.WeightKg,
		TrackingMode:            req.TrackingMode,
		TimeSeconds:             req.TimeSeconds,
		Unilateral:              req.Unilateral,
		LoadMode:                req.LoadMode,
		LoadMultiplier:          req.LoadMultiplier,
		RestBetweenSetsSec:      req.RestBetweenSetsSec,
		RestBetweenExercisesSec: req.RestBetweenExercisesSec,
	}
}

func (s *Service) ownedRoutine(ctx context.Context, userID string, id uuid.UUID) (storage.Routine, error) {
	routine, found, err := s.routinesStorage.GetRoutine(ctx, id)
	if err != nil {
		return storage.Routine{}, err
	}
	if !found || routine.OwnerID != userID {
		return storage.Routine{}, ErrRoutineNotFound
	}
	return routine, nil
}

func findByName(routines []storage.Routine, name string) (storage.Exercise, bool) {
	for _, routine := range routines {
		for _, ex := range routine.Exercises {
			if strings.EqualFold(ex.Name, name) {
				return ex, true
			}
		}
	}
	return storage.Exercise{}, false
}

func exerciseIndex(exercises []storage.Exercise, id uuid.UUID) int {
	for i := range exercises {
		if exercises[i].ID == id {
			return i
		}
	}
	return -1
}

func applyUpdate(ex *storage.Exercise, req *UpdateExerciseRequest) {
	if req.Sets != nil {
		ex.Sets = *req.Sets
	}
	if req.Reps != nil {
		ex.Reps = *req.Reps
	}
	if req.WeightKg != nil {
		ex.WeightKg = *req.WeightKg
	}
	if req.TrackingMode != nil {
		ex.TrackingMode = *req.TrackingMode
	}
	if req.TimeSeconds != nil {
		ex.TimeSeconds = *req.TimeSeconds
	}
	if req.Unilateral != nil {
		ex.Unilateral = *req.Unilateral
	}
	if req.LoadMode != nil {
		ex.LoadMode = *req.LoadMode
	}
	if req.LoadMultiplier != nil {
		ex.LoadMultiplier = *req.LoadMultiplier
	}
	if req.RestBetweenSetsSec != nil {
		ex.RestBetweenSetsSec = *req.RestBetweenSetsSec
	}
	if req.RestBetweenExercisesSec != nil {
		ex.RestBetweenExercisesSec = *req.RestBetweenExercisesSec
	}
	if req.DoneSeries != nil {
		ex.DoneSeries = *req.DoneSeries
	}
}

// copyConfig writes shared configuration fields from src to dst, leaving
// identity and per-instance state alone.
func copyConfig(dst *storage.Exercise, src storage.Exercise) {
	dst.Sets = src.Sets
	dst.Reps = src.Reps
	dst.WeightKg = src.WeightKg
	dst.TrackingMode = src.TrackingMode
	dst.TimeSeconds = src.TimeSeconds
	dst.Unilateral = src.Unilateral
	dst.LoadMode = src.LoadMode
	dst.LoadMultiplier = src.LoadMultiplier
	dst.RestBetweenSetsSec = src.RestBetweenSetsSec
	dst.RestBetweenExercisesSec = src.RestBetweenExercisesSec
}

// ============================================================================
// Converters
// ============================================================================

func routineToDTO(routine storage.Routine) RoutineDTO {
	dto := RoutineDTO{
		ID:           routine.ID,
		Name:         routine.Name,
		Exercises:    make([]ExerciseDTO, 0, len(routine.Exercises)),
		LastFinished: routine.LastFinished,
		CreatedAt:    routine.CreatedAt,
		UpdatedAt:    routine.UpdatedAt,
	}
	for _, ex := range routine.Exercises {
		dto.Exercises = append(dto.Exercises, exerciseToDTO(ex))
	}
	return dto
}

func exerciseToDTO(ex storage.Exercise) ExerciseDTO {
	return ExerciseDTO{
		ID:                      ex.ID,
		GroupID:                 ex.GroupID,
		Name:                    ex.Name,
		Sets:                    ex.Sets,
		Reps:                    ex.Reps,
		WeightKg:                ex.WeightKg,
		TrackingMode:            ex.TrackingMode,
		TimeSeconds:             ex.TimeSeconds,
		Unilateral:              ex.Unilateral,
		LoadMode:                ex.LoadMode,
		LoadMultiplier:          ex.LoadMultiplier,
		RestBetweenSetsSec:      ex.RestBetweenSetsSec,
		RestBetweenExercisesSec: ex.RestBetweenExercisesSec,
		DoneSeries:              ex.DoneSeries,
	}
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
