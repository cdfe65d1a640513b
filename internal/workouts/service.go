package workouts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrRoutineNotFound = errors.New("routine not found")
	ErrSessionNotFound = errors.New("no active session")
	ErrSessionExists   = errors.New("session already active")
	ErrLogNotFound     = errors.New("workout log not found")
)

// RestStarter launches a rest countdown for a user after a logged set.
// Implemented by the timer manager; a nil starter disables dispatch.
type RestStarter interface {
	StartRest(userID string, seconds int)
}

// Service drives the live workout session state machine and the workout
// history.
type Service struct {
	activeStorage   storage.ActiveWorkoutsStorage
	logsStorage     storage.WorkoutLogsStorage
	routinesStorage storage.RoutinesStorage
	rest            RestStarter
}

// NewService creates a new workouts service. rest may be nil.
func NewService(activeStorage storage.ActiveWorkoutsStorage, logsStorage storage.WorkoutLogsStorage, routinesStorage storage.RoutinesStorage, rest RestStarter) *Service {
	return &Service{
		activeStorage:   activeStorage,
		logsStorage:     logsStorage,
		routinesStorage: routinesStorage,
		rest:            rest,
	}
}

// ============================================================================
// Active session
// ============================================================================

// StartSession snapshots a routine into a fresh session. At most one session
// per user exists; starting over an active one is rejected.
func (s *Service) StartSession(ctx context.Context, req *StartSessionRequest) (*SessionDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if _, exists, err := s.activeStorage.GetActiveWorkout(ctx, userID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrSessionExists
	}

	routine, found, err := s.routinesStorage.GetRoutine(ctx, req.RoutineID)
	if err != nil {
		return nil, err
	}
	if !found || routine.OwnerID != userID {
		return nil, ErrRoutineNotFound
	}
	if len(routine.Exercises) == 0 {
		return nil, fmt.Errorf("%w: routine has no exercises", ErrInvalidRequest)
	}

	session := storage.ActiveWorkout{
		OwnerID:     userID,
		RoutineID:   routine.ID,
		RoutineName: routine.Name,
		StartedAt:   time.Now(),
		Exercises:   make([]storage.SessionExercise, 0, len(routine.Exercises)),
	}
	for _, ex := range routine.Exercises {
		session.Exercises = append(session.Exercises, storage.SessionExercise{
			ExerciseID:              ex.ID,
			GroupID:                 ex.GroupID,
			Name:                    ex.Name,
			PlannedSets:             ex.Sets,
			PlannedReps:             ex.Reps,
			PlannedWeightKg:         ex.WeightKg,
			TrackingMode:            ex.TrackingMode,
			TimeSeconds:             ex.TimeSeconds,
			Unilateral:              ex.Unilateral,
			LoadMode:                ex.LoadMode,
			LoadMultiplier:          ex.LoadMultiplier,
			RestBetweenSetsSec:      ex.RestBetweenSetsSec,
			RestBetweenExercisesSec: ex.RestBetweenExercisesSec,
			Sets:                    []storage.LoggedSet{},
		})
	}

	if err := s.activeStorage.PutActiveWorkout(ctx, &session); err != nil {
		return nil, err
	}

	dto := sessionToDTO(session)
	return &dto, nil
}

// GetSession returns the user's active session.
func (s *Service) GetSession(ctx context.Context) (*SessionDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := sessionToDTO(session)
	return &dto, nil
}

// LogSet upserts a weight/reps pair into the cursor exercise, recalibrates
// that exercise's baseline to the dominant logged values, advances the
// cursor and dispatches the appropriate rest countdown.
func (s *Service) LogSet(ctx context.Context, req *LogSetRequest) (*LogSetResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateLogSetRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.CurrentExercise >= len(session.Exercises) {
		return nil, fmt.Errorf("%w: session is already complete", ErrInvalidRequest)
	}

	ex := &session.Exercises[session.CurrentExercise]

	setIndex := session.CurrentSet
	if req.SetIndex != nil {
		setIndex = *req.SetIndex
	}
	if setIndex >= ex.PlannedSets {
		return nil, fmt.Errorf("%w: set_index beyond planned sets", ErrInvalidRequest)
	}

	upsertSet(ex, storage.LoggedSet{SetIndex: setIndex, WeightKg: req.WeightKg, Reps: req.Reps})
	if req.Notes != nil {
		ex.Notes = strings.TrimSpace(*req.Notes)
	}
	s.recalibrate(ctx, session, ex)

	// The cursor only advances when the logged set is the cursor's own;
	// re-editing an earlier set leaves progression untouched.
	var rest *RestDTO
	if setIndex == session.CurrentSet {
		if session.CurrentSet < ex.PlannedSets-1 {
			session.CurrentSet++
			rest = &RestDTO{DurationSec: ex.RestBetweenSetsSec, Kind: "between_sets"}
		} else {
			session.CurrentExercise++
			session.CurrentSet = 0
			rest = &RestDTO{DurationSec: ex.RestBetweenExercisesSec, Kind: "between_exercises"}
		}
	}

	if err := s.activeStorage.PutActiveWorkout(ctx, &session); err != nil {
		return nil, err
	}

	if rest != nil && rest.DurationSec > 0 && s.rest != nil {
		s.rest.StartRest(userID, rest.DurationSec)
	}

	return &LogSetResponse{Session: sessionToDTO(session), Rest: rest}, nil
}

// FinishSession persists the session as a workout log and clears it. Sets
// with zero weight and zero reps are dropped, exercises left with no sets
// are dropped entirely. A persistence failure keeps the session intact so
// the user can retry without losing logged data.
func (s *Service) FinishSession(ctx context.Context) (*WorkoutLogDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	routineID := session.RoutineID
	workoutLog := storage.WorkoutLog{
		OwnerID:     userID,
		RoutineID:   &routineID,
		RoutineName: session.RoutineName,
		StartedAt:   session.StartedAt,
		FinishedAt:  time.Now(),
	}
	for _, ex := range session.Exercises {
		kept := make([]storage.LoggedSet, 0, len(ex.Sets))
		for _, set := range ex.Sets {
			if set.WeightKg == 0 && set.Reps == 0 {
				continue
			}
			kept = append(kept, set)
		}
		if len(kept) == 0 {
			continue
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i].SetIndex < kept[j].SetIndex })
		workoutLog.Exercises = append(workoutLog.Exercises, storage.LoggedExercise{
			GroupID:        ex.GroupID,
			Name:           ex.Name,
			LoadMode:       ex.LoadMode,
			LoadMultiplier: ex.LoadMultiplier,
			Notes:          ex.Notes,
			Sets:           kept,
		})
	}

	if err := s.logsStorage.CreateWorkoutLog(ctx, &workoutLog); err != nil {
		return nil, fmt.Errorf("save workout: %w", err)
	}

	s.writeBackBaselines(ctx, session, workoutLog)

	if err := s.activeStorage.DeleteActiveWorkout(ctx, userID); err != nil {
		log.Printf("workouts: clearing session for %s failed: %v", userID, err)
	}

	dto := logToDTO(workoutLog)
	return &dto, nil
}

// CancelSession discards the active session without persisting anything.
func (s *Service) CancelSession(ctx context.Context) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	if _, err := s.activeSession(ctx, userID); err != nil {
		return err
	}
	return s.activeStorage.DeleteActiveWorkout(ctx, userID)
}

// ============================================================================
// Workout history
// ============================================================================

// ListLogs returns the user's workout history, newest first.
func (s *Service) ListLogs(ctx context.Context, limit, offset int) (*ListLogsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	logs, err := s.logsStorage.ListWorkoutLogs(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	dtos := make([]WorkoutLogDTO, 0, len(logs))
	for _, l := range logs {
		dtos = append(dtos, logToDTO(l))
	}
	return &ListLogsResponse{Logs: dtos}, nil
}

// CreateManualLog records a past workout directly.
func (s *Service) CreateManualLog(ctx context.Context, req *ManualLogRequest) (*WorkoutLogDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateManualLogRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	day, _ := time.Parse("2006-01-02", req.Date)
	workoutLog := storage.WorkoutLog{
		OwnerID:     userID,
		RoutineName: req.RoutineName,
		StartedAt:   day,
		FinishedAt:  day,
		Exercises:   manualExercises(req.Exercises),
	}

	if err := s.logsStorage.CreateWorkoutLog(ctx, &workoutLog); err != nil {
		return nil, err
	}

	dto := logToDTO(workoutLog)
	return &dto, nil
}

// UpdateLog rewrites a retroactive workout record.
func (s *Service) UpdateLog(ctx context.Context, id uuid.UUID, req *ManualLogRequest) (*WorkoutLogDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateManualLogRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	existing, err := s.ownedLog(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	day, _ := time.Parse("2006-01-02", req.Date)
	existing.RoutineName = req.RoutineName
	existing.StartedAt = day
	existing.FinishedAt = day
	existing.Exercises = manualExercises(req.Exercises)

	if err := s.logsStorage.UpdateWorkoutLog(ctx, &existing); err != nil {
		return nil, err
	}

	dto := logToDTO(existing)
	return &dto, nil
}

// DeleteLog removes a workout record.
func (s *Service) DeleteLog(ctx context.Context, id uuid.UUID) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	if _, err := s.ownedLog(ctx, userID, id); err != nil {
		return err
	}
	return s.logsStorage.DeleteWorkoutLog(ctx, id)
}

// ============================================================================
// Helper methods
// ============================================================================

func (s *Service) activeSession(ctx context.Context, userID string) (storage.ActiveWorkout, error) {
	session, found, err := s.activeStorage.GetActiveWorkout(ctx, userID)
	if err != nil {
		return storage.ActiveWorkout{}, err
	}
	if !found {
		return storage.ActiveWorkout{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) ownedLog(ctx context.Context, userID string, id uuid.UUID) (storage.WorkoutLog, error) {
	workoutLog, found, err := s.logsStorage.GetWorkoutLog(ctx, id)
	if err != nil {
		return storage.WorkoutLog{}, err
	}
	if !found || workoutLog.OwnerID != userID {
		return storage.WorkoutLog{}, ErrLogNotFound
	}
	return workoutLog, nil
}

// recalibrate drifts the exercise baseline toward what the user actually
// performed: the most frequent weight and reps of the sets logged so far
// (ties resolved to the higher value) replace the planned targets and are
// written through to every instance of the exercise group right away. A
// failed write is logged; the in-session state keeps going.
func (s *Service) recalibrate(ctx context.Context, session storage.ActiveWorkout, ex *storage.SessionExercise) {
	weight, reps, ok := dominantValues(ex.Sets)
	if !ok {
		return
	}
	if weight == ex.PlannedWeightKg && reps == ex.PlannedReps {
		return
	}

	ex.PlannedWeightKg = weight
	ex.PlannedReps = reps

	if err := s.persistBaseline(ctx, session.OwnerID, ex.GroupID, weight, reps); err != nil {
		log.Printf("workouts: baseline write for %s failed: %v", ex.Name, err)
	}
}

// writeBackBaselines persists the dominant weight of every saved exercise
// to all instances of its group across the owner's routines and stamps the
// session routine as finished. Best effort: the log is already saved,
// failures here only cost the baseline drift.
func (s *Service) writeBackBaselines(ctx context.Context, session storage.ActiveWorkout, workoutLog storage.WorkoutLog) {
	all, err := s.routinesStorage.ListRoutines(ctx, session.OwnerID)
	if err != nil {
		log.Printf("workouts: routines load for %s failed: %v", session.OwnerID, err)
		return
	}

	now := time.Now()
	for i := range all {
		changed := false
		for _, logged := range workoutLog.Exercises {
			weight, _, ok := dominantValues(logged.Sets)
			if !ok {
				continue
			}
			for j := range all[i].Exercises {
				peer := &all[i].Exercises[j]
				if peer.GroupID == logged.GroupID && peer.WeightKg != weight {
					peer.WeightKg = weight
					changed = true
				}
			}
		}
		if all[i].ID == session.RoutineID {
			all[i].LastFinished = &now
			changed = true
		}
		if !changed {
			continue
		}
		if err := s.routinesStorage.UpdateRoutine(ctx, &all[i]); err != nil {
			log.Printf("workouts: routine %s baseline write failed: %v", all[i].ID, err)
		}
	}
}

// persistBaseline writes a new weight and rep target to every exercise of
// the group across the owner's routines.
func (s *Service) persistBaseline(ctx context.Context, ownerID string, groupID uuid.UUID, weight float64, reps int) error {
	all, err := s.routinesStorage.ListRoutines(ctx, ownerID)
	if err != nil {
		return err
	}

	var firstErr error
	for i := range all {
		changed := false
		for j := range all[i].Exercises {
			peer := &all[i].Exercises[j]
			if peer.GroupID != groupID {
				continue
			}
			peer.WeightKg = weight
			peer.Reps = reps
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

func upsertSet(ex *storage.SessionExercise, set storage.LoggedSet) {
	for i := range ex.Sets {
		if ex.Sets[i].SetIndex == set.SetIndex {
			ex.Sets[i] = set
			return
		}
	}
	ex.Sets = append(ex.Sets, set)
}

// dominantValues returns the most frequent weight and rep values among the
// logged sets. Ties go to the higher value. ok is false with no sets.
func dominantValues(sets []storage.LoggedSet) (weight float64, reps int, ok bool) {
	if len(sets) == 0 {
		return 0, 0, false
	}

	weightCounts := make(map[float64]int)
	repCounts := make(map[int]int)
	for _, set := range sets {
		weightCounts[set.WeightKg]++
		repCounts[set.Reps]++
	}

	for w, n := range weightCounts {
		best := weightCounts[weight]
		if n > best || (n == best && w > weight) {
			weight = w
		}
	}
	for r, n := range repCounts {
		best := repCounts[reps]
		if n > best || (n == best && r > reps) {
			reps = r
		}
	}
	return weight, reps, true
}

// ============================================================================
// Converters
// ============================================================================

func sessionToDTO(session storage.ActiveWorkout) SessionDTO {
	dto := SessionDTO{
		RoutineID:       session.RoutineID,
		RoutineName:     session.RoutineName,
		StartedAt:       session.StartedAt,
		Exercises:       make([]SessionExerciseDTO, 0, len(session.Exercises)),
		CurrentExercise: session.CurrentExercise,
		CurrentSet:      session.CurrentSet,
		Complete:        session.CurrentExercise >= len(session.Exercises),
	}
	for _, ex := range session.Exercises {
		dto.Exercises = append(dto.Exercises, SessionExerciseDTO{
			ExerciseID:              ex.ExerciseID,
			GroupID:                 ex.GroupID,
			Name:                    ex.Name,
			PlannedSets:             ex.PlannedSets,
			PlannedReps:             ex.PlannedReps,
			PlannedWeightKg:         ex.PlannedWeightKg,
			TrackingMode:            ex.TrackingMode,
			TimeSeconds:             ex.TimeSeconds,
			Unilateral:              ex.Unilateral,
			LoadMode:                ex.LoadMode,
			LoadMultiplier:          ex.LoadMultiplier,
			RestBetweenSetsSec:      ex.RestBetweenSetsSec,
			RestBetweenExercisesSec: ex.RestBetweenExercisesSec,
			Notes:                   ex.Notes,
			Sets:                    setsToDTO(ex.Sets),
		})
	}
	return dto
}

func logToDTO(workoutLog storage.WorkoutLog) WorkoutLogDTO {
	dto := WorkoutLogDTO{
		ID:          workoutLog.ID,
		RoutineID:   workoutLog.RoutineID,
		RoutineName: workoutLog.RoutineName,
		StartedAt:   workoutLog.StartedAt,
		FinishedAt:  workoutLog.FinishedAt,
		Exercises:   make([]LoggedExercise, 0, len(workoutLog.Exercises)),
		CreatedAt:   workoutLog.CreatedAt,
	}
	for _, ex := range workoutLog.Exercises {
		dto.Exercises = append(dto.Exercises, LoggedExercise{
			GroupID:        ex.GroupID,
			Name:           ex.Name,
			LoadMode:       ex.LoadMode,
			LoadMultiplier: ex.LoadMultiplier,
			Notes:          ex.Notes,
			Sets:           setsToDTO(ex.Sets),
		})
	}
	return dto
}

func manualExercises(exercises []LoggedExercise) []storage.LoggedExercise {
	out := make([]storage.LoggedExercise, 0, len(exercises))
	for _, ex := range exercises {
		sets := make([]storage.LoggedSet, 0, len(ex.Sets))
		for i, set := range ex.Sets {
			idx := set.SetIndex
			if idx == 0 {
				idx = i
			}
			sets = append(sets, storage.LoggedSet{SetIndex: idx, WeightKg: set.WeightKg, Reps: set.Reps})
		}
		out = append(out, storage.LoggedExercise{
			GroupID:        ex.GroupID,
			Name:           ex.Name,
			LoadMode:       ex.LoadMode,
			LoadMultiplier: ex.LoadMultiplier,
			Notes:          ex.Notes,
			Sets:           sets,
		})
	}
	return out
}

func setsToDTO(sets []storage.LoggedSet) []LoggedSetDTO {
	out := make([]LoggedSetDTO, 0, len(sets))
	for _, set := range sets {
		out = append(out, LoggedSetDTO{SetIndex: set.SetIndex, WeightKg: set.WeightKg, Reps: set.Reps})
	}
	return out
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
