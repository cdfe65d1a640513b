package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// WorkoutLogsMemoryStorage — in-memory storage для завершённых тренировок.
type WorkoutLogsMemoryStorage struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]storage.WorkoutLog
}

// NewWorkoutLogsMemoryStorage создаёт новое in-memory хранилище.
func NewWorkoutLogsMemoryStorage() *WorkoutLogsMemoryStorage {
	return &WorkoutLogsMemoryStorage{
		logs: make(map[uuid.UUID]storage.WorkoutLog),
	}
}

func (s *WorkoutLogsMemoryStorage) ListWorkoutLogs(ctx context.Context, ownerID string, limit, offset int) ([]storage.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.WorkoutLog
	for _, l := range s.logs {
		if l.OwnerID == ownerID {
			filtered = append(filtered, l)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].FinishedAt.After(filtered[j].FinishedAt)
	})

	start := offset
	if start > len(filtered) {
		return []storage.WorkoutLog{}, nil
	}
	end := len(filtered)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return filtered[start:end], nil
}

func (s *WorkoutLogsMemoryStorage) GetWorkoutLog(ctx context.Context, id uuid.UUID) (storage.WorkoutLog, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.logs[id]
	return l, ok, nil
}

func (s *WorkoutLogsMemoryStorage) CreateWorkoutLog(ctx context.Context, log *storage.WorkoutLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now()

	s.logs[log.ID] = *log
	return nil
}

func (s *WorkoutLogsMemoryStorage) UpdateWorkoutLog(ctx context.Context, log *storage.WorkoutLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.logs[log.ID]
	if !ok {
		return ErrNotFound
	}

	log.CreatedAt = existing.CreatedAt
	s.logs[log.ID] = *log
	return nil
}

func (s *WorkoutLogsMemoryStorage) DeleteWorkoutLog(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.logs[id]; !ok {
		return ErrNotFound
	}

	delete(s.logs, id)
	return nil
}

// ActiveWorkoutsMemoryStorage — in-memory storage для активных сессий.
// Одна сессия на пользователя.
type ActiveWorkoutsMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string]storage.ActiveWorkout
}

// NewActiveWorkoutsMemoryStorage создаёт новое in-memory хранилище.
func NewActiveWorkoutsMemoryStorage() *ActiveWorkoutsMemoryStorage {
	return &ActiveWorkoutsMemoryStorage{
		sessions: make(map[string]storage.ActiveWorkout),
	}
}

func (s *ActiveWorkoutsMemoryStorage) GetActiveWorkout(ctx context.Context, ownerID string) (storage.ActiveWorkout, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return storage.ActiveWorkout{}, false, nil
	}
	return cloneSession(sess), true, nil
}

func (s *ActiveWorkoutsMemoryStorage) PutActiveWorkout(ctx context.Context, session *storage.ActiveWorkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now()
	s.sessions[session.OwnerID] = cloneSession(*session)
	return nil
}

func (s *ActiveWorkoutsMemoryStorage) DeleteActiveWorkout(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, ownerID)
	return nil
}

func cloneSession(sess storage.ActiveWorkout) storage.ActiveWorkout {
	out := sess
	out.Exercises = make([]storage.SessionExercise, len(sess.Exercises))
	for i, ex := range sess.Exercises {
		cp := ex
		cp.Sets = make([]storage.LoggedSet, len(ex.Sets))
		copy(cp.Sets, ex.Sets)
		out.Exercises[i] = cp
	}
	return out
}
