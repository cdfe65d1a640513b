package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// RoutinesMemoryStorage — in-memory storage для тренировочных программ.
type RoutinesMemoryStorage struct {
	mu       sync.RWMutex
	routines map[uuid.UUID]storage.Routine
}

// NewRoutinesMemoryStorage создаёт новое in-memory хранилище.
func NewRoutinesMemoryStorage() *RoutinesMemoryStorage {
	return &RoutinesMemoryStorage{
		routines: make(map[uuid.UUID]storage.Routine),
	}
}

func (s *RoutinesMemoryStorage) ListRoutines(ctx context.Context, ownerID string) ([]storage.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.Routine
	for _, r := range s.routines {
		if r.OwnerID == ownerID {
			filtered = append(filtered, cloneRoutine(r))
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return filtered, nil
}

func (s *RoutinesMemoryStorage) GetRoutine(ctx context.Context, id uuid.UUID) (storage.Routine, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.routines[id]
	if !ok {
		return storage.Routine{}, false, nil
	}
	return cloneRoutine(r), true, nil
}

func (s *RoutinesMemoryStorage) CreateRoutine(ctx context.Context, routine *storage.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if routine.ID == uuid.Nil {
		routine.ID = uuid.New()
	}

	now := time.Now()
	routine.CreatedAt = now
	routine.UpdatedAt = now

	s.routines[routine.ID] = cloneRoutine(*routine)
	return nil
}

func (s *RoutinesMemoryStorage) UpdateRoutine(ctx context.Context, routine *storage.Routine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routines[routine.ID]; !ok {
		return ErrNotFound
	}

	routine.UpdatedAt = time.Now()
	s.routines[routine.ID] = cloneRoutine(*routine)
	return nil
}

func (s *RoutinesMemoryStorage) DeleteRoutine(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routines[id]; !ok {
		return ErrNotFound
	}

	delete(s.routines, id)
	return nil
}

// cloneRoutine copies the exercise slice so callers can mutate the result
// without racing the store. Group sync reads and rewrites many routines.
func cloneRoutine(r storage.Routine) storage.Routine {
	out := r
	out.Exercises = make([]storage.Exercise, len(r.Exercises))
	copy(out.Exercises, r.Exercises)
	for i := range out.Exercises {
		if len(out.Exercises[i].DoneSeries) > 0 {
			done := make([]int, len(out.Exercises[i].DoneSeries))
			copy(done, out.Exercises[i].DoneSeries)
			out.Exercises[i].DoneSeries = done
		}
	}
	if r.LastFinished != nil {
		t := *r.LastFinished
		out.LastFinished = &t
	}
	return out
}
