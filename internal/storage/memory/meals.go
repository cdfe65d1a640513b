package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// MealsMemoryStorage — in-memory storage для приёмов пищи.
type MealsMemoryStorage struct {
	mu    sync.RWMutex
	meals map[uuid.UUID]storage.Meal
}

// NewMealsMemoryStorage создаёт новое in-memory хранилище.
func NewMealsMemoryStorage() *MealsMemoryStorage {
	return &MealsMemoryStorage{
		meals: make(map[uuid.UUID]storage.Meal),
	}
}

func (s *MealsMemoryStorage) ListMeals(ctx context.Context, ownerID string, date string) ([]storage.Meal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.Meal
	for _, m := range s.meals {
		if m.OwnerID == ownerID && m.Date == date {
			filtered = append(filtered, m)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return filtered, nil
}

func (s *MealsMemoryStorage) GetMeal(ctx context.Context, id uuid.UUID) (storage.Meal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meals[id]
	return m, ok, nil
}

func (s *MealsMemoryStorage) CreateMeal(ctx context.Context, meal *storage.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meal.ID == uuid.Nil {
		meal.ID = uuid.New()
	}

	now := time.Now()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	s.meals[meal.ID] = *meal
	return nil
}

func (s *MealsMemoryStorage) UpdateMeal(ctx context.Context, meal *storage.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meals[meal.ID]; !ok {
		return ErrNotFound
	}

	meal.UpdatedAt = time.Now()
	s.meals[meal.ID] = *meal
	return nil
}

func (s *MealsMemoryStorage) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meals[id]; !ok {
		return ErrNotFound
	}

	delete(s.meals, id)
	return nil
}
