package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

var ErrNotFound = storage.ErrNotFound

// MemoryStorage — in-memory реализация всех хранилищ.
type MemoryStorage struct {
	mu    sync.RWMutex
	foods map[uuid.UUID]storage.Food

	conversions    *ConversionsMemoryStorage
	meals          *MealsMemoryStorage
	routines       *RoutinesMemoryStorage
	workoutLogs    *WorkoutLogsMemoryStorage
	activeWorkouts *ActiveWorkoutsMemoryStorage
	goals          *GoalsMemoryStorage
	weights        *WeightsMemoryStorage
	reports        *ReportsMemoryStorage
}

// New создаёт новый MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		foods:          make(map[uuid.UUID]storage.Food),
		conversions:    NewConversionsMemoryStorage(),
		meals:          NewMealsMemoryStorage(),
		routines:       NewRoutinesMemoryStorage(),
		workoutLogs:    NewWorkoutLogsMemoryStorage(),
		activeWorkouts: NewActiveWorkoutsMemoryStorage(),
		goals:          NewGoalsMemoryStorage(),
		weights:        NewWeightsMemoryStorage(),
		reports:        NewReportsMemoryStorage(),
	}
}

// FoodsStorage implementation.

func (m *MemoryStorage) ListFoods(ctx context.Context, ownerID string, query string, limit, offset int) ([]storage.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	var filtered []storage.Food
	for _, f := range m.foods {
		if f.OwnerID != "" && f.OwnerID != ownerID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(f.Profile.Name), q) {
			continue
		}
		filtered = append(filtered, f)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Profile.Name < filtered[j].Profile.Name
	})

	start := offset
	if start > len(filtered) {
		return []storage.Food{}, nil
	}
	end := len(filtered)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return filtered[start:end], nil
}

func (m *MemoryStorage) GetFood(ctx context.Context, id uuid.UUID) (storage.Food, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.foods[id]
	return f, ok, nil
}

func (m *MemoryStorage) CreateFood(ctx context.Context, food *storage.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if food.ID == uuid.Nil {
		food.ID = uuid.New()
	}

	now := time.Now()
	food.CreatedAt = now
	food.UpdatedAt = now

	m.foods[food.ID] = *food
	return nil
}

func (m *MemoryStorage) UpdateFood(ctx context.Context, food *storage.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.foods[food.ID]; !ok {
		return ErrNotFound
	}

	food.UpdatedAt = time.Now()
	m.foods[food.ID] = *food
	return nil
}

func (m *MemoryStorage) DeleteFood(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.foods[id]; !ok {
		return ErrNotFound
	}

	delete(m.foods, id)
	return nil
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// GetConversionsStorage returns the conversions storage.
func (m *MemoryStorage) GetConversionsStorage() *ConversionsMemoryStorage {
	return m.conversions
}

// GetMealsStorage returns the meals storage.
func (m *MemoryStorage) GetMealsStorage() *MealsMemoryStorage {
	return m.meals
}

// GetRoutinesStorage returns the routines storage.
func (m *MemoryStorage) GetRoutinesStorage() *RoutinesMemoryStorage {
	return m.routines
}

// GetWorkoutLogsStorage returns the workout logs storage.
func (m *MemoryStorage) GetWorkoutLogsStorage() *WorkoutLogsMemoryStorage {
	return m.workoutLogs
}

// GetActiveWorkoutsStorage returns the active workouts storage.
func (m *MemoryStorage) GetActiveWorkoutsStorage() *ActiveWorkoutsMemoryStorage {
	return m.activeWorkouts
}

// GetGoalsStorage returns the goals storage.
func (m *MemoryStorage) GetGoalsStorage() *GoalsMemoryStorage {
	return m.goals
}

// GetWeightsStorage returns the body weights storage.
func (m *MemoryStorage) GetWeightsStorage() *WeightsMemoryStorage {
	return m.weights
}

// GetReportsStorage returns the reports storage.
func (m *MemoryStorage) GetReportsStorage() *ReportsMemoryStorage {
	return m.reports
}
