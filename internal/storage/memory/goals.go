package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// GoalsMemoryStorage — in-memory storage для целей по питанию.
type GoalsMemoryStorage struct {
	mu    sync.RWMutex
	goals map[string]storage.Goals
}

// NewGoalsMemoryStorage создаёт новое in-memory хранилище.
func NewGoalsMemoryStorage() *GoalsMemoryStorage {
	return &GoalsMemoryStorage{
		goals: make(map[string]storage.Goals),
	}
}

func (s *GoalsMemoryStorage) GetGoals(ctx context.Context, ownerID string) (storage.Goals, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[ownerID]
	return g, ok, nil
}

func (s *GoalsMemoryStorage) UpsertGoals(ctx context.Context, goals *storage.Goals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.goals[goals.OwnerID]; ok {
		goals.CreatedAt = existing.CreatedAt
	} else {
		goals.CreatedAt = now
	}
	goals.UpdatedAt = now

	s.goals[goals.OwnerID] = *goals
	return nil
}

// WeightsMemoryStorage — in-memory storage для истории веса тела.
type WeightsMemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]map[string]storage.WeightEntry // ownerID -> date -> entry
}

// NewWeightsMemoryStorage создаёт новое in-memory хранилище.
func NewWeightsMemoryStorage() *WeightsMemoryStorage {
	return &WeightsMemoryStorage{
		entries: make(map[string]map[string]storage.WeightEntry),
	}
}

func (s *WeightsMemoryStorage) ListWeights(ctx context.Context, ownerID string, from, to string) ([]storage.WeightEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.WeightEntry
	for date, e := range s.entries[ownerID] {
		if from != "" && date < from {
			continue
		}
		if to != "" && date > to {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Date > filtered[j].Date
	})

	return filtered, nil
}

func (s *WeightsMemoryStorage) UpsertWeight(ctx context.Context, entry *storage.WeightEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate, ok := s.entries[entry.OwnerID]
	if !ok {
		byDate = make(map[string]storage.WeightEntry)
		s.entries[entry.OwnerID] = byDate
	}

	now := time.Now()
	if existing, ok := byDate[entry.Date]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else {
		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	byDate[entry.Date] = *entry
	return nil
}

func (s *WeightsMemoryStorage) DeleteWeight(ctx context.Context, ownerID string, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := s.entries[ownerID]
	if _, ok := byDate[date]; !ok {
		return ErrNotFound
	}

	delete(byDate, date)
	return nil
}
