package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
)

// ConversionsMemoryStorage — in-memory storage для пользовательских единиц измерения.
type ConversionsMemoryStorage struct {
	mu          sync.RWMutex
	conversions map[uuid.UUID]storage.Conversion
}

// NewConversionsMemoryStorage создаёт новое in-memory хранилище.
func NewConversionsMemoryStorage() *ConversionsMemoryStorage {
	return &ConversionsMemoryStorage{
		conversions: make(map[uuid.UUID]storage.Conversion),
	}
}

func (s *ConversionsMemoryStorage) ListConversions(ctx context.Context, ownerID string, foodID uuid.UUID) ([]storage.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filtered []storage.Conversion
	for _, c := range s.conversions {
		if c.FoodID != foodID {
			continue
		}
		if c.OwnerID != "" && c.OwnerID != ownerID {
			continue
		}
		filtered = append(filtered, c)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	return filtered, nil
}

func (s *ConversionsMemoryStorage) CreateConversion(ctx context.Context, conv *storage.Conversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()

	s.conversions[conv.ID] = *conv
	return nil
}

func (s *ConversionsMemoryStorage) DeleteConversion(ctx context.Context, ownerID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversions[id]
	if !ok || c.OwnerID != ownerID {
		return ErrNotFound
	}

	delete(s.conversions, id)
	return nil
}
