package body

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrEntryNotFound  = errors.New("weight entry not found")
)

// Service tracks body weight history.
type Service struct {
	weightsStorage storage.WeightsStorage
}

// NewService creates a new body service.
func NewService(weightsStorage storage.WeightsStorage) *Service {
	return &Service{weightsStorage: weightsStorage}
}

// ListWeights returns the user's entries in a date range, newest first.
// Without bounds the last 90 days are returned.
func (s *Service) ListWeights(ctx context.Context, from, to string) (*ListWeightsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if to == "" {
		to = time.Now().Format("2006-01-02")
	}
	if from == "" {
		from = time.Now().AddDate(0, 0, -90).Format("2006-01-02")
	}
	for _, date := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("%w: dates must be YYYY-MM-DD", ErrInvalidRequest)
		}
	}

	entries, err := s.weightsStorage.ListWeights(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	dtos := make([]WeightEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, entryToDTO(entry))
	}
	return &ListWeightsResponse{Weights: dtos}, nil
}

// UpsertWeight records the weight for a day, replacing any earlier record
// for the same date.
func (s *Service) UpsertWeight(ctx context.Context, req *UpsertWeightRequest) (*WeightEntryDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateUpsertWeightRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	entry := storage.WeightEntry{
		OwnerID:  userID,
		Date:     req.Date,
		WeightKg: req.WeightKg,
	}
	if err := s.weightsStorage.UpsertWeight(ctx, &entry); err != nil {
		return nil, err
	}

	dto := entryToDTO(entry)
	return &dto, nil
}

// DeleteWeight removes the entry for a date.
func (s *Service) DeleteWeight(ctx context.Context, date string) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidRequest)
	}

	if err := s.weightsStorage.DeleteWeight(ctx, userID, date); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

func entryToDTO(entry storage.WeightEntry) WeightEntryDTO {
	return WeightEntryDTO{
		ID:        entry.ID,
		Date:      entry.Date,
		WeightKg:  entry.WeightKg,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
