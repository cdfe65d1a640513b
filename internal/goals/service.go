package goals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrGoalsNotFound  = errors.New("goals not set")
)

// Service provides macro target storage and the calculation wizard.
type Service struct {
	goalsStorage storage.GoalsStorage
}

// NewService creates a new goals service.
func NewService(goalsStorage storage.GoalsStorage) *Service {
	return &Service{goalsStorage: goalsStorage}
}

// GetGoals returns the user's targets.
func (s *Service) GetGoals(ctx context.Context) (*GoalsDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	goals, found, err := s.goalsStorage.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrGoalsNotFound
	}

	dto := goalsToDTO(goals)
	return &dto, nil
}

// UpsertGoals sets the user's targets.
func (s *Service) UpsertGoals(ctx context.Context, req *UpsertGoalsRequest) (*GoalsDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := ValidateUpsertGoalsRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	goals := storage.Goals{
		OwnerID:      userID,
		CaloriesKcal: req.CaloriesKcal,
		ProteinG:     req.ProteinG,
		CarbsG:       req.CarbsG,
		FatG:         req.FatG,
		FiberG:       req.FiberG,
		Mode:         req.Mode,
	}
	if req.Inputs != nil {
		goals.Inputs = inputsToStorage(*req.Inputs)
	}

	if err := s.goalsStorage.UpsertGoals(ctx, &goals); err != nil {
		return nil, err
	}

	dto := goalsToDTO(goals)
	return &dto, nil
}

// Calculate runs the wizard without persisting anything.
func (s *Service) Calculate(ctx context.Context, in WizardInputs) (*WizardResult, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	result, err := Calculate(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return &result, nil
}

// ============================================================================
// Converters
// ============================================================================

func goalsToDTO(goals storage.Goals) GoalsDTO {
	dto := GoalsDTO{
		CaloriesKcal: goals.CaloriesKcal,
		ProteinG:     goals.ProteinG,
		CarbsG:       goals.CarbsG,
		FatG:         goals.FatG,
		FiberG:       goals.FiberG,
		Mode:         goals.Mode,
		CreatedAt:    goals.CreatedAt,
		UpdatedAt:    goals.UpdatedAt,
	}
	if goals.Inputs != nil {
		dto.Inputs = &WizardInputs{
			Sex:          goals.Inputs.Sex,
			Age:          goals.Inputs.Age,
			HeightCm:     goals.Inputs.HeightCm,
			WeightKg:     goals.Inputs.WeightKg,
			Activity:     goals.Inputs.Activity,
			Goal:         goals.Inputs.Goal,
			Pace:         goals.Inputs.Pace,
			TrainingType: goals.Inputs.TrainingType,
		}
	}
	return dto
}

func inputsToStorage(in WizardInputs) *storage.GoalInputs {
	return &storage.GoalInputs{
		Sex:          in.Sex,
		Age:          in.Age,
		HeightCm:     in.HeightCm,
		WeightKg:     in.WeightKg,
		Activity:     in.Activity,
		Goal:         in.Goal,
		Pace:         in.Pace,
		TrainingType: in.TrainingType,
	}
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
