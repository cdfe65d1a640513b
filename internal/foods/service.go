package foods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrFoodNotFound     = errors.New("food not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// Service provides food catalog and conversion management.
type Service struct {
	foodsStorage       storage.FoodsStorage
	conversionsStorage storage.ConversionsStorage
}

// NewService creates a new foods service.
func NewService(foodsStorage storage.FoodsStorage, conversionsStorage storage.ConversionsStorage) *Service {
	return &Service{
		foodsStorage:       foodsStorage,
		conversionsStorage: conversionsStorage,
	}
}

// ListFoods returns foods visible to the user with derived calories.
func (s *Service) ListFoods(ctx context.Context, query string, limit, offset int) (*ListFoodsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	foods, err := s.foodsStorage.ListFoods(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, err
	}

	dtos := make([]FoodDTO, 0, len(foods))
	for _, f := range foods {
		dtos = append(dtos, foodToDTO(f))
	}

	return &ListFoodsResponse{Foods: dtos}, nil
}

// GetFood returns a single food. Foods of other users stay hidden.
func (s *Service) GetFood(ctx context.Context, id uuid.UUID) (*FoodDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	food, err := s.visibleFood(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	dto := foodToDTO(food)
	return &dto, nil
}

// CreateFood creates a food owned by the user. Recipe foods are compiled
// to per-portion values at save time, with ingredient snapshots captured.
func (s *Service) CreateFood(ctx context.Context, req *UpsertFoodRequest) (*FoodDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateUpsertFoodRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	food := storage.Food{
		ID:      uuid.New(),
		OwnerID: userID,
	}

	if err := s.buildFood(ctx, userID, &food, req); err != nil {
		return nil, err
	}

	if err := s.foodsStorage.CreateFood(ctx, &food); err != nil {
		return nil, err
	}

	dto := foodToDTO(food)
	return &dto, nil
}

// UpdateFood updates a food owned by the user. Recipes are recompiled.
func (s *Service) UpdateFood(ctx context.Context, id uuid.UUID, req *UpsertFoodRequest) (*FoodDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateUpsertFoodRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	food, err := s.ownedFood(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := s.buildFood(ctx, userID, &food, req); err != nil {
		return nil, err
	}

	if err := s.foodsStorage.UpdateFood(ctx, &food); err != nil {
		return nil, err
	}

	dto := foodToDTO(food)
	return &dto, nil
}

// DeleteFood removes a food owned by the user. Meal items and recipe items
// referencing it keep their snapshots.
func (s *Service) DeleteFood(ctx context.Context, id uuid.UUID) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	if _, err := s.ownedFood(ctx, userID, id); err != nil {
		return err
	}

	return s.foodsStorage.DeleteFood(ctx, id)
}

// ListConversions returns the custom units registered for a food.
func (s *Service) ListConversions(ctx context.Context, foodID uuid.UUID) (*ListConversionsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if _, err := s.visibleFood(ctx, userID, foodID); err != nil {
		return nil, err
	}

	conversions, err := s.conversionsStorage.ListConversions(ctx, userID, foodID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ConversionDTO, 0, len(conversions))
	for _, c := range conversions {
		dtos = append(dtos, conversionToDTO(c))
	}

	return &ListConversionsResponse{Conversions: dtos}, nil
}

// CreateConversion registers a weighed household measure for a food.
func (s *Service) CreateConversion(ctx context.Context, foodID uuid.UUID, req *CreateConversionRequest) (*ConversionDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateCreateConversionRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if _, err := s.visibleFood(ctx, userID, foodID); err != nil {
		return nil, err
	}

	conv := storage.Conversion{
		OwnerID:     userID,
		FoodID:      foodID,
		Name:        strings.TrimSpace(req.Name),
		Grams:       req.TotalWeight / req.OriginalQty,
		OriginalQty: req.OriginalQty,
		TotalWeight: req.TotalWeight,
	}

	if err := s.conversionsStorage.CreateConversion(ctx, &conv); err != nil {
		return nil, err
	}

	dto := conversionToDTO(conv)
	return &dto, nil
}

// DeleteConversion removes a conversion owned by the user.
func (s *Service) DeleteConversion(ctx context.Context, id uuid.UUID) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	err := s.conversionsStorage.DeleteConversion(ctx, userID, id)
	if err != nil {
		return ErrFoodNotFound
	}
	return nil
}

// ============================================================================
// Helper methods
// ============================================================================

// visibleFood returns a food if it is a system food or owned by the user.
// Not-found and foreign foods are indistinguishable.
func (s *Service) visibleFood(ctx context.Context, userID string, id uuid.UUID) (storage.Food, error) {
	food, found, err := s.foodsStorage.GetFood(ctx, id)
	if err != nil {
		return storage.Food{}, err
	}
	if !found || (food.OwnerID != "" && food.OwnerID != userID) {
		return storage.Food{}, ErrFoodNotFound
	}
	return food, nil
}

// ownedFood returns a food the user may mutate. System foods are read-only.
func (s *Service) ownedFood(ctx context.Context, userID string, id uuid.UUID) (storage.Food, error) {
	food, err := s.visibleFood(ctx, userID, id)
	if err != nil {
		return storage.Food{}, err
	}
	if food.OwnerID == "" {
		return storage.Food{}, ErrPermissionDenied
	}
	return food, nil
}

// buildFood fills the storage food from the request, compiling recipes.
func (s *Service) buildFood(ctx context.Context, userID string, food *storage.Food, req *UpsertFoodRequest) error {
	profile := nutrition.Profile{
		Name:        strings.TrimSpace(req.Name),
		Type:        nutrition.FoodType(req.Type),
		BaseAmount:  req.BaseAmount,
		DefaultUnit: req.DefaultUnit,
		ProteinG:    req.ProteinG,
		CarbsG:      req.CarbsG,
		FatG:        req.FatG,
		FiberG:      req.FiberG,
		Vitamins:    req.Vitamins,
		Minerals:    req.Minerals,
		Portions:    req.Portions,
	}

	if profile.Type != nutrition.FoodRecipe {
		food.Profile = profile
		food.Items = nil
		food.Weight = 0
		return nil
	}

	items := make([]storage.RecipeItem, 0, len(req.Items))
	compileItems := make([]nutrition.CompileItem, 0, len(req.Items))
	for _, item := range req.Items {
		ingredient, err := s.visibleFood(ctx, userID, item.FoodID)
		if err != nil {
			return fmt.Errorf("%w: ingredient %s not found", ErrInvalidRequest, item.FoodID)
		}
		snapshot := ingredient.Profile
		items = append(items, storage.RecipeItem{
			FoodID:   item.FoodID,
			Amount:   item.Amount,
			Snapshot: &snapshot,
		})
		compileItems = append(compileItems, nutrition.CompileItem{
			FoodID:   item.FoodID.String(),
			Amount:   item.Amount,
			Snapshot: &snapshot,
		})
	}

	compiled, weight := nutrition.CompileRecipe(food.ID.String(), compileItems, req.Portions, s.recipeResolver(ctx, userID))
	compiled.Name = profile.Name
	compiled.DefaultUnit = profile.DefaultUnit

	food.Profile = compiled
	food.Items = items
	food.Weight = weight
	return nil
}

// recipeResolver adapts the storage to the compiler's lookup shape.
func (s *Service) recipeResolver(ctx context.Context, userID string) nutrition.RecipeResolver {
	return func(id string) (*nutrition.RecipeFood, bool) {
		foodID, err := uuid.Parse(id)
		if err != nil {
			return nil, false
		}
		food, err2 := s.visibleFood(ctx, userID, foodID)
		if err2 != nil {
			return nil, false
		}

		rf := nutrition.RecipeFood{
			Profile:  &food.Profile,
			Portions: food.Profile.Portions,
		}
		for _, item := range food.Items {
			rf.Items = append(rf.Items, nutrition.CompileItem{
				FoodID:   item.FoodID.String(),
				Amount:   item.Amount,
				Snapshot: item.Snapshot,
			})
		}
		return &rf, true
	}
}

// ============================================================================
// Converters
// ============================================================================

func foodToDTO(food storage.Food) FoodDTO {
	p := food.Profile
	dto := FoodDTO{
		ID:          food.ID,
		Name:        p.Name,
		Type:        string(p.Type),
		System:      food.OwnerID == "",
		BaseAmount:  p.BaseAmount,
		DefaultUnit: p.DefaultUnit,
		Calories:    p.Calories(),
		ProteinG:    p.ProteinG,
		CarbsG:      p.CarbsG,
		FatG:        p.FatG,
		FiberG:      p.FiberG,
		Vitamins:    p.Vitamins,
		Minerals:    p.Minerals,
		Portions:    p.Portions,
		Weight:      food.Weight,
		CreatedAt:   food.CreatedAt,
		UpdatedAt:   food.UpdatedAt,
	}
	if dto.Type == "" {
		dto.Type = string(nutrition.FoodStandard)
	}
	for _, item := range food.Items {
		dto.Items = append(dto.Items, RecipeItemDTO{FoodID: item.FoodID, Amount: item.Amount})
	}
	return dto
}

func conversionToDTO(conv storage.Conversion) ConversionDTO {
	return ConversionDTO{
		ID:          conv.ID,
		FoodID:      conv.FoodID,
		Name:        conv.Name,
		Grams:       conv.Grams,
		OriginalQty: conv.OriginalQty,
		TotalWeight: conv.TotalWeight,
		Unit:        fmt.Sprintf("custom:%g:%s", conv.Grams, conv.Name),
		CreatedAt:   conv.CreatedAt,
	}
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
