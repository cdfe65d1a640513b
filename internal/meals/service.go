package meals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
	ErrMealNotFound   = errors.New("meal not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrFoodNotFound   = errors.New("food not found")
)

// Service provides meal logging and nutrient summaries.
type Service struct {
	mealsStorage storage.MealsStorage
	foodsStorage storage.FoodsStorage
}

// NewService creates a new meals service.
func NewService(mealsStorage storage.MealsStorage, foodsStorage storage.FoodsStorage) *Service {
	return &Service{
		mealsStorage: mealsStorage,
		foodsStorage: foodsStorage,
	}
}

// ListMeals returns the user's meals for a date.
func (s *Service) ListMeals(ctx context.Context, date string) (*ListMealsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: invalid date format", ErrInvalidRequest)
	}

	meals, err := s.mealsStorage.ListMeals(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	dtos := make([]MealDTO, 0, len(meals))
	for _, m := range meals {
		dtos = append(dtos, mealToDTO(m))
	}

	return &ListMealsResponse{Date: date, Meals: dtos}, nil
}

// CreateMeal creates a meal, snapshotting the nutrition of every item's food.
func (s *Service) CreateMeal(ctx context.Context, req *CreateMealRequest) (*MealDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateCreateMealRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	meal := storage.Meal{
		OwnerID: userID,
		Name:    strings.TrimSpace(req.Name),
		Date:    req.Date,
		Items:   []storage.MealItem{},
	}

	for _, item := range req.Items {
		stored, err := s.buildItem(ctx, userID, &item)
		if err != nil {
			return nil, err
		}
		meal.Items = append(meal.Items, stored)
	}

	if err := s.mealsStorage.CreateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	dto := mealToDTO(meal)
	return &dto, nil
}

// UpdateMeal renames a meal.
func (s *Service) UpdateMeal(ctx context.Context, id uuid.UUID, req *UpdateMealRequest) (*MealDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if req.Name == "" || len(req.Name) > MaxNameLength {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	meal, err := s.ownedMeal(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	meal.Name = strings.TrimSpace(req.Name)
	if err := s.mealsStorage.UpdateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	dto := mealToDTO(meal)
	return &dto, nil
}

// DeleteMeal removes a meal.
func (s *Service) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return ErrUnauthorized
	}

	if _, err := s.ownedMeal(ctx, userID, id); err != nil {
		return err
	}

	return s.mealsStorage.DeleteMeal(ctx, id)
}

// AddItem appends a food entry to a meal.
func (s *Service) AddItem(ctx context.Context, mealID uuid.UUID, req *MealItemRequest) (*MealDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateMealItemRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	meal, err := s.ownedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if len(meal.Items) >= MaxItemsPerMeal {
		return nil, fmt.Errorf("%w: too many items", ErrInvalidRequest)
	}

	item, err := s.buildItem(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	meal.Items = append(meal.Items, item)
	if err := s.mealsStorage.UpdateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	dto := mealToDTO(meal)
	return &dto, nil
}

// UpdateItem changes the amount or unit of an item. The snapshot is kept as
// captured at logging time.
func (s *Service) UpdateItem(ctx context.Context, mealID uuid.UUID, index int, req *MealItemRequest) (*MealDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive finite number", ErrInvalidRequest)
	}

	meal, err := s.ownedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(meal.Items) {
		return nil, ErrItemNotFound
	}

	meal.Items[index].Amount = req.Amount
	meal.Items[index].Unit = req.Unit

	if err := s.mealsStorage.UpdateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	dto := mealToDTO(meal)
	return &dto, nil
}

// RemoveItem deletes an item by position.
func (s *Service) RemoveItem(ctx context.Context, mealID uuid.UUID, index int) (*MealDTO, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	meal, err := s.ownedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(meal.Items) {
		return nil, ErrItemNotFound
	}

	meal.Items = append(meal.Items[:index], meal.Items[index+1:]...)
	if err := s.mealsStorage.UpdateMeal(ctx, &meal); err != nil {
		return nil, err
	}

	dto := mealToDTO(meal)
	return &dto, nil
}

// Summary aggregates a meal's nutrient totals. Deleted foods fall back to
// their snapshots, so the totals never change retroactively.
func (s *Service) Summary(ctx context.Context, mealID uuid.UUID) (*SummaryResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	meal, err := s.ownedMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	totals := s.aggregate(ctx, meal)
	return &SummaryResponse{MealID: mealID, Totals: totals}, nil
}

// DailyTotals aggregates every meal of a date into one totals value.
// Reports use this per day of the export range.
func (s *Service) DailyTotals(ctx context.Context, userID, date string) (nutrition.Totals, error) {
	meals, err := s.mealsStorage.ListMeals(ctx, userID, date)
	if err != nil {
		return nutrition.Totals{}, err
	}

	var items []nutrition.Item
	for _, m := range meals {
		items = append(items, s.resolveItems(ctx, m)...)
	}

	return nutrition.Aggregate(items), nil
}

// ============================================================================
// Helper methods
// ============================================================================

func (s *Service) ownedMeal(ctx context.Context, userID string, id uuid.UUID) (storage.Meal, error) {
	meal, found, err := s.mealsStorage.GetMeal(ctx, id)
	if err != nil {
		return storage.Meal{}, err
	}
	if !found || meal.OwnerID != userID {
		return storage.Meal{}, ErrMealNotFound
	}
	return meal, nil
}

// buildItem resolves the food and captures its profile as the snapshot.
func (s *Service) buildItem(ctx context.Context, userID string, req *MealItemRequest) (storage.MealItem, error) {
	food, found, err := s.foodsStorage.GetFood(ctx, req.FoodID)
	if err != nil {
		return storage.MealItem{}, err
	}
	if !found || (food.OwnerID != "" && food.OwnerID != userID) {
		return storage.MealItem{}, ErrFoodNotFound
	}

	snapshot := food.Profile
	return storage.MealItem{
		ID:       uuid.New(),
		FoodID:   req.FoodID,
		Amount:   req.Amount,
		Unit:     req.Unit,
		Snapshot: &snapshot,
	}, nil
}

func (s *Service) aggregate(ctx context.Context, meal storage.Meal) nutrition.Totals {
	return nutrition.Aggregate(s.resolveItems(ctx, meal))
}

// resolveItems maps stored items to aggregation inputs, preferring the live
// food over the snapshot.
func (s *Service) resolveItems(ctx context.Context, meal storage.Meal) []nutrition.Item {
	items := make([]nutrition.Item, 0, len(meal.Items))
	for _, it := range meal.Items {
		var live *nutrition.Profile
		if food, found, err := s.foodsStorage.GetFood(ctx, it.FoodID); err == nil && found {
			p := food.Profile
			live = &p
		}

		malformed := math.IsNaN(it.Amount) || math.IsInf(it.Amount, 0) || it.Amount <= 0

		items = append(items, nutrition.Item{
			Live:      live,
			Snapshot:  it.Snapshot,
			Amount:    it.Amount,
			Unit:      it.Unit,
			Malformed: malformed,
		})
	}
	return items
}

// ============================================================================
// Converters
// ============================================================================

func mealToDTO(meal storage.Meal) MealDTO {
	dto := MealDTO{
		ID:        meal.ID,
		Name:      meal.Name,
		Date:      meal.Date,
		Items:     make([]MealItemDTO, 0, len(meal.Items)),
		CreatedAt: meal.CreatedAt,
		UpdatedAt: meal.UpdatedAt,
	}
	for _, it := range meal.Items {
		name := ""
		if it.Snapshot != nil {
			name = it.Snapshot.Name
		}
		dto.Items = append(dto.Items, MealItemDTO{
			ID:       it.ID,
			FoodID:   it.FoodID,
			FoodName: name,
			Amount:   it.Amount,
			Unit:     it.Unit,
		})
	}
	return dto
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
