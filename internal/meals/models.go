package meals

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
)

// ============================================================================
// DTOs
// ============================================================================

// MealDTO represents a logged meal for API responses.
type MealDTO struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Date      string        `json:"date"`
	Items     []MealItemDTO `json:"items"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// MealItemDTO is one food entry of a meal. FoodName comes from the snapshot
// so it survives deletion of the food.
type MealItemDTO struct {
	ID       uuid.UUID `json:"id"`
	FoodID   uuid.UUID `json:"food_id"`
	FoodName string    `json:"food_name"`
	Amount   float64   `json:"amount"`
	Unit     string    `json:"unit"`
}

// ============================================================================
// Requests
// ============================================================================

// CreateMealRequest creates a meal, optionally with initial items.
type CreateMealRequest struct {
	Name  string            `json:"name"`
	Date  string            `json:"date"`
	Items []MealItemRequest `json:"items"`
}

// UpdateMealRequest renames a meal.
type UpdateMealRequest struct {
	Name string `json:"name"`
}

// MealItemRequest adds or updates a food entry.
type MealItemRequest struct {
	FoodID uuid.UUID `json:"food_id"`
	Amount float64   `json:"amount"`
	Unit   string    `json:"unit"`
}

// ============================================================================
// Responses
// ============================================================================

// ListMealsResponse returns the meals of a date.
type ListMealsResponse struct {
	Date  string    `json:"date"`
	Meals []MealDTO `json:"meals"`
}

// SummaryResponse returns aggregated nutrient totals for a meal.
type SummaryResponse struct {
	MealID uuid.UUID        `json:"meal_id"`
	Totals nutrition.Totals `json:"totals"`
}

// ============================================================================
// Validation
// ============================================================================

const (
	MaxNameLength   = 200
	MaxItemsPerMeal = 100
)

// ValidateCreateMealRequest validates a meal create request.
func ValidateCreateMealRequest(req *CreateMealRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name too long: max %d", MaxNameLength)
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if len(req.Items) > MaxItemsPerMeal {
		return fmt.Errorf("too many items: max %d", MaxItemsPerMeal)
	}
	for i := range req.Items {
		if err := ValidateMealItemRequest(&req.Items[i]); err != nil {
			return fmt.Errorf("item[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateMealItemRequest validates a single item. Amounts must be positive
// finite numbers; anything else is rejected before it can reach storage.
func ValidateMealItemRequest(item *MealItemRequest) error {
	if item.FoodID == uuid.Nil {
		return fmt.Errorf("food_id is required")
	}
	if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) || item.Amount <= 0 {
		return fmt.Errorf("amount must be a positive finite number")
	}
	return nil
}
