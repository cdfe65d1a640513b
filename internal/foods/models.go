package foods

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

// FoodDTO represents a food for API responses. Calories is always derived
// from the macros, never read from storage.
type FoodDTO struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	System      bool               `json:"system"`
	BaseAmount  float64            `json:"base_amount"`
	DefaultUnit string             `json:"default_unit"`
	Calories    float64            `json:"calories"`
	ProteinG    float64            `json:"protein_g"`
	CarbsG      float64            `json:"carbs_g"`
	FatG        float64            `json:"fat_g"`
	FiberG      float64            `json:"fiber_g"`
	Vitamins    map[string]float64 `json:"vitamins,omitempty"`
	Minerals    map[string]float64 `json:"minerals,omitempty"`
	Portions    float64            `json:"portions,omitempty"`
	Weight      float64            `json:"weight,omitempty"`
	Items       []RecipeItemDTO    `json:"items,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RecipeItemDTO is one ingredient of a recipe food.
type RecipeItemDTO struct {
	FoodID uuid.UUID `json:"food_id"`
	Amount float64   `json:"amount"`
}

// ConversionDTO represents a custom measurement unit for API responses.
// Unit is the composite token accepted by meal items.
type ConversionDTO struct {
	ID          uuid.UUID `json:"id"`
	FoodID      uuid.UUID `json:"food_id"`
	Name        string    `json:"name"`
	Grams       float64   `json:"grams"`
	OriginalQty float64   `json:"original_qty"`
	TotalWeight float64   `json:"total_weight"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
}

// ============================================================================
// Requests
// ============================================================================

// UpsertFoodRequest is used to create or update a food.
type UpsertFoodRequest struct {
	Name        string             `json:"name"`
	Type        string             `json:"type"`
	BaseAmount  float64            `json:"base_amount"`
	DefaultUnit string             `json:"default_unit"`
	ProteinG    float64            `json:"protein_g"`
	CarbsG      float64            `json:"carbs_g"`
	FatG        float64            `json:"fat_g"`
	FiberG      float64            `json:"fiber_g"`
	Vitamins    map[string]float64 `json:"vitamins"`
	Minerals    map[string]float64 `json:"minerals"`
	Portions    float64            `json:"portions"`
	Items       []RecipeItemDTO    `json:"items"`
}

// CreateConversionRequest registers a weighed household measure.
// Grams per unit is derived as total_weight / original_qty.
type CreateConversionRequest struct {
	Name        string  `json:"name"`
	OriginalQty float64 `json:"original_qty"`
	TotalWeight float64 `json:"total_weight"`
}

// ============================================================================
// Responses
// ============================================================================

// ListFoodsResponse returns a page of foods.
type ListFoodsResponse struct {
	Foods []FoodDTO `json:"foods"`
}

// ListConversionsResponse returns the conversions of a food.
type ListConversionsResponse struct {
	Conversions []ConversionDTO `json:"conversions"`
}

// ============================================================================
// Validation
// ============================================================================

const (
	MaxNameLength  = 200
	MaxRecipeItems = 100
	MaxMicroKeys   = 50
)

// ValidateUpsertFoodRequest validates a food create/update request.
func ValidateUpsertFoodRequest(req *UpsertFoodRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name too long: max %d", MaxNameLength)
	}

	switch req.Type {
	case "", string(nutrition.FoodStandard):
		req.Type = string(nutrition.FoodStandard)
	case string(nutrition.FoodRecipe):
		if len(req.Items) == 0 {
			return fmt.Errorf("recipe requires items")
		}
	default:
		return fmt.Errorf("invalid type: %s", req.Type)
	}

	for _, v := range []float64{req.BaseAmount, req.ProteinG, req.CarbsG, req.FatG, req.FiberG, req.Portions} {
		if !validQuantity(v) {
			return fmt.Errorf("nutrient values must be finite and non-negative")
		}
	}

	if len(req.Vitamins) > MaxMicroKeys || len(req.Minerals) > MaxMicroKeys {
		return fmt.Errorf("too many micronutrient keys: max %d", MaxMicroKeys)
	}
	for k, v := range req.Vitamins {
		if k == "" || !validQuantity(v) {
			return fmt.Errorf("invalid vitamin entry")
		}
	}
	for k, v := range req.Minerals {
		if k == "" || !validQuantity(v) {
			return fmt.Errorf("invalid mineral entry")
		}
	}

	if len(req.Items) > MaxRecipeItems {
		return fmt.Errorf("too many items: max %d", MaxRecipeItems)
	}
	for i, item := range req.Items {
		if item.FoodID == uuid.Nil {
			return fmt.Errorf("item[%d]: food_id is required", i)
		}
		if !validAmount(item.Amount) {
			return fmt.Errorf("item[%d]: amount must be a positive finite number", i)
		}
	}

	return nil
}

// ValidateCreateConversionRequest validates a conversion create request.
func ValidateCreateConversionRequest(req *CreateConversionRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(req.Name) > MaxNameLength {
		return fmt.Errorf("name too long: max %d", MaxNameLength)
	}
	if !validAmount(req.OriginalQty) {
		return fmt.Errorf("original_qty must be a positive finite number")
	}
	if !validAmount(req.TotalWeight) {
		return fmt.Errorf("total_weight must be a positive finite number")
	}
	return nil
}

func validQuantity(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
