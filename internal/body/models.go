package body

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// WeightEntryDTO is one body weight measurement.
type WeightEntryDTO struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	WeightKg  float64   `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertWeightRequest records the weight for a day. One entry per day: a
// second record for the same date replaces the first.
type UpsertWeightRequest struct {
	Date     string  `json:"date"` // YYYY-MM-DD, defaults to today
	WeightKg float64 `json:"weight_kg"`
}

// ListWeightsResponse is weight history, newest first.
type ListWeightsResponse struct {
	Weights []WeightEntryDTO `json:"weights"`
}

// ValidateUpsertWeightRequest validates and normalizes a weight record.
func ValidateUpsertWeightRequest(req *UpsertWeightRequest) error {
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	if math.IsNaN(req.WeightKg) || math.IsInf(req.WeightKg, 0) {
		return fmt.Errorf("weight must be a number")
	}
	if req.WeightKg < 20 || req.WeightKg > 500 {
		return fmt.Errorf("weight must be between 20 and 500 kg")
	}
	return nil
}
