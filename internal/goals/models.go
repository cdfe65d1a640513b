package goals

import (
	"fmt"
	"math"
	"time"
)

const (
	// ModeManual marks hand-entered targets, ModeAuto targets produced by
	// the calculation wizard.
	ModeManual = "manual"
	ModeAuto   = "auto"
)

// GoalsDTO is the user's daily macro targets.
type GoalsDTO struct {
	CaloriesKcal float64       `json:"calories_kcal"`
	ProteinG     float64       `json:"protein_g"`
	CarbsG       float64       `json:"carbs_g"`
	FatG         float64       `json:"fat_g"`
	FiberG       float64       `json:"fiber_g"`
	Mode         string        `json:"mode"`
	Inputs       *WizardInputs `json:"inputs,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// UpsertGoalsRequest sets the targets, either hand-entered or carried over
// from a wizard run. Inputs, when present, pre-fill the wizard next time.
// An empty Mode is inferred: "auto" when wizard inputs are attached,
// "manual" otherwise.
type UpsertGoalsRequest struct {
	CaloriesKcal float64       `json:"calories_kcal"`
	ProteinG     float64       `json:"protein_g"`
	CarbsG       float64       `json:"carbs_g"`
	FatG         float64       `json:"fat_g"`
	FiberG       float64       `json:"fiber_g"`
	Mode         string        `json:"mode"`
	Inputs       *WizardInputs `json:"inputs,omitempty"`
}

// ValidateUpsertGoalsRequest validates and normalizes a targets update.
func ValidateUpsertGoalsRequest(req *UpsertGoalsRequest) error {
	for name, v := range map[string]float64{
		"calories_kcal": req.CaloriesKcal,
		"protein_g":     req.ProteinG,
		"carbs_g":       req.CarbsG,
		"fat_g":         req.FatG,
		"fiber_g":       req.FiberG,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
	}
	if req.CaloriesKcal == 0 {
		return fmt.Errorf("calories_kcal is required")
	}
	switch req.Mode {
	case ModeManual, ModeAuto:
	case "":
		if req.Inputs != nil {
			req.Mode = ModeAuto
		} else {
			req.Mode = ModeManual
		}
	default:
		return fmt.Errorf("mode must be manual or auto")
	}
	if req.Inputs != nil {
		if err := ValidateWizardInputs(req.Inputs); err != nil {
			return err
		}
	}
	return nil
}
