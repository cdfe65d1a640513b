package goals

import (
	"fmt"
	"math"
)

// Flags reported by the wizard when a safety constraint kicked in.
const (
	FlagCalorieFloor   = "calorie_floor_applied"
	FlagFatFloor       = "fat_reduced_to_floor"
	FlagProteinFloor   = "protein_reduced_to_floor"
	FlagCarbsForcedMin = "carbs_forced_to_minimum"
)

const (
	minCaloriesMale   = 1500
	minCaloriesFemale = 1200

	proteinFactorMin = 1.2
	proteinFactorMax = 2.2

	fatFactorStart = 0.8
	fatFactorFloor = 0.6
)

// activityFactors are the TDEE multipliers per activity level.
var activityFactors = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// goalAdjustments shifts TDEE by goal and pace, in kcal.
var goalAdjustments = map[string]map[string]float64{
	"lose": {"slow": -250, "normal": -500, "fast": -750},
	"gain": {"slow": 200, "normal": 350, "fast": 500},
}

// proteinFactors is the base g/kg protein factor by goal and activity level.
var proteinFactors = map[string]map[string]float64{
	"lose":     {"sedentary": 1.6, "light": 1.7, "moderate": 1.8, "active": 1.9, "very_active": 2.0},
	"maintain": {"sedentary": 1.2, "light": 1.3, "moderate": 1.4, "active": 1.5, "very_active": 1.6},
	"gain":     {"sedentary": 1.4, "light": 1.5, "moderate": 1.6, "active": 1.7, "very_active": 1.8},
}

// proteinOffsets adjusts the protein factor by training type.
var proteinOffsets = map[string]float64{
	"none":           0,
	"light_cardio":   0,
	"intense_cardio": 0.1,
	"strength":       0.2,
	"mixed":          0.15,
}

// carbMinimums is the minimum carb intake in g/kg by training type.
var carbMinimums = map[string]float64{
	"none":           1.0,
	"light_cardio":   2.0,
	"intense_cardio": 3.0,
	"strength":       2.5,
	"mixed":          2.5,
}

// WizardInputs are the calculation wizard's answers.
type WizardInputs struct {
	Sex          string  `json:"sex"`
	Age          int     `json:"age"`
	HeightCm     float64 `json:"height_cm"`
	WeightKg     float64 `json:"weight_kg"`
	Activity     string  `json:"activity"`
	Goal         string  `json:"goal"`
	Pace         string  `json:"pace"`
	TrainingType string  `json:"training_type"`
}

// WizardResult is a computed macro target set with the safety constraints
// that were applied along the way.
type WizardResult struct {
	CaloriesKcal float64  `json:"calories_kcal"`
	ProteinG     float64  `json:"protein_g"`
	CarbsG       float64  `json:"carbs_g"`
	FatG         float64  `json:"fat_g"`
	Flags        []string `json:"flags,omitempty"`
}

// ValidateWizardInputs validates and normalizes wizard answers.
func ValidateWizardInputs(in *WizardInputs) error {
	if in.Sex != "male" && in.Sex != "female" {
		return fmt.Errorf("sex must be male or female")
	}
	if in.Age < 10 || in.Age > 120 {
		return fmt.Errorf("age must be between 10 and 120")
	}
	if in.HeightCm < 100 || in.HeightCm > 250 {
		return fmt.Errorf("height must be between 100 and 250 cm")
	}
	if in.WeightKg < 30 || in.WeightKg > 300 {
		return fmt.Errorf("weight must be between 30 and 300 kg")
	}
	if _, ok := activityFactors[in.Activity]; !ok {
		return fmt.Errorf("unknown activity level %q", in.Activity)
	}
	switch in.Goal {
	case "lose", "gain":
		if in.Pace == "" {
			in.Pace = "normal"
		}
		if _, ok := goalAdjustments[in.Goal][in.Pace]; !ok {
			return fmt.Errorf("pace must be slow, normal or fast")
		}
	case "maintain":
		in.Pace = ""
	default:
		return fmt.Errorf("goal must be lose, maintain or gain")
	}
	if in.TrainingType == "" {
		in.TrainingType = "none"
	}
	if _, ok := carbMinimums[in.TrainingType]; !ok {
		return fmt.Errorf("unknown training type %q", in.TrainingType)
	}
	return nil
}

// Calculate derives daily macro targets from the wizard answers. Pure: the
// same inputs always produce the same targets and flags.
func Calculate(in WizardInputs) (WizardResult, error) {
	if err := ValidateWizardInputs(&in); err != nil {
		return WizardResult{}, err
	}

	// Mifflin-St Jeor.
	bmr := 10*in.WeightKg + 6.25*in.HeightCm - 5*float64(in.Age)
	if in.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	calories := bmr * activityFactors[in.Activity]
	if in.Goal != "maintain" {
		calories += goalAdjustments[in.Goal][in.Pace]
	}

	var flags []string
	floor := float64(minCaloriesFemale)
	if in.Sex == "male" {
		floor = minCaloriesMale
	}
	if calories < floor {
		calories = floor
		flags = append(flags, FlagCalorieFloor)
	}

	proteinFactor := proteinFactors[in.Goal][in.Activity] + proteinOffsets[in.TrainingType]
	proteinFactor = math.Min(math.Max(proteinFactor, proteinFactorMin), proteinFactorMax)
	protein := in.WeightKg * proteinFactor

	fat := in.WeightKg * fatFactorStart
	fatFloor := in.WeightKg * fatFactorFloor

	carbMin := in.WeightKg * carbMinimums[in.TrainingType]
	carbs := carbsFrom(calories, protein, fat)

	// Carbs below the training minimum trigger the reduction cascade: fat
	// down to its floor first, then protein down to its floor, and as the
	// last resort carbs are forced up and the calorie total recomputed.
	if carbs < carbMin {
		fat = fatFloor
		carbs = carbsFrom(calories, protein, fat)
		flags = append(flags, FlagFatFloor)
	}
	if carbs < carbMin {
		protein = in.WeightKg * proteinFactorMin
		carbs = carbsFrom(calories, protein, fat)
		flags = append(flags, FlagProteinFloor)
	}
	if carbs < carbMin {
		carbs = carbMin
		calories = protein*4 + carbs*4 + fat*9
		flags = append(flags, FlagCarbsForcedMin)
		if calories < floor {
			carbs += (floor - calories) / 4
			calories = floor
			flags = append(flags, FlagCalorieFloor)
		}
	}

	return WizardResult{
		CaloriesKcal: math.Round(calories),
		ProteinG:     math.Round(protein),
		CarbsG:       math.Round(carbs),
		FatG:         math.Round(fat),
		Flags:        flags,
	}, nil
}

func carbsFrom(calories, protein, fat float64) float64 {
	return (calories - protein*4 - fat*9) / 4
}
