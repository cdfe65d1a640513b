package goals

import "testing"

func hasFlag(result WizardResult, flag string) bool {
	for _, f := range result.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func TestCalculateMaintain(t *testing.T) {
	result, err := Calculate(WizardInputs{
		Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80,
		Activity: "moderate", Goal: "maintain", TrainingType: "strength",
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// BMR 1780, TDEE 1780*1.55 = 2759, protein 80*(1.4+0.2) = 128,
	// fat 80*0.8 = 64, carbs fill the remainder.
	if result.CaloriesKcal != 2759 {
		t.Fatalf("expected 2759 kcal, got %v", result.CaloriesKcal)
	}
	if result.ProteinG != 128 {
		t.Fatalf("expected 128g protein, got %v", result.ProteinG)
	}
	if result.FatG != 64 {
		t.Fatalf("expected 64g fat, got %v", result.FatG)
	}
	if result.CarbsG != 418 {
		t.Fatalf("expected 418g carbs, got %v", result.CarbsG)
	}
	if len(result.Flags) != 0 {
		t.Fatalf("no constraints expected, got %v", result.Flags)
	}
}

func TestCalculateSafetyFloor(t *testing.T) {
	result, err := Calculate(WizardInputs{
		Sex: "female", Age: 60, HeightCm: 150, WeightKg: 45,
		Activity: "sedentary", Goal: "lose", Pace: "fast", TrainingType: "none",
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// The fast deficit drops the target far below 1200 kcal; the floor
	// takes over.
	if result.CaloriesKcal != 1200 {
		t.Fatalf("expected floor of 1200 kcal, got %v", result.CaloriesKcal)
	}
	if !hasFlag(result, FlagCalorieFloor) {
		t.Fatalf("floor flag must be set, got %v", result.Flags)
	}
	if hasFlag(result, FlagFatFloor) || hasFlag(result, FlagCarbsForcedMin) {
		t.Fatalf("no macro cascade expected, got %v", result.Flags)
	}
}

func TestCalculateCarbCascade(t *testing.T) {
	result, err := Calculate(WizardInputs{
		Sex: "male", Age: 50, HeightCm: 170, WeightKg: 100,
		Activity: "sedentary", Goal: "lose", Pace: "fast", TrainingType: "intense_cardio",
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// Intense cardio demands 3 g/kg of carbs, which the deficit cannot
	// cover: fat drops to 0.6 g/kg, protein to 1.2 g/kg, and carbs are
	// finally forced up with the calorie total recomputed.
	for _, flag := range []string{FlagCalorieFloor, FlagFatFloor, FlagProteinFloor, FlagCarbsForcedMin} {
		if !hasFlag(result, flag) {
			t.Fatalf("expected flag %s, got %v", flag, result.Flags)
		}
	}
	if result.CarbsG != 300 {
		t.Fatalf("expected forced carb minimum 300, got %v", result.CarbsG)
	}
	if result.ProteinG != 120 || result.FatG != 60 {
		t.Fatalf("expected floored protein 120 and fat 60, got %v/%v", result.ProteinG, result.FatG)
	}
	if result.CaloriesKcal != 2220 {
		t.Fatalf("expected recomputed 2220 kcal, got %v", result.CaloriesKcal)
	}
}

func TestCalculateProteinClamp(t *testing.T) {
	result, err := Calculate(WizardInputs{
		Sex: "male", Age: 25, HeightCm: 185, WeightKg: 90,
		Activity: "very_active", Goal: "lose", Pace: "slow", TrainingType: "strength",
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// lose x very_active gives 2.0 plus the 0.2 strength offset: exactly
	// the 2.2 cap.
	if result.ProteinG != 198 {
		t.Fatalf("expected 90*2.2 = 198g protein, got %v", result.ProteinG)
	}
}

func TestCalculateValidation(t *testing.T) {
	if _, err := Calculate(WizardInputs{Sex: "other", Age: 30, HeightCm: 180, WeightKg: 80, Activity: "moderate", Goal: "maintain"}); err == nil {
		t.Fatalf("expected error for unknown sex")
	}
	if _, err := Calculate(WizardInputs{Sex: "male", Age: 5, HeightCm: 180, WeightKg: 80, Activity: "moderate", Goal: "maintain"}); err == nil {
		t.Fatalf("expected error for implausible age")
	}
	if _, err := Calculate(WizardInputs{Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80, Activity: "heroic", Goal: "maintain"}); err == nil {
		t.Fatalf("expected error for unknown activity")
	}
	if _, err := Calculate(WizardInputs{Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80, Activity: "moderate", Goal: "lose", Pace: "extreme"}); err == nil {
		t.Fatalf("expected error for unknown pace")
	}
}
