package goals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Alckxyz/nutritrack/internal/storage/memory"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

func newTestHandlers() *Handlers {
	mem := memory.New()
	return NewHandlers(NewService(mem.GetGoalsStorage()))
}

func doRequest(h http.HandlerFunc, method, target, userID string, body interface{}) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	}

	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestGoalsLifecycle(t *testing.T) {
	h := newTestHandlers()

	// Nothing set yet.
	w := doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "userA", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first set, got %d", w.Code)
	}

	inputs := &WizardInputs{
		Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80,
		Activity: "moderate", Goal: "maintain", TrainingType: "strength",
	}
	putW := doRequest(h.HandleUpsertGoals, http.MethodPut, "/v1/goals", "userA", UpsertGoalsRequest{
		CaloriesKcal: 2759, ProteinG: 128, CarbsG: 418, FatG: 64, FiberG: 30, Inputs: inputs,
	})
	if putW.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d body=%s", putW.Code, putW.Body.String())
	}

	getW := doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "userA", nil)
	if getW.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getW.Code)
	}
	var goals GoalsDTO
	json.NewDecoder(getW.Body).Decode(&goals)
	if goals.CaloriesKcal != 2759 || goals.Inputs == nil || goals.Inputs.WeightKg != 80 {
		t.Fatalf("wizard inputs must be stored for pre-filling: %+v", goals)
	}
	if goals.FiberG != 30 {
		t.Fatalf("fiber target must round-trip, got %v", goals.FiberG)
	}
	// Attached wizard inputs classify the targets as calculated.
	if goals.Mode != ModeAuto {
		t.Fatalf("expected mode %q, got %q", ModeAuto, goals.Mode)
	}

	// Goals are per user.
	otherW := doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "userB", nil)
	if otherW.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", otherW.Code)
	}
}

func TestGoalsCalculateEndpoint(t *testing.T) {
	h := newTestHandlers()

	w := doRequest(h.HandleCalculate, http.MethodPost, "/v1/goals/calculate", "userA", WizardInputs{
		Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80,
		Activity: "moderate", Goal: "maintain", TrainingType: "strength",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var result WizardResult
	json.NewDecoder(w.Body).Decode(&result)
	if result.CaloriesKcal != 2759 || result.ProteinG != 128 {
		t.Fatalf("unexpected wizard result: %+v", result)
	}

	// Calculation alone must not persist anything.
	getW := doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "userA", nil)
	if getW.Code != http.StatusNotFound {
		t.Fatalf("calculate must not store goals, got %d", getW.Code)
	}

	badW := doRequest(h.HandleCalculate, http.MethodPost, "/v1/goals/calculate", "userA", WizardInputs{
		Sex: "male", Age: 30, HeightCm: 180, WeightKg: 80, Activity: "moderate", Goal: "shred",
	})
	if badW.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown goal, got %d", badW.Code)
	}
}

func TestGoalsManualMode(t *testing.T) {
	h := newTestHandlers()

	w := doRequest(h.HandleUpsertGoals, http.MethodPut, "/v1/goals", "userA", UpsertGoalsRequest{
		CaloriesKcal: 2200, ProteinG: 150, CarbsG: 200, FatG: 70, FiberG: 25,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var goals GoalsDTO
	json.NewDecoder(doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "userA", nil).Body).Decode(&goals)
	if goals.Mode != ModeManual {
		t.Fatalf("hand-entered targets must default to mode %q, got %q", ModeManual, goals.Mode)
	}

	badW := doRequest(h.HandleUpsertGoals, http.MethodPut, "/v1/goals", "userA", UpsertGoalsRequest{
		CaloriesKcal: 2200, Mode: "wizard",
	})
	if badW.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown mode, got %d", badW.Code)
	}
}

func TestGoalsUpsertValidation(t *testing.T) {
	h := newTestHandlers()

	w := doRequest(h.HandleUpsertGoals, http.MethodPut, "/v1/goals", "userA", UpsertGoalsRequest{
		CaloriesKcal: 0, ProteinG: 120,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing calories, got %d", w.Code)
	}

	anonW := doRequest(h.HandleGetGoals, http.MethodGet, "/v1/goals", "", nil)
	if anonW.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", anonW.Code)
	}
}
