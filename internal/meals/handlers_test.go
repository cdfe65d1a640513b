package meals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/nutrition"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/storage/memory"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

func newTestHandlers() (*Handlers, *memory.MemoryStorage) {
	mem := memory.New()
	h := NewHandlers(NewService(mem.GetMealsStorage(), mem))
	return h, mem
}

func createFood(t *testing.T, mem *memory.MemoryStorage, ownerID, name string, protein, carbs, fat float64) uuid.UUID {
	t.Helper()
	food := storage.Food{
		OwnerID: ownerID,
		Profile: nutrition.Profile{
			Name:        name,
			Type:        nutrition.FoodStandard,
			DefaultUnit: "g",
			ProteinG:    protein,
			CarbsG:      carbs,
			FatG:        fat,
		},
	}
	if err := mem.CreateFood(context.Background(), &food); err != nil {
		t.Fatalf("create food: %v", err)
	}
	return food.ID
}

func doRequest(h http.HandlerFunc, method, target, userID string, body interface{}, pathValues map[string]string) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(context.Background(), userID))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestMealsCreateAndSummary(t *testing.T) {
	h, mem := newTestHandlers()
	chicken := createFood(t, mem, "userA", "Chicken", 31, 0, 3.6)

	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name: "Lunch",
		Date: "2026-08-30",
		Items: []MealItemRequest{
			{FoodID: chicken, Amount: 100, Unit: "g"},
		},
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var meal MealDTO
	json.NewDecoder(w.Body).Decode(&meal)

	sumW := doRequest(h.HandleSummary, http.MethodGet, "/v1/meals/"+meal.ID.String()+"/summary", "userA", nil,
		map[string]string{"id": meal.ID.String()})
	if sumW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", sumW.Code, sumW.Body.String())
	}

	var summary SummaryResponse
	json.NewDecoder(sumW.Body).Decode(&summary)
	if summary.Totals.ProteinG != 31 {
		t.Fatalf("100g must yield stored protein exactly, got %v", summary.Totals.ProteinG)
	}
	wantCalories := 31*4 + 3.6*9
	if summary.Totals.Calories != wantCalories {
		t.Fatalf("expected derived calories %v, got %v", wantCalories, summary.Totals.Calories)
	}
}

func TestMealsSummarySurvivesFoodDeletion(t *testing.T) {
	h, mem := newTestHandlers()
	chicken := createFood(t, mem, "userA", "Chicken", 31, 0, 3.6)

	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name:  "Lunch",
		Date:  "2026-08-30",
		Items: []MealItemRequest{{FoodID: chicken, Amount: 150, Unit: "g"}},
	}, nil)
	var meal MealDTO
	json.NewDecoder(w.Body).Decode(&meal)

	before := summaryOf(t, h, meal.ID, "userA")

	if err := mem.DeleteFood(context.Background(), chicken); err != nil {
		t.Fatalf("delete food: %v", err)
	}

	after := summaryOf(t, h, meal.ID, "userA")
	if after.Totals.ProteinG != before.Totals.ProteinG {
		t.Fatalf("totals changed after food deletion: %v != %v", after.Totals.ProteinG, before.Totals.ProteinG)
	}
	if after.Totals.DeletedItems != 1 {
		t.Fatalf("expected 1 deleted item marker, got %d", after.Totals.DeletedItems)
	}
}

func TestMealsCustomUnitConversion(t *testing.T) {
	h, mem := newTestHandlers()
	chips := createFood(t, mem, "userA", "Chips", 6, 50, 30)

	// 2 bags of 250g each = 500g = 5x the per-100g profile.
	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name:  "Snack",
		Date:  "2026-08-30",
		Items: []MealItemRequest{{FoodID: chips, Amount: 2, Unit: "custom:250:bolsa"}},
	}, nil)
	var meal MealDTO
	json.NewDecoder(w.Body).Decode(&meal)

	summary := summaryOf(t, h, meal.ID, "userA")
	if summary.Totals.ProteinG != 30 {
		t.Fatalf("expected protein 30 (5x), got %v", summary.Totals.ProteinG)
	}
}

func TestMealsRejectsNonPositiveAmount(t *testing.T) {
	h, mem := newTestHandlers()
	chicken := createFood(t, mem, "userA", "Chicken", 31, 0, 3.6)

	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name:  "Lunch",
		Date:  "2026-08-30",
		Items: []MealItemRequest{{FoodID: chicken, Amount: 0, Unit: "g"}},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero amount, got %d", w.Code)
	}
}

func TestMealsItemLifecycle(t *testing.T) {
	h, mem := newTestHandlers()
	chicken := createFood(t, mem, "userA", "Chicken", 31, 0, 3.6)
	rice := createFood(t, mem, "userA", "Rice", 2.7, 28, 0.3)

	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name: "Dinner",
		Date: "2026-08-30",
	}, nil)
	var meal MealDTO
	json.NewDecoder(w.Body).Decode(&meal)
	pv := map[string]string{"id": meal.ID.String()}

	addW := doRequest(h.HandleAddItem, http.MethodPost, "/v1/meals/"+meal.ID.String()+"/items", "userA",
		MealItemRequest{FoodID: chicken, Amount: 100, Unit: "g"}, pv)
	if addW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", addW.Code, addW.Body.String())
	}
	doRequest(h.HandleAddItem, http.MethodPost, "/v1/meals/"+meal.ID.String()+"/items", "userA",
		MealItemRequest{FoodID: rice, Amount: 200, Unit: "g"}, pv)

	// Update first item to 200g.
	updW := doRequest(h.HandleUpdateItem, http.MethodPatch, "/v1/meals/"+meal.ID.String()+"/items/0", "userA",
		MealItemRequest{FoodID: chicken, Amount: 200, Unit: "g"},
		map[string]string{"id": meal.ID.String(), "index": "0"})
	if updW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", updW.Code, updW.Body.String())
	}

	var updated MealDTO
	json.NewDecoder(updW.Body).Decode(&updated)
	if updated.Items[0].Amount != 200 {
		t.Fatalf("expected amount 200, got %v", updated.Items[0].Amount)
	}

	// Remove second item.
	remW := doRequest(h.HandleRemoveItem, http.MethodDelete, "/v1/meals/"+meal.ID.String()+"/items/1", "userA",
		nil, map[string]string{"id": meal.ID.String(), "index": "1"})
	if remW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", remW.Code)
	}

	var final MealDTO
	json.NewDecoder(remW.Body).Decode(&final)
	if len(final.Items) != 1 {
		t.Fatalf("expected 1 item left, got %d", len(final.Items))
	}
}

func TestMealsOwnershipIsolation(t *testing.T) {
	h, mem := newTestHandlers()
	chicken := createFood(t, mem, "userA", "Chicken", 31, 0, 3.6)

	w := doRequest(h.HandleCreateMeal, http.MethodPost, "/v1/meals", "userA", CreateMealRequest{
		Name:  "Lunch",
		Date:  "2026-08-30",
		Items: []MealItemRequest{{FoodID: chicken, Amount: 100, Unit: "g"}},
	}, nil)
	var meal MealDTO
	json.NewDecoder(w.Body).Decode(&meal)

	sumW := doRequest(h.HandleSummary, http.MethodGet, "/v1/meals/"+meal.ID.String()+"/summary", "userB", nil,
		map[string]string{"id": meal.ID.String()})
	if sumW.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for cross-user access, got %d", sumW.Code)
	}
}

func summaryOf(t *testing.T, h *Handlers, mealID uuid.UUID, userID string) SummaryResponse {
	t.Helper()
	w := doRequest(h.HandleSummary, http.MethodGet, "/v1/meals/"+mealID.String()+"/summary", userID, nil,
		map[string]string{"id": mealID.String()})
	if w.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp SummaryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	return resp
}
