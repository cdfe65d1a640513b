package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Alckxyz/nutritrack/internal/meals"
	"github.com/Alckxyz/nutritrack/internal/nutrition"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/storage/memory"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

func newTestEnv(maxRangeDays int) (*Handlers, *memory.MemoryStorage) {
	mem := memory.New()
	generator := NewGenerator(
		meals.NewService(mem.GetMealsStorage(), mem),
		mem.GetWorkoutLogsStorage(),
		mem.GetWeightsStorage(),
	)
	service := NewService(mem.GetReportsStorage(), generator, nil, maxRangeDays, 900, "", false)
	return NewHandlers(service), mem
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

// seedDay records a chicken lunch, a weigh-in and a finished workout on a date.
func seedDay(t *testing.T, mem *memory.MemoryStorage, userID, date string) {
	t.Helper()
	ctx := context.Background()

	food := storage.Food{
		OwnerID: userID,
		Profile: nutrition.Profile{
			Name:        "Chicken",
			Type:        nutrition.FoodStandard,
			DefaultUnit: "g",
			ProteinG:    31,
			FatG:        3.6,
		},
	}
	if err := mem.CreateFood(ctx, &food); err != nil {
		t.Fatalf("create food: %v", err)
	}

	mealsService := meals.NewService(mem.GetMealsStorage(), mem)
	userCtx := userctx.WithUserID(ctx, userID)
	_, err := mealsService.CreateMeal(userCtx, &meals.CreateMealRequest{
		Name: "Lunch",
		Date: date,
		Items: []meals.MealItemRequest{
			{FoodID: food.ID, Amount: 100, Unit: "g"},
		},
	})
	if err != nil {
		t.Fatalf("create meal: %v", err)
	}

	if err := mem.GetWeightsStorage().UpsertWeight(ctx, &storage.WeightEntry{
		OwnerID:  userID,
		Date:     date,
		WeightKg: 80.5,
	}); err != nil {
		t.Fatalf("upsert weight: %v", err)
	}

	day, _ := time.Parse("2006-01-02", date)
	finished := day.Add(18 * time.Hour)
	if err := mem.GetWorkoutLogsStorage().CreateWorkoutLog(ctx, &storage.WorkoutLog{
		OwnerID:     userID,
		RoutineName: "Push Day",
		StartedAt:   finished.Add(-time.Hour),
		FinishedAt:  finished,
		Exercises: []storage.LoggedExercise{
			{Name: "Bench Press", Sets: []storage.LoggedSet{{SetIndex: 0, WeightKg: 60, Reps: 8}}},
		},
	}); err != nil {
		t.Fatalf("create workout log: %v", err)
	}
}

func createReport(t *testing.T, h *Handlers, userID, from, to, format string) ReportDTO {
	t.Helper()
	w := doRequest(h.HandleCreate, http.MethodPost, "/v1/reports", userID,
		CreateReportRequest{From: from, To: to, Format: format}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var dto ReportDTO
	json.NewDecoder(w.Body).Decode(&dto)
	return dto
}

func TestReportsCSV(t *testing.T) {
	h, mem := newTestEnv(366)
	seedDay(t, mem, "userA", "2026-08-29")

	dto := createReport(t, h, "userA", "2026-08-28", "2026-08-30", "csv")
	if dto.Status != StatusReady {
		t.Fatalf("expected ready status, got %q", dto.Status)
	}
	if !strings.Contains(dto.DownloadURL, "/v1/reports/"+dto.ID.String()+"/download") {
		t.Fatalf("unexpected download URL %q", dto.DownloadURL)
	}

	download := doRequest(h.HandleDownload, http.MethodGet, dto.DownloadURL, "userA", nil,
		map[string]string{"id": dto.ID.String()})
	if download.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", download.Code, download.Body.String())
	}
	if ct := download.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(download.Body.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 day rows, got %d lines", len(lines))
	}
	if lines[0] != "date,calories_kcal,protein_g,fat_g,carbs_g,fiber_g,weight_kg,workouts" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	// 100 g of chicken: 31 g protein, 3.6 g fat, 31*4 + 3.6*9 = 156.4 kcal.
	if lines[2] != "2026-08-29,156,31.0,3.6,0.0,0.0,80.5,Push Day" {
		t.Fatalf("unexpected day row %q", lines[2])
	}
	if !strings.HasPrefix(lines[1], "2026-08-28,0,") {
		t.Fatalf("expected empty leading day, got %q", lines[1])
	}
}

func TestReportsPDF(t *testing.T) {
	h, mem := newTestEnv(366)
	seedDay(t, mem, "userA", "2026-08-29")

	dto := createReport(t, h, "userA", "2026-08-01", "2026-08-31", "pdf")

	download := doRequest(h.HandleDownload, http.MethodGet, dto.DownloadURL, "userA", nil,
		map[string]string{"id": dto.ID.String()})
	if download.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", download.Code)
	}
	if ct := download.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if !bytes.HasPrefix(download.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF magic bytes, got %q", download.Body.String()[:8])
	}
}

func TestReportsListAndDelete(t *testing.T) {
	h, mem := newTestEnv(366)
	seedDay(t, mem, "userA", "2026-08-29")

	first := createReport(t, h, "userA", "2026-08-28", "2026-08-30", "csv")
	createReport(t, h, "userA", "2026-08-01", "2026-08-31", "csv")

	listW := doRequest(h.HandleList, http.MethodGet, "/v1/reports", "userA", nil, nil)
	var list ReportsResponse
	json.NewDecoder(listW.Body).Decode(&list)
	if len(list.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(list.Reports))
	}

	otherW := doRequest(h.HandleList, http.MethodGet, "/v1/reports", "userB", nil, nil)
	var otherList ReportsResponse
	json.NewDecoder(otherW.Body).Decode(&otherList)
	if len(otherList.Reports) != 0 {
		t.Fatalf("reports must be per user, got %d", len(otherList.Reports))
	}

	foreign := doRequest(h.HandleDownload, http.MethodGet, first.DownloadURL, "userB", nil,
		map[string]string{"id": first.ID.String()})
	if foreign.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign report, got %d", foreign.Code)
	}

	delW := doRequest(h.HandleDelete, http.MethodDelete, "/v1/reports/"+first.ID.String(), "userA", nil,
		map[string]string{"id": first.ID.String()})
	if delW.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delW.Code)
	}

	gone := doRequest(h.HandleDownload, http.MethodGet, first.DownloadURL, "userA", nil,
		map[string]string{"id": first.ID.String()})
	if gone.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", gone.Code)
	}
}

func TestReportsValidation(t *testing.T) {
	h, _ := newTestEnv(31)

	cases := []struct {
		name string
		req  CreateReportRequest
		code string
	}{
		{"bad format", CreateReportRequest{From: "2026-08-01", To: "2026-08-31", Format: "xlsx"}, "invalid_format"},
		{"bad date", CreateReportRequest{From: "August 1", To: "2026-08-31", Format: "csv"}, "invalid_date"},
		{"inverted range", CreateReportRequest{From: "2026-08-31", To: "2026-08-01", Format: "csv"}, "invalid_range"},
		{"range too large", CreateReportRequest{From: "2026-01-01", To: "2026-08-31", Format: "csv"}, "range_too_large"},
	}
	for _, tc := range cases {
		w := doRequest(h.HandleCreate, http.MethodPost, "/v1/reports", "userA", tc.req, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
		if !strings.Contains(w.Body.String(), tc.code) {
			t.Fatalf("%s: expected code %q in body %s", tc.name, tc.code, w.Body.String())
		}
	}

	anon := doRequest(h.HandleCreate, http.MethodPost, "/v1/reports", "",
		CreateReportRequest{From: "2026-08-01", To: "2026-08-02", Format: "csv"}, nil)
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", anon.Code)
	}
}
