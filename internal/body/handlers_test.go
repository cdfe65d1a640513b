package body

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
	return NewHandlers(NewService(mem.GetWeightsStorage()))
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

func TestWeightsUpsertAndList(t *testing.T) {
	h := newTestHandlers()

	for _, rec := range []UpsertWeightRequest{
		{Date: "2026-08-28", WeightKg: 81.2},
		{Date: "2026-08-29", WeightKg: 80.9},
	} {
		w := doRequest(h.HandleUpsertWeight, http.MethodPost, "/v1/body/weights", "userA", rec, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
		}
	}

	// Re-recording a day replaces the entry instead of duplicating it.
	doRequest(h.HandleUpsertWeight, http.MethodPost, "/v1/body/weights", "userA",
		UpsertWeightRequest{Date: "2026-08-29", WeightKg: 80.6}, nil)

	listW := doRequest(h.HandleListWeights, http.MethodGet, "/v1/body/weights?from=2026-08-01&to=2026-08-31", "userA", nil, nil)
	if listW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", listW.Code)
	}
	var list ListWeightsResponse
	json.NewDecoder(listW.Body).Decode(&list)
	if len(list.Weights) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Weights))
	}
	if list.Weights[0].Date != "2026-08-29" || list.Weights[0].WeightKg != 80.6 {
		t.Fatalf("expected newest-first with replaced value, got %+v", list.Weights[0])
	}
}

func TestWeightsDelete(t *testing.T) {
	h := newTestHandlers()

	doRequest(h.HandleUpsertWeight, http.MethodPost, "/v1/body/weights", "userA",
		UpsertWeightRequest{Date: "2026-08-29", WeightKg: 80.9}, nil)

	delW := doRequest(h.HandleDeleteWeight, http.MethodDelete, "/v1/body/weights/2026-08-29", "userA", nil,
		map[string]string{"date": "2026-08-29"})
	if delW.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", delW.Code)
	}

	again := doRequest(h.HandleDeleteWeight, http.MethodDelete, "/v1/body/weights/2026-08-29", "userA", nil,
		map[string]string{"date": "2026-08-29"})
	if again.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing entry, got %d", again.Code)
	}
}

func TestWeightsIsolationAndValidation(t *testing.T) {
	h := newTestHandlers()

	doRequest(h.HandleUpsertWeight, http.MethodPost, "/v1/body/weights", "userA",
		UpsertWeightRequest{Date: "2026-08-29", WeightKg: 80.9}, nil)

	otherW := doRequest(h.HandleListWeights, http.MethodGet, "/v1/body/weights?from=2026-08-01&to=2026-08-31", "userB", nil, nil)
	var list ListWeightsResponse
	json.NewDecoder(otherW.Body).Decode(&list)
	if len(list.Weights) != 0 {
		t.Fatalf("weights must be per user, got %d entries", len(list.Weights))
	}

	badW := doRequest(h.HandleUpsertWeight, http.MethodPost, "/v1/body/weights", "userA",
		UpsertWeightRequest{Date: "2026-08-29", WeightKg: 5}, nil)
	if badW.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for implausible weight, got %d", badW.Code)
	}
}
