package workouts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleStartSession starts a session from a routine.
// POST /v1/workouts/session/start
func (h *Handlers) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.StartSession(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleGetSession returns the active session.
// GET /v1/workouts/session
func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetSession(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogSet records a set and advances the cursor.
// POST /v1/workouts/session/sets
func (h *Handlers) HandleLogSet(w http.ResponseWriter, r *http.Request) {
	var req LogSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.LogSet(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleFinishSession saves the session as a workout log.
// POST /v1/workouts/session/finish
func (h *Handlers) HandleFinishSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.FinishSession(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCancelSession discards the session.
// DELETE /v1/workouts/session
func (h *Handlers) HandleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelSession(r.Context()); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "discarded"})
}

// HandleListLogs returns workout history.
// GET /v1/workouts/logs?limit=<n>&offset=<n>
func (h *Handlers) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	resp, err := h.service.ListLogs(r.Context(), limit, offset)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreateLog records a past workout manually.
// POST /v1/workouts/logs
func (h *Handlers) HandleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req ManualLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.CreateManualLog(r.Context(), &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleUpdateLog rewrites a workout record.
// PATCH /v1/workouts/logs/{id}
func (h *Handlers) HandleUpdateLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req ManualLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}

	resp, err := h.service.UpdateLog(r.Context(), id, &req)
	if err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteLog removes a workout record.
// DELETE /v1/workouts/logs/{id}
func (h *Handlers) HandleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLog(r.Context(), id); err != nil {
		h.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handlers) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "no active workout session")
	case errors.Is(err, ErrSessionExists):
		writeError(w, http.StatusConflict, "session_exists", "a workout session is already active")
	case errors.Is(err, ErrRoutineNotFound):
		writeError(w, http.StatusNotFound, "routine_not_found", "routine not found")
	case errors.Is(err, ErrLogNotFound):
		writeError(w, http.StatusNotFound, "log_not_found", "workout log not found")
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// ============================================================================
// Helpers
// ============================================================================

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
