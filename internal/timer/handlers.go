package timer

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Alckxyz/nutritrack/internal/userctx"
)

type Handlers struct {
	manager    *Manager
	maxSeconds int
}

func NewHandlers(manager *Manager, maxSeconds int) *Handlers {
	return &Handlers{manager: manager, maxSeconds: maxSeconds}
}

// HandleStartTimer starts a countdown, replacing any running one.
// POST /v1/timers/start
func (h *Handlers) HandleStartTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req StartTimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "invalid JSON body")
		return
	}
	if err := ValidateStartTimerRequest(&req, h.maxSeconds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	switch req.Kind {
	case KindRest:
		h.manager.StartRest(userID, req.Seconds)
	case KindExercise:
		h.manager.StartExercise(userID, req.Seconds, req.Unilateral)
	}

	state, _ := h.manager.State(userID)
	writeJSON(w, http.StatusCreated, state)
}

// HandleGetTimer returns the running countdown.
// GET /v1/timers
func (h *Handlers) HandleGetTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	state, running := h.manager.State(userID)
	if !running {
		writeError(w, http.StatusNotFound, "timer_not_found", "no timer running")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandlePauseTimer freezes the countdown.
// POST /v1/timers/pause
func (h *Handlers) HandlePauseTimer(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.manager.Pause)
}

// HandleResumeTimer unfreezes the countdown.
// POST /v1/timers/resume
func (h *Handlers) HandleResumeTimer(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.manager.Resume)
}

// HandleSkipTimer resolves the current phase immediately.
// POST /v1/timers/skip
func (h *Handlers) HandleSkipTimer(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, h.manager.Skip)
}

// HandleCancelTimer drops the countdown.
// DELETE /v1/timers
func (h *Handlers) HandleCancelTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !h.manager.Cancel(userID) {
		writeError(w, http.StatusNotFound, "timer_not_found", "no timer running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *Handlers) control(w http.ResponseWriter, r *http.Request, op func(string) bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if !op(userID) {
		writeError(w, http.StatusNotFound, "timer_not_found", "no timer running")
		return
	}

	if state, running := h.manager.State(userID); running {
		writeJSON(w, http.StatusOK, state)
		return
	}
	// A skip can resolve the final phase and finish the countdown.
	writeJSON(w, http.StatusOK, map[string]string{"status": "finished"})
}

// ============================================================================
// Helpers
// ============================================================================

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, _ := userctx.GetUserID(r.Context())
	userID = strings.TrimSpace(userID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return userID, true
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
