package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/storage/memory"
	"github.com/Alckxyz/nutritrack/internal/userctx"
)

// restRecorder captures rest dispatches.
type restRecorder struct {
	durations []int
}

func (r *restRecorder) StartRest(userID string, seconds int) {
	r.durations = append(r.durations, seconds)
}

func newTestHandlers() (*Handlers, *memory.MemoryStorage, *restRecorder) {
	mem := memory.New()
	rest := &restRecorder{}
	svc := NewService(mem.GetActiveWorkoutsStorage(), mem.GetWorkoutLogsStorage(), mem.GetRoutinesStorage(), rest)
	return NewHandlers(svc), mem, rest
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

func seedRoutine(t *testing.T, mem *memory.MemoryStorage, userID string) storage.Routine {
	t.Helper()
	routine := storage.Routine{
		OwnerID: userID,
		Name:    "Push Day",
		Exercises: []storage.Exercise{
			{
				ID: uuid.New(), GroupID: uuid.New(), Name: "Bench Press",
				Sets: 3, Reps: 8, WeightKg: 60,
				TrackingMode: "reps", LoadMode: "external",
				RestBetweenSetsSec: 90, RestBetweenExercisesSec: 180,
			},
			{
				ID: uuid.New(), GroupID: uuid.New(), Name: "Overhead Press",
				Sets: 3, Reps: 10, WeightKg: 40,
				TrackingMode: "reps", LoadMode: "external",
				RestBetweenSetsSec: 60, RestBetweenExercisesSec: 120,
			},
		},
	}
	if err := mem.GetRoutinesStorage().CreateRoutine(context.Background(), &routine); err != nil {
		t.Fatalf("seed routine: %v", err)
	}
	return routine
}

func startSession(t *testing.T, h *Handlers, userID string, routineID uuid.UUID) SessionDTO {
	t.Helper()
	w := doRequest(h.HandleStartSession, http.MethodPost, "/v1/workouts/session/start", userID,
		StartSessionRequest{RoutineID: routineID}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("start session: expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	var dto SessionDTO
	json.NewDecoder(w.Body).Decode(&dto)
	return dto
}

func logSet(t *testing.T, h *Handlers, userID string, req LogSetRequest) LogSetResponse {
	t.Helper()
	w := doRequest(h.HandleLogSet, http.MethodPost, "/v1/workouts/session/sets", userID, req, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("log set: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var resp LogSetResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func TestSessionCursorAdvancement(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")

	session := startSession(t, h, "userA", routine.ID)
	if session.CurrentExercise != 0 || session.CurrentSet != 0 || session.Complete {
		t.Fatalf("fresh session must start at (0,0): %+v", session)
	}

	// 2 exercises x 3 sets: completion exactly after the 6th log.
	var last LogSetResponse
	for i := 0; i < 6; i++ {
		last = logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})
		wantComplete := i == 5
		if last.Session.Complete != wantComplete {
			t.Fatalf("after set %d: complete=%v, want %v", i+1, last.Session.Complete, wantComplete)
		}
	}

	// Mid-exercise rests use the between-sets interval, the exercise
	// boundary uses the between-exercises interval.
	if last.Rest == nil || last.Rest.Kind != "between_exercises" {
		t.Fatalf("final set must dispatch a between-exercises rest, got %+v", last.Rest)
	}
}

func TestSessionRestDispatch(t *testing.T) {
	h, mem, rest := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")
	startSession(t, h, "userA", routine.ID)

	first := logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})
	if first.Rest == nil || first.Rest.Kind != "between_sets" || first.Rest.DurationSec != 90 {
		t.Fatalf("expected 90s between-sets rest, got %+v", first.Rest)
	}

	logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})
	third := logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})
	if third.Rest == nil || third.Rest.Kind != "between_exercises" || third.Rest.DurationSec != 180 {
		t.Fatalf("expected 180s between-exercises rest, got %+v", third.Rest)
	}

	if len(rest.durations) != 3 || rest.durations[2] != 180 {
		t.Fatalf("rest starter must receive each dispatch, got %v", rest.durations)
	}
}

func TestSessionSetUpsert(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")
	startSession(t, h, "userA", routine.ID)

	logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})

	// Re-editing set 0 must replace it, not append, and must not move
	// the cursor.
	idx := 0
	resp := logSet(t, h, "userA", LogSetRequest{WeightKg: 62.5, Reps: 8, SetIndex: &idx})
	ex := resp.Session.Exercises[0]
	if len(ex.Sets) != 1 {
		t.Fatalf("expected 1 set after re-edit, got %d", len(ex.Sets))
	}
	if ex.Sets[0].WeightKg != 62.5 {
		t.Fatalf("expected re-edited weight 62.5, got %v", ex.Sets[0].WeightKg)
	}
	if resp.Session.CurrentSet != 1 {
		t.Fatalf("re-edit must not advance the cursor, got set %d", resp.Session.CurrentSet)
	}
	if resp.Rest != nil {
		t.Fatalf("re-edit must not dispatch a rest")
	}
}

func TestSessionDominantRecalibration(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")
	startSession(t, h, "userA", routine.ID)

	// Planned 8 reps at 60kg; the user performs 62.5x8 twice and 60x8
	// once. Dominant weight is 62.5 and must be written through to the
	// routine immediately.
	logSet(t, h, "userA", LogSetRequest{WeightKg: 62.5, Reps: 8})
	logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})
	resp := logSet(t, h, "userA", LogSetRequest{WeightKg: 62.5, Reps: 8})

	if got := resp.Session.Exercises[0].PlannedWeightKg; got != 62.5 {
		t.Fatalf("expected recalibrated target 62.5, got %v", got)
	}

	stored, _, err := mem.GetRoutinesStorage().GetRoutine(context.Background(), routine.ID)
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if stored.Exercises[0].WeightKg != 62.5 {
		t.Fatalf("expected routine baseline 62.5, got %v", stored.Exercises[0].WeightKg)
	}

	// A 50/50 frequency tie resolves to the higher value.
	w2, _, ok := dominantValues([]storage.LoggedSet{
		{SetIndex: 0, WeightKg: 60, Reps: 8},
		{SetIndex: 1, WeightKg: 65, Reps: 8},
	})
	if !ok || w2 != 65 {
		t.Fatalf("tie must resolve to the higher weight, got %v", w2)
	}
}

func TestSessionFinish(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")
	startSession(t, h, "userA", routine.ID)

	// Log the first exercise only; sets logged as 0/0 are placeholders
	// and must be dropped, as must the untouched second exercise.
	logSet(t, h, "userA", LogSetRequest{WeightKg: 62.5, Reps: 8})
	logSet(t, h, "userA", LogSetRequest{WeightKg: 62.5, Reps: 8})
	logSet(t, h, "userA", LogSetRequest{WeightKg: 0, Reps: 0})

	w := doRequest(h.HandleFinishSession, http.MethodPost, "/v1/workouts/session/finish", "userA", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var saved WorkoutLogDTO
	json.NewDecoder(w.Body).Decode(&saved)
	if len(saved.Exercises) != 1 {
		t.Fatalf("expected 1 exercise in the log, got %d", len(saved.Exercises))
	}
	if len(saved.Exercises[0].Sets) != 2 {
		t.Fatalf("zero/zero sets must be dropped, got %d sets", len(saved.Exercises[0].Sets))
	}

	// Session is cleared, routine is stamped.
	getW := doRequest(h.HandleGetSession, http.MethodGet, "/v1/workouts/session", "userA", nil, nil)
	if getW.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after finish, got %d", getW.Code)
	}
	stored, _, _ := mem.GetRoutinesStorage().GetRoutine(context.Background(), routine.ID)
	if stored.LastFinished == nil {
		t.Fatalf("routine must record the finish")
	}
	if stored.Exercises[0].WeightKg != 62.5 {
		t.Fatalf("dominant weight must be written back, got %v", stored.Exercises[0].WeightKg)
	}
}

func TestSessionBaselineAcrossRoutines(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")

	// A second routine carries the same Bench Press group.
	other := storage.Routine{
		OwnerID: "userA",
		Name:    "Full Body",
		Exercises: []storage.Exercise{{
			ID: uuid.New(), GroupID: routine.Exercises[0].GroupID, Name: "Bench Press",
			Sets: 3, Reps: 8, WeightKg: 60,
			TrackingMode: "reps", LoadMode: "external",
			RestBetweenSetsSec: 90, RestBetweenExercisesSec: 180,
		}},
	}
	if err := mem.GetRoutinesStorage().CreateRoutine(context.Background(), &other); err != nil {
		t.Fatalf("seed routine: %v", err)
	}

	startSession(t, h, "userA", routine.ID)
	logSet(t, h, "userA", LogSetRequest{WeightKg: 65, Reps: 8})
	logSet(t, h, "userA", LogSetRequest{WeightKg: 65, Reps: 8})

	// In-session recalibration reaches every instance of the group, not
	// just the one inside the session routine.
	mid, _, err := mem.GetRoutinesStorage().GetRoutine(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("get routine: %v", err)
	}
	if mid.Exercises[0].WeightKg != 65 {
		t.Fatalf("expected in-session baseline 65 on the group peer, got %v", mid.Exercises[0].WeightKg)
	}

	logSet(t, h, "userA", LogSetRequest{WeightKg: 65, Reps: 8})
	w := doRequest(h.HandleFinishSession, http.MethodPost, "/v1/workouts/session/finish", "userA", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	after, _, _ := mem.GetRoutinesStorage().GetRoutine(context.Background(), other.ID)
	if after.Exercises[0].WeightKg != 65 {
		t.Fatalf("expected finish write-back 65 on the group peer, got %v", after.Exercises[0].WeightKg)
	}
	// Only the session's own routine records the finish.
	if after.LastFinished != nil {
		t.Fatalf("peer routine must not be stamped as finished")
	}
	session, _, _ := mem.GetRoutinesStorage().GetRoutine(context.Background(), routine.ID)
	if session.LastFinished == nil {
		t.Fatalf("session routine must record the finish")
	}
}

func TestSessionNotesCarryIntoLog(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")
	startSession(t, h, "userA", routine.ID)

	notes := "paused reps"
	resp := logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8, Notes: &notes})
	if resp.Session.Exercises[0].Notes != "paused reps" {
		t.Fatalf("notes must land on the cursor exercise, got %q", resp.Session.Exercises[0].Notes)
	}

	w := doRequest(h.HandleFinishSession, http.MethodPost, "/v1/workouts/session/finish", "userA", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("finish: expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	var saved WorkoutLogDTO
	json.NewDecoder(w.Body).Decode(&saved)
	if len(saved.Exercises) != 1 || saved.Exercises[0].Notes != "paused reps" {
		t.Fatalf("notes must carry into the log, got %+v", saved.Exercises)
	}
}

// failingLogs rejects writes to simulate a persistence failure.
type failingLogs struct {
	storage.WorkoutLogsStorage
}

func (f *failingLogs) CreateWorkoutLog(ctx context.Context, log *storage.WorkoutLog) error {
	return errors.New("write refused")
}

func TestSessionFinishFailureKeepsSession(t *testing.T) {
	mem := memory.New()
	svc := NewService(mem.GetActiveWorkoutsStorage(), &failingLogs{mem.GetWorkoutLogsStorage()}, mem.GetRoutinesStorage(), nil)
	h := NewHandlers(svc)
	routine := seedRoutine(t, mem, "userA")

	startSession(t, h, "userA", routine.ID)
	logSet(t, h, "userA", LogSetRequest{WeightKg: 60, Reps: 8})

	w := doRequest(h.HandleFinishSession, http.MethodPost, "/v1/workouts/session/finish", "userA", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on persistence failure, got %d", w.Code)
	}

	// The session survives so the user can retry.
	getW := doRequest(h.HandleGetSession, http.MethodGet, "/v1/workouts/session", "userA", nil, nil)
	if getW.Code != http.StatusOK {
		t.Fatalf("session must be preserved after a failed save, got %d", getW.Code)
	}
	var session SessionDTO
	json.NewDecoder(getW.Body).Decode(&session)
	if len(session.Exercises[0].Sets) != 1 {
		t.Fatalf("logged sets must survive, got %d", len(session.Exercises[0].Sets))
	}
}

func TestSessionSingleton(t *testing.T) {
	h, mem, _ := newTestHandlers()
	routine := seedRoutine(t, mem, "userA")

	startSession(t, h, "userA", routine.ID)

	w := doRequest(h.HandleStartSession, http.MethodPost, "/v1/workouts/session/start", "userA",
		StartSessionRequest{RoutineID: routine.ID}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a second session, got %d", w.Code)
	}

	// Cancel clears it and a new start succeeds.
	cancelW := doRequest(h.HandleCancelSession, http.MethodDelete, "/v1/workouts/session", "userA", nil, nil)
	if cancelW.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", cancelW.Code)
	}
	startSession(t, h, "userA", routine.ID)
}

func TestManualLogLifecycle(t *testing.T) {
	h, _, _ := newTestHandlers()

	group := uuid.New()
	create := doRequest(h.HandleCreateLog, http.MethodPost, "/v1/workouts/logs", "userA", ManualLogRequest{
		Date:        "2026-08-20",
		RoutineName: "Legacy Leg Day",
		Exercises: []LoggedExercise{{
			GroupID: group,
			Name:    "Squat",
			Notes:   "belt on",
			Sets: []LoggedSetDTO{
				{SetIndex: 0, WeightKg: 100, Reps: 5},
				{SetIndex: 1, WeightKg: 100, Reps: 5},
			},
		}},
	}, nil)
	if create.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", create.Code, create.Body.String())
	}
	var created WorkoutLogDTO
	json.NewDecoder(create.Body).Decode(&created)
	if created.RoutineID != nil {
		t.Fatalf("manual logs must not reference a routine")
	}
	if created.Exercises[0].Notes != "belt on" {
		t.Fatalf("notes must round-trip")
	}

	pv := map[string]string{"id": created.ID.String()}
	upd := doRequest(h.HandleUpdateLog, http.MethodPatch, "/", "userA", ManualLogRequest{
		Date:        "2026-08-21",
		RoutineName: "Legacy Leg Day",
		Exercises: []LoggedExercise{{
			GroupID: group,
			Name:    "Squat",
			Sets:    []LoggedSetDTO{{SetIndex: 0, WeightKg: 105, Reps: 5}},
		}},
	}, pv)
	if upd.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", upd.Code, upd.Body.String())
	}

	// Foreign users cannot see or touch the record.
	foreign := doRequest(h.HandleDeleteLog, http.MethodDelete, "/", "userB", nil, pv)
	if foreign.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete, got %d", foreign.Code)
	}

	list := doRequest(h.HandleListLogs, http.MethodGet, "/v1/workouts/logs", "userA", nil, nil)
	var logs ListLogsResponse
	json.NewDecoder(list.Body).Decode(&logs)
	if len(logs.Logs) != 1 || logs.Logs[0].Exercises[0].Sets[0].WeightKg != 105 {
		t.Fatalf("unexpected history: %+v", logs.Logs)
	}

	del := doRequest(h.HandleDeleteLog, http.MethodDelete, "/", "userA", nil, pv)
	if del.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", del.Code)
	}
}
