package timer

import (
	"context"
	"sync"
	"time"
)

// PrepSeconds is the fixed preparation countdown before each work phase.
const PrepSeconds = 10

// Phase names.
const (
	PhaseRest  = "rest"
	PhasePrep1 = "prep_1"
	PhaseWork1 = "work_1"
	PhasePrep2 = "prep_2"
	PhaseWork2 = "work_2"
)

// Timer kinds.
const (
	KindRest     = "rest"
	KindExercise = "exercise"
)

// Cue receives completion signals. Calls happen on the tick goroutine with
// the manager locked: implementations must return promptly and must not call
// back into the manager.
type Cue interface {
	// PhaseDone fires when one phase of a countdown resolves.
	PhaseDone(userID, phase string)

	// Finished fires when the whole countdown resolves.
	Finished(userID string)
}

// phase is one step of a countdown.
type phase struct {
	name      string
	remaining int
}

// countdown is a phase list walked by the tick loop. Phases resolve strictly
// in order: a phase finishes (or is skipped) before the next one starts.
type countdown struct {
	kind    string
	phases  []phase
	current int
	paused  bool
}

// Manager owns at most one countdown per user and advances all of them on a
// shared one-second tick.
type Manager struct {
	mu     sync.Mutex
	timers map[string]*countdown
	cue    Cue
}

// NewManager creates a manager. cue may be nil.
func NewManager(cue Cue) *Manager {
	return &Manager{
		timers: make(map[string]*countdown),
		cue:    cue,
	}
}

// Run drives the tick loop until ctx is cancelled. Tests call Tick directly
// instead.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick()
		}
	}
}

// Tick advances every running countdown by one second.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, c := range m.timers {
		if c.paused {
			continue
		}

		c.phases[c.current].remaining--
		if c.phases[c.current].remaining > 0 {
			continue
		}
		m.resolvePhase(userID, c)
	}
}

// StartRest replaces the user's countdown with a single rest phase.
// Implements the rest dispatch hook of the workout session.
func (m *Manager) StartRest(userID string, seconds int) {
	if seconds <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers[userID] = &countdown{
		kind:   KindRest,
		phases: []phase{{name: PhaseRest, remaining: seconds}},
	}
}

// StartExercise replaces the user's countdown with the exercise sequence:
// preparation, work, and for unilateral movements a second preparation and
// work pass for the other side.
func (m *Manager) StartExercise(userID string, workSeconds int, unilateral bool) {
	if workSeconds <= 0 {
		return
	}

	phases := []phase{
		{name: PhasePrep1, remaining: PrepSeconds},
		{name: PhaseWork1, remaining: workSeconds},
	}
	if unilateral {
		phases = append(phases,
			phase{name: PhasePrep2, remaining: PrepSeconds},
			phase{name: PhaseWork2, remaining: workSeconds},
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers[userID] = &countdown{kind: KindExercise, phases: phases}
}

// Pause freezes the countdown. Returns false if the user has none.
func (m *Manager) Pause(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.timers[userID]
	if !ok {
		return false
	}
	c.paused = true
	return true
}

// Resume unfreezes the countdown. Returns false if the user has none.
func (m *Manager) Resume(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.timers[userID]
	if !ok {
		return false
	}
	c.paused = false
	return true
}

// Skip resolves the current phase immediately, without waiting for its
// countdown to reach zero. Returns false if the user has no timer.
func (m *Manager) Skip(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.timers[userID]
	if !ok {
		return false
	}
	m.resolvePhase(userID, c)
	return true
}

// Cancel drops the countdown without any completion signal. Returns false
// if the user has none.
func (m *Manager) Cancel(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.timers[userID]; !ok {
		return false
	}
	delete(m.timers, userID)
	return true
}

// State reports the user's countdown. ok is false when none is running.
func (m *Manager) State(userID string) (TimerState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.timers[userID]
	if !ok {
		return TimerState{}, false
	}

	state := TimerState{
		Kind:         c.kind,
		Phase:        c.phases[c.current].name,
		RemainingSec: c.phases[c.current].remaining,
		Paused:       c.paused,
	}
	for _, p := range c.phases[c.current+1:] {
		state.UpcomingPhases = append(state.UpcomingPhases, p.name)
	}
	return state, true
}

// resolvePhase finishes the current phase and either advances to the next
// one or completes the countdown. Caller holds the lock.
func (m *Manager) resolvePhase(userID string, c *countdown) {
	done := c.phases[c.current].name
	m.signal(func(cue Cue) { cue.PhaseDone(userID, done) })

	c.current++
	if c.current < len(c.phases) {
		return
	}

	delete(m.timers, userID)
	m.signal(func(cue Cue) { cue.Finished(userID) })
}

func (m *Manager) signal(call func(Cue)) {
	if m.cue == nil {
		return
	}
	call(m.cue)
}
