package timer

import "fmt"

// TimerState is a snapshot of a running countdown.
type TimerState struct {
	Kind           string   `json:"kind"`
	Phase          string   `json:"phase"`
	RemainingSec   int      `json:"remaining_sec"`
	Paused         bool     `json:"paused"`
	UpcomingPhases []string `json:"upcoming_phases,omitempty"`
}

// StartTimerRequest starts a rest or exercise countdown.
type StartTimerRequest struct {
	Kind       string `json:"kind"`
	Seconds    int    `json:"seconds"`
	Unilateral bool   `json:"unilateral"`
}

// ValidateStartTimerRequest validates a timer start request. maxSeconds
// caps the countdown length; zero or negative means the default day cap.
func ValidateStartTimerRequest(req *StartTimerRequest, maxSeconds int) error {
	if maxSeconds <= 0 {
		maxSeconds = 24 * 60 * 60
	}
	if req.Kind != KindRest && req.Kind != KindExercise {
		return fmt.Errorf("kind must be rest or exercise")
	}
	if req.Seconds <= 0 {
		return fmt.Errorf("seconds must be positive")
	}
	if req.Seconds > maxSeconds {
		return fmt.Errorf("seconds too large: max %d", maxSeconds)
	}
	return nil
}
