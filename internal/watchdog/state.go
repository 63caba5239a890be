// Package watchdog detects sustained distraction from the observation stream.
package watchdog

import (
	"time"

	"github.com/iammorganparry/hyprcontext/internal/models"
)

type Status string

const (
	StatusFocused           Status = "focused"
	StatusWarning           Status = "warning"
	StatusAlertedDistracted Status = "alerted_distracted"
)

// State is the watchdog's full memory. It is a value; Transition never
// mutates its input.
type State struct {
	Status                      Status
	ConsecutiveDistractionCount int
	LastAlertTime               *time.Time
}

func InitialState() State {
	return State{Status: StatusFocused}
}

// Policy holds the configured thresholds.
type Policy struct {
	Threshold int
	Cooldown  time.Duration
}

// Alert is emitted when a distraction streak reaches the threshold.
type Alert struct {
	At          time.Time
	Count       int
	Tags        []string
	Application string
	WindowTitle string
	Description string
}

// Transition applies one observation to the state.
//
// A tagged observation extends the streak. Reaching the threshold moves to
// alerted_distracted and emits an alert, unless the watchdog was already
// alerted and the cooldown since the last alert has not passed. An untagged
// observation clears the streak.
func Transition(s State, obs models.Observation, now time.Time, p Policy) (State, *Alert) {
	if !obs.Distracted() {
		return State{Status: StatusFocused, LastAlertTime: s.LastAlertTime}, nil
	}

	next := State{
		ConsecutiveDistractionCount: s.ConsecutiveDistractionCount + 1,
		LastAlertTime:               s.LastAlertTime,
	}
	if next.ConsecutiveDistractionCount < p.Threshold {
		next.Status = StatusWarning
		return next, nil
	}

	next.Status = StatusAlertedDistracted
	if s.Status == StatusAlertedDistracted && s.LastAlertTime != nil && now.Sub(*s.LastAlertTime) < p.Cooldown {
		return next, nil
	}

	at := now
	next.LastAlertTime = &at
	return next, &Alert{
		At:          now,
		Count:       next.ConsecutiveDistractionCount,
		Tags:        append([]string(nil), obs.Tags...),
		Application: obs.ActiveApplication,
		WindowTitle: obs.WindowTitle,
		Description: obs.Description,
	}
}

// Snapshot converts the state for display.
func (s State) Snapshot(threshold int) models.WatchdogSnapshot {
	snap := models.WatchdogSnapshot{
		Status:                      string(s.Status),
		ConsecutiveDistractionCount: s.ConsecutiveDistractionCount,
		Threshold:                   threshold,
	}
	if s.LastAlertTime != nil {
		t := *s.LastAlertTime
		snap.LastAlertTime = &t
	}
	return snap
}
