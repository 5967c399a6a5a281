package progress

import (
	"fmt"
	"time"
)

// Callback receives progress updates. fraction is in [0,1] and never
// decreases within one Tracker's lifetime.
type Callback func(fraction float64, status string)

// Tracker converts raw counters into clamped, monotonic progress updates
// with a naive linear ETA. A nil Tracker is valid and drops every update.
type Tracker struct {
	cb       Callback
	start    time.Time
	fraction float64
	now      func() time.Time // overridable in tests
}

func NewTracker(cb Callback) *Tracker {
	return &Tracker{cb: cb, start: time.Now(), now: time.Now}
}

// Update reports progress. Out-of-range fractions are clamped to [0,1];
// a fraction below the last reported one is raised to it, so observers see
// a non-decreasing sequence even from out-of-order signals.
func (t *Tracker) Update(fraction float64, status string) {
	if t == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if fraction < t.fraction {
		fraction = t.fraction
	}
	t.fraction = fraction
	if t.cb != nil {
		t.cb(fraction, status)
	}
}

// Complete reports the run as finished.
func (t *Tracker) Complete(message string) {
	t.Update(1.0, message)
}

// Fail reports a terminal failure without moving the fraction.
func (t *Tracker) Fail(message string) {
	if t == nil {
		return
	}
	if t.cb != nil {
		t.cb(t.fraction, "error: "+message)
	}
}

// Fraction returns the last reported fraction.
func (t *Tracker) Fraction() float64 {
	if t == nil {
		return 0
	}
	return t.fraction
}

// ETA extrapolates remaining time linearly from elapsed time and the
// processed/total ratio. ok is false while nothing has been processed.
func (t *Tracker) ETA(processed, total int) (time.Duration, bool) {
	if t == nil || processed <= 0 || total <= 0 {
		return 0, false
	}
	elapsed := t.now().Sub(t.start)
	remaining := time.Duration(float64(elapsed)*float64(total)/float64(processed)) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// FormatETA renders an ETA for a status line, or "unknown" when the
// extrapolation is undefined.
func FormatETA(d time.Duration, ok bool) string {
	if !ok {
		return "unknown"
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
