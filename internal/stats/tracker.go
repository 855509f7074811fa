// Package stats keeps the process-wide prediction counters. Nothing is
// persisted; counters start from zero on every launch.
package stats

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Brownie44l1/mri-tumor-api/internal/model"
)

// Snapshot is a point-in-time copy of the tracker state.
type Snapshot struct {
	TotalPredictions   uint64                 `json:"total_predictions"`
	PredictionsToday   uint64                 `json:"predictions_today"`
	LastPredictionTime *time.Time             `json:"last_prediction_time"`
	ClassDistribution  map[model.Class]uint64 `json:"class_distribution"`
}

// MarshalJSON renders the last prediction time as ISO-8601 or null.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	var last *string
	if s.LastPredictionTime != nil {
		formatted := FormatTime(*s.LastPredictionTime)
		last = &formatted
	}
	return json.Marshal(struct {
		alias
		LastPredictionTime *string `json:"last_prediction_time"`
	}{alias: alias(s), LastPredictionTime: last})
}

// FormatTime is the ISO-8601 form used in every JSON payload.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000Z07:00")
}

// Tracker counts successful predictions.
type Tracker struct {
	mu           sync.Mutex
	now          func() time.Time
	total        uint64
	today        uint64
	last         time.Time
	distribution map[model.Class]uint64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:          time.Now,
		distribution: make(map[model.Class]uint64, len(model.Classes)),
	}
	for _, c := range model.Classes {
		t.distribution[c] = 0
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Update records one prediction of class c. The daily counter restarts at 1
// the first time it is called on a calendar day later than the previous
// prediction.
func (t *Tracker) Update(c model.Class) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.total++
	if t.last.IsZero() || dateOf(t.last).Before(dateOf(now)) {
		t.today = 1
	} else {
		t.today++
	}
	t.last = now
	t.distribution[c]++
}

func dateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// Snapshot copies the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	dist := make(map[model.Class]uint64, len(t.distribution))
	for k, v := range t.distribution {
		dist[k] = v
	}
	snap := Snapshot{
		TotalPredictions:  t.total,
		PredictionsToday:  t.today,
		ClassDistribution: dist,
	}
	if !t.last.IsZero() {
		last := t.last
		snap.LastPredictionTime = &last
	}
	return snap
}

// Total returns the number of predictions recorded so far.
func (t *Tracker) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Today returns the daily counter as last updated.
func (t *Tracker) Today() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.today
}
