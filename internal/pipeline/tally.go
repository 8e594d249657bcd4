package pipeline

import (
	"sync"

	"github.com/couchcryptid/storm-attribution-service/internal/attribution"
	"github.com/couchcryptid/storm-attribution-service/internal/domain"
	"github.com/couchcryptid/storm-attribution-service/internal/observability"
)

const (
	periodBaseline   = "baseline"
	periodComparison = "comparison"
	periodOutside    = "outside"
)

// Window splits seasons into a baseline [Start, Split) and a comparison
// [Split, End) period.
type Window struct {
	Start int
	Split int
	End   int
}

func (w Window) period(season int) string {
	switch {
	case season >= w.Start && season < w.Split:
		return periodBaseline
	case season >= w.Split && season < w.End:
		return periodComparison
	default:
		return periodOutside
	}
}

// Tally counts distinct storms whose peak intensity reaches the extreme
// category, split by period. It is safe for concurrent use.
//
// Counting is at-least-once with respect to the sink: the transformer
// records a track before its batch is loaded, so a storm stays counted even
// if that load fails. Redelivery of the same report is absorbed by the
// storm-ID dedup, so the observation never counts a storm twice.
type Tally struct {
	window  Window
	extreme domain.Category
	metrics *observability.Metrics

	mu         sync.Mutex
	seen       map[string]struct{}
	baseline   int
	comparison int
}

// NewTally creates an empty Tally.
func NewTally(window Window, extreme domain.Category, metrics *observability.Metrics) *Tally {
	return &Tally{
		window:  window,
		extreme: extreme,
		metrics: metrics,
		seen:    make(map[string]struct{}),
	}
}

// Record counts track if it is extreme and has not been counted before.
// A storm that is re-published with a stronger peak is counted once it first
// qualifies. Returns the period the track fell into, or "" if it was ignored.
func (t *Tally) Record(track domain.StormTrack) string {
	if track.PeakCategory < t.extreme {
		return ""
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.seen[track.ID]; dup {
		return ""
	}
	t.seen[track.ID] = struct{}{}

	period := t.window.period(track.Season)
	switch period {
	case periodBaseline:
		t.baseline++
	case periodComparison:
		t.comparison++
	}
	t.metrics.TracksTallied.WithLabelValues(period).Inc()
	return period
}

// Observation returns the current counts with period lengths in seasons.
func (t *Tally) Observation() attribution.Observation {
	t.mu.Lock()
	defer t.mu.Unlock()

	return attribution.Observation{
		Baseline:   float64(t.baseline),
		Comparison: float64(t.comparison),
		Periods: attribution.Periods{
			Baseline:   float64(t.window.Split - t.window.Start),
			Comparison: float64(t.window.End - t.window.Split),
		},
	}
}
