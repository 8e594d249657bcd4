package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-attribution-service/internal/domain"
	"github.com/couchcryptid/storm-attribution-service/internal/observability"
)

// BatchExtractor fetches up to batchSize raw track reports from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns one raw track report into a segmented track event.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader publishes segmented track events to the sink.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline consumes track reports, segments them and publishes the result.
// Reports that fail to segment are acknowledged and dropped; a failed publish
// leaves the whole batch unacknowledged and retries after a backoff.
type Pipeline struct {
	source    BatchExtractor
	segmenter Transformer
	sink      BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	batchSize int

	published atomic.Bool
}

// New wires a Pipeline from its source, segmenter and sink.
func New(source BatchExtractor, segmenter Transformer, sink BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		source:    source,
		segmenter: segmenter,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// Ready reports whether at least one segmented track has been published.
func (p *Pipeline) Ready() bool {
	return p.published.Load()
}

// CheckReadiness reports an error until the first segmented track has been
// published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.published.Load() {
		return errors.New("no segmented tracks published yet")
	}
	return nil
}

// Run consumes track reports until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("track pipeline started", "reports_per_batch", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	r := newRetry()
	for ctx.Err() == nil {
		if !p.cycle(ctx, r) {
			break
		}
	}
	p.logger.Info("track pipeline stopped", "reason", context.Cause(ctx))
	return nil
}

// cycle fetches one batch of reports, segments it and publishes the result.
// It returns false once the pipeline should stop.
func (p *Pipeline) cycle(ctx context.Context, r *retry) bool {
	started := time.Now()

	reports, err := p.source.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("fetching track reports failed", "error", err, "retry_in", r.delay)
		return r.wait(ctx)
	}
	if len(reports) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ReportsConsumed.Add(float64(len(reports)))
	p.metrics.ReportBatchSize.Observe(float64(len(reports)))
	r.reset()

	batch := p.segment(ctx, reports)
	if len(batch.tracks) == 0 {
		return true
	}

	if err := p.sink.LoadBatch(ctx, batch.tracks); err != nil {
		p.logger.Error("publishing segmented tracks failed",
			"error", err,
			"tracks", len(batch.tracks),
			"first_storm", string(batch.tracks[0].Key),
			"retry_in", r.delay,
		)
		return r.wait(ctx)
	}

	p.metrics.TracksPublished.Add(float64(len(batch.tracks)))
	for _, raw := range batch.reports {
		p.ack(ctx, raw)
	}
	p.metrics.BatchCycleDuration.Observe(time.Since(started).Seconds())
	p.published.Store(true)
	p.logger.Debug("segmented tracks published", "tracks", len(batch.tracks), "dropped", batch.dropped)
	return true
}

// trackBatch pairs each segmented track with the report it came from, so
// reports are acknowledged only after their tracks are published.
type trackBatch struct {
	tracks  []domain.OutputEvent
	reports []domain.RawEvent
	dropped int
}

// segment transforms every report in the batch. Malformed reports are
// acknowledged straight away so they are not redelivered.
func (p *Pipeline) segment(ctx context.Context, reports []domain.RawEvent) trackBatch {
	batch := trackBatch{
		tracks:  make([]domain.OutputEvent, 0, len(reports)),
		reports: make([]domain.RawEvent, 0, len(reports)),
	}
	for _, raw := range reports {
		track, err := p.segmenter.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("dropping malformed track report",
				"error", err,
				"storm_key", string(raw.Key),
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.MalformedReports.Inc()
			batch.dropped++
			p.ack(ctx, raw)
			continue
		}
		batch.tracks = append(batch.tracks, track)
		batch.reports = append(batch.reports, raw)
	}
	return batch
}

// ack commits the report's offset when the source supplied a commit hook.
func (p *Pipeline) ack(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("acknowledging track report failed",
			"error", err,
			"storm_key", string(raw.Key),
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
	}
}

// Fetch and publish failures back off exponentially from 200ms up to 5s.
const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

type retry struct {
	delay time.Duration
	limit time.Duration
}

func newRetry() *retry {
	return &retry{delay: initialBackoff, limit: maxBackoff}
}

func (r *retry) reset() {
	r.delay = initialBackoff
}

// wait sleeps for the current delay and doubles it, capped at the limit.
// It returns false if ctx is cancelled first.
func (r *retry) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	r.delay = min(r.delay*2, r.limit)
	return true
}
