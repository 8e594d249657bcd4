package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/storm-attribution-service/internal/domain"
)

// TrackTransformer implements Transformer using domain transform functions
// with optional geocoding enrichment. Every successfully enriched track is
// offered to the tally before serialization.
type TrackTransformer struct {
	geocoder domain.Geocoder
	tally    *Tally
	logger   *slog.Logger
}

// NewTransformer creates a TrackTransformer. Pass a nil geocoder to disable
// geocoding enrichment and a nil tally to skip counting.
func NewTransformer(geocoder domain.Geocoder, tally *Tally, logger *slog.Logger) *TrackTransformer {
	return &TrackTransformer{
		geocoder: geocoder,
		tally:    tally,
		logger:   logger,
	}
}

func (t *TrackTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	track, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	track = domain.EnrichStormTrack(track)
	track = domain.EnrichWithGeocoding(ctx, track, t.geocoder, t.logger)

	if t.tally != nil {
		if period := t.tally.Record(track); period != "" {
			t.logger.Debug("extreme storm tallied",
				"storm_id", track.ID,
				"season", track.Season,
				"peak_category", track.PeakCategory.String(),
				"period", period,
			)
		}
	}

	return domain.SerializeStormTrack(track)
}
