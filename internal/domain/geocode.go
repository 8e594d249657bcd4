package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attempts to name the place nearest the track's peak
// intensity. If geocoder is nil the track is returned unchanged; on failure
// GeoSource records what happened (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, track StormTrack, geocoder Geocoder, logger *slog.Logger) StormTrack {
	if geocoder == nil {
		return track
	}

	if len(track.Points) == 0 {
		track.GeoSource = "original"
		return track
	}

	result, err := geocoder.ReverseGeocode(ctx, track.PeakGeo.Lat, track.PeakGeo.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"storm_id", track.ID,
			"lat", track.PeakGeo.Lat,
			"lon", track.PeakGeo.Lon,
			"error", err,
		)
		track.GeoSource = "failed"
		return track
	}
	if result.FormattedAddress != "" {
		track.FormattedAddress = result.FormattedAddress
		track.PlaceName = result.PlaceName
		track.GeoConfidence = result.Confidence
		track.GeoSource = "reverse"
		return track
	}

	// Open ocean: nothing nearby to name.
	track.GeoSource = "original"
	return track
}
