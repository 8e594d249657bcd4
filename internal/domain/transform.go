package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTrack is returned when a report carries no track points.
var ErrEmptyTrack = errors.New("track has no points")

// ParseRawEvent deserializes a RawEvent's value into a StormTrack.
// It expects the TrackReport JSON produced by the collector service.
func ParseRawEvent(raw RawEvent) (StormTrack, error) {
	var rep TrackReport
	if err := json.Unmarshal(raw.Value, &rep); err != nil {
		return StormTrack{}, fmt.Errorf("parse raw event: %w", err)
	}
	if len(rep.Points) == 0 {
		return StormTrack{}, fmt.Errorf("parse raw event %q: %w", rep.StormID, ErrEmptyTrack)
	}

	points := make([]TrackPoint, 0, len(rep.Points))
	for _, p := range rep.Points {
		pressure := p.PressureMb
		if pressure < 0 { // -999: not reported
			pressure = 0
		}
		points = append(points, TrackPoint{
			Time:       p.Time.UTC(),
			Geo:        Geo{Lat: p.Lat, Lon: normalizeLon(p.Lon)},
			WindKt:     p.WindKt,
			PressureMb: pressure,
		})
	}

	basin := strings.ToUpper(strings.TrimSpace(rep.Basin))
	stormID := strings.ToUpper(strings.TrimSpace(rep.StormID))
	if stormID == "" {
		stormID = generateID(basin, rep.Name, rep.Season, points)
	}

	return StormTrack{
		ID:         stormID,
		Name:       strings.ToUpper(strings.TrimSpace(rep.Name)),
		Basin:      basin,
		Season:     rep.Season,
		Points:     points,
		RawPayload: raw.Value,
	}, nil
}

// normalizeLon wraps longitudes into [-180, 180). Some feeds report western
// longitudes as 180–360.
func normalizeLon(lon float64) float64 {
	for lon >= 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// generateID produces a deterministic ID for reports without an upstream
// storm identifier. Named storms hash basin|name|season, so a re-published
// report that adds or backfills fixes keeps its ID. Anonymous storms fall
// back to the earliest fix time, the only stable handle they have.
func generateID(basin, name string, season int, points []TrackPoint) string {
	earliest := points[0].Time
	for _, p := range points[1:] {
		if p.Time.Before(earliest) {
			earliest = p.Time
		}
	}
	if season == 0 {
		season = earliest.Year()
	}

	name = strings.ToUpper(strings.TrimSpace(name))
	input := fmt.Sprintf("%s|%s|%d", basin, name, season)
	if name == "" || name == "UNNAMED" {
		input = fmt.Sprintf("%s||%d|%s", basin, season, earliest.UTC().Format(time.RFC3339))
	}

	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if basin == "" {
		return short
	}
	return basin + "-" + short
}

// EnrichStormTrack classifies every fix, builds the intensity-tagged line
// segments, records the peak intensity and its position, derives the time
// span and season, and stamps the processing time.
func EnrichStormTrack(track StormTrack) StormTrack {
	for i := range track.Points {
		track.Points[i].Category = ClassifyWind(track.Points[i].WindKt)
	}
	track.Segments = Segments(track.Points)

	peak := peakPoint(track.Points)
	track.PeakWindKt = peak.WindKt
	track.PeakCategory = peak.Category
	track.PeakGeo = peak.Geo

	track.BeginTime, track.EndTime = timeSpan(track.Points)
	if track.Season == 0 && !track.BeginTime.IsZero() {
		track.Season = track.BeginTime.Year()
	}

	track.ProcessedAt = clock.Now()
	return track
}

// Segments converts n fixes into n-1 line segments. Each segment takes the
// wind and category of its starting fix. Fewer than two fixes yield nil.
func Segments(points []TrackPoint) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points)-1)
	for i := 0; i < len(points)-1; i++ {
		from := points[i]
		segs = append(segs, Segment{
			From:     from.Geo,
			To:       points[i+1].Geo,
			WindKt:   from.WindKt,
			Category: ClassifyWind(from.WindKt),
		})
	}
	return segs
}

// peakPoint returns the first fix with the highest wind. A track with no
// known wind reports CategoryUnknown at its first fix.
func peakPoint(points []TrackPoint) TrackPoint {
	if len(points) == 0 {
		return TrackPoint{Category: CategoryUnknown}
	}
	peak := points[0]
	for _, p := range points[1:] {
		if p.WindKt > peak.WindKt {
			peak = p
		}
	}
	peak.Category = ClassifyWind(peak.WindKt)
	return peak
}

// timeSpan returns the earliest and latest fix times, ignoring zero times.
func timeSpan(points []TrackPoint) (begin, end time.Time) {
	for _, p := range points {
		if p.Time.IsZero() {
			continue
		}
		if begin.IsZero() || p.Time.Before(begin) {
			begin = p.Time
		}
		if end.IsZero() || p.Time.After(end) {
			end = p.Time
		}
	}
	return begin, end
}

// SerializeStormTrack marshals a track into an OutputEvent keyed by its ID.
func SerializeStormTrack(track StormTrack) (OutputEvent, error) {
	data, err := json.Marshal(track)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize storm track: %w", err)
	}
	return OutputEvent{
		Key:   []byte(track.ID),
		Value: data,
		Headers: map[string]string{
			"peak_category": track.PeakCategory.String(),
			"processed_at":  track.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
