package domain

import (
	"context"
	"time"
)

// TrackReport is the JSON document published by the collector for one storm.
// Points are the best-track fixes in chronological order.
type TrackReport struct {
	StormID string          `json:"storm_id"`
	Name    string          `json:"name"`
	Basin   string          `json:"basin"`
	Season  int             `json:"season"`
	Points  []RawTrackPoint `json:"points"`
}

// RawTrackPoint is a single best-track fix as reported upstream.
// Missing wind or pressure values use the HURDAT sentinel -99 or -999.
type RawTrackPoint struct {
	Time       time.Time `json:"time"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	WindKt     float64   `json:"wind_kt"`
	PressureMb float64   `json:"pressure_mb"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TrackPoint is a classified best-track fix.
type TrackPoint struct {
	Time       time.Time `json:"time"`
	Geo        Geo       `json:"geo"`
	WindKt     float64   `json:"wind_kt"`
	PressureMb float64   `json:"pressure_mb,omitempty"`
	Category   Category  `json:"category"`
}

// Segment is the line between two consecutive fixes. It carries the
// intensity of the fix it starts from.
type Segment struct {
	From     Geo      `json:"from"`
	To       Geo      `json:"to"`
	WindKt   float64  `json:"wind_kt"`
	Category Category `json:"category"`
}

// StormTrack is the enriched representation of one storm.
type StormTrack struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Basin     string       `json:"basin,omitempty"`
	Season    int          `json:"season"`
	BeginTime time.Time    `json:"begin_time"`
	EndTime   time.Time    `json:"end_time"`
	Points    []TrackPoint `json:"points"`
	Segments  []Segment    `json:"segments"`

	PeakWindKt   float64  `json:"peak_wind_kt"`
	PeakCategory Category `json:"peak_category"`
	PeakGeo      Geo      `json:"peak_geo"`

	// Geocoding enrichment of the peak position.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
