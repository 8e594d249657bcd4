// Package domain models tropical-cyclone best-track data.
//
// # Data Source
//
// Track reports originate from best-track archives such as NOAA HURDAT2. The
// upstream collector groups the fixes of one storm into a single JSON
// document (see [TrackReport]) and publishes it to the Kafka source topic.
//
// # Conventions
//
// Wind:
//
//	Maximum sustained 1-minute wind in knots. -99 marks an unreported value
//	and classifies as unknown.
//
// Pressure:
//
//	Minimum central pressure in millibars. -999 marks an unreported value
//	and is stored as zero.
//
// Longitude:
//
//	Degrees east in [-180, 180). Feeds that report 0–360 are wrapped.
//
// # Intensity Bins
//
// Fixes are binned on the Saffir-Simpson scale by wind speed:
//
//	TD <34 kt | TS 34–63 | C1 64–82 | C2 83–95 | C3 96–112 | C4 113–136 | C5 ≥137
//
// # Segments
//
// A track of n fixes becomes n-1 line segments. Each segment carries the
// intensity of the fix it starts from, so a plotting client can draw the
// track as a sequence of intensity-tagged lines without further work.
//
// # ID Generation
//
// The upstream storm identifier (e.g. AL142018) is used when present.
// Otherwise the ID is a SHA-256 hash of basin|name|season, which keeps
// replays and re-publications of the same storm idempotent. Unnamed storms
// hash the earliest fix time instead. See [generateID].
package domain
