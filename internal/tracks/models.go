// Package tracks indexes and parses GPS track files.
//
// A track file is TSV: optional "#" comment lines, at most one header line
// starting with "timestamp", then data lines
//
//	timestamp \t lat \t lon [\t altitude [\t accuracy [\t altitudeAccuracy [\t heading [\t speed]]]]]
//
// Optional columns may be empty, meaning absent.
package tracks

import "time"

// Coordinate is one parsed data line. Optional values are nil when the
// column is missing or empty.
type Coordinate struct {
	Timestamp        int64    `json:"timestamp"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Altitude         *float64 `json:"altitude"`
	Accuracy         *float64 `json:"accuracy"`
	AltitudeAccuracy *float64 `json:"altitudeAccuracy"`
	Heading          *float64 `json:"heading"`
	Speed            *float64 `json:"speed"`
}

// Summary is the catalog entry of a track, built by scanning the file
// rather than keeping its coordinates.
type Summary struct {
	ID         string    `json:"track_id"`
	Path       string    `json:"filepath"`
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"modified"`
	SizeBytes  int64     `json:"size"`
	PointCount int       `json:"coord_count"`
	StartTime  *int64    `json:"start_time"`
	EndTime    *int64    `json:"end_time"`
	// Duration is EndTime - StartTime in seconds, 0 when either is unknown.
	Duration   int64     `json:"duration"`
}

// Span reports the track's [start, end] timestamps and whether both are known.
func (s Summary) Span() (int64, int64, bool) {
	if s.StartTime == nil || s.EndTime == nil {
		return 0, 0, false
	}
	return *s.StartTime, *s.EndTime, true
}
