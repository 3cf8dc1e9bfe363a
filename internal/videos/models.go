// Package videos indexes recordings stored as <root>/<domain>/<key>/<unix>.mp4.
package videos

// Summary describes one recording. DurationSeconds and EndTime are nil when
// the duration could not be determined; such a video is listed but never
// matched against a track.
type Summary struct {
	Name            string   `json:"filename"`
	Path            string   `json:"filepath"`
	Domain          string   `json:"domain"`
	Key             string   `json:"rtmpkey"`
	StartTime       int64    `json:"timestamp"`
	SizeBytes       int64    `json:"size"`
	DurationSeconds *float64 `json:"duration,omitempty"`
	EndTime         *float64 `json:"end_time,omitempty"`
}

// HasDuration reports whether the end of the recording is known.
func (s Summary) HasDuration() bool {
	return s.EndTime != nil
}

func (s *Summary) setDuration(seconds float64) {
	d := seconds
	end := float64(s.StartTime) + seconds
	s.DurationSeconds = &d
	s.EndTime = &end
}
