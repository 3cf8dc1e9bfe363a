// Package matching decides which recordings overlap a track in time.
package matching

import (
	"sort"

	"github.com/dmitrijs2005/streamviewer/internal/tracks"
	"github.com/dmitrijs2005/streamviewer/internal/videos"
)

// Match returns the videos whose [StartTime, EndTime) interval shares at
// least one instant with [trackStart, trackEnd), ordered by StartTime
// ascending. Touching endpoints do not count. Videos with an unknown end are
// never returned. The input slice is left untouched.
func Match(trackStart, trackEnd int64, all []videos.Summary) []videos.Summary {
	result := []videos.Summary{}
	ts, te := float64(trackStart), float64(trackEnd)

	for _, v := range all {
		if v.EndTime == nil {
			continue
		}
		lo := max(ts, float64(v.StartTime))
		hi := min(te, *v.EndTime)
		if lo < hi {
			result = append(result, v)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].Path < result[j].Path
	})
	return result
}

// ForTrack matches against the span of a track summary. A track without
// coordinates has no span and matches nothing.
func ForTrack(track tracks.Summary, all []videos.Summary) []videos.Summary {
	start, end, ok := track.Span()
	if !ok {
		return nil
	}
	return Match(start, end, all)
}
