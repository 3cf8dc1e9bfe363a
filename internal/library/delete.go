package library

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/streamviewer/internal/matching"
)

type Outcome string

const (
	// OutcomeComplete: the track and every matched video that existed are gone.
	OutcomeComplete Outcome = "complete"
	// OutcomePartialVideos: the track is gone, some videos could not be removed.
	OutcomePartialVideos Outcome = "partial_videos"
	// OutcomeVideosFailed: the track is gone, no matched video could be removed.
	OutcomeVideosFailed Outcome = "videos_failed"
	// OutcomeVideosUnknown: the track is gone, but the recordings could not be
	// listed, so none were touched.
	OutcomeVideosUnknown Outcome = "videos_unknown"
	// OutcomeTrackMissing: the track file was already gone before the call.
	OutcomeTrackMissing Outcome = "track_missing"
)

type FileResult struct {
	Path    string `json:"filepath"`
	Deleted bool   `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

type DeleteReport struct {
	TrackID       string       `json:"track_id"`
	TrackDeleted  bool         `json:"track_deleted"`
	VideosDeleted int          `json:"videos_deleted"`
	VideosFailed  int          `json:"videos_failed"`
	Videos        []FileResult `json:"videos"`
	Outcome       Outcome      `json:"outcome"`
	Message       string       `json:"message"`
}

// VideoDeleted reports whether at least one recording was removed.
func (r DeleteReport) VideoDeleted() bool {
	return r.VideosDeleted > 0
}

// DeleteTrack removes the track file and then every recording that
// overlaps it. If the track itself cannot be removed nothing else is
// touched and the error is returned. Once the track is gone the call
// reports through DeleteReport.Outcome rather than an error. Files that are
// already gone are not failures.
func (s *Service) DeleteTrack(ctx context.Context, id string) (DeleteReport, error) {
	summary, err := s.tracks.Find(ctx, id)
	if err != nil {
		return DeleteReport{}, err
	}

	report := DeleteReport{TrackID: id, Videos: []FileResult{}}

	switch err := s.remove(summary.Path); {
	case err == nil:
		report.TrackDeleted = true
	case isMissing(err):
		s.logger.Warn(ctx, "track file already gone", "path", summary.Path)
	default:
		s.logger.Error(ctx, "track delete failed", "path", summary.Path, "error", err)
		return DeleteReport{}, fmt.Errorf("delete track file: %w", err)
	}

	all, err := s.videos.Scan(ctx)
	if err != nil {
		s.logger.Error(ctx, "video scan failed after track removal", "track_id", id, "error", err)
		report.Outcome = OutcomeVideosUnknown
		report.Message = fmt.Sprintf("%s, but corresponding videos could not be listed: %v", trackPhrase(report.TrackDeleted), err)
		return report, nil
	}

	for _, v := range matching.ForTrack(summary, all) {
		err := s.remove(v.Path)
		switch {
		case err == nil:
			report.VideosDeleted++
			report.Videos = append(report.Videos, FileResult{Path: v.Path, Deleted: true})
		case isMissing(err):
		default:
			s.logger.Warn(ctx, "video delete failed", "path", v.Path, "error", err)
			report.VideosFailed++
			report.Videos = append(report.Videos, FileResult{Path: v.Path, Error: err.Error()})
		}
	}

	report.Outcome, report.Message = summarize(report.TrackDeleted, report.VideosDeleted, report.VideosFailed)
	s.logger.Info(ctx, "track deleted", "track_id", id, "videos_deleted", report.VideosDeleted, "videos_failed", report.VideosFailed)
	return report, nil
}

func trackPhrase(trackDeleted bool) string {
	if trackDeleted {
		return "Track deleted successfully"
	}
	return "Track file was already missing"
}

func summarize(trackDeleted bool, deleted, failed int) (Outcome, string) {
	if !trackDeleted {
		msg := fmt.Sprintf("%s; %d corresponding video(s) deleted", trackPhrase(false), deleted)
		if failed > 0 {
			msg += fmt.Sprintf(", %d video file(s) could not be deleted", failed)
		}
		return OutcomeTrackMissing, msg
	}

	switch {
	case failed > 0 && deleted == 0:
		return OutcomeVideosFailed, fmt.Sprintf("Track deleted successfully, but failed to delete %d corresponding video file(s)", failed)
	case failed > 0:
		return OutcomePartialVideos, fmt.Sprintf("Track deleted successfully along with %d video(s), but failed to delete %d video file(s)", deleted, failed)
	case deleted > 0:
		return OutcomeComplete, fmt.Sprintf("Track deleted successfully along with %d corresponding video(s)", deleted)
	default:
		return OutcomeComplete, "Track deleted successfully (no corresponding videos found)"
	}
}
