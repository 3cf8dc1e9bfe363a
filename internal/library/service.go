// Package library combines the track and video catalogs into the views the
// HTTP layer serves, and owns deletion of a track with its recordings.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/filex"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
	"github.com/dmitrijs2005/streamviewer/internal/matching"
	"github.com/dmitrijs2005/streamviewer/internal/tracks"
	"github.com/dmitrijs2005/streamviewer/internal/videos"
)

type TrackCatalog interface {
	Scan(ctx context.Context) ([]tracks.Summary, error)
	Find(ctx context.Context, id string) (tracks.Summary, error)
}

type VideoCatalog interface {
	Scan(ctx context.Context) ([]videos.Summary, error)
}

type TrackParser interface {
	Parse(ctx context.Context, path string) ([]tracks.Coordinate, error)
}

// TrackView is everything needed to replay one track.
type TrackView struct {
	Track       tracks.Summary      `json:"track"`
	Coordinates []tracks.Coordinate `json:"coordinates"`
	Geometry    tracks.Geometry     `json:"geometry"`
	Videos      []videos.Summary    `json:"videos"`
}

type Service struct {
	tracks TrackCatalog
	videos VideoCatalog
	parser TrackParser
	remove func(path string) error
	logger logging.Logger
}

func NewService(tc TrackCatalog, vc VideoCatalog, p TrackParser, logger logging.Logger) *Service {
	return &Service{
		tracks: tc,
		videos: vc,
		parser: p,
		remove: filex.RemoveDurable,
		logger: logger.With("module", "library"),
	}
}

func (s *Service) Tracks(ctx context.Context) ([]tracks.Summary, error) {
	return s.tracks.Scan(ctx)
}

func (s *Service) Videos(ctx context.Context) ([]videos.Summary, error) {
	return s.videos.Scan(ctx)
}

// Track loads the coordinates of id and the recordings overlapping it.
func (s *Service) Track(ctx context.Context, id string) (TrackView, error) {
	summary, err := s.tracks.Find(ctx, id)
	if err != nil {
		return TrackView{}, err
	}

	coords, err := s.parser.Parse(ctx, summary.Path)
	if err != nil {
		return TrackView{}, err
	}
	if len(coords) == 0 {
		return TrackView{}, fmt.Errorf("track %q: %w", id, common.ErrorEmptyTrack)
	}

	all, err := s.videos.Scan(ctx)
	if err != nil {
		return TrackView{}, fmt.Errorf("scan videos: %w", err)
	}

	matched := matching.ForTrack(summary, all)
	if matched == nil {
		matched = []videos.Summary{}
	}
	return TrackView{
		Track:       summary,
		Coordinates: coords,
		Geometry:    tracks.GeometryOf(coords),
		Videos:      matched,
	}, nil
}

// MatchedVideos returns the recordings overlapping track id.
func (s *Service) MatchedVideos(ctx context.Context, id string) ([]videos.Summary, error) {
	summary, err := s.tracks.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.videos.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan videos: %w", err)
	}
	matched := matching.ForTrack(summary, all)
	if matched == nil {
		matched = []videos.Summary{}
	}
	return matched, nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
