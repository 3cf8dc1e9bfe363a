package videos

import (
	"context"
	"fmt"
	"os"

	"github.com/abema/go-mp4"
)

// Prober reports the playback duration of a media file in seconds. ok is
// false when the duration is unknown for any reason.
type Prober interface {
	Duration(ctx context.Context, path string) (seconds float64, ok bool)
}

// MP4Prober reads the duration from the MP4 box headers. The video track
// duration is preferred; the movie header is the fallback.
type MP4Prober struct{}

func NewMP4Prober() *MP4Prober {
	return &MP4Prober{}
}

func (p *MP4Prober) Duration(ctx context.Context, path string) (float64, bool) {
	if ctx.Err() != nil {
		return 0, false
	}

	type outcome struct {
		seconds float64
		ok      bool
	}
	done := make(chan outcome, 1)
	go func() {
		s, err := probeFile(path)
		done <- outcome{s, err == nil}
	}()

	select {
	case <-ctx.Done():
		return 0, false
	case o := <-done:
		return o.seconds, o.ok
	}
}

func probeFile(path string) (seconds float64, err error) {
	// malformed boxes can make the decoder panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mp4 probe panic: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := mp4.Probe(f)
	if err != nil {
		return 0, err
	}
	return durationOf(info)
}

func durationOf(info *mp4.ProbeInfo) (float64, error) {
	for _, t := range info.Tracks {
		if t.Codec != mp4.CodecAVC1 {
			continue
		}
		if t.Timescale > 0 && t.Duration > 0 {
			return float64(t.Duration) / float64(t.Timescale), nil
		}
		break
	}
	if info.Timescale > 0 && info.Duration > 0 {
		return float64(info.Duration) / float64(info.Timescale), nil
	}
	return 0, fmt.Errorf("no duration in headers")
}
