package videos

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/abema/go-mp4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMovie writes a minimal ftyp+moov/mvhd file with the given movie
// header timescale and duration.
func writeMovie(t *testing.T, path string, timescale, duration uint32) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := mp4.NewWriter(f)

	_, err = w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeFtyp()})
	require.NoError(t, err)
	_, err = mp4.Marshal(w, &mp4.Ftyp{
		MajorBrand:   [4]byte{'i', 's', 'o', 'm'},
		MinorVersion: 0x200,
		CompatibleBrands: []mp4.CompatibleBrandElem{
			{CompatibleBrand: [4]byte{'i', 's', 'o', 'm'}},
		},
	}, mp4.Context{})
	require.NoError(t, err)
	_, err = w.EndBox()
	require.NoError(t, err)

	_, err = w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMoov()})
	require.NoError(t, err)
	_, err = w.StartBox(&mp4.BoxInfo{Type: mp4.BoxTypeMvhd()})
	require.NoError(t, err)
	_, err = mp4.Marshal(w, &mp4.Mvhd{
		Timescale:   timescale,
		DurationV0:  duration,
		Rate:        0x00010000,
		Volume:      0x0100,
		NextTrackID: 1,
	}, mp4.Context{})
	require.NoError(t, err)
	_, err = w.EndBox()
	require.NoError(t, err)
	_, err = w.EndBox()
	require.NoError(t, err)
}

func TestMP4Prober_MovieHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1700000000.mp4")
	writeMovie(t, path, 1000, 12500)

	seconds, ok := NewMP4Prober().Duration(context.Background(), path)
	require.True(t, ok)
	assert.InDelta(t, 12.5, seconds, 1e-9)
}

func TestMP4Prober_Unknown(t *testing.T) {
	dir := t.TempDir()
	p := NewMP4Prober()

	garbage := filepath.Join(dir, "garbage.mp4")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a movie"), 0o644))
	_, ok := p.Duration(context.Background(), garbage)
	assert.False(t, ok)

	_, ok = p.Duration(context.Background(), filepath.Join(dir, "absent.mp4"))
	assert.False(t, ok)

	zero := filepath.Join(dir, "zero.mp4")
	writeMovie(t, zero, 1000, 0)
	_, ok = p.Duration(context.Background(), zero)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	movie := filepath.Join(dir, "movie.mp4")
	writeMovie(t, movie, 1000, 1000)
	_, ok = p.Duration(ctx, movie)
	assert.False(t, ok)
}

func TestDurationOf(t *testing.T) {
	tests := []struct {
		name    string
		info    *mp4.ProbeInfo
		want    float64
		wantErr bool
	}{
		{
			name: "video track wins",
			info: &mp4.ProbeInfo{
				Timescale: 1000, Duration: 99_000,
				Tracks: mp4.Tracks{
					{Codec: mp4.CodecMP4A, Timescale: 48000, Duration: 48000 * 7},
					{Codec: mp4.CodecAVC1, Timescale: 90000, Duration: 90000 * 30},
				},
			},
			want: 30,
		},
		{
			name: "movie header fallback",
			info: &mp4.ProbeInfo{
				Timescale: 600, Duration: 600 * 4,
				Tracks:    mp4.Tracks{{Codec: mp4.CodecAVC1}},
			},
			want: 4,
		},
		{
			name:    "nothing usable",
			info:    &mp4.ProbeInfo{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := durationOf(tt.info)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
