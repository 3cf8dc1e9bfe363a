package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []int64
	err  error
}

func (r *recorder) OnProgress(sent, total int64) error {
	r.sent = append(r.sent, sent)
	return r.err
}

func TestChunkReader_ReportsEveryChunk(t *testing.T) {
	data := bytes.Repeat([]byte{7}, 10*1024+5)
	rec := &recorder{}
	r := newChunkReader(context.Background(), bytes.NewReader(data), int64(len(data)), 1024, rec)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	want := []int64{}
	for i := int64(1); i <= 10; i++ {
		want = append(want, i*1024)
	}
	want = append(want, int64(len(data)))
	assert.Equal(t, want, rec.sent)
	assert.Equal(t, int64(len(data)), r.Sent())
}

func TestChunkReader_SmallReadsStillOneUpdatePerChunk(t *testing.T) {
	data := bytes.Repeat([]byte{1}, 4096)
	rec := &recorder{}
	r := newChunkReader(context.Background(), bytes.NewReader(data), 4096, 1024, rec)

	buf := make([]byte, 100)
	total := 0
	for {
		n, err := r.Read(buf)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, 4096, total)
	assert.Equal(t, []int64{1024, 2048, 3072, 4096}, rec.sent)
}

func TestChunkReader_Empty(t *testing.T) {
	rec := &recorder{}
	r := newChunkReader(context.Background(), bytes.NewReader(nil), 0, 1024, rec)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, rec.sent)
}

func TestChunkReader_CancelledBeforeFirstChunk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &recorder{}
	r := newChunkReader(ctx, bytes.NewReader([]byte("abc")), 3, 1024, rec)

	_, err := io.ReadAll(r)
	assert.ErrorIs(t, err, common.ErrorCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.sent)
}

func TestChunkReader_CancelStopsBeforeNextReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	data := bytes.Repeat([]byte{1}, 4096)

	rec := &recorder{}
	calls := 0
	l := ProgressFunc(func(sent, total int64) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return rec.OnProgress(sent, total)
	})
	r := newChunkReader(ctx, bytes.NewReader(data), 4096, 1024, l)

	_, err := io.ReadAll(r)
	assert.ErrorIs(t, err, common.ErrorCancelled)
	assert.Equal(t, []int64{1024, 2048}, rec.sent)

	// the reader stays failed
	_, err = r.Read(make([]byte, 10))
	assert.ErrorIs(t, err, common.ErrorCancelled)
}

func TestChunkReader_ListenerAbort(t *testing.T) {
	rec := &recorder{err: errors.New("stop")}
	r := newChunkReader(context.Background(), bytes.NewReader(make([]byte, 3000)), 3000, 1024, rec)
	_, err := io.ReadAll(r)
	assert.EqualError(t, err, "stop")
	assert.Len(t, rec.sent, 1)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestChunkReader_SourceError(t *testing.T) {
	r := newChunkReader(context.Background(), failingReader{}, 10, 1024, nil)
	_, err := io.ReadAll(r)
	assert.ErrorContains(t, err, "disk gone")
}
