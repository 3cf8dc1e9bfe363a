package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/streamviewer/internal/common"
)

// DefaultChunkSize is the unit of progress reporting.
const DefaultChunkSize = 1 << 20

// ProgressListener is told how many bytes the transport has consumed after
// every chunk. A non-nil error aborts the transfer.
type ProgressListener interface {
	OnProgress(sent, total int64) error
}

// ProgressFunc adapts a function to ProgressListener.
type ProgressFunc func(sent, total int64) error

func (f ProgressFunc) OnProgress(sent, total int64) error { return f(sent, total) }

// chunkReader hands src to a transport one chunk at a time. Cancellation is
// checked before a chunk is loaded and again before progress for a fully
// consumed chunk is reported.
type chunkReader struct {
	ctx      context.Context
	src      io.Reader
	total    int64
	listener ProgressListener

	buf  []byte
	pos  int
	sent int64
	eof  bool
	err  error
}

func newChunkReader(ctx context.Context, src io.Reader, total int64, chunkSize int, l ProgressListener) *chunkReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &chunkReader{
		ctx:      ctx,
		src:      src,
		total:    total,
		listener: l,
		buf:      make([]byte, 0, chunkSize),
	}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	if r.pos == len(r.buf) {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.checkCancel(); err != nil {
			return 0, err
		}
		if err := r.load(); err != nil {
			return 0, r.fail(err)
		}
		if len(r.buf) == 0 {
			return 0, io.EOF
		}
	}

	n := copy(p, r.buf[r.pos:])
	r.pos += n

	if r.pos == len(r.buf) {
		r.sent += int64(len(r.buf))
		if err := r.checkCancel(); err != nil {
			return n, err
		}
		if r.listener != nil {
			if err := r.listener.OnProgress(r.sent, r.total); err != nil {
				return n, r.fail(err)
			}
		}
	}
	return n, nil
}

func (r *chunkReader) load() error {
	r.buf = r.buf[:cap(r.buf)]
	n, err := io.ReadFull(r.src, r.buf)
	r.buf = r.buf[:n]
	r.pos = 0
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.eof = true
		return nil
	default:
		return fmt.Errorf("read source: %w", err)
	}
}

func (r *chunkReader) checkCancel() error {
	if err := r.ctx.Err(); err != nil {
		return r.fail(fmt.Errorf("%w: %w", common.ErrorCancelled, err))
	}
	return nil
}

func (r *chunkReader) fail(err error) error {
	r.err = err
	return err
}

// Sent returns the bytes of all fully consumed chunks.
func (r *chunkReader) Sent() int64 {
	return r.sent
}
