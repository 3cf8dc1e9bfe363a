// Package netx streams recordings to an HTTP endpoint.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
)

// maxResponseBody caps how much of the remote answer is kept.
const maxResponseBody = 1 << 20

// StatusError is a transfer the remote end answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upload failed: %s", e.Status)
	}
	return fmt.Sprintf("upload failed: %s; body: %s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == common.ErrorTransferFailed
}

// HTTPTransport sends the body in a single request to Target.URL.
type HTTPTransport struct {
	client *http.Client
	method string
}

// NewHTTPTransport returns a transport issuing method requests (PUT when
// empty) bounded by timeout (no bound when zero).
func NewHTTPTransport(method string, timeout time.Duration) *HTTPTransport {
	if method == "" {
		method = http.MethodPut
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		method: method,
	}
}

var _ upload.Transport = (*HTTPTransport)(nil)

func (t *HTTPTransport) Send(ctx context.Context, target upload.Target, body io.Reader, size int64) (*upload.Result, error) {
	req, err := http.NewRequestWithContext(ctx, t.method, target.URL, io.NopCloser(body))
	if err != nil {
		return nil, err
	}
	req.ContentLength = size
	if size == 0 {
		req.Body = http.NoBody
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorTransferFailed, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", common.ErrorTransferFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	return &upload.Result{StatusCode: resp.StatusCode, Body: b}, nil
}
