package netx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Send(t *testing.T) {
	file := []byte("hello, recording")

	t.Run("success", func(t *testing.T) {
		var gotBody []byte
		var gotCT, gotMethod, gotPath string
		var gotLen int64

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			gotCT = r.Header.Get("Content-Type")
			gotLen = r.ContentLength
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		}))
		defer ts.Close()

		tr := NewHTTPTransport("", time.Second)
		res, err := tr.Send(context.Background(), upload.Target{URL: ts.URL + "/d/k/1.mp4"}, bytes.NewReader(file), int64(len(file)))
		require.NoError(t, err)

		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/d/k/1.mp4", gotPath)
		assert.Equal(t, "application/octet-stream", gotCT)
		assert.Equal(t, int64(len(file)), gotLen)
		assert.Equal(t, file, gotBody)
		assert.Equal(t, &upload.Result{StatusCode: http.StatusCreated, Body: []byte(`{"id":"abc"}`)}, res)
	})

	t.Run("configured method", func(t *testing.T) {
		var gotMethod string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			_, _ = io.Copy(io.Discard, r.Body)
		}))
		defer ts.Close()

		_, err := NewHTTPTransport(http.MethodPost, time.Second).
			Send(context.Background(), upload.Target{URL: ts.URL}, bytes.NewReader(file), int64(len(file)))
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, gotMethod)
	})

	t.Run("non-2xx", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("signature mismatch"))
		}))
		defer ts.Close()

		_, err := NewHTTPTransport("", time.Second).
			Send(context.Background(), upload.Target{URL: ts.URL}, bytes.NewReader(file), int64(len(file)))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrorTransferFailed)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusForbidden, se.StatusCode)
		assert.Equal(t, "signature mismatch", se.Body)
		assert.Contains(t, err.Error(), "upload failed: 403")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		_, err := NewHTTPTransport("", time.Second).
			Send(context.Background(), upload.Target{URL: ts.URL}, bytes.NewReader(file), int64(len(file)))
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrorTransferFailed)
		var se *StatusError
		assert.False(t, errors.As(err, &se))
	})

	t.Run("response body capped", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = w.Write([]byte(strings.Repeat("a", maxResponseBody+100)))
		}))
		defer ts.Close()

		res, err := NewHTTPTransport("", time.Second).
			Send(context.Background(), upload.Target{URL: ts.URL}, bytes.NewReader(nil), 0)
		require.NoError(t, err)
		assert.Len(t, res.Body, maxResponseBody)
	})
}

type erroringBody struct{ err error }

func (b erroringBody) Read([]byte) (int, error) { return 0, b.err }

func TestHTTPTransport_BodyErrorAborts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))
	defer ts.Close()

	_, err := NewHTTPTransport("", time.Second).
		Send(context.Background(), upload.Target{URL: ts.URL}, erroringBody{common.ErrorCancelled}, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorCancelled)
}

func TestHTTPTransport_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	_, err := NewHTTPTransport("", 50*time.Millisecond).
		Send(context.Background(), upload.Target{URL: ts.URL}, bytes.NewReader([]byte("x")), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorTransferFailed)
}
