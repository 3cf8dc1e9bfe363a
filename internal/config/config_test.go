package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:5001", c.HTTPAddr)
	assert.Equal(t, filepath.Join("streamerData", "tracks"), c.TracksDir)
	assert.Equal(t, filepath.Join("streamerData", "recordings", "webcam"), c.RecordingsDir)
	assert.Equal(t, TransportHTTP, c.UploadTransport)
	assert.Equal(t, "PUT", c.UploadMethod)
	assert.Equal(t, 1<<20, c.UploadChunkSize)
	assert.Equal(t, 10*time.Minute, c.UploadTimeout)
	assert.Equal(t, 200*time.Millisecond, c.ProgressInterval)
	assert.Equal(t, 10*time.Second, c.ProbeTimeout)
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestMarker(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, "webcam", c.Marker())

	c.RecordingsDir = filepath.Join("data", "recordings", "cams") + string(filepath.Separator)
	assert.Equal(t, "cams", c.Marker())

	c.RootMarker = "explicit"
	assert.Equal(t, "explicit", c.Marker())
}

func TestLoadConfig_UsesDefaultsWithoutArgs(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"streamviewer"}

	c := LoadConfig()
	require.NotNil(t, c)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *c)
}

func TestLoadConfig_JSONSurvivesWithoutFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	path := writeTempJSON(t, map[string]any{
		"upload_timeout":    "90s",
		"upload_chunk_size": 1536,
		"progress_interval": "1500us",
	})
	os.Args = []string{"streamviewer", "-c", path}

	c := LoadConfig()
	assert.Equal(t, 90*time.Second, c.UploadTimeout)
	assert.Equal(t, 1536, c.UploadChunkSize)
	assert.Equal(t, 1500*time.Microsecond, c.ProgressInterval)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	path := writeTempJSON(t, map[string]any{
		"upload_timeout":    "90s",
		"upload_chunk_size": 1536,
	})
	os.Args = []string{"streamviewer", "-c", path, "-o", "5"}

	c := LoadConfig()
	assert.Equal(t, 5*time.Minute, c.UploadTimeout)
	assert.Equal(t, 1536, c.UploadChunkSize)
}
