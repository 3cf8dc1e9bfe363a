// Package config handles configuration for the viewer: built-in defaults,
// an optional JSON overlay and command-line flags, applied in that order.
package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - TracksDir: directory holding *.tsv GPS tracks.
//   - RecordingsDir: root of the <domain>/<rtmpkey>/<ts>.mp4 tree.
//   - RootMarker: path segment after which domain and rtmpkey follow in
//     upload paths. Defaults to the last element of RecordingsDir.
//   - ProbeCacheDSN: SQLite DSN for cached media durations; empty disables it.
//   - ProbeTimeout: ceiling for a single duration probe.
//   - UploadTransport: "http" (URL template) or "s3" (presigned PUT).
//   - UploadURLTemplate: target URL with {domain}, {key} and {file} placeholders.
//   - UploadMethod: HTTP method used by the http transport.
//   - UploadChunkSize: bytes sent between progress updates.
//   - UploadTimeout: request timeout for one transfer.
//   - ProgressInterval: cadence of progress snapshots on a subscription.
//   - JobRetention / JobObservedGrace: eviction of finished upload jobs.
//   - S3*: S3-compatible backend used by the "s3" transport.
type Config struct {
	HTTPAddr          string
	TracksDir         string
	RecordingsDir     string
	RootMarker        string
	ProbeCacheDSN     string
	ProbeTimeout      time.Duration
	UploadTransport   string
	UploadURLTemplate string
	UploadMethod      string
	UploadChunkSize   int
	UploadTimeout     time.Duration
	ProgressInterval  time.Duration
	JobRetention      time.Duration
	JobObservedGrace  time.Duration
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	S3KeyPrefix       string
}

const (
	TransportHTTP = "http"
	TransportS3   = "s3"
)

// LoadDefaults populates Config with development defaults that match the
// streamerData layout used by the recorder.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "127.0.0.1:5001"
	c.TracksDir = filepath.Join("streamerData", "tracks")
	c.RecordingsDir = filepath.Join("streamerData", "recordings", "webcam")
	c.RootMarker = ""
	c.ProbeCacheDSN = filepath.Join("streamerData", "probe_cache.db")
	c.ProbeTimeout = 10 * time.Second
	c.UploadTransport = TransportHTTP
	c.UploadURLTemplate = "http://127.0.0.1:8080/recordings/{domain}/{key}/{file}"
	c.UploadMethod = "PUT"
	c.UploadChunkSize = 1 << 20
	c.UploadTimeout = 10 * time.Minute
	c.ProgressInterval = 200 * time.Millisecond
	c.JobRetention = 30 * time.Minute
	c.JobObservedGrace = time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "recordings"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3KeyPrefix = "webcam"
}

// Marker returns RootMarker, or the last element of RecordingsDir when unset.
func (c *Config) Marker() string {
	if c.RootMarker != "" {
		return c.RootMarker
	}
	return filepath.Base(filepath.Clean(c.RecordingsDir))
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
