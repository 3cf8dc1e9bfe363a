package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/flagx"
	"github.com/dmitrijs2005/streamviewer/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "200ms"-style strings or integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	TracksDir         string         `json:"tracks_dir"`
	RecordingsDir     string         `json:"recordings_dir"`
	RootMarker        string         `json:"root_marker"`
	ProbeCacheDSN     *string        `json:"probe_cache_dsn"`
	ProbeTimeout      timex.Duration `json:"probe_timeout"`
	UploadTransport   string         `json:"upload_transport"`
	UploadURLTemplate string         `json:"upload_url_template"`
	UploadMethod      string         `json:"upload_method"`
	UploadChunkSize   int            `json:"upload_chunk_size"`
	UploadTimeout     timex.Duration `json:"upload_timeout"`
	ProgressInterval  timex.Duration `json:"progress_interval"`
	JobRetention      timex.Duration `json:"job_retention"`
	JobObservedGrace  timex.Duration `json:"job_observed_grace"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	S3KeyPrefix       string         `json:"s3_key_prefix"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing is loaded. An unreadable or invalid file panics: the process
// cannot start with a config the operator did not intend.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	b, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(b, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.TracksDir, c.TracksDir)
	setString(&config.RecordingsDir, c.RecordingsDir)
	setString(&config.RootMarker, c.RootMarker)
	if c.ProbeCacheDSN != nil {
		config.ProbeCacheDSN = *c.ProbeCacheDSN
	}
	setDuration(&config.ProbeTimeout, c.ProbeTimeout)
	setString(&config.UploadTransport, c.UploadTransport)
	setString(&config.UploadURLTemplate, c.UploadURLTemplate)
	setString(&config.UploadMethod, c.UploadMethod)
	if c.UploadChunkSize > 0 {
		config.UploadChunkSize = c.UploadChunkSize
	}
	setDuration(&config.UploadTimeout, c.UploadTimeout)
	setDuration(&config.ProgressInterval, c.ProgressInterval)
	setDuration(&config.JobRetention, c.JobRetention)
	setDuration(&config.JobObservedGrace, c.JobObservedGrace)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3KeyPrefix, c.S3KeyPrefix)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
