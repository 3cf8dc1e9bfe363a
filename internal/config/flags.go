package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., "127.0.0.1:5001")
//	-t string   tracks directory
//	-r string   recordings root (<domain>/<rtmpkey>/<ts>.mp4 lives below it)
//	-m string   root marker used to resolve domain/rtmpkey of upload paths
//	-d string   probe cache SQLite DSN ("" disables the cache)
//	-x string   upload transport: http or s3
//	-l string   upload URL template
//	-k int      upload chunk size, KiB
//	-o int      upload request timeout, minutes
//	-i int      progress stream interval, milliseconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-t", "-r", "-m", "-d", "-x", "-l", "-k", "-o", "-i", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.TracksDir, "t", config.TracksDir, "tracks directory")
	fs.StringVar(&config.RecordingsDir, "r", config.RecordingsDir, "recordings root directory")
	fs.StringVar(&config.RootMarker, "m", config.RootMarker, "root marker for upload paths")
	fs.StringVar(&config.ProbeCacheDSN, "d", config.ProbeCacheDSN, "probe cache DSN")
	fs.StringVar(&config.UploadTransport, "x", config.UploadTransport, "upload transport (http|s3)")
	fs.StringVar(&config.UploadURLTemplate, "l", config.UploadURLTemplate, "upload URL template")

	chunkKiB := fs.Int("k", config.UploadChunkSize/1024, "upload chunk size (in KiB)")
	uploadTimeout := fs.Int("o", int(config.UploadTimeout.Minutes()), "upload timeout (in minutes)")
	progressInterval := fs.Int("i", int(config.ProgressInterval.Milliseconds()), "progress interval (in milliseconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// unit-converted flags apply only when given
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "k":
			if *chunkKiB > 0 {
				config.UploadChunkSize = *chunkKiB * 1024
			}
		case "o":
			if *uploadTimeout > 0 {
				config.UploadTimeout = time.Duration(*uploadTimeout) * time.Minute
			}
		case "i":
			if *progressInterval > 0 {
				config.ProgressInterval = time.Duration(*progressInterval) * time.Millisecond
			}
		}
	})
}
