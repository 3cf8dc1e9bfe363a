// Package common defines sentinel errors shared by the catalog, upload and
// HTTP layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Lookup errors (unknown track id, unknown or evicted upload job).
	ErrorNotFound = errors.New("not found")

	// Track file errors. A malformed line is recovered by skipping the line,
	// a read failure by skipping the file.
	ErrorMalformedLine = errors.New("malformed line")
	ErrorFileRead      = errors.New("file read failure")
	ErrorEmptyTrack    = errors.New("no coordinate data in track")

	// Upload errors.
	ErrorPathFormatInvalid = errors.New("path format invalid")
	ErrorTransferFailed    = errors.New("transfer failed")
	ErrorCancelled         = errors.New("cancelled by user")
)
