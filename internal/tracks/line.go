package tracks

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/streamviewer/internal/common"
)

const (
	commentPrefix = "#"
	headerPrefix  = "timestamp"
	maxLineBytes  = 1 << 20
)

// scanLines feeds every well-formed data line of r to onData, in file order.
// Malformed lines, including lines longer than maxLineBytes, go to onSkip
// (may be nil) and never stop the scan. The returned error is a read failure
// of r itself.
func scanLines(r io.Reader, onData func(Coordinate), onSkip func(lineNo int, err error)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	skip := func(lineNo int, err error) {
		if onSkip != nil {
			onSkip(lineNo, err)
		}
	}

	headerSeen := false
	lineNo := 0
	for {
		raw, tooLong, rerr := readLine(br)
		if rerr != nil && rerr != io.EOF {
			return fmt.Errorf("%w: %w", common.ErrorFileRead, rerr)
		}
		if rerr == io.EOF && len(raw) == 0 && !tooLong {
			return nil
		}
		lineNo++

		switch line := strings.TrimSpace(string(raw)); {
		case tooLong:
			skip(lineNo, fmt.Errorf("%w: longer than %d bytes", common.ErrorMalformedLine, maxLineBytes))
		case line == "" || strings.HasPrefix(line, commentPrefix):
		case !headerSeen && strings.HasPrefix(line, headerPrefix):
			headerSeen = true
		default:
			c, err := parseLine(line)
			if err != nil {
				skip(lineNo, err)
				break
			}
			onData(c)
		}

		if rerr == io.EOF {
			return nil
		}
	}
}

// readLine returns the next line of br including its newline. A line that
// grows past maxLineBytes is consumed to its end and reported as tooLong
// with no content.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineBytes+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}

// parseLine parses one data line. Any field that is present but does not
// parse rejects the whole line.
func parseLine(line string) (Coordinate, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 {
		return Coordinate{}, fmt.Errorf("%w: %d fields", common.ErrorMalformedLine, len(parts))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: timestamp: %w", common.ErrorMalformedLine, err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude: %w", common.ErrorMalformedLine, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude: %w", common.ErrorMalformedLine, err)
	}

	c := Coordinate{Timestamp: ts, Latitude: lat, Longitude: lon}
	optional := []**float64{&c.Altitude, &c.Accuracy, &c.AltitudeAccuracy, &c.Heading, &c.Speed}
	for i, dst := range optional {
		v, err := optionalField(parts, 3+i)
		if err != nil {
			return Coordinate{}, fmt.Errorf("%w: column %d: %w", common.ErrorMalformedLine, 3+i, err)
		}
		*dst = v
	}
	return c, nil
}

func optionalField(parts []string, idx int) (*float64, error) {
	if idx >= len(parts) {
		return nil, nil
	}
	s := strings.TrimSpace(parts[idx])
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
