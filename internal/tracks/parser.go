package tracks

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
)

// Parser turns a track file into its coordinate sequence.
type Parser struct {
	logger logging.Logger
}

func NewParser(logger logging.Logger) *Parser {
	return &Parser{logger: logger.With("module", "track_parser")}
}

// Parse returns the coordinates of path in file order. Malformed lines are
// skipped. Unlike Load, a read failure is returned (wrapping
// common.ErrorFileRead) so callers can tell it apart from an empty track.
func (p *Parser) Parse(ctx context.Context, path string) ([]Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorFileRead, err)
	}
	defer f.Close()

	coords, err := ParseReader(f, func(lineNo int, err error) {
		p.logger.Debug(ctx, "line skipped", "path", path, "line", lineNo, "error", err)
	})
	if err != nil {
		return nil, err
	}
	return coords, nil
}

// Load is Parse with read failures logged and turned into an empty slice.
func (p *Parser) Load(ctx context.Context, path string) []Coordinate {
	coords, err := p.Parse(ctx, path)
	if err != nil {
		p.logger.Warn(ctx, "error loading track data", "path", path, "error", err)
		return []Coordinate{}
	}
	return coords
}

// ParseReader parses track data from r. onSkip, if not nil, is told about
// every rejected line.
func ParseReader(r io.Reader, onSkip func(lineNo int, err error)) ([]Coordinate, error) {
	coords := make([]Coordinate, 0, 256)
	err := scanLines(r, func(c Coordinate) {
		coords = append(coords, c)
	}, onSkip)
	if err != nil {
		return nil, err
	}
	return coords, nil
}
