package tracks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
)

const trackExt = ".tsv"

// Catalog lists the tracks stored as *.tsv files directly under dir.
type Catalog struct {
	dir    string
	logger logging.Logger
}

func NewCatalog(dir string, logger logging.Logger) *Catalog {
	return &Catalog{dir: dir, logger: logger.With("module", "track_catalog")}
}

// Scan summarizes every track file, newest created first. A file that cannot
// be read is logged and left out; a missing directory yields an empty list.
func (c *Catalog) Scan(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn(ctx, "tracks directory not found", "dir", c.dir)
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("%w: read tracks dir: %w", common.ErrorFileRead, err)
	}

	result := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), trackExt) {
			continue
		}

		path := filepath.Join(c.dir, e.Name())
		s, err := c.summarize(ctx, path)
		if err != nil {
			c.logger.Warn(ctx, "track skipped", "path", path, "error", err)
			continue
		}
		result = append(result, s)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Find returns the summary of the track with the given id.
func (c *Catalog) Find(ctx context.Context, id string) (Summary, error) {
	all, err := c.Scan(ctx)
	if err != nil {
		return Summary{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return Summary{}, fmt.Errorf("track %q: %w", id, common.ErrorNotFound)
}

func (c *Catalog) summarize(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", common.ErrorFileRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", common.ErrorFileRead, err)
	}
	if !info.Mode().IsRegular() {
		return Summary{}, fmt.Errorf("%w: not a regular file", common.ErrorFileRead)
	}

	name := filepath.Base(path)
	s := Summary{
		ID:         strings.TrimSuffix(name, filepath.Ext(name)),
		Path:       path,
		CreatedAt:  createdAt(info),
		ModifiedAt: info.ModTime(),
		SizeBytes:  info.Size(),
	}

	skipped := 0
	err = scanLines(f, func(p Coordinate) {
		ts := p.Timestamp
		if s.StartTime == nil || ts < *s.StartTime {
			s.StartTime = &ts
		}
		if s.EndTime == nil || ts > *s.EndTime {
			end := ts
			s.EndTime = &end
		}
		s.PointCount++
	}, func(int, error) { skipped++ })
	if err != nil {
		return Summary{}, err
	}

	if start, end, ok := s.Span(); ok {
		s.Duration = end - start
	}

	if skipped > 0 {
		c.logger.Debug(ctx, "malformed lines skipped", "path", path, "count", skipped)
	}
	return s, nil
}
