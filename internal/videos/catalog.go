package videos

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
)

var videoName = regexp.MustCompile(`^(\d+)\.mp4$`)

// Catalog lists the recordings under root. Only files at exactly
// <root>/<domain>/<key>/<name> are considered.
type Catalog struct {
	root         string
	prober       Prober
	probeTimeout time.Duration
	logger       logging.Logger
}

// NewCatalog builds a catalog. A zero probeTimeout disables the per-file bound.
func NewCatalog(root string, prober Prober, probeTimeout time.Duration, logger logging.Logger) *Catalog {
	return &Catalog{
		root:         root,
		prober:       prober,
		probeTimeout: probeTimeout,
		logger:       logger.With("module", "video_catalog"),
	}
}

// Scan returns every recording, newest first.
func (c *Catalog) Scan(ctx context.Context) ([]Summary, error) {
	result := []Summary{}

	domains, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return nil, fmt.Errorf("%w: read recordings dir: %w", common.ErrorFileRead, err)
	}

	for _, d := range domains {
		if !d.IsDir() {
			continue
		}
		keys, err := os.ReadDir(filepath.Join(c.root, d.Name()))
		if err != nil {
			c.logger.Warn(ctx, "domain skipped", "domain", d.Name(), "error", err)
			continue
		}
		for _, k := range keys {
			if !k.IsDir() {
				continue
			}
			found, err := c.scanKey(ctx, d.Name(), k.Name())
			if err != nil {
				return nil, err
			}
			result = append(result, found...)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime > result[j].StartTime
		}
		return result[i].Path < result[j].Path
	})
	return result, nil
}

func (c *Catalog) scanKey(ctx context.Context, domain, key string) ([]Summary, error) {
	dir := filepath.Join(c.root, domain, key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.logger.Warn(ctx, "key skipped", "dir", dir, "error", err)
		return nil, nil
	}

	var result []Summary
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := videoName.FindStringSubmatch(e.Name())
		if m == nil || e.IsDir() {
			continue
		}
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			// digits beyond int64
			continue
		}

		p := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		s := Summary{
			Name:      path.Join(domain, key, e.Name()),
			Path:      p,
			Domain:    domain,
			Key:       key,
			StartTime: ts,
			SizeBytes: info.Size(),
		}
		if seconds, ok := c.probe(ctx, p); ok {
			s.setDuration(seconds)
		} else {
			c.logger.Warn(ctx, "duration unknown", "path", p)
		}
		result = append(result, s)
	}
	return result, nil
}

func (c *Catalog) probe(ctx context.Context, path string) (float64, bool) {
	if c.prober == nil {
		return 0, false
	}
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}
	seconds, ok := c.prober.Duration(ctx, path)
	if !ok || seconds <= 0 {
		return 0, false
	}
	return seconds, true
}
