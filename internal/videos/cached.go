package videos

import (
	"context"
	"os"

	"github.com/dmitrijs2005/streamviewer/internal/logging"
)

// CacheKey identifies one version of a file. A changed size or mtime makes
// an older cached duration stale.
type CacheKey struct {
	Path        string
	Size        int64
	ModUnixNano int64
}

// DurationCache stores known durations between scans.
type DurationCache interface {
	Get(ctx context.Context, key CacheKey) (seconds float64, ok bool, err error)
	Put(ctx context.Context, key CacheKey, seconds float64) error
}

// CachedProber consults cache before delegating to next. Cache failures are
// logged and fall through to a direct probe.
type CachedProber struct {
	next   Prober
	cache  DurationCache
	logger logging.Logger
}

func NewCachedProber(next Prober, cache DurationCache, logger logging.Logger) *CachedProber {
	return &CachedProber{next: next, cache: cache, logger: logger.With("module", "probe_cache")}
}

func (p *CachedProber) Duration(ctx context.Context, path string) (float64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	key := CacheKey{Path: path, Size: info.Size(), ModUnixNano: info.ModTime().UnixNano()}

	seconds, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		p.logger.Warn(ctx, "cache lookup failed", "path", path, "error", err)
	case ok:
		return seconds, true
	}

	seconds, ok = p.next.Duration(ctx, path)
	if !ok {
		return 0, false
	}
	if err := p.cache.Put(ctx, key, seconds); err != nil {
		p.logger.Warn(ctx, "cache store failed", "path", path, "error", err)
	}
	return seconds, true
}
