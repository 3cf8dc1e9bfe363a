package probecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/dbx"
	"github.com/dmitrijs2005/streamviewer/internal/videos"
)

// SQLiteCache implements videos.DurationCache. One row per path; a row
// recorded for a different size or mtime is treated as a miss.
type SQLiteCache struct {
	db  *sql.DB
	now func() time.Time
}

var _ videos.DurationCache = (*SQLiteCache)(nil)

func NewSQLiteCache(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db, now: time.Now}
}

func (c *SQLiteCache) Get(ctx context.Context, key videos.CacheKey) (float64, bool, error) {
	var (
		size, mod int64
		seconds   float64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT size, mod_unix_nano, seconds FROM probe_durations WHERE path = ?`, key.Path,
	).Scan(&size, &mod, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get duration[%s]: %w", key.Path, err)
	}
	if size != key.Size || mod != key.ModUnixNano {
		return 0, false, nil
	}
	return seconds, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key videos.CacheKey, seconds float64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO probe_durations (path, size, mod_unix_nano, seconds, probed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_unix_nano = excluded.mod_unix_nano,
			seconds = excluded.seconds,
			probed_at = excluded.probed_at
	`, key.Path, key.Size, key.ModUnixNano, seconds, c.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to put duration[%s]: %w", key.Path, err)
	}
	return nil
}

// Prune deletes every row whose path keep rejects and returns how many rows
// went away. The read and the deletes share one transaction.
func (c *SQLiteCache) Prune(ctx context.Context, keep func(path string) bool) (int, error) {
	removed := 0
	err := dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		paths, err := listPaths(ctx, tx)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if keep(p) {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM probe_durations WHERE path = ?`, p); err != nil {
				return fmt.Errorf("failed to delete duration[%s]: %w", p, err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Len returns the number of cached rows.
func (c *SQLiteCache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe_durations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count durations: %w", err)
	}
	return n, nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func listPaths(ctx context.Context, q dbx.DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT path FROM probe_durations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list durations: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan duration row: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duration rows: %w", err)
	}
	return paths, nil
}
