package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/common"
	"github.com/dmitrijs2005/streamviewer/internal/logging"
	"github.com/google/uuid"
)

// Options tune a Registry. Zero values fall back to the defaults below.
type Options struct {
	RootMarker    string
	ChunkSize     int
	Timeout       time.Duration
	Retention     time.Duration
	ObservedGrace time.Duration
	SweepInterval time.Duration
}

const (
	DefaultTimeout       = 10 * time.Minute
	DefaultRetention     = 30 * time.Minute
	DefaultObservedGrace = time.Minute
	DefaultSweepInterval = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	if o.ObservedGrace <= 0 {
		o.ObservedGrace = DefaultObservedGrace
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = DefaultSweepInterval
	}
	return o
}

type job struct {
	snap            Snapshot
	cancel          context.CancelFunc
	cancelRequested bool
	observedAt      time.Time
	done            chan struct{}
}

// Registry owns every upload job of the process. All job state lives behind
// mu; callers only ever see Snapshot copies.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*job

	resolver  TargetResolver
	transport Transport
	publisher Publisher
	opts      Options
	logger    logging.Logger

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	now   func() time.Time
	newID func() string
}

// NewRegistry builds a registry. publisher may be nil.
func NewRegistry(resolver TargetResolver, transport Transport, publisher Publisher, opts Options, logger logging.Logger) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		jobs:      make(map[string]*job),
		resolver:  resolver,
		transport: transport,
		publisher: publisher,
		opts:      opts.withDefaults(),
		logger:    logger.With("module", "upload_registry"),
		baseCtx:   ctx,
		stop:      cancel,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Submit validates filePath, creates a job for it and starts the transfer in
// the background. No job is created when validation or target resolution
// fails.
func (r *Registry) Submit(ctx context.Context, filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %q: %w", filePath, common.ErrorNotFound)
		}
		return "", fmt.Errorf("%w: %w", common.ErrorFileRead, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("file %q is not a regular file: %w", filePath, common.ErrorNotFound)
	}

	domain, key, name, err := ParseRecordingPath(filePath, r.opts.RootMarker)
	if err != nil {
		return "", err
	}

	target, err := r.resolver.Resolve(ctx, domain, key, name)
	if err != nil {
		return "", fmt.Errorf("resolve upload target: %w", err)
	}

	if err := r.baseCtx.Err(); err != nil {
		return "", fmt.Errorf("registry closed: %w", err)
	}

	jobCtx, cancel := context.WithCancel(r.baseCtx)
	now := r.now()
	j := &job{
		snap: Snapshot{
			ID:        r.newID(),
			FilePath:  filePath,
			TargetURL: target.URL,
			State:     StateStarting,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.jobs[j.snap.ID] = j
	snap := j.snap.clone()
	r.mu.Unlock()

	r.publish(snap)
	r.logger.Info(ctx, "upload submitted", "job_id", snap.ID, "path", filePath, "target", target.URL)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(j.done)
		defer cancel()
		r.run(jobCtx, j, target, info.Size())
	}()

	return snap.ID, nil
}

func (r *Registry) run(ctx context.Context, j *job, target Target, size int64) {
	id := j.snap.ID

	f, err := os.Open(j.snap.FilePath)
	if err != nil {
		r.finish(ctx, j, nil, fmt.Errorf("%w: %w", common.ErrorFileRead, err))
		return
	}
	defer f.Close()

	if !r.transition(j, StateUploading) {
		// cancelled before the first byte
		r.finish(ctx, j, nil, nil)
		return
	}

	listener := ProgressFunc(func(sent, total int64) error {
		return r.progress(j, sent, total)
	})
	body := newChunkReader(ctx, f, size, r.opts.ChunkSize, listener)

	sendCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	res, err := r.transport.Send(sendCtx, target, body, size)
	if err != nil {
		r.logger.Warn(ctx, "upload failed", "job_id", id, "sent", body.Sent(), "error", err)
	}
	r.finish(ctx, j, res, err)
}

// transition moves j to state if allowed and publishes the change.
func (r *Registry) transition(j *job, to State) bool {
	r.mu.Lock()
	if !j.snap.State.canMove(to) {
		r.mu.Unlock()
		return false
	}
	j.snap.State = to
	j.snap.UpdatedAt = r.now()
	snap := j.snap.clone()
	r.mu.Unlock()

	r.publish(snap)
	return true
}

func (r *Registry) progress(j *job, sent, total int64) error {
	pct := Percent(sent, total)

	r.mu.Lock()
	if j.cancelRequested {
		r.mu.Unlock()
		return common.ErrorCancelled
	}
	if j.snap.State != StateUploading {
		r.mu.Unlock()
		return nil
	}
	if pct > j.snap.Progress {
		j.snap.Progress = pct
	}
	j.snap.UpdatedAt = r.now()
	snap := j.snap.clone()
	r.mu.Unlock()

	r.publish(snap)
	return nil
}

// finish records the terminal state of a transfer. A job that was ever asked
// to cancel ends Cancelled whatever the transport said.
func (r *Registry) finish(ctx context.Context, j *job, res *Result, err error) {
	r.mu.Lock()
	switch {
	case j.cancelRequested || ctx.Err() != nil:
		j.snap.State = StateCancelled
		j.snap.Result = nil
		j.snap.Error = ""
	case err != nil:
		j.snap.State = StateError
		j.snap.Error = err.Error()
	default:
		j.snap.State = StateCompleted
		j.snap.Progress = 100
		j.snap.Result = res
	}
	j.snap.UpdatedAt = r.now()
	snap := j.snap.clone()
	r.mu.Unlock()

	r.publish(snap)
	r.logger.Info(ctx, "upload finished", "job_id", snap.ID, "state", snap.State, "progress", snap.Progress)
}

// Status returns a copy of the job. Reading a finished job starts its
// observed grace period.
func (r *Registry) Status(jobID string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[jobID]
	if !ok {
		return Snapshot{}, fmt.Errorf("upload job %q: %w", jobID, common.ErrorNotFound)
	}
	if j.snap.State.Terminal() && j.observedAt.IsZero() {
		j.observedAt = r.now()
	}
	return j.snap.clone(), nil
}

// Cancel asks a running job to stop. Cancelling a finished job does nothing.
func (r *Registry) Cancel(jobID string) error {
	r.mu.Lock()
	j, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("upload job %q: %w", jobID, common.ErrorNotFound)
	}
	if j.snap.State.Terminal() || j.cancelRequested {
		r.mu.Unlock()
		return nil
	}
	j.cancelRequested = true
	j.snap.State = StateCancelling
	j.snap.UpdatedAt = r.now()
	snap := j.snap.clone()
	r.mu.Unlock()

	j.cancel()
	r.publish(snap)
	r.logger.Info(context.Background(), "upload cancel requested", "job_id", jobID)
	return nil
}

// List returns every retained job, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	out := make([]Snapshot, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.snap.clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.After(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// Done returns a channel closed once the job's transfer goroutine exits.
func (r *Registry) Done(jobID string) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("upload job %q: %w", jobID, common.ErrorNotFound)
	}
	return j.done, nil
}

// Sweep evicts finished jobs that were observed more than ObservedGrace ago
// or finished more than Retention ago. It returns the number evicted.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, j := range r.jobs {
		if !j.snap.State.Terminal() {
			continue
		}
		observed := !j.observedAt.IsZero() && now.Sub(j.observedAt) > r.opts.ObservedGrace
		expired := now.Sub(j.snap.UpdatedAt) > r.opts.Retention
		if observed || expired {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

// Run sweeps every SweepInterval until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.now()); n > 0 {
				r.logger.Debug(ctx, "upload jobs evicted", "count", n)
			}
		}
	}
}

// Close cancels every in-flight transfer and waits for them to finish.
func (r *Registry) Close() {
	r.stop()
	r.wg.Wait()
}

func (r *Registry) publish(s Snapshot) {
	if r.publisher != nil {
		r.publisher.Publish(s)
	}
}
