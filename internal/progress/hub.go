// Package progress relays upload job snapshots to any number of live
// subscribers, such as SSE streams.
package progress

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/streamviewer/internal/logging"
	"github.com/dmitrijs2005/streamviewer/internal/upload"
)

const DefaultInterval = 200 * time.Millisecond

type EventType string

const (
	EventConnected EventType = "connected"
	EventProgress  EventType = "progress"
	EventClosed    EventType = "closed"
)

// Event is one message of a subscription. Snapshot is set for progress
// events only.
type Event struct {
	Type     EventType
	JobID    string
	Snapshot *upload.Snapshot
}

// Source is where subscriptions read job state from.
type Source interface {
	Status(jobID string) (upload.Snapshot, error)
}

// Hub implements upload.Publisher. A publish only nudges the subscriptions
// of that job; the subscription goroutines read the current state from the
// source themselves, so a slow subscriber never holds up a transfer.
type Hub struct {
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	source Source
	subs   map[string]map[*Subscription]struct{}
}

var _ upload.Publisher = (*Hub)(nil)

func NewHub(interval time.Duration, logger logging.Logger) *Hub {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Hub{
		interval: interval,
		logger:   logger.With("module", "progress_hub"),
		subs:     map[string]map[*Subscription]struct{}{},
	}
}

// SetSource connects the hub to the job store. It is separate from NewHub
// because the store usually publishes to this very hub.
func (h *Hub) SetSource(src Source) {
	h.mu.Lock()
	h.source = src
	h.mu.Unlock()
}

func (h *Hub) Publish(s upload.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[s.ID] {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// Subscribe starts a stream of events for jobID. The stream ends after the
// job reaches a terminal state, when ctx is done or on Close.
func (h *Hub) Subscribe(ctx context.Context, jobID string) (*Subscription, error) {
	h.mu.Lock()
	src := h.source
	h.mu.Unlock()
	if src == nil {
		return nil, errors.New("progress hub has no source")
	}

	if _, err := src.Status(jobID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		jobID:  jobID,
		events: make(chan Event, 16),
		notify: make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[jobID] == nil {
		h.subs[jobID] = map[*Subscription]struct{}{}
	}
	h.subs[jobID][sub] = struct{}{}
	h.mu.Unlock()

	go h.stream(ctx, src, sub)
	return sub, nil
}

// Subscribers returns the number of live subscriptions for jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[jobID])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Close()
	}
}

func (h *Hub) stream(ctx context.Context, src Source, sub *Subscription) {
	defer close(sub.done)
	defer close(sub.events)
	defer h.remove(sub)

	if !sub.send(ctx, Event{Type: EventConnected, JobID: sub.jobID}) {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		snap, err := src.Status(sub.jobID)
		if err != nil {
			// evicted while streaming
			h.logger.Debug(ctx, "job gone", "job_id", sub.jobID, "error", err)
			sub.send(ctx, Event{Type: EventClosed, JobID: sub.jobID})
			return
		}

		if !sub.send(ctx, Event{Type: EventProgress, JobID: sub.jobID, Snapshot: &snap}) {
			return
		}
		if snap.State.Terminal() {
			sub.send(ctx, Event{Type: EventClosed, JobID: sub.jobID})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-sub.notify:
		}
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.jobID]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.jobID)
	}
}

// Subscription is one consumer's view of a job.
type Subscription struct {
	jobID  string
	events chan Event
	notify chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// Events is closed after the last event.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close abandons the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *Subscription) send(ctx context.Context, e Event) bool {
	select {
	case s.events <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
