// Package telescope is the in-process monitoring recorder. Watchers hand it
// request contents; it stamps them as entries, queues them, and flushes the
// queue through its filters into an entries repository.
package telescope

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/PratikDhanave/telescope-livewire/internal/metrics"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
)

// EntriesRepository persists flushed entries.
type EntriesRepository interface {
	Store(ctx context.Context, entries []models.Entry) error
}

// FilterFunc reports whether an entry should be kept.
type FilterFunc func(models.Entry) bool

// Telescope queues entries while recording is on.
type Telescope struct {
	recording atomic.Bool

	mu      sync.Mutex
	queue   []models.Entry
	filters []FilterFunc

	now func() time.Time
}

// New returns a recorder; recording starts enabled when enabled is true.
func New(enabled bool) *Telescope {
	t := &Telescope{now: time.Now}
	t.recording.Store(enabled)
	return t
}

func (t *Telescope) IsRecording() bool { return t.recording.Load() }

func (t *Telescope) StartRecording() { t.recording.Store(true) }

func (t *Telescope) StopRecording() { t.recording.Store(false) }

// Filter adds a filter applied when the queue is stored. Entries for which
// any filter returns false are dropped.
func (t *Telescope) Filter(fn FilterFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filters = append(t.filters, fn)
}

// RecordRequest queues a request entry. It is a no-op while recording is off.
func (t *Telescope) RecordRequest(ctx context.Context, content models.EntryContent) {
	t.record(ctx, models.EntryTypeRequest, content)
}

func (t *Telescope) record(ctx context.Context, typ string, content models.EntryContent) {
	if !t.IsRecording() {
		return
	}

	entry := models.Entry{
		UUID:      uuid.New().String(),
		BatchID:   BatchID(ctx),
		Type:      typ,
		Content:   content,
		CreatedAt: t.now().UTC(),
	}

	t.mu.Lock()
	t.queue = append(t.queue, entry)
	t.mu.Unlock()

	metrics.EntriesRecorded.WithLabelValues(typ).Inc()
}

// Pending returns the number of queued entries.
func (t *Telescope) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Store drains the queue, applies filters and writes the survivors to repo.
// Drained entries are not re-queued when the write fails.
func (t *Telescope) Store(ctx context.Context, repo EntriesRepository) error {
	t.mu.Lock()
	queued := t.queue
	t.queue = nil
	filters := append([]FilterFunc(nil), t.filters...)
	t.mu.Unlock()

	if len(queued) == 0 {
		return nil
	}

	kept := queued[:0]
	for _, e := range queued {
		if keep(e, filters) {
			kept = append(kept, e)
			continue
		}
		metrics.EntriesFiltered.Inc()
	}

	if len(kept) == 0 {
		return nil
	}

	if err := repo.Store(ctx, kept); err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("store %d entries: %w", len(kept), err)
	}
	metrics.EntriesStored.Add(float64(len(kept)))
	return nil
}

func keep(e models.Entry, filters []FilterFunc) bool {
	for _, f := range filters {
		if !f(e) {
			return false
		}
	}
	return true
}
