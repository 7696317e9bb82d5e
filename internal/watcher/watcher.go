// Package watcher turns handled requests into monitoring entries.
//
// RequestWatcher records one entry per plain HTTP request. LivewireWatcher
// recognizes reactive-component update requests and records one entry per
// component call instead, shaped like a request entry so both render alike.
package watcher

import (
	"context"
	"time"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

// Recorder is the part of the monitoring recorder watchers depend on.
type Recorder interface {
	IsRecording() bool
	RecordRequest(ctx context.Context, content models.EntryContent)
	Filter(fn telescope.FilterFunc)
	Store(ctx context.Context, repo telescope.EntriesRepository) error
}

// clock holds the time and memory sources sampled while building entries.
type clock struct {
	bootTime time.Time
	now      func() time.Time
	memory   func() float64
}

func newClock(bootTime time.Time) clock {
	return clock{bootTime: bootTime, now: time.Now, memory: memoryMiB}
}

// startTime prefers the captured boot time over the transport request time.
func (c clock) startTime(ev events.RequestHandled) (time.Time, bool) {
	if !c.bootTime.IsZero() {
		return c.bootTime, true
	}
	if !ev.RequestTime.IsZero() {
		return ev.RequestTime, true
	}
	return time.Time{}, false
}

// duration is whole milliseconds since start, or nil if start is unknown.
func (c clock) duration(start time.Time, ok bool) *int64 {
	if !ok {
		return nil
	}
	ms := c.now().Sub(start).Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return &ms
}

// baseContent fills the request-level fields shared by every entry built
// from ev. URI, ControllerAction and Payload are left to the caller.
func baseContent(f *Formatter, ev events.RequestHandled) models.EntryContent {
	content := models.EntryContent{
		IPAddress:      ev.ClientIP,
		Middleware:     ev.Route.GatherMiddleware(),
		Headers:        map[string]any{},
		Session:        map[string]any{},
		ResponseStatus: ev.Response.Status,
		Response:       f.Response(ev.Response),
	}
	if ev.Request != nil {
		content.Method = ev.Request.Method
		content.Headers = f.Headers(ev.Request.Header)
	}
	if ev.HasSession {
		content.Session = f.Payload(ev.Session)
	}
	return content
}
