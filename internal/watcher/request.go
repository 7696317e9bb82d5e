package watcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
)

// closureAction is the controller action of routes registered without one.
const closureAction = "Closure"

// RequestOptions configures a RequestWatcher.
type RequestOptions struct {
	// IgnorePaths are doublestar patterns of request paths never recorded.
	IgnorePaths []string
	BootTime    time.Time
	Logger      *slog.Logger
}

// RequestWatcher records one entry for every handled request.
type RequestWatcher struct {
	rec    Recorder
	format *Formatter
	ignore []string
	clock  clock
	log    *slog.Logger
}

func NewRequestWatcher(rec Recorder, format *Formatter, opts RequestOptions) *RequestWatcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &RequestWatcher{
		rec:    rec,
		format: format,
		ignore: opts.IgnorePaths,
		clock:  newClock(opts.BootTime),
		log:    log.With(slog.String("watcher", "request")),
	}
}

func (w *RequestWatcher) Register(d *events.Dispatcher) {
	d.OnRequestHandled(w.RecordRequest)
}

// RecordRequest records ev as a single request entry.
func (w *RequestWatcher) RecordRequest(ctx context.Context, ev events.RequestHandled) {
	if !w.rec.IsRecording() || ev.Request == nil || w.ignored(ev.Request.URL.Path) {
		return
	}

	content := baseContent(w.format, ev)
	content.URI = ev.Request.URL.RequestURI()
	content.ControllerAction = closureAction
	if ev.Route != nil && ev.Route.Action != "" {
		content.ControllerAction = ev.Route.Action
	}
	content.Payload = w.format.Payload(input(ev))
	content.Duration = w.clock.duration(w.clock.startTime(ev))
	content.Memory = w.clock.memory()

	w.rec.RecordRequest(ctx, content)
}

func (w *RequestWatcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	return false
}

// input merges query parameters with a JSON object or form-encoded body.
func input(ev events.RequestHandled) map[string]any {
	out := map[string]any{}
	mergeValues(out, ev.Request.URL.Query())

	if len(ev.Body) == 0 {
		return out
	}

	mediaType, _, _ := mime.ParseMediaType(ev.Request.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body map[string]any
		if err := json.Unmarshal(ev.Body, &body); err == nil {
			for k, v := range body {
				out[k] = v
			}
		}
	case "application/x-www-form-urlencoded":
		if form, err := url.ParseQuery(string(ev.Body)); err == nil {
			mergeValues(out, form)
		}
	}
	return out
}

func mergeValues(out map[string]any, values url.Values) {
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		out[k] = items
	}
}
