package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/metrics"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

// PayloadPolicy selects what a component call entry carries as its payload.
type PayloadPolicy string

const (
	// PayloadParams records the call's own parameters.
	PayloadParams PayloadPolicy = "params"
	// PayloadSnapshot records the component's full data state for every call.
	PayloadSnapshot PayloadPolicy = "snapshot"
)

const (
	DefaultRoutePattern    = "*livewire.*"
	DefaultMechanismMarker = "livewire/mechanisms"
)

// ParsePayloadPolicy validates a configured policy name.
func ParsePayloadPolicy(s string) (PayloadPolicy, error) {
	switch p := PayloadPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PayloadParams, nil
	case PayloadParams, PayloadSnapshot:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payload policy %q", s)
	}
}

// Hydrator rebuilds a component from its snapshot.
type Hydrator interface {
	Hydrate(snapshot models.Snapshot) (models.Component, error)
}

// LivewireOptions configures a LivewireWatcher. Zero values fall back to
// the defaults above; an empty PayloadPolicy means PayloadParams.
type LivewireOptions struct {
	PayloadPolicy   PayloadPolicy
	RegisterHooks   bool
	RoutePattern    string
	MechanismMarker string
	// BootTime, when set, is used as the start of every request duration.
	BootTime time.Time
	// Repository receives the recorder queue on component calls when hooks are registered.
	Repository telescope.EntriesRepository
	Logger     *slog.Logger
}

// LivewireWatcher maps reactive-component update requests to one request
// entry per component call.
type LivewireWatcher struct {
	rec      Recorder
	hydrator Hydrator
	format   *Formatter
	opts     LivewireOptions
	clock    clock
	log      *slog.Logger
}

func NewLivewireWatcher(rec Recorder, hydrator Hydrator, format *Formatter, opts LivewireOptions) *LivewireWatcher {
	if opts.PayloadPolicy == "" {
		opts.PayloadPolicy = PayloadParams
	}
	if opts.RoutePattern == "" {
		opts.RoutePattern = DefaultRoutePattern
	}
	if opts.MechanismMarker == "" {
		opts.MechanismMarker = DefaultMechanismMarker
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &LivewireWatcher{
		rec:      rec,
		hydrator: hydrator,
		format:   format,
		opts:     opts,
		clock:    newClock(opts.BootTime),
		log:      log.With(slog.String("watcher", "livewire")),
	}
}

// Register subscribes the watcher to d. With hooks enabled it also flushes
// the recorder on every component call and filters out entries recorded for
// the component update mechanism itself, which would otherwise show up next
// to the per-call entries.
func (w *LivewireWatcher) Register(d *events.Dispatcher) {
	if w.opts.RegisterHooks {
		if w.opts.Repository != nil {
			d.OnCall(func(ctx context.Context, _ events.Call) {
				if err := w.rec.Store(ctx, w.opts.Repository); err != nil {
					w.log.WarnContext(ctx, "store entries on call", slog.Any("error", err))
				}
			})
		}

		marker := w.opts.MechanismMarker
		w.rec.Filter(func(e models.Entry) bool {
			action := e.Content.ControllerAction
			return action == "" || !strings.Contains(action, marker)
		})
	}

	d.OnRequestHandled(w.RecordRequest)
}

// RecordRequest records one entry per component call carried by ev.
// Components whose snapshot cannot be decoded or hydrated are skipped.
func (w *LivewireWatcher) RecordRequest(ctx context.Context, ev events.RequestHandled) {
	if !w.rec.IsRecording() || !ev.Route.Named(w.opts.RoutePattern) {
		return
	}

	start, known := w.clock.startTime(ev)

	var body models.UpdateRequest
	if len(ev.Body) > 0 {
		if err := json.Unmarshal(ev.Body, &body); err != nil {
			w.log.DebugContext(ctx, "update body is not a component batch", slog.Any("error", err))
			return
		}
	}

	for i, component := range body.Components {
		if err := w.recordComponent(ctx, ev, component, start, known); err != nil {
			reason := "hydrate"
			if errors.Is(err, models.ErrMalformedSnapshot) {
				reason = "snapshot"
			}
			metrics.LivewireComponentsSkipped.WithLabelValues(reason).Inc()
			w.log.WarnContext(ctx, "skip component",
				slog.Int("index", i),
				slog.String("reason", reason),
				slog.Any("error", err),
			)
		}
	}
}

func (w *LivewireWatcher) recordComponent(
	ctx context.Context,
	ev events.RequestHandled,
	payload models.ComponentPayload,
	start time.Time,
	known bool,
) error {
	snapshot, err := models.ParseSnapshot(payload.Snapshot)
	if err != nil {
		return err
	}

	component, err := w.hydrator.Hydrate(snapshot)
	if err != nil {
		return fmt.Errorf("hydrate %q: %w", snapshot.Name(), err)
	}

	path, _ := snapshot.Path()
	uri := "/" + strings.TrimLeft(path, "/")

	for _, call := range payload.Calls {
		content := baseContent(w.format, ev)
		content.URI = uri
		content.ControllerAction = component.Class + "@" + call.Method
		content.Payload = w.payload(snapshot, call)
		content.Duration = w.clock.duration(start, known)
		content.Memory = w.clock.memory()

		w.rec.RecordRequest(ctx, content)
		metrics.LivewireCalls.Inc()
	}
	return nil
}

func (w *LivewireWatcher) payload(snapshot models.Snapshot, call models.Call) map[string]any {
	if w.opts.PayloadPolicy == PayloadSnapshot {
		return w.format.Payload(snapshot.Data())
	}
	return w.format.Payload(call.ParamsMap())
}
