package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/routing"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

var errUnknown = errors.New("unknown component")

// fakeRecorder captures recorded contents and registered filters.
type fakeRecorder struct {
	recording bool
	contents  []models.EntryContent
	filters   []telescope.FilterFunc
	stores    int
}

func (f *fakeRecorder) IsRecording() bool { return f.recording }

func (f *fakeRecorder) RecordRequest(_ context.Context, c models.EntryContent) {
	f.contents = append(f.contents, c)
}

func (f *fakeRecorder) Filter(fn telescope.FilterFunc) { f.filters = append(f.filters, fn) }

func (f *fakeRecorder) Store(context.Context, telescope.EntriesRepository) error {
	f.stores++
	return nil
}

// classHydrator resolves memo.name through a fixed table.
type classHydrator map[string]string

func (h classHydrator) Hydrate(s models.Snapshot) (models.Component, error) {
	class, ok := h[s.Name()]
	if !ok {
		return models.Component{}, errUnknown
	}
	return models.Component{Name: s.Name(), Class: class}, nil
}

var testHydrator = classHydrator{
	"posts.edit": "App.Livewire.Posts.Edit",
	"counter":    "App.Livewire.Counter",
}

func testFormatter() *Formatter {
	return NewFormatter(
		[]string{"authorization", "cookie"},
		[]string{"password"},
		64,
	)
}

func snapshotJSON(t *testing.T, name, path string, data map[string]any) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"memo": map[string]any{"name": name, "path": path},
		"data": data,
	})
	require.NoError(t, err)
	return string(b)
}

func updateBody(t *testing.T, components ...models.ComponentPayload) string {
	t.Helper()
	b, err := json.Marshal(models.UpdateRequest{Components: components})
	require.NoError(t, err)
	return string(b)
}

func handledEvent(routeName, body string, requestTime time.Time) events.RequestHandled {
	req := httptest.NewRequest(http.MethodPost, "/livewire/update", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Add("Accept", "text/html")
	req.Header.Add("Accept", "application/json")

	var route *routing.Route
	if routeName != "" {
		route = &routing.Route{Name: routeName, Middleware: []string{"web"}}
	}

	respBody := []byte(`{"components":[]}`)
	return events.RequestHandled{
		Request:     req,
		Body:        []byte(body),
		ClientIP:    "10.0.0.1",
		Route:       route,
		RequestTime: requestTime,
		Response: events.Response{
			Status: http.StatusOK,
			Header: http.Header{"Content-Type": {"application/json"}},
			Body:   respBody,
			Size:   len(respBody),
		},
	}
}

func fixedClock(w *clock, now time.Time) {
	w.now = func() time.Time { return now }
	w.memory = func() float64 { return 12.5 }
}
