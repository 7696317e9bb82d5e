package watcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/routing"
)

func newTestRequestWatcher(rec *fakeRecorder) *RequestWatcher {
	w := NewRequestWatcher(rec, testFormatter(), RequestOptions{
		IgnorePaths: []string{"/telescope/**", "/health"},
	})
	fixedClock(&w.clock, requestTime.Add(20*time.Millisecond))
	return w
}

func TestRequestWatcher_RecordsJSONRequest(t *testing.T) {
	rec := &fakeRecorder{recording: true}
	w := newTestRequestWatcher(rec)

	ev := handledEvent("livewire.update", `{"components":[],"password":"x"}`, requestTime)
	ev.Request.URL.RawQuery = "page=2"
	ev.Route.Action = "livewire/mechanisms.HandleRequests@handleUpdate"

	w.RecordRequest(context.Background(), ev)

	require.Len(t, rec.contents, 1)
	c := rec.contents[0]
	assert.Equal(t, "/livewire/update?page=2", c.URI)
	assert.Equal(t, "livewire/mechanisms.HandleRequests@handleUpdate", c.ControllerAction)
	assert.Equal(t, map[string]any{"components": []any{}, "password": Masked, "page": "2"}, c.Payload)
	require.NotNil(t, c.Duration)
	assert.Equal(t, int64(20), *c.Duration)
}

func TestRequestWatcher_FormBodyAndClosureAction(t *testing.T) {
	rec := &fakeRecorder{recording: true}
	w := newTestRequestWatcher(rec)

	body := "tag=a&tag=b&name=x"
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w.RecordRequest(context.Background(), events.RequestHandled{
		Request:  req,
		Body:     []byte(body),
		Route:    &routing.Route{Name: "posts.store"},
		Response: events.Response{Status: http.StatusFound, Header: http.Header{"Location": {"/posts/1"}}},
	})

	require.Len(t, rec.contents, 1)
	c := rec.contents[0]
	assert.Equal(t, closureAction, c.ControllerAction)
	assert.Equal(t, map[string]any{"tag": []any{"a", "b"}, "name": "x"}, c.Payload)
	assert.Equal(t, "Redirected to /posts/1", c.Response)
	assert.Nil(t, c.Duration)
}

func TestRequestWatcher_Skips(t *testing.T) {
	rec := &fakeRecorder{recording: true}
	w := newTestRequestWatcher(rec)

	for _, path := range []string{"/telescope/api/requests", "/health"} {
		w.RecordRequest(context.Background(), events.RequestHandled{
			Request: httptest.NewRequest(http.MethodGet, path, nil),
		})
	}
	w.RecordRequest(context.Background(), events.RequestHandled{})
	assert.Empty(t, rec.contents)

	rec.recording = false
	w.RecordRequest(context.Background(), events.RequestHandled{
		Request: httptest.NewRequest(http.MethodGet, "/posts", nil),
	})
	assert.Empty(t, rec.contents)
}
