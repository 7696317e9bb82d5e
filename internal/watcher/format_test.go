package watcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
)

func TestFormatter_Headers(t *testing.T) {
	f := testFormatter()
	got := f.Headers(http.Header{
		"Authorization": {"Bearer x"},
		"Cookie":        {"a=1", "b=2"},
		"X-Trace":       {"1", "2"},
	})

	assert.Equal(t, map[string]any{
		"authorization": Masked,
		"cookie":        Masked,
		"x-trace":       "1, 2",
	}, got)
}

func TestFormatter_PayloadMasksNested(t *testing.T) {
	f := testFormatter()
	in := map[string]any{
		"Password": "a",
		"user": map[string]any{
			"name":     "ann",
			"password": "b",
		},
		"list": []any{map[string]any{"password": "c"}, "plain"},
	}

	got := f.Payload(in)

	assert.Equal(t, map[string]any{
		"Password": Masked,
		"user":     map[string]any{"name": "ann", "password": Masked},
		"list":     []any{map[string]any{"password": Masked}, "plain"},
	}, got)
	assert.Equal(t, "a", in["Password"], "input must not be modified")
}

func TestFormatter_Response(t *testing.T) {
	f := NewFormatter(nil, []string{"token"}, 1)
	jsonHeader := http.Header{"Content-Type": {"application/json"}}
	textHeader := http.Header{"Content-Type": {"text/plain; charset=utf-8"}}
	htmlHeader := http.Header{"Content-Type": {"text/html"}}

	resp := func(status int, h http.Header, body string) events.Response {
		return events.Response{Status: status, Header: h, Body: []byte(body), Size: len(body)}
	}

	tests := []struct {
		name string
		in   events.Response
		want any
	}{
		{"json", resp(200, jsonHeader, `{"ok":true,"token":"t"}`), map[string]any{"ok": true, "token": Masked}},
		{"json list", resp(200, jsonHeader, `[1]`), []any{float64(1)}},
		{"json too large", resp(200, jsonHeader, `{"a":"`+strings.Repeat("x", 2048)+`"}`), responsePurged},
		{"truncated json", events.Response{Status: 200, Header: jsonHeader, Body: []byte(`{"a":"xx`), Size: 4 << 20}, responsePurged},
		{"text", resp(200, textHeader, "hello"), "hello"},
		{"text too large", resp(200, textHeader, strings.Repeat("x", 1025)), responsePurged},
		{"html", resp(200, htmlHeader, "<p>hi</p>"), responseHTML},
		{"empty", resp(204, http.Header{}, ""), responseEmpty},
		{"redirect", resp(302, http.Header{"Location": {"/login"}}, ""), "Redirected to /login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Response(tt.in))
		})
	}
}

func TestFormatter_ResponseBeyondCaptureIsPurged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	d := events.NewDispatcher()

	var got events.Response
	d.OnRequestHandled(func(_ context.Context, ev events.RequestHandled) { got = ev.Response })

	big := `{"a":"` + strings.Repeat("x", 2<<20) + `"}`
	r := gin.New()
	r.Use(events.Capture(d))
	r.GET("/big", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(big))
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/big", nil))

	for _, limitKB := range []int{64, 1024} {
		assert.Equal(t, responsePurged, NewFormatter(nil, nil, limitKB).Response(got), "limit %d KB", limitKB)
	}
}
