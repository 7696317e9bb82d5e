package events

import (
	"bytes"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/telescope-livewire/internal/routing"
	"github.com/PratikDhanave/telescope-livewire/internal/telescope"
)

// SessionCtxKey is the Gin context key where session middleware stores a Session.
const SessionCtxKey = "session"

// maxCapture bounds how much of a request or response body is kept for listeners.
const maxCapture = 1 << 20

// Session is the narrow view of a session store the capture middleware reads.
type Session interface {
	All() map[string]any
}

// bodyWriter tees the response body into a bounded buffer.
type bodyWriter struct {
	gin.ResponseWriter
	buf  bytes.Buffer
	size int
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *bodyWriter) capture(b []byte) {
	w.size += len(b)
	if room := maxCapture - w.buf.Len(); room > 0 {
		if len(b) > room {
			b = b[:room]
		}
		w.buf.Write(b)
	}
}

// replayBody hands handlers the captured prefix followed by the unread rest.
type replayBody struct {
	io.Reader
	io.Closer
}

// Capture returns middleware that stamps the request time and batch ID,
// buffers the request body, tees the response and dispatches RequestHandled
// once the handler chain has finished.
func Capture(d *Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestTime := time.Now()
		c.Request = c.Request.WithContext(telescope.WithBatch(c.Request.Context()))

		var body []byte
		if rc := c.Request.Body; rc != nil {
			body, _ = io.ReadAll(io.LimitReader(rc, maxCapture))
			c.Request.Body = replayBody{
				Reader: io.MultiReader(bytes.NewReader(body), rc),
				Closer: rc,
			}
		}

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		ev := RequestHandled{
			Request:     c.Request,
			Body:        body,
			ClientIP:    c.ClientIP(),
			Route:       routing.Current(c),
			RequestTime: requestTime,
			Response: Response{
				Status: w.Status(),
				Header: w.Header().Clone(),
				Body:   w.buf.Bytes(),
				Size:   w.size,
			},
		}
		if v, ok := c.Get(SessionCtxKey); ok {
			if s, ok := v.(Session); ok {
				ev.Session = s.All()
				ev.HasSession = true
			}
		}

		d.DispatchRequestHandled(c.Request.Context(), ev)
	}
}
