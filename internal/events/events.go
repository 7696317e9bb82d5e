// Package events is a small synchronous dispatcher for request lifecycle
// notifications. Listeners run in registration order on the caller's goroutine.
package events

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/PratikDhanave/telescope-livewire/internal/routing"
)

// Response is the already-produced HTTP response of a handled request.
// Body holds at most the captured prefix; Size is the full length written.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Size   int
}

// RequestHandled fires once per completed request, after the response exists.
type RequestHandled struct {
	Request     *http.Request
	Body        []byte
	ClientIP    string
	Route       *routing.Route
	Session     map[string]any
	HasSession  bool
	RequestTime time.Time
	Response    Response
}

// Call fires for every method invocation on a reactive component.
type Call struct {
	Component string
	Method    string
	Params    map[string]any
}

type (
	RequestHandledListener func(context.Context, RequestHandled)
	CallListener           func(context.Context, Call)
)

// Dispatcher fans events out to registered listeners.
type Dispatcher struct {
	mu             sync.RWMutex
	requestHandled []RequestHandledListener
	calls          []CallListener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnRequestHandled(fn RequestHandledListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requestHandled = append(d.requestHandled, fn)
}

func (d *Dispatcher) OnCall(fn CallListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, fn)
}

// DispatchRequestHandled invokes request-handled listeners in order.
func (d *Dispatcher) DispatchRequestHandled(ctx context.Context, ev RequestHandled) {
	d.mu.RLock()
	listeners := append([]RequestHandledListener(nil), d.requestHandled...)
	d.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, ev)
	}
}

// DispatchCall invokes call listeners in order.
func (d *Dispatcher) DispatchCall(ctx context.Context, ev Call) {
	d.mu.RLock()
	listeners := append([]CallListener(nil), d.calls...)
	d.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx, ev)
	}
}
