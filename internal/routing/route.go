package routing

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gin-gonic/gin"
)

// routeCtxKey is the Gin context key holding the matched Route.
const routeCtxKey = "matched_route"

// Route describes the matched route beyond what gin itself tracks:
// a dotted name, the action that serves it and its middleware names.
type Route struct {
	Name       string
	Action     string
	Path       string
	Middleware []string
}

// nameSep stands in for "/" so a "*" in a name pattern spans every character.
const nameSep = "\x00"

// Named reports whether the route name matches any of the wildcard patterns,
// e.g. "*livewire.*". Unlike path globs, "*" also matches across "/".
func (r *Route) Named(patterns ...string) bool {
	if r == nil || r.Name == "" {
		return false
	}
	name := strings.ReplaceAll(r.Name, "/", nameSep)
	for _, p := range patterns {
		if ok, err := doublestar.Match(strings.ReplaceAll(p, "/", nameSep), name); err == nil && ok {
			return true
		}
	}
	return false
}

// GatherMiddleware returns a copy of the route's middleware names, never nil.
func (r *Route) GatherMiddleware() []string {
	if r == nil {
		return []string{}
	}
	return append([]string{}, r.Middleware...)
}

// Name returns a handler that records route metadata for the request.
// It must be the first handler registered on the route.
func Name(name, action string, middleware ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(routeCtxKey, &Route{
			Name:       name,
			Action:     action,
			Path:       c.FullPath(),
			Middleware: middleware,
		})
		c.Next()
	}
}

// Current returns the matched route, or nil when the route was not named.
func Current(c *gin.Context) *Route {
	v, _ := c.Get(routeCtxKey)
	r, _ := v.(*Route)
	return r
}
