package watcher

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
)

// Masked replaces hidden header and parameter values.
const Masked = "********"

const (
	responsePurged   = "Purged By Telescope"
	responseHTML     = "HTML Response"
	responseEmpty    = "Empty Response"
	redirectedPrefix = "Redirected to "
)

// Formatter sanitizes the request and response parts of an entry.
type Formatter struct {
	hiddenHeaders    map[string]bool
	hiddenParameters map[string]bool
	sizeLimit        int
}

// NewFormatter builds a Formatter. Names are matched case-insensitively;
// responses larger than sizeLimitKB kilobytes are purged.
func NewFormatter(hiddenHeaders, hiddenParameters []string, sizeLimitKB int) *Formatter {
	return &Formatter{
		hiddenHeaders:    keySet(hiddenHeaders),
		hiddenParameters: keySet(hiddenParameters),
		sizeLimit:        sizeLimitKB * 1024,
	}
}

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			set[k] = true
		}
	}
	return set
}

// Headers flattens h to lower-cased names with comma-joined values.
func (f *Formatter) Headers(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, values := range h {
		key := strings.ToLower(name)
		if f.hiddenHeaders[key] {
			out[key] = Masked
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}

// Payload returns a copy of data with hidden parameters masked at any depth.
func (f *Formatter) Payload(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if f.hiddenParameters[strings.ToLower(k)] {
			out[k] = Masked
			continue
		}
		out[k] = f.maskValue(v)
	}
	return out
}

func (f *Formatter) maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return f.Payload(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = f.maskValue(item)
		}
		return out
	default:
		return v
	}
}

// Response summarizes a response body the way the request list displays it.
func (f *Formatter) Response(r events.Response) any {
	if r.Status >= 300 && r.Status < 400 {
		if loc := r.Header.Get("Location"); loc != "" {
			return redirectedPrefix + loc
		}
	}

	if r.Size == 0 {
		return responseEmpty
	}

	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	// The capture buffer may hold only a prefix of a large body, which no
	// longer decodes; judge JSON responses by their declared type and size.
	if strings.Contains(contentType, "json") && (len(r.Body) < r.Size || !f.withinLimit(r)) {
		return responsePurged
	}

	var decoded any
	if json.Unmarshal(r.Body, &decoded) == nil {
		switch decoded.(type) {
		case map[string]any, []any:
			if !f.withinLimit(r) {
				return responsePurged
			}
			return f.maskValue(decoded)
		}
	}

	if strings.HasPrefix(contentType, "text/plain") {
		if !f.withinLimit(r) {
			return responsePurged
		}
		return string(r.Body)
	}

	return responseHTML
}

func (f *Formatter) withinLimit(r events.Response) bool {
	return r.Size <= f.sizeLimit
}
