package livewire

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/telescope-livewire/internal/events"
	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/routing"
)

const (
	// UpdateRouteName is the route name of the component update endpoint.
	UpdateRouteName = "livewire.update"
	// UpdateAction is the controller action of the update mechanism. Entries
	// carrying it describe the batch itself, not a component call.
	UpdateAction = "livewire/mechanisms.HandleRequests@handleUpdate"
)

// RegisterUpdateRoute registers the component update endpoint.
//
// POST /livewire/update
// - Body: {"components":[{"snapshot": "<json>", "calls": [...], "updates": {...}}]}
// - Dispatches one call event per call, in component order then call order
// - Echoes each snapshot back with updates applied
func RegisterUpdateRoute(r gin.IRoutes, reg *Registry, d *events.Dispatcher, middleware ...string) {
	r.POST("/livewire/update",
		routing.Name(UpdateRouteName, UpdateAction, middleware...),
		func(c *gin.Context) {
			var req models.UpdateRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
				return
			}

			// Validate the whole batch before any call runs.
			type hydrated struct {
				snapshot  models.Snapshot
				component models.Component
			}
			batch := make([]hydrated, 0, len(req.Components))
			for _, p := range req.Components {
				s, err := models.ParseSnapshot(p.Snapshot)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot"})
					return
				}
				comp, err := reg.Hydrate(s)
				if err != nil {
					c.JSON(http.StatusNotFound, gin.H{"error": "component not found", "component": s.Name()})
					return
				}
				batch = append(batch, hydrated{snapshot: s, component: comp})
			}

			resp := models.UpdateResponse{Components: make([]models.ComponentResult, 0, len(batch))}
			for i, h := range batch {
				p := req.Components[i]

				data := h.snapshot.Data()
				for k, v := range p.Updates {
					data[k] = v
				}
				h.snapshot["data"] = data

				returns := make([]any, 0, len(p.Calls))
				for _, call := range p.Calls {
					d.DispatchCall(c.Request.Context(), events.Call{
						Component: h.component.Class,
						Method:    call.Method,
						Params:    call.ParamsMap(),
					})
					returns = append(returns, nil)
				}

				out, err := json.Marshal(h.snapshot)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot encode failed"})
					return
				}
				resp.Components = append(resp.Components, models.ComponentResult{
					Snapshot: string(out),
					Effects:  map[string]any{"returns": returns},
				})
			}

			c.JSON(http.StatusOK, resp)
		})
}
