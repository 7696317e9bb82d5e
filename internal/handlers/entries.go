package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/telescope-livewire/internal/models"
	"github.com/PratikDhanave/telescope-livewire/internal/store"
)

// maxListLimit caps the page size a client may request.
const maxListLimit = 500

// EntryReader is the read side of the entries repository.
type EntryReader interface {
	List(ctx context.Context, q store.ListQuery) ([]models.Entry, error)
	Find(ctx context.Context, uuid string) (models.Entry, error)
}

// RegisterEntryRoutes registers the request list endpoints.
//
// GET /requests?limit=...&before=...
// - Returns request entries newest first
// - before is the sequence of the last entry of the previous page
//
// GET /requests/:uuid
// - Returns a single entry
func RegisterEntryRoutes(r gin.IRoutes, repo EntryReader) {
	r.GET("/requests", func(c *gin.Context) {
		q := store.ListQuery{Type: models.EntryTypeRequest}

		if s := c.Query("limit"); s != "" {
			limit, err := strconv.Atoi(s)
			if err != nil || limit <= 0 || limit > maxListLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
				return
			}
			q.Limit = limit
		}

		if s := c.Query("before"); s != "" {
			before, err := strconv.ParseInt(s, 10, 64)
			if err != nil || before <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "before must be a positive sequence"})
				return
			}
			q.BeforeSequence = before
		}

		entries, err := repo.List(c.Request.Context(), q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "entries query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"entries": entries})
	})

	r.GET("/requests/:uuid", func(c *gin.Context) {
		id := c.Param("uuid")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "uuid must be a valid UUID"})
			return
		}

		entry, err := repo.Find(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "entries query failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"entry": entry})
	})
}
