package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/telescope-livewire/internal/auth"
)

// RecordingToggle is the recorder's on/off switch.
type RecordingToggle interface {
	IsRecording() bool
	StartRecording()
	StopRecording()
}

// RegisterRecordingRoutes registers the recording switch.
//
// GET  /recording        - current state
// POST /toggle-recording - flips the state and returns the new one with the
//                          client that flipped it
func RegisterRecordingRoutes(r gin.IRoutes, rec RecordingToggle) {
	r.GET("/recording", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"recording": rec.IsRecording()})
	})

	r.POST("/toggle-recording", func(c *gin.Context) {
		if rec.IsRecording() {
			rec.StopRecording()
		} else {
			rec.StartRecording()
		}
		c.JSON(http.StatusOK, gin.H{"recording": rec.IsRecording(), "toggled_by": auth.Client(c)})
	})
}
