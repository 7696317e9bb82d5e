package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// clientCtxKey holds the name of the dashboard client that passed the key check.
const clientCtxKey = "telescope_client"

// APIKeyMiddleware rejects dashboard API calls whose X-API-Key is not one of
// the configured keys. keys maps each key to the client name Client reports.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		client, ok := keys[apiKey]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(clientCtxKey, client)
		c.Next()
	}
}

// Client names the dashboard client behind the request, "" when unguarded.
func Client(c *gin.Context) string {
	v, _ := c.Get(clientCtxKey)
	s, _ := v.(string)
	return s
}
