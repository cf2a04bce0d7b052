package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"baton/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	session services.Session
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(session services.Session) *HealthHandler {
	return &HealthHandler{session: session}
}

// HealthCheck returns the health status of the bridge itself
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "baton",
		"version":   "1.0.0",
		"timestamp": time.Now().Unix(),
	})
}

// APIStatus pings Live over OSC and reports whether it answered, along with
// whether a scan has populated the session grid yet
func (h *HealthHandler) APIStatus(c *gin.Context) {
	scanned := h.session.Scanned()
	if err := h.session.Ping(); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Baton API is running",
			"live":    false,
			"scanned": scanned,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Baton API is running",
		"live":    true,
		"scanned": scanned,
	})
}
