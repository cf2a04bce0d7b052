package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"baton/live"
	"baton/services"
)

// jsonError maps service and transport errors onto HTTP statuses: missing
// scan state is a conflict, unknown indices are not found, and anything that
// went wrong on the wire to Live is a gateway problem.
func jsonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotScanned):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"hint":  "POST /api/set/scan first",
		})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrNoClip):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, live.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.Is(err, live.ErrBadResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		var connErr *live.ConnectionError
		if errors.As(err, &connErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
