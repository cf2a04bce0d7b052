package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"baton/services"
	"baton/types"
)

// ScanHandler handles scan job endpoints
type ScanHandler struct {
	queue services.ScanQueue
}

// NewScanHandler creates a new scan handler
func NewScanHandler(queue services.ScanQueue) *ScanHandler {
	return &ScanHandler{queue: queue}
}

// StartScan queues a session scan. The body is optional; an empty body is a
// bare scan without clip names or lengths.
func (h *ScanHandler) StartScan(c *gin.Context) {
	var req types.ScanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	job, err := h.queue.Enqueue(req)
	if err != nil {
		if errors.Is(err, services.ErrScanQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"message": "scan queued",
		"job":     job,
	})
}

// GetAllJobs returns all scan jobs
func (h *ScanHandler) GetAllJobs(c *gin.Context) {
	jobs := h.queue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific scan job by ID
func (h *ScanHandler) GetJob(c *gin.Context) {
	job, exists := h.queue.GetJob(c.Param("jobId"))
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}
