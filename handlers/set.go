package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baton/services"
	"baton/types"
)

// SetHandler handles set-level endpoints: summary, transport and snapshots
type SetHandler struct {
	session services.Session
}

// NewSetHandler creates a new set handler
func NewSetHandler(session services.Session) *SetHandler {
	return &SetHandler{session: session}
}

// GetSet returns the session summary
func (h *SetHandler) GetSet(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Summary())
}

// Play starts song playback
func (h *SetHandler) Play(c *gin.Context) {
	if err := h.session.PlaySet(); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "playback started"})
}

// Stop stops song playback
func (h *SetHandler) Stop(c *gin.Context) {
	if err := h.session.StopSet(); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "playback stopped"})
}

// GetTempo returns the song tempo
func (h *SetHandler) GetTempo(c *gin.Context) {
	bpm, err := h.session.Tempo()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bpm": bpm})
}

// SetTempo sets the song tempo
func (h *SetHandler) SetTempo(c *gin.Context) {
	var req types.TempoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.SetTempo(req.BPM); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bpm": req.BPM})
}

// GetSnapshot renders the scanned session as a YAML document
func (h *SetHandler) GetSnapshot(c *gin.Context) {
	data, err := h.session.SnapshotYAML()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/x-yaml", data)
}

// SaveSnapshot writes the scanned session to a YAML file on the server
func (h *SetHandler) SaveSnapshot(c *gin.Context) {
	req := struct {
		Path string `json:"path"`
	}{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Path == "" {
		req.Path = "set.yaml"
	}

	if err := h.session.SaveSnapshot(req.Path); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "snapshot saved",
		"path":    req.Path,
	})
}
