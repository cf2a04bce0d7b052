package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"baton/services"
	"baton/types"
)

// TrackHandler handles track endpoints
type TrackHandler struct {
	session services.Session
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(session services.Session) *TrackHandler {
	return &TrackHandler{session: session}
}

// GetTracks returns the scanned track list
func (h *TrackHandler) GetTracks(c *gin.Context) {
	tracks := h.session.Tracks()
	c.JSON(http.StatusOK, gin.H{
		"tracks": tracks,
		"total":  len(tracks),
	})
}

// GetTrack returns one track
func (h *TrackHandler) GetTrack(c *gin.Context) {
	index, ok := trackParam(c)
	if !ok {
		return
	}

	track, err := h.session.Track(index)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, track)
}

// StopTrack stops all clips on a track
func (h *TrackHandler) StopTrack(c *gin.Context) {
	index, ok := trackParam(c)
	if !ok {
		return
	}

	if err := h.session.StopTrack(index); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "track stopped"})
}

// SetVolume sets a track's mixer volume
func (h *TrackHandler) SetVolume(c *gin.Context) {
	index, ok := trackParam(c)
	if !ok {
		return
	}

	var req types.VolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.SetTrackVolume(index, req.Volume); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volume": req.Volume})
}

// trackParam parses the :trackId path parameter, answering 400 itself when
// the value is not a number.
func trackParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track ID must be a number"})
		return 0, false
	}
	return index, true
}
