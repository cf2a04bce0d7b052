package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"baton/services"
	"baton/types"
)

// ClipHandler handles clip slot endpoints
type ClipHandler struct {
	session services.Session
}

// NewClipHandler creates a new clip handler
func NewClipHandler(session services.Session) *ClipHandler {
	return &ClipHandler{session: session}
}

// GetClip returns one clip's scanned state
func (h *ClipHandler) GetClip(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	clip, err := h.session.Clip(track, slot)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, clip)
}

// GetDetails queries Live for the clip's full record
func (h *ClipHandler) GetDetails(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	details, err := h.session.ClipDetails(track, slot)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Play fires a clip slot
func (h *ClipHandler) Play(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	clip, err := h.session.PlayClip(track, slot)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "clip fired",
		"clip":    clip,
	})
}

// Stop stops a clip
func (h *ClipHandler) Stop(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	clip, err := h.session.StopClip(track, slot)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "clip stopped",
		"clip":    clip,
	})
}

// Rename renames a clip in Live
func (h *ClipHandler) Rename(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	var req types.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.RenameClip(track, slot, req.Name); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": req.Name})
}

// GetNotes returns the clip's MIDI notes
func (h *ClipHandler) GetNotes(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	notes, err := h.session.ClipNotes(track, slot)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": len(notes),
	})
}

// AddNote inserts a note into the clip
func (h *ClipHandler) AddNote(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	var req types.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.AddClipNote(track, slot, req); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "note added"})
}

// RemoveNotes clears the clip's notes
func (h *ClipHandler) RemoveNotes(c *gin.Context) {
	track, slot, ok := clipParams(c)
	if !ok {
		return
	}

	if err := h.session.RemoveClipNotes(track, slot); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notes removed"})
}

// clipParams parses the :trackId and :clipId path parameters.
func clipParams(c *gin.Context) (int, int, bool) {
	track, err := strconv.Atoi(c.Param("trackId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track ID must be a number"})
		return 0, 0, false
	}
	slot, err := strconv.Atoi(c.Param("clipId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "clip ID must be a number"})
		return 0, 0, false
	}
	return track, slot, true
}
