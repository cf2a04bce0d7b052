package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baton/services"
	"baton/types"
)

// ViewClipHandler handles endpoints for the clip selected in Live's detail
// view. No scan is needed: the queries always target whatever clip the user
// has open in Live.
type ViewClipHandler struct {
	session services.Session
}

// NewViewClipHandler creates a new view clip handler
func NewViewClipHandler(session services.Session) *ViewClipHandler {
	return &ViewClipHandler{session: session}
}

// GetDetails returns the selected clip's full record
func (h *ViewClipHandler) GetDetails(c *gin.Context) {
	details, err := h.session.DetailClipDetails()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetNotes returns the selected clip's MIDI notes
func (h *ViewClipHandler) GetNotes(c *gin.Context) {
	notes, err := h.session.DetailClipNotes()
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"total": len(notes),
	})
}

// AddNote inserts a note into the selected clip
func (h *ViewClipHandler) AddNote(c *gin.Context) {
	var req types.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.session.AddDetailClipNote(req); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "note added"})
}

// RemoveNotes clears the selected clip's notes
func (h *ViewClipHandler) RemoveNotes(c *gin.Context) {
	if err := h.session.RemoveDetailClipNotes(); err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notes removed"})
}
