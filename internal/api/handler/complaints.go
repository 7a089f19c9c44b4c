package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"complaintdesk/backend/internal/complaint"
)

// ListPending returns every complaint still awaiting a decision.
func (h *Handler) ListPending(c *gin.Context) {
	complaints, err := h.Complaints.ListPending()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

// ResolveComplaint performs a terminal transition on behalf of a staff
// principal. AlreadyResolved comes back as 409 with the winner's outcome
// semantics: it is information, not a failure.
func (h *Handler) ResolveComplaint(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid complaint id"})
		return
	}

	var req struct {
		Action  string `json:"action" binding:"required"`
		ActorID int64  `json:"actor_id" binding:"required"`
		Reason  string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action and actor_id are required"})
		return
	}

	res, err := h.Resolution.Resolve(c.Request.Context(), uint(id64), complaint.Action(req.Action), req.ActorID, req.Reason)
	switch err {
	case nil:
		c.JSON(http.StatusOK, gin.H{"complaint": res.Complaint})
	case complaint.ErrAlreadyResolved:
		c.JSON(http.StatusConflict, gin.H{"status": "already_resolved"})
	case complaint.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
	case complaint.ErrUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": "actor is not authorized staff"})
	case complaint.ErrInvalidReason, complaint.ErrInvalidAction:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve complaint"})
	}
}
