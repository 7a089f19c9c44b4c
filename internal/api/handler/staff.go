package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"complaintdesk/backend/internal/directory"
)

func (h *Handler) ListEmployees(c *gin.Context) {
	employees, err := h.Directory.ListEmployees()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list employees"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *Handler) AddEmployee(c *gin.Context) {
	var req struct {
		Handle string `json:"handle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}

	e, err := h.Directory.AddEmployee(req.Handle)
	switch err {
	case nil:
		c.JSON(http.StatusCreated, gin.H{"employee": e})
	case directory.ErrDuplicateHandle:
		c.JSON(http.StatusConflict, gin.H{"error": "handle already exists"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func (h *Handler) RemoveEmployee(c *gin.Context) {
	if err := h.Directory.RemoveEmployee(c.Param("handle")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove employee"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListBlocked(c *gin.Context) {
	users, err := h.Storage.ListBlockedUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list blocked users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": users})
}

func (h *Handler) Unblock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram id"})
		return
	}
	if err := h.Storage.UnblockUser(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unblock user"})
		return
	}
	c.Status(http.StatusNoContent)
}
