// Package handler exposes the administrative REST surface: pending
// complaints, staff and block-list management, resolution, and the live
// audit WebSocket feed.
package handler

import (
	"github.com/gin-gonic/gin"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/directory"
	"complaintdesk/backend/internal/livefeed"
	"complaintdesk/backend/internal/resolution"
	"complaintdesk/backend/internal/storage"
)

type Handler struct {
	Storage    storage.Storage
	Directory  *directory.Service
	Complaints *complaint.Service
	Resolution *resolution.Coordinator
	Hub        *livefeed.Hub

	jwtSecret []byte
	adminKey  string
}

func NewHandler(
	st storage.Storage,
	dir *directory.Service,
	complaints *complaint.Service,
	coordinator *resolution.Coordinator,
	hub *livefeed.Hub,
	jwtSecret, adminKey string,
) *Handler {
	return &Handler{
		Storage:    st,
		Directory:  dir,
		Complaints: complaints,
		Resolution: coordinator,
		Hub:        hub,
		jwtSecret:  []byte(jwtSecret),
		adminKey:   adminKey,
	}
}

// Register wires all routes into the gin engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/auth", h.Login)

	authed := r.Group("/", h.AuthRequired())
	authed.GET("/complaints/pending", h.ListPending)
	authed.POST("/complaints/:id/resolve", h.ResolveComplaint)
	authed.GET("/employees", h.ListEmployees)
	authed.POST("/employees", h.AddEmployee)
	authed.DELETE("/employees/:handle", h.RemoveEmployee)
	authed.GET("/blocked", h.ListBlocked)
	authed.DELETE("/blocked/:id", h.Unblock)
	authed.GET("/ws", h.ServeAuditFeed)
}
