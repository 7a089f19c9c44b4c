// Package livefeed streams audit events to connected operator dashboards
// over WebSocket. Events arrive through Redis Pub/Sub so every process
// behind a load balancer sees resolutions made anywhere.
package livefeed

import (
	"encoding/json"
	"log"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventSource is the subscription half of the audit stream.
type EventSource interface {
	SubscribeAuditEvents() *redis.PubSub
}

// Hub fans incoming audit events out to every connected client.
type Hub struct {
	Clients map[string]*Client

	RegisterCh   chan *Client
	UnregisterCh chan *Client
	EventsCh     chan models.AuditRecord

	source EventSource
}

// NewHub creates the hub. A nil source disables the Pub/Sub listener, which
// is what tests use to inject events directly on EventsCh.
func NewHub(source EventSource) *Hub {
	return &Hub{
		Clients:      make(map[string]*Client),
		RegisterCh:   make(chan *Client),
		UnregisterCh: make(chan *Client),
		EventsCh:     make(chan models.AuditRecord, 16),
		source:       source,
	}
}

// Run is the hub's dispatcher goroutine.
func (h *Hub) Run() {
	if h.source != nil {
		go h.listenPubSub()
	}

	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.ID] = client
			log.Printf("INFO: Audit feed client %s connected (%d total)", client.ID, len(h.Clients))

		case client := <-h.UnregisterCh:
			if _, ok := h.Clients[client.ID]; ok {
				delete(h.Clients, client.ID)
				client.Close()
			}

		case event := <-h.EventsCh:
			for _, client := range h.Clients {
				select {
				case client.Send <- event:
				default:
					// Slow consumer: drop the connection rather than the
					// whole dispatch loop.
					delete(h.Clients, client.ID)
					client.Close()
				}
			}
		}
	}
}

// listenPubSub pipes the Redis audit channel into the dispatcher.
func (h *Hub) listenPubSub() {
	pubsub := h.source.SubscribeAuditEvents()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var rec models.AuditRecord
		if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
			log.Printf("ERROR: Failed to unmarshal audit event: %v", err)
			continue
		}
		h.EventsCh <- rec
	}
}
