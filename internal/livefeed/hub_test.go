package livefeed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"complaintdesk/backend/internal/livefeed"
	"complaintdesk/backend/internal/models"
)

func newTestClient(id string, buffer int) *livefeed.Client {
	return &livefeed.Client{
		ID:   id,
		Send: make(chan models.AuditRecord, buffer),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := livefeed.NewHub(nil)
	go hub.Run()

	client := newTestClient("op_A", 1)

	hub.RegisterCh <- client
	time.Sleep(100 * time.Millisecond)
	assert.Contains(t, hub.Clients, "op_A")

	hub.UnregisterCh <- client
	time.Sleep(100 * time.Millisecond)
	assert.NotContains(t, hub.Clients, "op_A")

	_, open := <-client.Send
	assert.False(t, open, "unregistering must close the client's send channel")
}

func TestHub_DispatchesEventToAllClients(t *testing.T) {
	hub := livefeed.NewHub(nil)
	go hub.Run()

	clientA := newTestClient("op_A", 1)
	clientB := newTestClient("op_B", 1)
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	rec := models.AuditRecord{ComplaintID: 7, Action: "accept", ActorID: 777}
	hub.EventsCh <- rec
	time.Sleep(100 * time.Millisecond)

	select {
	case got := <-clientA.Send:
		assert.Equal(t, rec.ComplaintID, got.ComplaintID)
	default:
		t.Fatal("client A did not receive the event")
	}
	select {
	case got := <-clientB.Send:
		assert.Equal(t, rec.Action, got.Action)
	default:
		t.Fatal("client B did not receive the event")
	}
}

// TestHub_DropsSlowConsumer verifies a client with a full send buffer is
// disconnected instead of stalling the dispatch loop.
func TestHub_DropsSlowConsumer(t *testing.T) {
	hub := livefeed.NewHub(nil)
	go hub.Run()

	slow := newTestClient("op_slow", 1)
	hub.RegisterCh <- slow
	time.Sleep(100 * time.Millisecond)

	hub.EventsCh <- models.AuditRecord{ComplaintID: 1}
	hub.EventsCh <- models.AuditRecord{ComplaintID: 2}
	time.Sleep(100 * time.Millisecond)

	assert.NotContains(t, hub.Clients, "op_slow")
}
