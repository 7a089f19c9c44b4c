// Package fanout delivers complaint notifications to every authorized staff
// recipient and later retracts the action controls from all delivered
// copies. Delivery and editing are best-effort per recipient: one failing or
// unresponsive chat never affects the others.
package fanout

import (
	"context"
	"log"
	"sync"
	"time"

	"complaintdesk/backend/internal/models"
)

// Notification is the payload of one complaint broadcast.
type Notification struct {
	ComplaintID uint
	Text        string
	MediaFileID string
	MediaType   string
}

// Deliverer abstracts the messaging platform: send a notification and get
// back an editable message ID, or strip the interactive controls from a
// previously delivered message.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, n Notification) (int, error)
	RemoveControls(ctx context.Context, chatID int64, messageID int) error
}

// RefStore persists the (recipient, message ID) pairs of successful
// deliveries so retraction can find every copy later.
type RefStore interface {
	SaveNotificationRefs(refs []models.NotificationRef) error
	GetNotificationRefs(complaintID uint) ([]models.NotificationRef, error)
}

// Tracker is the fan-out engine. Each send and each edit runs in its own
// goroutine bounded by the per-recipient timeout.
type Tracker struct {
	store     RefStore
	deliverer Deliverer
	timeout   time.Duration
}

func NewTracker(store RefStore, deliverer Deliverer, timeout time.Duration) *Tracker {
	return &Tracker{store: store, deliverer: deliverer, timeout: timeout}
}

// Broadcast sends the notification to every recipient concurrently and
// persists a reference for each successful delivery before returning. The
// returned count is the number of persisted references; per-recipient
// failures are logged and swallowed.
func (t *Tracker) Broadcast(ctx context.Context, n Notification, recipients []int64) (int, error) {
	var (
		mu   sync.Mutex
		refs []models.NotificationRef
		wg   sync.WaitGroup
	)

	for _, chatID := range recipients {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
			defer cancel()

			messageID, err := t.deliverer.Deliver(sendCtx, chatID, n)
			if err != nil {
				log.Printf("WARN: Failed to deliver complaint #%d notification to %d: %v", n.ComplaintID, chatID, err)
				return
			}

			mu.Lock()
			refs = append(refs, models.NotificationRef{
				ComplaintID: n.ComplaintID,
				ChatID:      chatID,
				MessageID:   messageID,
			})
			mu.Unlock()
		}(chatID)
	}
	wg.Wait()

	if err := t.store.SaveNotificationRefs(refs); err != nil {
		log.Printf("ERROR: Failed to persist %d notification refs for complaint #%d: %v", len(refs), n.ComplaintID, err)
		return 0, err
	}
	return len(refs), nil
}

// RetractAll edits every tracked copy of the complaint's notification to
// remove its controls. Edit failures are logged per recipient and never
// surfaced; the returned slice holds the chat IDs an edit was attempted for.
func (t *Tracker) RetractAll(ctx context.Context, complaintID uint) ([]int64, error) {
	refs, err := t.store.GetNotificationRefs(complaintID)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	chats := make([]int64, 0, len(refs))
	for _, ref := range refs {
		chats = append(chats, ref.ChatID)

		wg.Add(1)
		go func(ref models.NotificationRef) {
			defer wg.Done()

			editCtx, cancel := context.WithTimeout(ctx, t.timeout)
			defer cancel()

			if err := t.deliverer.RemoveControls(editCtx, ref.ChatID, ref.MessageID); err != nil {
				log.Printf("WARN: Failed to retract complaint #%d message %d in chat %d: %v", complaintID, ref.MessageID, ref.ChatID, err)
			}
		}(ref)
	}
	wg.Wait()

	return chats, nil
}
