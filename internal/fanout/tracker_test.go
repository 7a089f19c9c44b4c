package fanout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/backend/internal/fanout"
	"complaintdesk/backend/internal/models"
)

// fakeDeliverer records sends and edits, failing for chat IDs in failFor.
type fakeDeliverer struct {
	mu      sync.Mutex
	sent    map[int64]int // chatID -> messageID
	edited  map[int64]int
	failFor map[int64]bool
	nextMsg int
}

func newFakeDeliverer(failFor ...int64) *fakeDeliverer {
	fail := make(map[int64]bool, len(failFor))
	for _, id := range failFor {
		fail[id] = true
	}
	return &fakeDeliverer{
		sent:    make(map[int64]int),
		edited:  make(map[int64]int),
		failFor: fail,
		nextMsg: 1000,
	}
}

func (d *fakeDeliverer) Deliver(ctx context.Context, chatID int64, n fanout.Notification) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[chatID] {
		return 0, errors.New("chat unreachable")
	}
	d.nextMsg++
	d.sent[chatID] = d.nextMsg
	return d.nextMsg, nil
}

func (d *fakeDeliverer) RemoveControls(ctx context.Context, chatID int64, messageID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFor[chatID] {
		return errors.New("message gone")
	}
	d.edited[chatID] = messageID
	return nil
}

// fakeRefStore is an in-memory RefStore.
type fakeRefStore struct {
	mu      sync.Mutex
	refs    map[uint][]models.NotificationRef
	saveErr error
}

func newFakeRefStore() *fakeRefStore {
	return &fakeRefStore{refs: make(map[uint][]models.NotificationRef)}
}

func (s *fakeRefStore) SaveNotificationRefs(refs []models.NotificationRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, r := range refs {
		s.refs[r.ComplaintID] = append(s.refs[r.ComplaintID], r)
	}
	return nil
}

func (s *fakeRefStore) GetNotificationRefs(complaintID uint) ([]models.NotificationRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs[complaintID], nil
}

func TestBroadcastDeliversToAllRecipients(t *testing.T) {
	deliverer := newFakeDeliverer()
	store := newFakeRefStore()
	tracker := fanout.NewTracker(store, deliverer, time.Second)

	n := fanout.Notification{ComplaintID: 7, Text: "new complaint"}
	count, err := tracker.Broadcast(context.Background(), n, []int64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	refs, err := store.GetNotificationRefs(7)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
	for _, ref := range refs {
		assert.Equal(t, uint(7), ref.ComplaintID)
		assert.Equal(t, deliverer.sent[ref.ChatID], ref.MessageID, "ref must point at the delivered message")
	}
}

// TestBroadcastPartialFailure verifies only successful deliveries get a
// persisted reference and the failures do not abort the pass.
func TestBroadcastPartialFailure(t *testing.T) {
	deliverer := newFakeDeliverer(20)
	store := newFakeRefStore()
	tracker := fanout.NewTracker(store, deliverer, time.Second)

	n := fanout.Notification{ComplaintID: 7, Text: "new complaint"}
	count, err := tracker.Broadcast(context.Background(), n, []int64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	refs, _ := store.GetNotificationRefs(7)
	assert.Len(t, refs, 2)
	for _, ref := range refs {
		assert.NotEqual(t, int64(20), ref.ChatID)
	}
}

func TestBroadcastNoRecipients(t *testing.T) {
	tracker := fanout.NewTracker(newFakeRefStore(), newFakeDeliverer(), time.Second)

	count, err := tracker.Broadcast(context.Background(), fanout.Notification{ComplaintID: 1}, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBroadcastSaveError(t *testing.T) {
	store := newFakeRefStore()
	store.saveErr = assert.AnError
	tracker := fanout.NewTracker(store, newFakeDeliverer(), time.Second)

	count, err := tracker.Broadcast(context.Background(), fanout.Notification{ComplaintID: 1}, []int64{10})
	assert.Error(t, err)
	assert.Zero(t, count)
}

// TestRetractAllEditsEveryDeliveredCopy verifies retraction touches exactly
// the chats that received a copy.
func TestRetractAllEditsEveryDeliveredCopy(t *testing.T) {
	deliverer := newFakeDeliverer(20)
	store := newFakeRefStore()
	tracker := fanout.NewTracker(store, deliverer, time.Second)

	n := fanout.Notification{ComplaintID: 7, Text: "new complaint"}
	_, err := tracker.Broadcast(context.Background(), n, []int64{10, 20, 30})
	require.NoError(t, err)

	chats, err := tracker.RetractAll(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 30}, chats)

	assert.Equal(t, deliverer.sent[10], deliverer.edited[10])
	assert.Equal(t, deliverer.sent[30], deliverer.edited[30])
	assert.NotContains(t, deliverer.edited, int64(20))
}

// TestRetractAllSwallowsEditFailures verifies a failing edit is logged, not
// raised, and the failing chat is still reported as attempted.
func TestRetractAllSwallowsEditFailures(t *testing.T) {
	deliverer := newFakeDeliverer()
	store := newFakeRefStore()
	tracker := fanout.NewTracker(store, deliverer, time.Second)

	n := fanout.Notification{ComplaintID: 7, Text: "new complaint"}
	_, err := tracker.Broadcast(context.Background(), n, []int64{10, 20})
	require.NoError(t, err)

	// The message was delivered but the edit will fail.
	deliverer.mu.Lock()
	deliverer.failFor[20] = true
	deliverer.mu.Unlock()

	chats, err := tracker.RetractAll(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, chats)
	assert.Contains(t, deliverer.edited, int64(10))
	assert.NotContains(t, deliverer.edited, int64(20))
}

func TestRetractAllNothingTracked(t *testing.T) {
	tracker := fanout.NewTracker(newFakeRefStore(), newFakeDeliverer(), time.Second)

	chats, err := tracker.RetractAll(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, chats)
}
