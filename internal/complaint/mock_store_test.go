package complaint_test

import (
	"sync"

	"complaintdesk/backend/internal/models"
)

// fakeStore is an in-memory Store. ResolveComplaint reproduces the
// conditional-update semantics of the SQL layer: the status check and the
// write happen under one lock, so exactly one caller can win.
type fakeStore struct {
	mu         sync.Mutex
	complaints map[uint]*models.Complaint
	blocked    map[int64]string
	nextID     uint

	createErr error
	blockErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		complaints: make(map[uint]*models.Complaint),
		blocked:    make(map[int64]string),
		nextID:     1,
	}
}

func (f *fakeStore) CreateComplaint(c *models.Complaint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = f.nextID
	f.nextID++
	cp := *c
	f.complaints[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetComplaintByID(id uint) (*models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ResolveComplaint(id uint, status models.Status, resolverID int64, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok || c.Status != models.StatusPending {
		return false, nil
	}
	c.Status = status
	c.ResolverID = &resolverID
	c.Reason = reason
	return true, nil
}

func (f *fakeStore) ListPendingComplaints() ([]models.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Complaint
	for _, c := range f.complaints {
		if c.Status == models.StatusPending {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) BlockUser(telegramID int64, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blockErr != nil {
		return f.blockErr
	}
	if _, ok := f.blocked[telegramID]; !ok {
		f.blocked[telegramID] = username
	}
	return nil
}

func (f *fakeStore) IsBlocked(telegramID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocked[telegramID]
	return ok, nil
}

// fakeAuthorizer authorizes a fixed set of principals.
type fakeAuthorizer struct {
	staff map[int64]bool
}

func (f *fakeAuthorizer) IsAuthorizedStaff(principalID int64) (bool, error) {
	return f.staff[principalID], nil
}
