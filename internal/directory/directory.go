// Package directory is the registry of staff members authorized to handle
// complaints. Handles are assigned by the administrator before the person's
// Telegram identity is known; the directory binds the chat ID lazily on
// first contact and gates every authorization decision in the system.
package directory

import (
	"errors"
	"fmt"

	"complaintdesk/backend/internal/models"
)

var (
	ErrDuplicateHandle = errors.New("handle already exists")
	ErrNotFound        = errors.New("employee not found")
	// ErrAlreadyBound means the handle or the principal already carries a
	// different binding. Bindings are immutable once set.
	ErrAlreadyBound = errors.New("principal binding already exists")
)

// Store is the slice of the storage layer the directory needs.
type Store interface {
	CreateEmployee(e *models.Employee) error
	GetEmployeeByHandle(handle string) (*models.Employee, error)
	GetEmployeeByTelegramID(telegramID int64) (*models.Employee, error)
	UpdateEmployee(e *models.Employee) error
	DeleteEmployeeByHandle(handle string) error
	ListEmployees() ([]models.Employee, error)
	ListRecipientIDs() ([]int64, error)
}

// Profile carries the fields collected during staff self-registration.
type Profile struct {
	FullName string
	Position string
	Rank     string
	Nickname string
}

// Service implements the identity directory on top of a Store.
type Service struct {
	store   Store
	adminID int64
}

func NewService(store Store, adminID int64) *Service {
	return &Service{store: store, adminID: adminID}
}

// AddEmployee creates an unregistered, unbound employee record for a handle
// the administrator knows in advance.
func (s *Service) AddEmployee(handle string) (*models.Employee, error) {
	normalized := models.NormalizeHandle(handle)
	if normalized == "" {
		return nil, fmt.Errorf("empty handle")
	}

	existing, err := s.store.GetEmployeeByHandle(normalized)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateHandle
	}

	e := &models.Employee{Handle: normalized}
	if err := s.store.CreateEmployee(e); err != nil {
		return nil, err
	}
	return e, nil
}

// LinkPrincipal binds a chat ID to a handle on first contact. Linking the
// same pair twice is a no-op; a conflicting binding on either side is
// rejected with ErrAlreadyBound.
func (s *Service) LinkPrincipal(handle string, principalID int64) error {
	e, err := s.store.GetEmployeeByHandle(models.NormalizeHandle(handle))
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNotFound
	}

	if e.TelegramID != nil {
		if *e.TelegramID == principalID {
			return nil
		}
		return ErrAlreadyBound
	}

	other, err := s.store.GetEmployeeByTelegramID(principalID)
	if err != nil {
		return err
	}
	if other != nil {
		return ErrAlreadyBound
	}

	e.TelegramID = &principalID
	return s.store.UpdateEmployee(e)
}

// CompleteRegistration fills the profile of an unregistered employee matched
// by handle, guaranteeing the principal is bound afterwards. Fails with
// ErrNotFound when no matching unregistered employee exists, leaving every
// record untouched.
func (s *Service) CompleteRegistration(handle string, principalID int64, profile Profile) (*models.Employee, error) {
	e, err := s.store.GetEmployeeByHandle(models.NormalizeHandle(handle))
	if err != nil {
		return nil, err
	}
	if e == nil || e.Registered {
		return nil, ErrNotFound
	}

	if profile.FullName == "" || profile.Position == "" || profile.Rank == "" || profile.Nickname == "" {
		return nil, fmt.Errorf("incomplete profile for %s", e.Handle)
	}

	if e.TelegramID == nil {
		if err := s.LinkPrincipal(e.Handle, principalID); err != nil {
			return nil, err
		}
		e.TelegramID = &principalID
	} else if *e.TelegramID != principalID {
		return nil, ErrAlreadyBound
	}

	e.FullName = profile.FullName
	e.Position = profile.Position
	e.Rank = profile.Rank
	e.Nickname = profile.Nickname
	e.Registered = true

	if err := s.store.UpdateEmployee(e); err != nil {
		return nil, err
	}
	return e, nil
}

// IsAuthorizedStaff reports whether the principal may resolve complaints:
// either the administrator or a registered employee. Checked fresh on every
// action, so removing an employee revokes access immediately.
func (s *Service) IsAuthorizedStaff(principalID int64) (bool, error) {
	if principalID == s.adminID {
		return true, nil
	}
	e, err := s.store.GetEmployeeByTelegramID(principalID)
	if err != nil {
		return false, err
	}
	return e != nil && e.Registered, nil
}

// ListRecipients returns the administrator plus every bound, registered
// employee chat ID. Order is not significant.
func (s *Service) ListRecipients() ([]int64, error) {
	ids, err := s.store.ListRecipientIDs()
	if err != nil {
		return nil, err
	}
	recipients := make([]int64, 0, len(ids)+1)
	recipients = append(recipients, s.adminID)
	for _, id := range ids {
		if id != s.adminID {
			recipients = append(recipients, id)
		}
	}
	return recipients, nil
}

// FindByPrincipal looks an employee up by bound chat ID. Returns (nil, nil)
// when the principal has no employee record (e.g. the administrator).
func (s *Service) FindByPrincipal(principalID int64) (*models.Employee, error) {
	return s.store.GetEmployeeByTelegramID(principalID)
}

func (s *Service) ListEmployees() ([]models.Employee, error) {
	return s.store.ListEmployees()
}

// RemoveEmployee deletes the record unconditionally. Missing handles are not
// an error: the end state is the same.
func (s *Service) RemoveEmployee(handle string) error {
	return s.store.DeleteEmployeeByHandle(models.NormalizeHandle(handle))
}

// AdminID exposes the configured administrator principal.
func (s *Service) AdminID() int64 { return s.adminID }
