// Package complaint implements the complaint lifecycle: submission of new
// reports and the race-safe transition from pending to exactly one terminal
// state. Notification fan-out, retraction and audit emission are invoked by
// the caller as separate steps so a failure there never leaves the store
// inconsistent.
package complaint

import (
	"errors"
	"log"
	"strings"
	"time"

	"complaintdesk/backend/internal/models"
)

// Action is a staff decision on a pending complaint.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionBlock  Action = "block"
)

var (
	ErrNotFound = errors.New("complaint not found")
	// ErrAlreadyResolved is the benign race outcome: another staff member
	// resolved the complaint first. It is informational, not a failure.
	ErrAlreadyResolved = errors.New("complaint already resolved")
	ErrUnauthorized    = errors.New("actor is not authorized staff")
	ErrInvalidReason   = errors.New("reject requires a non-empty reason")
	ErrInvalidAction   = errors.New("unknown resolution action")
	// ErrSubmitterBlocked rejects a submission before any store mutation.
	ErrSubmitterBlocked = errors.New("submitter is blocked")
	ErrEmptyField       = errors.New("required complaint field is empty")
)

// Store is the slice of the storage layer the lifecycle needs. The
// ResolveComplaint conditional update is the only synchronization point.
type Store interface {
	CreateComplaint(c *models.Complaint) error
	GetComplaintByID(id uint) (*models.Complaint, error)
	ResolveComplaint(id uint, status models.Status, resolverID int64, reason string) (bool, error)
	ListPendingComplaints() ([]models.Complaint, error)
	BlockUser(telegramID int64, username string) error
	IsBlocked(telegramID int64) (bool, error)
}

// Authorizer answers whether a principal may act on complaints. Implemented
// by the identity directory.
type Authorizer interface {
	IsAuthorizedStaff(principalID int64) (bool, error)
}

// Submission carries the collected fields of a new complaint.
type Submission struct {
	SubmitterID   int64
	SubmitterName string
	FIO           string
	Officer       string
	Violation     string
	MediaFileID   string
	MediaType     string
}

// ResolutionResult is returned to the acting staff member on a successful
// terminal transition.
type ResolutionResult struct {
	Complaint   models.Complaint
	Action      Action
	SubmitterID int64
}

// Service handles the business logic for complaints.
type Service struct {
	store Store
	auth  Authorizer
}

// NewService creates a new complaint service.
func NewService(store Store, auth Authorizer) *Service {
	return &Service{store: store, auth: auth}
}

// Submit validates and persists a new pending complaint. Blocked submitters
// are rejected before anything is written.
func (s *Service) Submit(sub Submission) (*models.Complaint, error) {
	blocked, err := s.store.IsBlocked(sub.SubmitterID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrSubmitterBlocked
	}

	if strings.TrimSpace(sub.FIO) == "" || strings.TrimSpace(sub.Violation) == "" {
		return nil, ErrEmptyField
	}

	c := &models.Complaint{
		SubmitterID:   sub.SubmitterID,
		SubmitterName: sub.SubmitterName,
		FIO:           sub.FIO,
		Officer:       sub.Officer,
		Violation:     sub.Violation,
		MediaFileID:   sub.MediaFileID,
		MediaType:     sub.MediaType,
		Status:        models.StatusPending,
	}
	if err := s.store.CreateComplaint(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Resolve attempts the terminal transition. Exactly one concurrent caller
// succeeds per complaint; everyone else gets ErrAlreadyResolved. A block
// action additionally inserts the submitter into the block list; failure of
// that insert is logged but does not undo the resolution.
func (s *Service) Resolve(complaintID uint, action Action, actorID int64, reason string) (*ResolutionResult, error) {
	status, ok := terminalStatus(action)
	if !ok {
		return nil, ErrInvalidAction
	}
	reason = strings.TrimSpace(reason)
	if action == ActionReject && reason == "" {
		return nil, ErrInvalidReason
	}

	authorized, err := s.auth.IsAuthorizedStaff(actorID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, ErrUnauthorized
	}

	c, err := s.store.GetComplaintByID(complaintID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}

	won, err := s.store.ResolveComplaint(complaintID, status, actorID, reason)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyResolved
	}

	if action == ActionBlock {
		if err := s.store.BlockUser(c.SubmitterID, c.SubmitterName); err != nil {
			log.Printf("ERROR: Complaint #%d resolved as blocked but block insert for %d failed: %v", complaintID, c.SubmitterID, err)
		}
	}

	now := time.Now()
	c.Status = status
	c.ResolverID = &actorID
	c.Reason = reason
	c.ResolvedAt = &now

	return &ResolutionResult{
		Complaint:   *c,
		Action:      action,
		SubmitterID: c.SubmitterID,
	}, nil
}

// ListPending returns all complaints still awaiting a decision.
func (s *Service) ListPending() ([]models.Complaint, error) {
	return s.store.ListPendingComplaints()
}

func terminalStatus(action Action) (models.Status, bool) {
	switch action {
	case ActionAccept:
		return models.StatusAccepted, true
	case ActionReject:
		return models.StatusRejected, true
	case ActionBlock:
		return models.StatusBlocked, true
	default:
		return "", false
	}
}
