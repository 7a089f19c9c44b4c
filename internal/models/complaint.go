package models

import "time"

// Status is the lifecycle state of a complaint. Pending is the only
// non-terminal state; every other value is terminal and immutable once set.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusBlocked  Status = "blocked"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusBlocked
}

// Complaint is a user-submitted incident report. IDs are assigned by the
// database sequence and never reused. ResolverID stays nil while the
// complaint is pending and is set atomically with the terminal status.
type Complaint struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SubmitterID   int64  `gorm:"not null;index" json:"submitter_id"`
	SubmitterName string `json:"submitter_name"` // Telegram username, may be empty

	FIO       string `gorm:"not null" json:"fio"`
	Officer   string `gorm:"not null" json:"officer"`
	Violation string `gorm:"type:text;not null" json:"violation"`

	// Evidence is optional: an opaque Telegram file ID plus its kind
	// ("photo", "video" or "document").
	MediaFileID string `json:"media_file_id,omitempty"`
	MediaType   string `json:"media_type,omitempty"`

	Status     Status `gorm:"type:text;not null;default:'pending';index" json:"status"`
	ResolverID *int64 `json:"resolver_id,omitempty"`
	Reason     string `json:"reason,omitempty"` // set on reject

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// HasMedia reports whether the complaint carries an evidence attachment.
func (c *Complaint) HasMedia() bool {
	return c.MediaFileID != ""
}
