package models

import (
	"time"

	"github.com/lib/pq"
)

// AuditRecord is the durable trail of one terminal transition: who resolved
// which complaint, how, and which staff chats had their notification copies
// retracted. Rows are append-only.
type AuditRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ComplaintID uint   `gorm:"not null;index" json:"complaint_id"`
	Action      string `gorm:"not null" json:"action"`
	ActorID     int64  `gorm:"not null" json:"actor_id"`
	// ActorName is the acting employee's profile summary, or "administrator"
	// when the actor has no employee record.
	ActorName string `json:"actor_name"`
	Reason    string `json:"reason,omitempty"`

	RetractedChats pq.Int64Array `gorm:"type:bigint[]" json:"retracted_chats"`

	CreatedAt time.Time `json:"created_at"`
}
