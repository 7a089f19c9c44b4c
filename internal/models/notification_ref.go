package models

import "time"

// NotificationRef records one delivered copy of a complaint notification:
// which staff chat received it and the Telegram message ID that allows the
// inline keyboard to be edited away later. Rows are appended during fan-out
// and read once during retraction; they are never updated.
type NotificationRef struct {
	ID          uint  `gorm:"primaryKey"`
	ComplaintID uint  `gorm:"not null;index"`
	ChatID      int64 `gorm:"not null"`
	MessageID   int   `gorm:"not null"`
	CreatedAt   time.Time
}
