package models

import "time"

// BlockedUser bars a Telegram principal from submitting complaints. Presence
// of a row is the whole block: there is no expiry, removal is explicit.
type BlockedUser struct {
	TelegramID int64     `gorm:"primaryKey" json:"telegram_id"`
	Username   string    `json:"username"` // last known, may be empty
	BlockedAt  time.Time `gorm:"autoCreateTime" json:"blocked_at"`
}
