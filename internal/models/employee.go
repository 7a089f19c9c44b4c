package models

import (
	"strings"
	"time"
)

// Employee is a staff member authorized to resolve complaints. The handle is
// entered by the administrator before the person ever contacts the bot, so
// TelegramID stays nil until the first contact that matches the handle.
// Registered flips true only after the self-registration form filled in all
// profile fields.
type Employee struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Handle     string `gorm:"uniqueIndex;not null" json:"handle"`
	TelegramID *int64 `gorm:"uniqueIndex" json:"telegram_id,omitempty"`

	FullName string `json:"full_name"`
	Position string `json:"position"`
	Rank     string `json:"rank"`
	Nickname string `json:"nickname"`

	Registered bool `gorm:"not null;default:false" json:"registered"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeHandle brings a Telegram username to its canonical stored form:
// trimmed, without the leading @, lower-cased.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// ProfileComplete reports whether every self-registration field is filled.
func (e *Employee) ProfileComplete() bool {
	return e.FullName != "" && e.Position != "" && e.Rank != "" && e.Nickname != ""
}
