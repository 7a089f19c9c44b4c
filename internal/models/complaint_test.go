package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"complaintdesk/backend/internal/models"
)

// TestStatusIsTerminal verifies pending is the only state that permits a
// further transition.
func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, models.StatusPending.IsTerminal())
	assert.True(t, models.StatusAccepted.IsTerminal())
	assert.True(t, models.StatusRejected.IsTerminal())
	assert.True(t, models.StatusBlocked.IsTerminal())
}

func TestComplaintHasMedia(t *testing.T) {
	c := &models.Complaint{}
	assert.False(t, c.HasMedia())

	c.MediaFileID = "AgACAgIAAxkBAAI"
	c.MediaType = "photo"
	assert.True(t, c.HasMedia())
}

func TestEmployeeProfileComplete(t *testing.T) {
	e := &models.Employee{Handle: "officer_one"}
	assert.False(t, e.ProfileComplete())

	e.FullName = "Петренко Петро"
	e.Position = "інспектор"
	e.Rank = "лейтенант"
	assert.False(t, e.ProfileComplete(), "nickname still missing")

	e.Nickname = "Петро"
	assert.True(t, e.ProfileComplete())
}
