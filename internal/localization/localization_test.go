package localization_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/backend/internal/localization"
)

func TestNewLocalizerLoadsEmbeddedLocales(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	assert.NotEqual(t, "welcome_user", l.GetString("ru", "welcome_user"))
	assert.NotEqual(t, "welcome_user", l.GetString("en", "welcome_user"))
}

func TestGetStringFallsBackToDefault(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	// Unknown language falls back to the ru catalog.
	assert.Equal(t, l.GetString("ru", "welcome_user"), l.GetString("de", "welcome_user"))
}

func TestGetStringUnknownKeyReturnsKey(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	assert.Equal(t, "no_such_key", l.GetString("ru", "no_such_key"))
	assert.Equal(t, "no_such_key", l.GetString("xx", "no_such_key"))
}

// TestLocalesCoverSameKeys guards against a key added to one catalog only.
// The en catalog may lag, but every en key must exist in ru so the fallback
// is always meaningful.
func TestLocalesCoverSameKeys(t *testing.T) {
	l, err := localization.NewLocalizer()
	require.NoError(t, err)

	for _, key := range []string{
		"welcome_user", "you_are_blocked", "complaint_step_fio",
		"complaint_submitted", "reject_reason_prompt", "already_resolved",
		"btn_accept", "btn_reject", "btn_block",
	} {
		assert.NotEqual(t, key, l.GetString("ru", key), "missing ru key %s", key)
	}
}
