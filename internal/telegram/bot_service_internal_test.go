package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"
)

func TestParseResolveCallback(t *testing.T) {
	tests := []struct {
		data   string
		action complaint.Action
		id     uint
		ok     bool
	}{
		{"accept_7", complaint.ActionAccept, 7, true},
		{"reject_42", complaint.ActionReject, 42, true},
		{"block_1", complaint.ActionBlock, 1, true},
		{"accept_0", "", 0, false},
		{"accept_abc", "", 0, false},
		{"escalate_7", "", 0, false},
		{"accept", "", 0, false},
		{"", "", 0, false},
	}
	for _, tt := range tests {
		action, id, ok := parseResolveCallback(tt.data)
		assert.Equal(t, tt.ok, ok, tt.data)
		assert.Equal(t, tt.action, action, tt.data)
		assert.Equal(t, tt.id, id, tt.data)
	}
}

func TestExtractEvidence(t *testing.T) {
	fileID, mediaType := extractEvidence(&tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	})
	assert.Equal(t, "large", fileID, "largest photo size wins")
	assert.Equal(t, "photo", mediaType)

	fileID, mediaType = extractEvidence(&tgbotapi.Message{
		Video: &tgbotapi.Video{FileID: "vid"},
	})
	assert.Equal(t, "vid", fileID)
	assert.Equal(t, "video", mediaType)

	fileID, mediaType = extractEvidence(&tgbotapi.Message{
		Document: &tgbotapi.Document{FileID: "doc"},
	})
	assert.Equal(t, "doc", fileID)
	assert.Equal(t, "document", mediaType)

	fileID, mediaType = extractEvidence(&tgbotapi.Message{Text: "just text"})
	assert.Empty(t, fileID)
	assert.Empty(t, mediaType)
}

func TestUserLang(t *testing.T) {
	assert.Equal(t, localization.DefaultLang, userLang(""))
	assert.Equal(t, "en", userLang("en"))
}

func TestBuildNotificationText(t *testing.T) {
	localizer, err := localization.NewLocalizer()
	require.NoError(t, err)

	c := &models.Complaint{
		ID:            7,
		SubmitterID:   100,
		SubmitterName: "citizen",
		FIO:           "Иванов Иван",
		Officer:       "сержант Сидоров",
		Violation:     "Грубость",
	}
	text := BuildNotificationText(c, localizer)
	assert.Contains(t, text, "#7")
	assert.Contains(t, text, "@citizen")
	assert.Contains(t, text, "Иванов Иван")
	assert.Contains(t, text, "сержант Сидоров")
	assert.Contains(t, text, "Грубость")

	c.SubmitterName = ""
	text = BuildNotificationText(c, localizer)
	assert.NotContains(t, text, "@ ")
	assert.Contains(t, text, localizer.GetString(localization.DefaultLang, "no_username"))
}
