package telegram

import (
	"context"
	"fmt"
	"strings"

	"complaintdesk/backend/internal/fanout"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Bot API with the delivery primitives the core consumes:
// deliver a notification with action controls, strip those controls later,
// message a user directly, and append to the audit chat. It implements
// fanout.Deliverer and audit.Sink.
type Client struct {
	BotAPI    *tgbotapi.BotAPI
	Localizer *localization.Localizer
	AuditChat int64
}

func NewClient(bot *tgbotapi.BotAPI, localizer *localization.Localizer, auditChat int64) *Client {
	return &Client{BotAPI: bot, Localizer: localizer, AuditChat: auditChat}
}

// Deliver sends one copy of a complaint notification to a staff chat and
// returns the Telegram message ID for later retraction. Media evidence is
// attached with the notification text as caption.
func (c *Client) Deliver(ctx context.Context, chatID int64, n fanout.Notification) (int, error) {
	keyboard := c.actionKeyboard(n.ComplaintID)

	var msg tgbotapi.Chattable
	switch {
	case n.MediaFileID == "":
		m := tgbotapi.NewMessage(chatID, n.Text)
		m.ReplyMarkup = keyboard
		msg = m
	case n.MediaType == "photo":
		m := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(n.MediaFileID))
		m.Caption = n.Text
		m.ReplyMarkup = keyboard
		msg = m
	case n.MediaType == "video":
		m := tgbotapi.NewVideo(chatID, tgbotapi.FileID(n.MediaFileID))
		m.Caption = n.Text
		m.ReplyMarkup = keyboard
		msg = m
	default:
		m := tgbotapi.NewDocument(chatID, tgbotapi.FileID(n.MediaFileID))
		m.Caption = n.Text
		m.ReplyMarkup = keyboard
		msg = m
	}

	sent, err := c.send(ctx, msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// RemoveControls edits a previously delivered notification to drop its
// inline keyboard. Editing an already-retracted message is harmless.
func (c *Client) RemoveControls(ctx context.Context, chatID int64, messageID int) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, err := c.request(ctx, edit)
	return err
}

// NotifyDirect sends a plain text message to a user, best-effort.
func (c *Client) NotifyDirect(ctx context.Context, chatID int64, text string) error {
	_, err := c.send(ctx, tgbotapi.NewMessage(chatID, text))
	return err
}

// SendAudit appends a record to the configured audit chat.
func (c *Client) SendAudit(ctx context.Context, text string) error {
	if c.AuditChat == 0 {
		return nil
	}
	_, err := c.send(ctx, tgbotapi.NewMessage(c.AuditChat, text))
	return err
}

func (c *Client) actionKeyboard(complaintID uint) tgbotapi.InlineKeyboardMarkup {
	lang := localization.DefaultLang
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Localizer.GetString(lang, "btn_accept"), fmt.Sprintf("accept_%d", complaintID)),
			tgbotapi.NewInlineKeyboardButtonData(c.Localizer.GetString(lang, "btn_reject"), fmt.Sprintf("reject_%d", complaintID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Localizer.GetString(lang, "btn_block"), fmt.Sprintf("block_%d", complaintID)),
		),
	)
}

// send runs a Bot API call in its own goroutine so the caller's context
// deadline holds even though the underlying library is not context-aware.
func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	type result struct {
		msg tgbotapi.Message
		err error
	}
	ch := make(chan result, 1)
	go func() {
		sent, err := c.BotAPI.Send(msg)
		ch <- result{sent, err}
	}()

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		return tgbotapi.Message{}, ctx.Err()
	}
}

func (c *Client) request(ctx context.Context, msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	type result struct {
		resp *tgbotapi.APIResponse
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := c.BotAPI.Request(msg)
		ch <- result{resp, err}
	}()

	select {
	case r := <-ch:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BuildNotificationText renders the staff-facing summary of a complaint.
func BuildNotificationText(c *models.Complaint, localizer *localization.Localizer) string {
	uname := "@" + c.SubmitterName
	if c.SubmitterName == "" {
		uname = localizer.GetString(localization.DefaultLang, "no_username")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📨 Новая жалоба #%d\n\n", c.ID)
	fmt.Fprintf(&b, "👤 От: %s (ID: %d)\n", uname, c.SubmitterID)
	fmt.Fprintf(&b, "📋 ФИО заявителя: %s\n", c.FIO)
	fmt.Fprintf(&b, "👮 Сотрудник: %s\n", c.Officer)
	fmt.Fprintf(&b, "⚠️ Нарушение: %s", c.Violation)
	return b.String()
}
