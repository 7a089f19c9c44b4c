// Package telegram handles the integration with the Telegram Bot API: the
// update loop, the complaint intake form, staff self-registration, and the
// inline-keyboard callbacks through which staff resolve complaints.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/directory"
	"complaintdesk/backend/internal/fanout"
	"complaintdesk/backend/internal/localization"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/resolution"
	"complaintdesk/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Conversational states, kept per chat in Redis.
const (
	StateComplaintFIO       = "complaint_fio"
	StateComplaintOfficer   = "complaint_officer"
	StateComplaintViolation = "complaint_violation"
	StateComplaintMedia     = "complaint_media"

	StateRegisterName     = "register_name"
	StateRegisterPosition = "register_position"
	StateRegisterRank     = "register_rank"
	StateRegisterNickname = "register_nickname"

	// Reject needs a reason, so the complaint ID rides along in the state.
	stateRejectPrefix = "reject_reason:"
)

// BotService receives Telegram updates and routes them to the domain
// services. Resolution callbacks delegate to the coordinator, which owns the
// retract/audit/notify sequence.
type BotService struct {
	BotAPI     *tgbotapi.BotAPI
	Client     *Client
	Storage    storage.Storage
	Directory  *directory.Service
	Complaints *complaint.Service
	Tracker    *fanout.Tracker
	Resolution *resolution.Coordinator
	Localizer  *localization.Localizer
}

// NewBotService creates a new BotService instance.
func NewBotService(
	bot *tgbotapi.BotAPI,
	client *Client,
	st storage.Storage,
	dir *directory.Service,
	complaints *complaint.Service,
	tracker *fanout.Tracker,
	coordinator *resolution.Coordinator,
	localizer *localization.Localizer,
) *BotService {
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)
	return &BotService{
		BotAPI:     bot,
		Client:     client,
		Storage:    st,
		Directory:  dir,
		Complaints: complaints,
		Tracker:    tracker,
		Resolution: coordinator,
		Localizer:  localizer,
	}
}

// Run is the main loop for receiving Telegram updates.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		switch {
		case update.Message != nil:
			s.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			s.handleCallbackQuery(update.CallbackQuery)
		}
	}
}

func (s *BotService) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil || !msg.Chat.IsPrivate() {
		return
	}
	chatID := msg.Chat.ID
	lang := userLang(msg.From.LanguageCode)

	// First contact from a known handle binds the principal. Conflicts and
	// unknown handles are both fine here.
	if msg.From.UserName != "" {
		if err := s.Directory.LinkPrincipal(msg.From.UserName, chatID); err != nil &&
			err != directory.ErrNotFound && err != directory.ErrAlreadyBound {
			log.Printf("ERROR: Failed to link principal %d to @%s: %v", chatID, msg.From.UserName, err)
		}
	}

	if msg.IsCommand() {
		s.handleCommand(msg, lang)
		return
	}

	state, err := s.Storage.GetUserState(chatID)
	if err != nil {
		log.Printf("ERROR: Failed to read session state for %d: %v", chatID, err)
		return
	}
	if state != "" {
		s.handleStateMessage(msg, state, lang)
	}
}

func (s *BotService) handleCommand(msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		s.cmdStart(msg, lang)
	case "complaint":
		s.cmdComplaint(msg, lang)
	case "register":
		s.cmdRegister(msg, lang)
	case "skip":
		state, _ := s.Storage.GetUserState(chatID)
		if state == StateComplaintMedia {
			s.submitComplaint(msg, "", "", lang)
		}
	case "cancel":
		if err := s.Storage.ClearSession(chatID); err != nil {
			log.Printf("ERROR: Failed to clear session for %d: %v", chatID, err)
		}
		s.reply(chatID, s.Localizer.GetString(lang, "complaint_cancelled"))
	case "blocked":
		s.cmdBlocked(msg, lang)
	default:
		s.reply(chatID, s.Localizer.GetString(lang, "unknown_command"))
	}
}

func (s *BotService) cmdStart(msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	if chatID == s.Directory.AdminID() {
		s.reply(chatID, s.Localizer.GetString(lang, "welcome_admin"))
		return
	}
	if authorized, _ := s.Directory.IsAuthorizedStaff(chatID); authorized {
		s.reply(chatID, s.Localizer.GetString(lang, "welcome_staff"))
		return
	}
	if blocked, _ := s.Storage.IsBlocked(chatID); blocked {
		s.reply(chatID, s.Localizer.GetString(lang, "you_are_blocked"))
		return
	}
	s.reply(chatID, s.Localizer.GetString(lang, "welcome_user"))
}

func (s *BotService) cmdComplaint(msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	if blocked, _ := s.Storage.IsBlocked(chatID); blocked {
		s.reply(chatID, s.Localizer.GetString(lang, "you_are_blocked"))
		return
	}

	if err := s.Storage.SetUserState(chatID, StateComplaintFIO); err != nil {
		log.Printf("ERROR: Failed to start complaint form for %d: %v", chatID, err)
		return
	}
	s.reply(chatID, s.Localizer.GetString(lang, "complaint_step_fio"))
}

func (s *BotService) cmdRegister(msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	if emp, _ := s.Directory.FindByPrincipal(chatID); emp != nil && emp.Registered {
		s.reply(chatID, s.Localizer.GetString(lang, "register_already_done"))
		return
	}

	handle := models.NormalizeHandle(msg.From.UserName)
	if handle == "" {
		s.reply(chatID, s.Localizer.GetString(lang, "register_not_eligible"))
		return
	}
	if err := s.Directory.LinkPrincipal(handle, chatID); err != nil {
		s.reply(chatID, s.Localizer.GetString(lang, "register_not_eligible"))
		return
	}

	if err := s.Storage.SetFormField(chatID, "handle", handle); err != nil {
		log.Printf("ERROR: Failed to stash handle for %d: %v", chatID, err)
		return
	}
	s.Storage.SetUserState(chatID, StateRegisterName)
	s.reply(chatID, s.Localizer.GetString(lang, "register_step_name"))
}

func (s *BotService) cmdBlocked(msg *tgbotapi.Message, lang string) {
	if msg.Chat.ID != s.Directory.AdminID() {
		return
	}

	users, err := s.Storage.ListBlockedUsers()
	if err != nil {
		log.Printf("ERROR: Failed to list blocked users: %v", err)
		return
	}
	if len(users) == 0 {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "blocked_list_empty"))
		return
	}

	lines := []string{s.Localizer.GetString(lang, "blocked_list_header"), ""}
	for _, u := range users {
		uname := "@" + u.Username
		if u.Username == "" {
			uname = s.Localizer.GetString(lang, "no_username")
		}
		lines = append(lines, fmt.Sprintf("• %d (%s) — %s", u.TelegramID, uname, u.BlockedAt.Format("2006-01-02 15:04")))
	}
	s.reply(msg.Chat.ID, strings.Join(lines, "\n"))
}

// handleStateMessage advances whichever form the chat is in the middle of.
// Block status is re-checked at every complaint step so a block landing
// mid-form aborts the session, as in the original reception flow.
func (s *BotService) handleStateMessage(msg *tgbotapi.Message, state, lang string) {
	chatID := msg.Chat.ID

	if strings.HasPrefix(state, stateRejectPrefix) {
		s.handleRejectReason(msg, state, lang)
		return
	}

	switch state {
	case StateComplaintFIO, StateComplaintOfficer, StateComplaintViolation:
		if blocked, _ := s.Storage.IsBlocked(chatID); blocked {
			s.Storage.ClearSession(chatID)
			s.reply(chatID, s.Localizer.GetString(lang, "you_are_blocked"))
			return
		}
		if msg.Text == "" {
			s.reply(chatID, s.Localizer.GetString(lang, "complaint_need_text"))
			return
		}
	}

	switch state {
	case StateComplaintFIO:
		s.saveAndAdvance(chatID, "fio", msg.Text, StateComplaintOfficer, "complaint_step_officer", lang)
	case StateComplaintOfficer:
		s.saveAndAdvance(chatID, "officer", msg.Text, StateComplaintViolation, "complaint_step_violation", lang)
	case StateComplaintViolation:
		s.saveAndAdvance(chatID, "violation", msg.Text, StateComplaintMedia, "complaint_step_media", lang)
	case StateComplaintMedia:
		fileID, mediaType := extractEvidence(msg)
		if fileID == "" {
			s.reply(chatID, s.Localizer.GetString(lang, "complaint_need_media"))
			return
		}
		s.submitComplaint(msg, fileID, mediaType, lang)

	case StateRegisterName:
		s.saveAndAdvance(chatID, "full_name", msg.Text, StateRegisterPosition, "register_step_position", lang)
	case StateRegisterPosition:
		s.saveAndAdvance(chatID, "position", msg.Text, StateRegisterRank, "register_step_rank", lang)
	case StateRegisterRank:
		s.saveAndAdvance(chatID, "rank", msg.Text, StateRegisterNickname, "register_step_nickname", lang)
	case StateRegisterNickname:
		s.completeRegistration(msg, lang)
	}
}

func (s *BotService) saveAndAdvance(chatID int64, field, value, nextState, promptKey, lang string) {
	if value == "" {
		s.reply(chatID, s.Localizer.GetString(lang, "complaint_need_text"))
		return
	}
	if err := s.Storage.SetFormField(chatID, field, value); err != nil {
		log.Printf("ERROR: Failed to save form field %s for %d: %v", field, chatID, err)
		return
	}
	s.Storage.SetUserState(chatID, nextState)
	s.reply(chatID, s.Localizer.GetString(lang, promptKey))
}

func (s *BotService) submitComplaint(msg *tgbotapi.Message, mediaFileID, mediaType, lang string) {
	chatID := msg.Chat.ID

	fields, err := s.Storage.GetFormFields(chatID)
	if err != nil {
		log.Printf("ERROR: Failed to read form fields for %d: %v", chatID, err)
		return
	}
	s.Storage.ClearSession(chatID)

	c, err := s.Complaints.Submit(complaint.Submission{
		SubmitterID:   chatID,
		SubmitterName: msg.From.UserName,
		FIO:           fields["fio"],
		Officer:       fields["officer"],
		Violation:     fields["violation"],
		MediaFileID:   mediaFileID,
		MediaType:     mediaType,
	})
	if err == complaint.ErrSubmitterBlocked {
		s.reply(chatID, s.Localizer.GetString(lang, "you_are_blocked"))
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to submit complaint from %d: %v", chatID, err)
		return
	}

	s.reply(chatID, fmt.Sprintf(s.Localizer.GetString(lang, "complaint_submitted"), c.ID))
	go s.broadcast(c)
}

// broadcast fans the fresh complaint out to the current recipient set.
func (s *BotService) broadcast(c *models.Complaint) {
	recipients, err := s.Directory.ListRecipients()
	if err != nil {
		log.Printf("ERROR: Failed to list recipients for complaint #%d: %v", c.ID, err)
		return
	}

	n := fanout.Notification{
		ComplaintID: c.ID,
		Text:        BuildNotificationText(c, s.Localizer),
		MediaFileID: c.MediaFileID,
		MediaType:   c.MediaType,
	}
	delivered, err := s.Tracker.Broadcast(context.Background(), n, recipients)
	if err != nil {
		log.Printf("ERROR: Broadcast of complaint #%d failed: %v", c.ID, err)
		return
	}
	log.Printf("INFO: Complaint #%d delivered to %d of %d recipients", c.ID, delivered, len(recipients))
}

func (s *BotService) completeRegistration(msg *tgbotapi.Message, lang string) {
	chatID := msg.Chat.ID

	fields, err := s.Storage.GetFormFields(chatID)
	if err != nil {
		log.Printf("ERROR: Failed to read registration fields for %d: %v", chatID, err)
		return
	}
	s.Storage.ClearSession(chatID)

	_, err = s.Directory.CompleteRegistration(fields["handle"], chatID, directory.Profile{
		FullName: fields["full_name"],
		Position: fields["position"],
		Rank:     fields["rank"],
		Nickname: msg.Text,
	})
	if err != nil {
		log.Printf("ERROR: Failed to complete registration for %d (@%s): %v", chatID, fields["handle"], err)
		s.reply(chatID, s.Localizer.GetString(lang, "register_not_eligible"))
		return
	}
	s.reply(chatID, s.Localizer.GetString(lang, "register_done"))
}

// ---------------------------------------------------------------------------
// Resolution callbacks
// ---------------------------------------------------------------------------

func (s *BotService) handleCallbackQuery(cb *tgbotapi.CallbackQuery) {
	// Respond to the callback query to remove the "loading" state.
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to send callback response: %v", err)
	}
	if cb.Message == nil {
		return
	}

	action, complaintID, ok := parseResolveCallback(cb.Data)
	if !ok {
		return
	}

	actorID := cb.From.ID
	lang := userLang(cb.From.LanguageCode)

	// Unauthorized principals get no reaction, matching the original
	// reception's silent ignore of stray button presses.
	if authorized, _ := s.Directory.IsAuthorizedStaff(actorID); !authorized {
		return
	}

	if action == complaint.ActionReject {
		state := stateRejectPrefix + strconv.FormatUint(uint64(complaintID), 10)
		if err := s.Storage.SetUserState(cb.Message.Chat.ID, state); err != nil {
			log.Printf("ERROR: Failed to set reject state for %d: %v", actorID, err)
			return
		}
		s.reply(cb.Message.Chat.ID, fmt.Sprintf(s.Localizer.GetString(lang, "reject_reason_prompt"), complaintID))
		return
	}

	s.finalizeResolution(cb.Message.Chat.ID, actorID, complaintID, action, "", lang)
}

func (s *BotService) handleRejectReason(msg *tgbotapi.Message, state, lang string) {
	chatID := msg.Chat.ID

	id64, err := strconv.ParseUint(strings.TrimPrefix(state, stateRejectPrefix), 10, 32)
	if err != nil {
		s.Storage.ClearSession(chatID)
		return
	}
	complaintID := uint(id64)

	reason := strings.TrimSpace(msg.Text)
	if reason == "" {
		s.reply(chatID, s.Localizer.GetString(lang, "reject_reason_empty"))
		return
	}

	s.Storage.ClearSession(chatID)
	s.finalizeResolution(chatID, msg.From.ID, complaintID, complaint.ActionReject, reason, lang)
}

// finalizeResolution runs the coordinator and maps its outcome to a
// definitive message for the acting staff member.
func (s *BotService) finalizeResolution(replyChatID, actorID int64, complaintID uint, action complaint.Action, reason, lang string) {
	res, err := s.Resolution.Resolve(context.Background(), complaintID, action, actorID, reason)
	switch err {
	case nil:
	case complaint.ErrAlreadyResolved:
		s.reply(replyChatID, s.Localizer.GetString(lang, "already_resolved"))
		return
	case complaint.ErrNotFound:
		s.reply(replyChatID, s.Localizer.GetString(lang, "complaint_not_found"))
		return
	case complaint.ErrUnauthorized:
		s.reply(replyChatID, s.Localizer.GetString(lang, "not_authorized"))
		return
	case complaint.ErrInvalidReason:
		s.reply(replyChatID, s.Localizer.GetString(lang, "reject_reason_empty"))
		return
	default:
		log.Printf("ERROR: Failed to resolve complaint #%d: %v", complaintID, err)
		return
	}

	s.confirmToStaff(replyChatID, res, lang)
}

func (s *BotService) confirmToStaff(chatID int64, res *complaint.ResolutionResult, lang string) {
	switch res.Action {
	case complaint.ActionAccept:
		s.reply(chatID, fmt.Sprintf(s.Localizer.GetString(lang, "resolved_by_you_accept"), res.Complaint.ID))
	case complaint.ActionReject:
		s.reply(chatID, fmt.Sprintf(s.Localizer.GetString(lang, "resolved_by_you_reject"), res.Complaint.ID))
	case complaint.ActionBlock:
		uname := "@" + res.Complaint.SubmitterName
		if res.Complaint.SubmitterName == "" {
			uname = fmt.Sprintf("ID: %d", res.SubmitterID)
		}
		s.reply(chatID, fmt.Sprintf(s.Localizer.GetString(lang, "resolved_by_you_block"), uname))
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.BotAPI.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: Failed to send message to %d: %v", chatID, err)
	}
}

// parseResolveCallback splits callback data like "accept_12" into its action
// and complaint ID.
func parseResolveCallback(data string) (complaint.Action, uint, bool) {
	parts := strings.SplitN(data, "_", 2)
	if len(parts) != 2 {
		return "", 0, false
	}

	var action complaint.Action
	switch parts[0] {
	case "accept":
		action = complaint.ActionAccept
	case "reject":
		action = complaint.ActionReject
	case "block":
		action = complaint.ActionBlock
	default:
		return "", 0, false
	}

	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return action, uint(id), true
}

// extractEvidence pulls the evidence attachment out of a form message.
func extractEvidence(msg *tgbotapi.Message) (fileID, mediaType string) {
	switch {
	case msg.Photo != nil:
		return msg.Photo[len(msg.Photo)-1].FileID, "photo"
	case msg.Video != nil:
		return msg.Video.FileID, "video"
	case msg.Document != nil:
		return msg.Document.FileID, "document"
	default:
		return "", ""
	}
}

func userLang(code string) string {
	if code == "" {
		return localization.DefaultLang
	}
	return code
}
