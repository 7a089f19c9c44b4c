package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"complaintdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is everything the domain services need from the persistence layer.
// Lookups return (nil, nil) when the entity does not exist; callers decide
// whether absence is an error.
type Storage interface {
	CreateComplaint(c *models.Complaint) error
	GetComplaintByID(id uint) (*models.Complaint, error)
	ResolveComplaint(id uint, status models.Status, resolverID int64, reason string) (bool, error)
	ListPendingComplaints() ([]models.Complaint, error)

	SaveNotificationRefs(refs []models.NotificationRef) error
	GetNotificationRefs(complaintID uint) ([]models.NotificationRef, error)

	CreateEmployee(e *models.Employee) error
	GetEmployeeByHandle(handle string) (*models.Employee, error)
	GetEmployeeByTelegramID(telegramID int64) (*models.Employee, error)
	UpdateEmployee(e *models.Employee) error
	DeleteEmployeeByHandle(handle string) error
	ListEmployees() ([]models.Employee, error)
	ListRecipientIDs() ([]int64, error)

	BlockUser(telegramID int64, username string) error
	UnblockUser(telegramID int64) error
	IsBlocked(telegramID int64) (bool, error)
	ListBlockedUsers() ([]models.BlockedUser, error)

	SaveAuditRecord(rec *models.AuditRecord) error
	PublishAuditEvent(rec models.AuditRecord) error

	SetUserState(chatID int64, state string) error
	GetUserState(chatID int64) (string, error)
	SetFormField(chatID int64, field, value string) error
	GetFormFields(chatID int64) (map[string]string, error)
	ClearSession(chatID int64) error
}

// auditChannel is the Redis Pub/Sub channel carrying freshly written audit
// records to every process that streams them to operators.
const auditChannel = "audit:stream"

// Sessions are garbage-collected by Redis if a user abandons the form.
const sessionTTL = time.Hour

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService wires the GORM and Redis handles into one storage service.
// The Redis client may be nil for CLI tools that only touch PostgreSQL.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// ---------------------------------------------------------------------------
// Complaints
// ---------------------------------------------------------------------------

func (s *Service) CreateComplaint(c *models.Complaint) error {
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if err := s.DB.Create(c).Error; err != nil {
		log.Printf("ERROR: Failed to save complaint from %d: %v", c.SubmitterID, err)
		return err
	}
	return nil
}

func (s *Service) GetComplaintByID(id uint) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ResolveComplaint performs the single correctness-critical write of the
// system: a conditional update that flips the status out of pending and
// records the resolver in one statement. The returned bool is false when the
// row was no longer pending, i.e. another actor won the race.
func (s *Service) ResolveComplaint(id uint, status models.Status, resolverID int64, reason string) (bool, error) {
	res := s.DB.Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolver_id": resolverID,
			"reason":      reason,
			"resolved_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) ListPendingComplaints() ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := s.DB.Where("status = ?", models.StatusPending).
		Order("created_at asc").
		Find(&complaints).Error
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

// ---------------------------------------------------------------------------
// Notification references
// ---------------------------------------------------------------------------

func (s *Service) SaveNotificationRefs(refs []models.NotificationRef) error {
	if len(refs) == 0 {
		return nil
	}
	return s.DB.Create(&refs).Error
}

func (s *Service) GetNotificationRefs(complaintID uint) ([]models.NotificationRef, error) {
	var refs []models.NotificationRef
	if err := s.DB.Where("complaint_id = ?", complaintID).Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// Employees
// ---------------------------------------------------------------------------

func (s *Service) CreateEmployee(e *models.Employee) error {
	return s.DB.Create(e).Error
}

func (s *Service) GetEmployeeByHandle(handle string) (*models.Employee, error) {
	var e models.Employee
	err := s.DB.Where("handle = ?", handle).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) GetEmployeeByTelegramID(telegramID int64) (*models.Employee, error) {
	var e models.Employee
	err := s.DB.Where("telegram_id = ?", telegramID).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) UpdateEmployee(e *models.Employee) error {
	return s.DB.Save(e).Error
}

func (s *Service) DeleteEmployeeByHandle(handle string) error {
	return s.DB.Where("handle = ?", handle).Delete(&models.Employee{}).Error
}

func (s *Service) ListEmployees() ([]models.Employee, error) {
	var employees []models.Employee
	if err := s.DB.Order("handle asc").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// ListRecipientIDs returns the chat IDs of every registered employee with a
// bound Telegram identity. The administrator is appended by the directory,
// not here.
func (s *Service) ListRecipientIDs() ([]int64, error) {
	var ids []int64
	err := s.DB.Model(&models.Employee{}).
		Where("registered = ? AND telegram_id IS NOT NULL", true).
		Pluck("telegram_id", &ids).Error
	if err != nil {
		log.Printf("ERROR: Failed to list recipient IDs: %v", err)
		return nil, err
	}
	return ids, nil
}

// ---------------------------------------------------------------------------
// Blocked users
// ---------------------------------------------------------------------------

func (s *Service) BlockUser(telegramID int64, username string) error {
	blocked := models.BlockedUser{TelegramID: telegramID, Username: username}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&blocked).Error
	if err != nil {
		return err
	}
	if s.Redis != nil {
		if err := s.Redis.Set(s.Ctx, blockedKey(telegramID), "1", 0).Err(); err != nil {
			log.Printf("WARN: Failed to cache block flag for %d: %v", telegramID, err)
		}
	}
	return nil
}

func (s *Service) UnblockUser(telegramID int64) error {
	if err := s.DB.Delete(&models.BlockedUser{}, "telegram_id = ?", telegramID).Error; err != nil {
		return err
	}
	if s.Redis != nil {
		s.Redis.Del(s.Ctx, blockedKey(telegramID))
	}
	return nil
}

// IsBlocked checks the Redis flag first and falls back to PostgreSQL,
// repopulating the cache on a hit.
func (s *Service) IsBlocked(telegramID int64) (bool, error) {
	if s.Redis != nil {
		status, err := s.Redis.Get(s.Ctx, blockedKey(telegramID)).Result()
		if err == nil {
			return status != "", nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("WARN: Redis block lookup failed for %d: %v", telegramID, err)
		}
	}

	var count int64
	err := s.DB.Model(&models.BlockedUser{}).
		Where("telegram_id = ?", telegramID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 && s.Redis != nil {
		s.Redis.Set(s.Ctx, blockedKey(telegramID), "1", 0)
	}
	return count > 0, nil
}

func (s *Service) ListBlockedUsers() ([]models.BlockedUser, error) {
	var users []models.BlockedUser
	if err := s.DB.Order("blocked_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func blockedKey(telegramID int64) string {
	return fmt.Sprintf("blocked:%d", telegramID)
}

// ---------------------------------------------------------------------------
// Audit
// ---------------------------------------------------------------------------

func (s *Service) SaveAuditRecord(rec *models.AuditRecord) error {
	return s.DB.Create(rec).Error
}

// PublishAuditEvent pushes the record onto the audit Pub/Sub channel for the
// live operator feed. Best-effort: a missing Redis client is a no-op.
func (s *Service) PublishAuditEvent(rec models.AuditRecord) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, auditChannel, string(payload)).Err()
}

// SubscribeAuditEvents subscribes to the audit stream. The caller owns the
// returned PubSub and must Close it.
func (s *Service) SubscribeAuditEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, auditChannel)
}

// ---------------------------------------------------------------------------
// Conversational sessions (Redis)
// ---------------------------------------------------------------------------

func (s *Service) SetUserState(chatID int64, state string) error {
	return s.Redis.Set(s.Ctx, stateKey(chatID), state, sessionTTL).Err()
}

func (s *Service) GetUserState(chatID int64) (string, error) {
	state, err := s.Redis.Get(s.Ctx, stateKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return state, err
}

// SetFormField stores one collected form answer in the per-user session hash.
func (s *Service) SetFormField(chatID int64, field, value string) error {
	key := formKey(chatID)
	if err := s.Redis.HSet(s.Ctx, key, field, value).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(s.Ctx, key, sessionTTL).Err()
}

func (s *Service) GetFormFields(chatID int64) (map[string]string, error) {
	fields, err := s.Redis.HGetAll(s.Ctx, formKey(chatID)).Result()
	if err != nil {
		return nil, err
	}
	return fields, nil
}

// ClearSession drops both the state marker and the collected fields. Called
// on submission, cancellation, or when a block lands mid-form.
func (s *Service) ClearSession(chatID int64) error {
	return s.Redis.Del(s.Ctx, stateKey(chatID), formKey(chatID)).Err()
}

func stateKey(chatID int64) string { return fmt.Sprintf("state:%d", chatID) }
func formKey(chatID int64) string  { return fmt.Sprintf("form:%d", chatID) }
