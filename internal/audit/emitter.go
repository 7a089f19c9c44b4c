// Package audit assembles the record of a terminal complaint transition and
// emits it to an external sink, the durable audit table, and the live
// operator feed. Every path is fire-and-forget relative to the resolution:
// an audit failure is logged and never undoes or blocks anything.
package audit

import (
	"context"
	"fmt"
	"log"
	"strings"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
)

// Sink is the external append-only channel for audit records, e.g. a
// dedicated Telegram chat. A nil sink disables external emission.
type Sink interface {
	SendAudit(ctx context.Context, text string) error
}

// Store persists and publishes audit records.
type Store interface {
	SaveAuditRecord(rec *models.AuditRecord) error
	PublishAuditEvent(rec models.AuditRecord) error
}

type Emitter struct {
	store Store
	sink  Sink
}

func NewEmitter(store Store, sink Sink) *Emitter {
	return &Emitter{store: store, sink: sink}
}

// Emit records the outcome of a resolution. The actor is the employee record
// of the resolver, or nil when the administrator acted without one.
func (e *Emitter) Emit(ctx context.Context, res *complaint.ResolutionResult, actor *models.Employee, retractedChats []int64) {
	rec := models.AuditRecord{
		ComplaintID:    res.Complaint.ID,
		Action:         string(res.Action),
		ActorID:        *res.Complaint.ResolverID,
		ActorName:      actorName(actor),
		Reason:         res.Complaint.Reason,
		RetractedChats: retractedChats,
	}

	if err := e.store.SaveAuditRecord(&rec); err != nil {
		log.Printf("ERROR: Failed to persist audit record for complaint #%d: %v", rec.ComplaintID, err)
	}

	if e.sink != nil {
		if err := e.sink.SendAudit(ctx, FormatRecord(&rec, &res.Complaint)); err != nil {
			log.Printf("WARN: Failed to emit audit record for complaint #%d to sink: %v", rec.ComplaintID, err)
		}
	}

	if err := e.store.PublishAuditEvent(rec); err != nil {
		log.Printf("WARN: Failed to publish audit event for complaint #%d: %v", rec.ComplaintID, err)
	}
}

// actorName renders the resolver's profile, or the administrator marker when
// no employee record exists.
func actorName(actor *models.Employee) string {
	if actor == nil {
		return "administrator"
	}
	parts := make([]string, 0, 3)
	if actor.Rank != "" {
		parts = append(parts, actor.Rank)
	}
	if actor.FullName != "" {
		parts = append(parts, actor.FullName)
	}
	if actor.Position != "" {
		parts = append(parts, "("+actor.Position+")")
	}
	if len(parts) == 0 {
		return "@" + actor.Handle
	}
	return strings.Join(parts, " ")
}

// FormatRecord builds the human-readable audit message sent to the sink.
func FormatRecord(rec *models.AuditRecord, c *models.Complaint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Жалоба #%d — %s\n", rec.ComplaintID, actionLabel(rec.Action))
	fmt.Fprintf(&b, "Рассмотрел: %s (ID %d)\n", rec.ActorName, rec.ActorID)
	fmt.Fprintf(&b, "Заявитель: %s (ID %d)\n", c.FIO, c.SubmitterID)
	fmt.Fprintf(&b, "Сотрудник: %s\n", c.Officer)
	fmt.Fprintf(&b, "Нарушение: %s", c.Violation)
	if rec.Reason != "" {
		fmt.Fprintf(&b, "\nПричина: %s", rec.Reason)
	}
	return b.String()
}

func actionLabel(action string) string {
	switch complaint.Action(action) {
	case complaint.ActionAccept:
		return "принята"
	case complaint.ActionReject:
		return "отклонена"
	case complaint.ActionBlock:
		return "заявитель заблокирован"
	default:
		return action
	}
}
