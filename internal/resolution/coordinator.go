// Package resolution drives the full handling of a staff decision: the
// atomic lifecycle transition first, then retraction of every delivered
// notification copy, then the audit record, then a best-effort outcome
// message to the submitter. Only the transition can fail the operation;
// every later step is logged and swallowed.
package resolution

import (
	"context"
	"fmt"
	"log"

	"complaintdesk/backend/internal/audit"
	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/directory"
	"complaintdesk/backend/internal/fanout"
	"complaintdesk/backend/internal/localization"
)

// Notifier delivers the outcome message to the submitter.
type Notifier interface {
	NotifyDirect(ctx context.Context, chatID int64, text string) error
}

type Coordinator struct {
	Complaints *complaint.Service
	Tracker    *fanout.Tracker
	Audit      *audit.Emitter
	Directory  *directory.Service
	Notifier   Notifier
	Localizer  *localization.Localizer
}

func NewCoordinator(
	complaints *complaint.Service,
	tracker *fanout.Tracker,
	emitter *audit.Emitter,
	dir *directory.Service,
	notifier Notifier,
	localizer *localization.Localizer,
) *Coordinator {
	return &Coordinator{
		Complaints: complaints,
		Tracker:    tracker,
		Audit:      emitter,
		Directory:  dir,
		Notifier:   notifier,
		Localizer:  localizer,
	}
}

// Resolve attempts the terminal transition and, if this caller won it, runs
// the retraction, audit, and submitter-notification steps. Errors from the
// lifecycle service pass through unchanged for the caller's surface to map.
func (c *Coordinator) Resolve(ctx context.Context, complaintID uint, action complaint.Action, actorID int64, reason string) (*complaint.ResolutionResult, error) {
	res, err := c.Complaints.Resolve(complaintID, action, actorID, reason)
	if err != nil {
		return nil, err
	}

	retracted, err := c.Tracker.RetractAll(ctx, complaintID)
	if err != nil {
		log.Printf("ERROR: Failed to retract notifications for complaint #%d: %v", complaintID, err)
	}

	actor, err := c.Directory.FindByPrincipal(actorID)
	if err != nil {
		log.Printf("WARN: Failed to load resolver profile for %d: %v", actorID, err)
	}
	c.Audit.Emit(ctx, res, actor, retracted)

	c.notifySubmitter(ctx, res)
	return res, nil
}

// notifySubmitter tells the user the outcome. Failure is logged and stays
// invisible to the user.
func (c *Coordinator) notifySubmitter(ctx context.Context, res *complaint.ResolutionResult) {
	lang := localization.DefaultLang

	var text string
	switch res.Action {
	case complaint.ActionAccept:
		text = fmt.Sprintf(c.Localizer.GetString(lang, "user_accepted"), res.Complaint.ID)
	case complaint.ActionReject:
		text = fmt.Sprintf(c.Localizer.GetString(lang, "user_rejected"), res.Complaint.ID, res.Complaint.Reason)
	case complaint.ActionBlock:
		text = fmt.Sprintf(c.Localizer.GetString(lang, "user_blocked"), res.Complaint.ID)
	default:
		return
	}

	if err := c.Notifier.NotifyDirect(ctx, res.SubmitterID, text); err != nil {
		log.Printf("WARN: Could not notify user %d about complaint #%d: %v", res.SubmitterID, res.Complaint.ID, err)
	}
}
