// AngelaMos | 2026
// scheduler.go

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pegplug/pegplug-backend/internal/core"
	"github.com/pegplug/pegplug-backend/internal/redemption"
)

const (
	DefaultReminderLead = 10 * time.Minute

	// MinLead is the floor under which a reminder is dropped instead
	// of scheduled; delivering a reminder seconds before expiry helps
	// nobody.
	MinLead = 30 * time.Second
)

type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Sender hands a scheduled notification to the external delivery
// collaborator. Delivery mechanics (push, local alert) are out of
// scope for this service.
type Sender interface {
	Send(ctx context.Context, userID string, at time.Time, p Payload) error
}

// Scheduler computes when reminders fire; it never owns delivery.
type Scheduler struct {
	sender  Sender
	clock   core.Clock
	lead    time.Duration
	minLead time.Duration
	logger  *slog.Logger
}

func NewScheduler(
	sender Sender,
	clock core.Clock,
	lead, minLead time.Duration,
	logger *slog.Logger,
) *Scheduler {
	if lead <= 0 {
		lead = DefaultReminderLead
	}
	if minLead <= 0 {
		minLead = MinLead
	}

	return &Scheduler{
		sender:  sender,
		clock:   clock,
		lead:    lead,
		minLead: minLead,
		logger:  logger,
	}
}

// ScheduleExpiryReminder stages a reminder at expiry minus the lead.
// Skipped (false) when that instant is less than the minimum lead
// away; a skip is not an error, just a dropped reminder.
func (s *Scheduler) ScheduleExpiryReminder(
	ctx context.Context,
	rec *redemption.Redemption,
) (time.Time, bool) {
	remindAt := rec.ExpiresAt.Add(-s.lead)

	if remindAt.Sub(s.clock.Now()) < s.minLead {
		return time.Time{}, false
	}

	payload := Payload{
		Title: "Your deal is expiring soon",
		Body: fmt.Sprintf(
			"Redeem your deal before it expires at %s.",
			rec.ExpiresAt.Format(time.Kitchen),
		),
	}

	if err := s.sender.Send(ctx, rec.UserID, remindAt, payload); err != nil {
		s.logger.Warn("expiry reminder delivery failed",
			"redemption_id", rec.ID,
			"user_id", rec.UserID,
			"error", err,
		)
		return time.Time{}, false
	}

	return remindAt, true
}

// SendEntryNotification fires once per geofence entry event: one deal
// is named, several are summarized.
func (s *Scheduler) SendEntryNotification(
	ctx context.Context,
	userID, merchantName string,
	dealTitles []string,
) {
	if len(dealTitles) == 0 {
		return
	}

	var body string
	if len(dealTitles) == 1 {
		body = fmt.Sprintf(
			"%q is waiting for you at %s.",
			dealTitles[0], merchantName,
		)
	} else {
		body = fmt.Sprintf(
			"%d deals are waiting for you at %s.",
			len(dealTitles), merchantName,
		)
	}

	payload := Payload{
		Title: "You're near a deal!",
		Body:  body,
	}

	if err := s.sender.Send(ctx, userID, s.clock.Now(), payload); err != nil {
		s.logger.Warn("entry notification delivery failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// LogSender is the in-process stand-in for the external delivery
// service; it records what would have been sent.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(
	ctx context.Context,
	userID string,
	at time.Time,
	p Payload,
) error {
	s.Logger.Info("notification staged",
		"user_id", userID,
		"scheduled_at", at,
		"title", p.Title,
		"body", p.Body,
	)
	return nil
}
