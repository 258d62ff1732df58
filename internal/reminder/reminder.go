// Package reminder sends due-soon and overdue notices for open loans.
package reminder

import (
	"context"
	"time"

	"bookhive/internal/loan"
	"bookhive/internal/notify"
)

// DefaultLookahead is how far ahead a due date counts as "due soon".
const DefaultLookahead = 48 * time.Hour

// Run summarises one sweep.
type Run struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Scanned     int       `json:"scanned"`
	DueSoonSent int       `json:"due_soon_sent"`
	OverdueSent int       `json:"overdue_sent"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
}

func (r Run) Sent() int { return r.DueSoonSent + r.OverdueSent }

//go:generate mockgen -source=reminder.go -destination=mock_reminder.go -package=reminder

// Store is the part of the loan ledger the sweep needs. ClaimNotice sets the
// notice flag only if it is still unset and reports whether it did.
type Store interface {
	ListOpenDue(ctx context.Context, horizon time.Time) ([]loan.DueLoan, error)
	ClaimNotice(ctx context.Context, loanID string, kind notify.Kind, at time.Time) (bool, error)
	ReleaseNotice(ctx context.Context, loanID string, kind notify.Kind) error
}

type Notifier interface {
	SendReminderNotice(ctx context.Context, n notify.ReminderNotice) error
}

// classify picks the notice a loan is owed at now, if any. Overdue wins over
// due soon; each is sent at most once.
func classify(l loan.DueLoan, now time.Time, lookahead time.Duration) (notify.Kind, bool) {
	switch {
	case l.DueAt.Before(now):
		return notify.KindOverdue, l.OverdueNotifiedAt == nil
	case !l.DueAt.After(now.Add(lookahead)):
		return notify.KindDueSoon, l.DueSoonNotifiedAt == nil
	}
	return "", false
}
