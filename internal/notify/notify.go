// Package notify composes borrower notices and hands them to a Transport.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind identifies a reminder notice. Each kind is sent at most once per loan.
type Kind string

const (
	KindDueSoon Kind = "due_soon"
	KindOverdue Kind = "overdue"
)

const dateLayout = "Jan 2, 2006"

// Message is a rendered plain-text notice.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
}

// Transport delivers rendered messages.
type Transport interface {
	Deliver(ctx context.Context, m Message) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, m Message) error

func (f TransportFunc) Deliver(ctx context.Context, m Message) error { return f(ctx, m) }

// BorrowNotice is sent right after a successful borrow.
type BorrowNotice struct {
	To         string
	UserName   string
	BookTitle  string
	BookAuthor string
	DueAt      time.Time
	Period     time.Duration
}

// ReminderNotice is sent by the due-date sweep.
type ReminderNotice struct {
	Kind       Kind
	To         string
	UserName   string
	BookTitle  string
	BookAuthor string
	DueAt      time.Time
}

type Mailer struct {
	from      string
	transport Transport
	log       *zap.Logger
}

func NewMailer(from string, transport Transport, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{from: from, transport: transport, log: log}
}

// SendBorrowNotice confirms a borrow and its due date. A notice without a
// recipient is skipped.
func (m *Mailer) SendBorrowNotice(ctx context.Context, n BorrowNotice) error {
	if n.To == "" {
		m.log.Warn("borrow notice has no recipient, skipping", zap.String("book_title", n.BookTitle))
		return nil
	}
	due := n.DueAt.Format(dateLayout)
	lines := []string{
		"Hi " + greetingName(n.UserName) + ",",
		"",
		"You've borrowed:",
		"  Title: " + n.BookTitle,
	}
	if n.BookAuthor != "" {
		lines = append(lines, "  Author: "+n.BookAuthor)
	}
	dueLine := "Due date: " + due + "."
	if days := int(n.Period.Hours() / 24); days > 0 {
		dueLine = fmt.Sprintf("Due date: %s (in %d days).", due, days)
	}
	lines = append(lines, "", dueLine, "", "Please return or renew by the due date.", "", "BookHive")

	return m.deliver(ctx, Message{
		From:    m.from,
		To:      n.To,
		Subject: fmt.Sprintf("You borrowed %q, due %s", n.BookTitle, due),
		Text:    strings.Join(lines, "\n"),
	})
}

// SendReminderNotice renders a due-soon or overdue reminder.
func (m *Mailer) SendReminderNotice(ctx context.Context, n ReminderNotice) error {
	if n.To == "" {
		m.log.Warn("reminder has no recipient, skipping", zap.String("book_title", n.BookTitle))
		return nil
	}
	due := n.DueAt.Format(dateLayout)

	var subject, intro, closing string
	switch n.Kind {
	case KindOverdue:
		subject = fmt.Sprintf("Book %q is overdue", n.BookTitle)
		intro = "Your borrowed book was due on " + due + ":"
		closing = "Please return it as soon as possible."
	case KindDueSoon:
		subject = fmt.Sprintf("Reminder: %q is due on %s", n.BookTitle, due)
		intro = "This is a friendly reminder that your borrowed book is due soon:"
		closing = "Please return or renew by the due date."
	default:
		return fmt.Errorf("unknown reminder kind %q", n.Kind)
	}

	lines := []string{
		"Hi " + greetingName(n.UserName) + ",",
		"",
		intro,
		"  Title: " + n.BookTitle,
	}
	if n.BookAuthor != "" {
		lines = append(lines, "  Author: "+n.BookAuthor)
	}
	lines = append(lines, "", "Due date: "+due+".", "", closing, "", "BookHive")

	return m.deliver(ctx, Message{
		From:    m.from,
		To:      n.To,
		Subject: subject,
		Text:    strings.Join(lines, "\n"),
	})
}

func (m *Mailer) deliver(ctx context.Context, msg Message) error {
	if err := m.transport.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver to %s: %w", msg.To, err)
	}
	return nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Deliver(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.log.Info("notice sent",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	t.log.Debug("notice body", zap.String("to", m.To), zap.String("text", m.Text))
	return nil
}
