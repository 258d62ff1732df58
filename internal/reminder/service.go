package reminder

import (
	"context"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/loan"
	"bookhive/internal/notify"

	"go.uber.org/zap"
)

type Service struct {
	store     Store
	notifier  Notifier
	log       *zap.Logger
	clock     loan.Clock
	lookahead time.Duration
	timeout   time.Duration
}

type Option func(*Service)

func WithClock(c loan.Clock) Option { return func(s *Service) { s.clock = c } }

// WithLookahead sets the due-soon window; zero keeps the default.
func WithLookahead(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

// WithTimeout bounds a whole sweep.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func NewService(store Store, notifier Notifier, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:     store,
		notifier:  notifier,
		log:       log,
		clock:     systemClock{},
		lookahead: DefaultLookahead,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Sweep sends every notice owed right now. A notice is claimed before it is
// sent and released if sending fails, so concurrent sweeps never send twice
// and a failed notice is retried on the next sweep.
func (s *Service) Sweep(ctx context.Context) (run Run, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	now := s.clock.Now().UTC()
	run = Run{StartedAt: now}
	defer func() {
		run.FinishedAt = s.clock.Now().UTC()
	}()

	loans, err := s.store.ListOpenDue(ctx, now.Add(s.lookahead))
	if err != nil {
		return run, apperr.Storage("list due loans", err)
	}
	run.Scanned = len(loans)

	for _, l := range loans {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		kind, owed := classify(l, now, s.lookahead)
		if !owed {
			run.Skipped++
			continue
		}

		log := s.log.With(zap.String("loan_id", l.ID), zap.String("kind", string(kind)))
		claimed, err := s.store.ClaimNotice(ctx, l.ID, kind, now)
		if err != nil {
			log.Error("claim notice failed", zap.Error(err))
			run.Failed++
			continue
		}
		if !claimed {
			run.Skipped++
			continue
		}

		err = s.notifier.SendReminderNotice(ctx, notify.ReminderNotice{
			Kind:       kind,
			To:         l.UserEmail,
			UserName:   l.UserName,
			BookTitle:  l.BookTitle,
			BookAuthor: l.BookAuthor,
			DueAt:      l.DueAt,
		})
		if err != nil {
			log.Warn("reminder not sent, will retry", zap.Error(apperr.Notification("send reminder", err)))
			run.Failed++
			// the sweep context may be the reason the send failed
			if rErr := s.store.ReleaseNotice(context.WithoutCancel(ctx), l.ID, kind); rErr != nil {
				log.Error("release notice failed", zap.Error(rErr))
			}
			continue
		}

		switch kind {
		case notify.KindOverdue:
			run.OverdueSent++
		case notify.KindDueSoon:
			run.DueSoonSent++
		}
	}

	s.log.Info("reminder sweep finished",
		zap.Int("scanned", run.Scanned),
		zap.Int("due_soon_sent", run.DueSoonSent),
		zap.Int("overdue_sent", run.OverdueSent),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
	)
	return run, nil
}
