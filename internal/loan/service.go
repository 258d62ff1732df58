package loan

import (
	"context"
	"strings"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/notify"

	"go.uber.org/zap"
)

type Service struct {
	repo     Repository
	notifier Notifier
	log      *zap.Logger
	clock    Clock
	ids      IDGen
	period   time.Duration
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithIDGen(g IDGen) Option { return func(s *Service) { s.ids = g } }

// WithPeriod sets the loan period; non-positive values keep the default.
func WithPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.period = d
		}
	}
}

func WithLogger(log *zap.Logger) Option { return func(s *Service) { s.log = log } }

// NewService builds the ledger service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		log:      zap.NewNop(),
		clock:    realClock{},
		ids:      newULIDGen(),
		period:   DefaultPeriod,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Period() time.Duration { return s.period }

// Borrow opens a loan of bookID for the caller, or for onBehalfOf when the
// caller is an admin. Offline books lose one copy; online books never run out.
// The borrow notice is best effort.
func (s *Service) Borrow(ctx context.Context, actor Actor, bookID, onBehalfOf string) (BorrowResult, error) {
	userID, err := actor.subject(strings.TrimSpace(onBehalfOf))
	if err != nil {
		return BorrowResult{}, err
	}
	if bookID = strings.TrimSpace(bookID); bookID == "" {
		return BorrowResult{}, apperr.Validation(apperr.FieldError{Field: "book_id", Message: "book_id is required"})
	}

	now := s.clock.Now().UTC()
	id, err := s.ids.New(now)
	if err != nil {
		return BorrowResult{}, apperr.Storage("generate loan id", err)
	}

	out, err := s.repo.Borrow(ctx, BorrowRequest{
		LoanID:         id,
		UserID:         userID,
		BookID:         bookID,
		BorrowedAt:     now,
		DueAt:          now.Add(s.period),
		Administrative: actor.Admin,
	})
	if err != nil {
		return BorrowResult{}, apperr.Storage("borrow book", err)
	}

	s.sendBorrowNotice(ctx, out)
	return BorrowResult{Book: out.Book, Loan: out.Loan, DueAt: out.Loan.DueAt}, nil
}

func (s *Service) sendBorrowNotice(ctx context.Context, out BorrowOutcome) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.SendBorrowNotice(ctx, notify.BorrowNotice{
		To:         out.Borrower.Email,
		UserName:   out.Borrower.Name,
		BookTitle:  out.Book.Title,
		BookAuthor: out.Book.Author,
		DueAt:      out.Loan.DueAt,
		Period:     s.period,
	})
	if err != nil {
		s.log.Warn("borrow notice failed",
			zap.String("loan_id", out.Loan.ID),
			zap.String("user_id", out.Loan.UserID),
			zap.Error(apperr.Notification("send borrow notice", err)),
		)
	}
}

// Return closes the open loan of bookID held by the caller, or by onBehalfOf
// for admins, and puts the copy back on the shelf if one was taken.
func (s *Service) Return(ctx context.Context, actor Actor, bookID, onBehalfOf string) (ReturnResult, error) {
	userID, err := actor.subject(strings.TrimSpace(onBehalfOf))
	if err != nil {
		return ReturnResult{}, err
	}
	if bookID = strings.TrimSpace(bookID); bookID == "" {
		return ReturnResult{}, apperr.Validation(apperr.FieldError{Field: "book_id", Message: "book_id is required"})
	}

	out, err := s.repo.Return(ctx, userID, bookID, s.clock.Now().UTC())
	if err != nil {
		return ReturnResult{}, apperr.Storage("return book", err)
	}
	return ReturnResult{Book: out.Book, Loan: out.Loan}, nil
}

// History lists the user's loans, newest borrow first.
func (s *Service) History(ctx context.Context, userID string) ([]Loan, error) {
	loans, err := s.repo.History(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("loan history", err)
	}
	if loans == nil {
		loans = []Loan{}
	}
	return loans, nil
}

func (s *Service) ActiveLoanCount(ctx context.Context, bookID string) (int, error) {
	n, err := s.repo.ActiveCountByBook(ctx, bookID)
	if err != nil {
		return 0, apperr.Storage("count active loans", err)
	}
	return n, nil
}

// Stats returns the number of open loans across the library.
func (s *Service) Stats(ctx context.Context) (int, error) {
	n, err := s.repo.ActiveTotal(ctx)
	if err != nil {
		return 0, apperr.Storage("count borrowed books", err)
	}
	return n, nil
}

// ActiveLoans lists who currently holds bookID.
func (s *Service) ActiveLoans(ctx context.Context, bookID string) ([]ActiveLoan, error) {
	loans, err := s.repo.ActiveByBook(ctx, bookID)
	if err != nil {
		return nil, apperr.Storage("list active loans", err)
	}
	if loans == nil {
		loans = []ActiveLoan{}
	}
	return loans, nil
}
