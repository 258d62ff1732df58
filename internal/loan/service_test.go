package loan

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/notify"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct{ n int }

func (g *seqIDs) New(time.Time) (string, error) {
	g.n++
	return "loan-" + string(rune('0'+g.n)), nil
}

var t0 = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

func TestService_Borrow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	notifier := NewMockNotifier(ctrl)
	core, logs := observer.New(zapcore.WarnLevel)

	svc := NewService(repo, notifier,
		WithClock(fixedClock{t0}),
		WithIDGen(&seqIDs{}),
		WithLogger(zap.New(core)),
	)
	ctx := context.Background()
	reader := Actor{UserID: "u1"}

	outcome := BorrowOutcome{
		Book:     book.Book{ID: "b1", Title: "1984", Author: "George Orwell", Quantity: 0},
		Loan:     Loan{ID: "loan-1", UserID: "u1", BookID: "b1", DueAt: t0.Add(DefaultPeriod)},
		Borrower: Borrower{Name: "Ann", Email: "ann@example.com"},
	}

	t.Run("opens a loan due in 14 days and notifies", func(t *testing.T) {
		repo.EXPECT().Borrow(gomock.Any(), BorrowRequest{
			LoanID:     "loan-1",
			UserID:     "u1",
			BookID:     "b1",
			BorrowedAt: t0,
			DueAt:      t0.Add(14 * 24 * time.Hour),
		}).Return(outcome, nil)
		notifier.EXPECT().SendBorrowNotice(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, n notify.BorrowNotice) error {
				assert.Equal(t, "ann@example.com", n.To)
				assert.Equal(t, "1984", n.BookTitle)
				assert.Equal(t, t0.Add(DefaultPeriod), n.DueAt)
				return nil
			})

		res, err := svc.Borrow(ctx, reader, "b1", "")
		require.NoError(t, err)
		assert.Equal(t, t0.Add(DefaultPeriod), res.DueAt)
		assert.Equal(t, "b1", res.Book.ID)
	})

	t.Run("notification failure is logged, not returned", func(t *testing.T) {
		repo.EXPECT().Borrow(gomock.Any(), gomock.Any()).Return(outcome, nil)
		notifier.EXPECT().SendBorrowNotice(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

		_, err := svc.Borrow(ctx, reader, "b1", "")
		require.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("borrow notice failed").Len())
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		for _, want := range []error{book.ErrNotFound, apperr.ErrUnavailable, apperr.ErrAlreadyBorrowed} {
			repo.EXPECT().Borrow(gomock.Any(), gomock.Any()).Return(BorrowOutcome{}, want)
			_, err := svc.Borrow(ctx, reader, "b1", "")
			assert.ErrorIs(t, err, want)
		}
	})

	t.Run("storage errors are wrapped", func(t *testing.T) {
		repo.EXPECT().Borrow(gomock.Any(), gomock.Any()).Return(BorrowOutcome{}, context.DeadlineExceeded)
		_, err := svc.Borrow(ctx, reader, "b1", "")
		assert.ErrorIs(t, err, apperr.ErrStorage)
	})

	t.Run("readers cannot borrow for someone else", func(t *testing.T) {
		_, err := svc.Borrow(ctx, reader, "b1", "u2")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("admin borrows on behalf and the loan is administrative", func(t *testing.T) {
		repo.EXPECT().Borrow(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req BorrowRequest) (BorrowOutcome, error) {
				assert.Equal(t, "u2", req.UserID)
				assert.True(t, req.Administrative)
				return outcome, nil
			})
		notifier.EXPECT().SendBorrowNotice(gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.Borrow(ctx, Actor{UserID: "admin", Admin: true}, "b1", "u2")
		require.NoError(t, err)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.Borrow(ctx, Actor{}, "b1", "")
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestService_BorrowWithoutNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo, nil, WithPeriod(7*24*time.Hour), WithClock(fixedClock{t0}))

	repo.EXPECT().Borrow(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req BorrowRequest) (BorrowOutcome, error) {
			assert.Equal(t, t0.Add(7*24*time.Hour), req.DueAt)
			assert.NotEmpty(t, req.LoanID)
			return BorrowOutcome{Loan: Loan{DueAt: req.DueAt}}, nil
		})

	res, err := svc.Borrow(context.Background(), Actor{UserID: "u1"}, "b1", "")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(7*24*time.Hour), res.DueAt)
}

func TestService_Return(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo, nil, WithClock(fixedClock{t0}))
	ctx := context.Background()

	repo.EXPECT().Return(gomock.Any(), "u1", "b1", t0).
		Return(ReturnOutcome{Book: book.Book{ID: "b1", Quantity: 1}, Loan: Loan{ID: "l1", ReturnedAt: &t0}}, nil)
	res, err := svc.Return(ctx, Actor{UserID: "u1"}, "b1", "")
	require.NoError(t, err)
	assert.False(t, res.Loan.Open())

	repo.EXPECT().Return(gomock.Any(), "u1", "b1", t0).Return(ReturnOutcome{}, apperr.ErrNoActiveLoan)
	_, err = svc.Return(ctx, Actor{UserID: "u1"}, "b1", "")
	assert.ErrorIs(t, err, apperr.ErrNoActiveLoan)

	_, err = svc.Return(ctx, Actor{UserID: "u1"}, " ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestService_Queries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.EXPECT().History(gomock.Any(), "u1").Return(nil, nil)
	loans, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, loans)

	repo.EXPECT().ActiveCountByBook(gomock.Any(), "b1").Return(2, nil)
	n, err := svc.ActiveLoanCount(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	repo.EXPECT().ActiveTotal(gomock.Any()).Return(7, nil)
	n, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	repo.EXPECT().ActiveByBook(gomock.Any(), "missing").Return(nil, book.ErrNotFound)
	_, err = svc.ActiveLoans(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestULIDGen_Monotonic(t *testing.T) {
	g := newULIDGen()
	prev := ""
	for i := 0; i < 100; i++ {
		id, err := g.New(t0)
		require.NoError(t, err)
		assert.Len(t, id, 26)
		assert.Greater(t, id, prev)
		prev = id
	}
}
