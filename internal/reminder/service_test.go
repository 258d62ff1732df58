package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/loan"
	"bookhive/internal/notify"
	"bookhive/internal/testutil"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	sent := now.Add(-time.Hour)
	due := func(d time.Duration, dueSoon, overdue *time.Time) loan.DueLoan {
		return loan.DueLoan{Loan: loan.Loan{DueAt: now.Add(d), DueSoonNotifiedAt: dueSoon, OverdueNotifiedAt: overdue}}
	}

	tests := []struct {
		name string
		loan loan.DueLoan
		kind notify.Kind
		owed bool
	}{
		{"due in two days", due(48*time.Hour, nil, nil), notify.KindDueSoon, true},
		{"due in a day, already told", due(24*time.Hour, &sent, nil), notify.KindDueSoon, false},
		{"due later", due(72*time.Hour, nil, nil), "", false},
		{"overdue", due(-time.Hour, nil, nil), notify.KindOverdue, true},
		{"overdue without due-soon notice", due(-24*time.Hour, nil, nil), notify.KindOverdue, true},
		{"overdue, already told", due(-time.Hour, &sent, &sent), notify.KindOverdue, false},
		{"due right now", due(0, nil, nil), notify.KindDueSoon, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, owed := classify(tt.loan, now, DefaultLookahead)
			assert.Equal(t, tt.owed, owed)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, kind)
			}
		})
	}
}

func TestService_Sweep(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := NewMockStore(ctrl)
	notifier := NewMockNotifier(ctrl)
	svc := NewService(store, notifier, nil, WithClock(fixedClock{now}))
	ctx := context.Background()

	soon := loan.DueLoan{Loan: loan.Loan{ID: "soon", BookTitle: "Dune", DueAt: now.Add(24 * time.Hour)}, UserEmail: "a@x"}
	late := loan.DueLoan{Loan: loan.Loan{ID: "late", BookTitle: "Emma", DueAt: now.Add(-24 * time.Hour)}, UserEmail: "b@x"}
	raced := loan.DueLoan{Loan: loan.Loan{ID: "raced", DueAt: now.Add(time.Hour)}}

	store.EXPECT().ListOpenDue(gomock.Any(), now.Add(DefaultLookahead)).Return([]loan.DueLoan{soon, late, raced}, nil)
	store.EXPECT().ClaimNotice(gomock.Any(), "soon", notify.KindDueSoon, now).Return(true, nil)
	store.EXPECT().ClaimNotice(gomock.Any(), "late", notify.KindOverdue, now).Return(true, nil)
	// another sweep got there first
	store.EXPECT().ClaimNotice(gomock.Any(), "raced", notify.KindDueSoon, now).Return(false, nil)

	notifier.EXPECT().SendReminderNotice(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n notify.ReminderNotice) error {
			switch n.To {
			case "a@x":
				assert.Equal(t, notify.KindDueSoon, n.Kind)
				assert.Equal(t, "Dune", n.BookTitle)
			case "b@x":
				assert.Equal(t, notify.KindOverdue, n.Kind)
			default:
				t.Errorf("unexpected recipient %q", n.To)
			}
			return nil
		}).Times(2)

	run, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, run.Scanned)
	assert.Equal(t, 1, run.DueSoonSent)
	assert.Equal(t, 1, run.OverdueSent)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 2, run.Sent())
	assert.Equal(t, now, run.StartedAt)
	assert.Equal(t, now, run.FinishedAt)
}

func TestService_SweepReleasesFailedNotice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := NewMockStore(ctrl)
	notifier := NewMockNotifier(ctrl)
	svc := NewService(store, notifier, nil, WithClock(fixedClock{now}))

	l := loan.DueLoan{Loan: loan.Loan{ID: "l1", DueAt: now.Add(time.Hour)}, UserEmail: "a@x"}
	store.EXPECT().ListOpenDue(gomock.Any(), gomock.Any()).Return([]loan.DueLoan{l}, nil)
	store.EXPECT().ClaimNotice(gomock.Any(), "l1", notify.KindDueSoon, now).Return(true, nil)
	notifier.EXPECT().SendReminderNotice(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
	store.EXPECT().ReleaseNotice(gomock.Any(), "l1", notify.KindDueSoon).Return(nil)

	run, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 0, run.Sent())
}

func TestService_SweepStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := NewMockStore(ctrl)
	svc := NewService(store, NewMockNotifier(ctrl), nil)

	store.EXPECT().ListOpenDue(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	_, err := svc.Sweep(context.Background())
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

type inbox struct {
	mu   sync.Mutex
	sent []notify.ReminderNotice
	fail bool
}

func (i *inbox) SendReminderNotice(_ context.Context, n notify.ReminderNotice) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fail {
		return errors.New("mail server unavailable")
	}
	i.sent = append(i.sent, n)
	return nil
}

func (i *inbox) kinds() []notify.Kind {
	i.mu.Lock()
	defer i.mu.Unlock()
	var out []notify.Kind
	for _, n := range i.sent {
		out = append(out, n.Kind)
	}
	return out
}

// borrowAt opens a loan of a fresh book for userID as of borrowedAt.
func borrowAt(t *testing.T, ledger *loan.Service, books *book.SQLiteRepo, userID, title string) {
	t.Helper()
	b, _, err := books.AddOrMerge(context.Background(), book.AddInput{Title: title, Author: "A", Genre: "G", Quantity: 1})
	require.NoError(t, err)
	_, err = ledger.Borrow(context.Background(), loan.Actor{UserID: userID}, b.ID, "")
	require.NoError(t, err)
}

func TestSweep_SQLite(t *testing.T) {
	db := testutil.SQLite(t)
	testutil.InsertUser(t, db, "u1", "ann@example.com")
	repo := loan.NewSQLiteRepo(db, 5*time.Second)
	books := book.NewSQLiteRepo(db, 5*time.Second)
	ctx := context.Background()

	borrowAt(t, loan.NewService(repo, nil, loan.WithClock(fixedClock{now.Add(-12 * 24 * time.Hour)})), books, "u1", "Twelve")
	borrowAt(t, loan.NewService(repo, nil, loan.WithClock(fixedClock{now.Add(-15 * 24 * time.Hour)})), books, "u1", "Fifteen")
	borrowAt(t, loan.NewService(repo, nil, loan.WithClock(fixedClock{now.Add(-1 * 24 * time.Hour)})), books, "u1", "Fresh")

	mail := &inbox{}
	svc := NewService(repo, mail, nil, WithClock(fixedClock{now}), WithLookahead(48*time.Hour))

	run, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Scanned)
	assert.Equal(t, 1, run.DueSoonSent)
	assert.Equal(t, 1, run.OverdueSent)
	assert.ElementsMatch(t, []notify.Kind{notify.KindDueSoon, notify.KindOverdue}, mail.kinds())

	run, err = svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, run.Sent())
	assert.Len(t, mail.sent, 2)

	// three days on, the twelve-day loan is overdue too
	later := NewService(repo, mail, nil, WithClock(fixedClock{now.Add(3 * 24 * time.Hour)}))
	run, err = later.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.OverdueSent)
	assert.Len(t, mail.sent, 3)
}

func TestSweep_SQLiteRetriesFailedSend(t *testing.T) {
	db := testutil.SQLite(t)
	testutil.InsertUser(t, db, "u1", "ann@example.com")
	repo := loan.NewSQLiteRepo(db, 5*time.Second)
	books := book.NewSQLiteRepo(db, 5*time.Second)
	borrowAt(t, loan.NewService(repo, nil, loan.WithClock(fixedClock{now.Add(-15 * 24 * time.Hour)})), books, "u1", "Late")

	mail := &inbox{fail: true}
	svc := NewService(repo, mail, nil, WithClock(fixedClock{now}))

	run, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failed)

	mail.fail = false
	run, err = svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.OverdueSent)
}
