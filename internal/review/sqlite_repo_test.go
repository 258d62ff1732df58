package review

import (
	"context"
	"testing"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRepo_Reviews(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	books := book.NewSQLiteRepo(db, 5*time.Second)
	svc := NewService(NewSQLiteRepo(db, 5*time.Second))

	b, _, err := books.AddOrMerge(ctx, book.AddInput{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 1})
	require.NoError(t, err)
	testutil.InsertUser(t, db, "u1", "ana@example.com")
	testutil.InsertUser(t, db, "u2", "ben@example.com")

	sum, err := svc.Summary(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	first, sum, err := svc.Upsert(ctx, b.ID, "u1", Input{Rating: 2, Comment: " meh "})
	require.NoError(t, err)
	assert.Equal(t, "meh", first.Comment)
	assert.Equal(t, "ana@example.com", first.UserName)
	assert.Equal(t, Summary{Average: 2, Count: 1}, sum)

	_, _, err = svc.Upsert(ctx, b.ID, "u2", Input{Rating: 5})
	require.NoError(t, err)

	// A second review by the same reader replaces the first.
	again, sum, err := svc.Upsert(ctx, b.ID, "u1", Input{Rating: 4, Comment: "grew on me"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 4, again.Rating)
	assert.Equal(t, Summary{Average: 4.5, Count: 2}, sum)

	list, err := svc.List(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].UserID)

	deleted, sum, err := svc.DeleteMine(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, Summary{Average: 5, Count: 1}, sum)

	deleted, _, err = svc.DeleteMine(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSQLiteRepo_UnknownBook(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	testutil.InsertUser(t, db, "u1", "ana@example.com")
	svc := NewService(NewSQLiteRepo(db, 5*time.Second))

	_, _, err := svc.Upsert(ctx, "missing", "u1", Input{Rating: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.List(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Summary(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSQLiteRepo_ReviewsFollowBookDeletion(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	books := book.NewSQLiteRepo(db, 5*time.Second)
	repo := NewSQLiteRepo(db, 5*time.Second)
	testutil.InsertUser(t, db, "u1", "ana@example.com")

	b, _, err := books.AddOrMerge(ctx, book.AddInput{Title: "Emma", Author: "Jane Austen", Genre: "Classic", Quantity: 1})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, b.ID, "u1", Input{Rating: 5})
	require.NoError(t, err)

	require.NoError(t, books.Delete(ctx, b.ID))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM reviews`))
	assert.Zero(t, n)
}
