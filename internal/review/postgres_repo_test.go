package review

import (
	"context"
	"testing"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_Reviews(t *testing.T) {
	pool := testutil.Postgres(t)
	ctx := context.Background()
	b, _, err := book.NewPostgresRepo(pool, 5*time.Second).AddOrMerge(ctx, book.AddInput{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 1})
	require.NoError(t, err)

	userID := uuid.NewString()
	_, err = pool.Exec(ctx, `INSERT INTO users (id, name, email, password_hash) VALUES ($1, 'Ana', 'ana@example.com', 'x')`, userID)
	require.NoError(t, err)

	repo := NewPostgresRepo(pool, 5*time.Second)
	rv, err := repo.Upsert(ctx, b.ID, userID, Input{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, "Ana", rv.UserName)

	again, err := repo.Upsert(ctx, b.ID, userID, Input{Rating: 5, Comment: "better"})
	require.NoError(t, err)
	assert.Equal(t, rv.ID, again.ID)

	sum, err := repo.Summary(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Average: 5, Count: 1}, sum)

	list, err := repo.List(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "better", list[0].Comment)

	deleted, err := repo.DeleteMine(ctx, b.ID, userID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repo.List(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
