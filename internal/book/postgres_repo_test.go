package book

import (
	"context"
	"testing"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_AddOrMergeAndUpdate(t *testing.T) {
	pool := testutil.Postgres(t)
	repo := NewPostgresRepo(pool, 5*time.Second)
	ctx := context.Background()

	a, created, err := repo.AddOrMerge(ctx, AddInput{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 2})
	require.NoError(t, err)
	assert.True(t, created)

	merged, created, err := repo.AddOrMerge(ctx, AddInput{Title: "DUNE", Author: "frank herbert", Genre: "sci-fi", Quantity: 3})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, merged.ID)
	assert.Equal(t, 5, merged.Quantity)

	b, _, err := repo.AddOrMerge(ctx, AddInput{Title: "Dune II", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 1})
	require.NoError(t, err)

	title := "dune"
	got, wasMerged, err := repo.Update(ctx, b.ID, Patch{Title: &title})
	require.NoError(t, err)
	assert.True(t, wasMerged)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, 6, got.Quantity)

	_, err = repo.Get(ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	books, total, err := repo.List(ctx, Query{Genre: "SCI-FI"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, books, 1)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "not-a-uuid"), apperr.ErrNotFound)
}
