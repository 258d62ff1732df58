package book

import (
	"context"
	"errors"
	"testing"

	"bookhive/internal/apperr"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AddOrMerge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("trims before storing", func(t *testing.T) {
		want := AddInput{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", Quantity: 2}
		repo.EXPECT().AddOrMerge(gomock.Any(), want).Return(Book{ID: "1", Quantity: 2}, true, nil)

		b, created, err := svc.AddOrMerge(ctx, AddInput{Title: " Dune ", Author: "Frank Herbert ", Genre: " Sci-Fi", Quantity: 2})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "1", b.ID)
	})

	t.Run("invalid input never reaches the repository", func(t *testing.T) {
		_, _, err := svc.AddOrMerge(ctx, AddInput{Title: "  ", Author: "a", Genre: "g"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		repo.EXPECT().AddOrMerge(gomock.Any(), gomock.Any()).Return(Book{}, false, context.DeadlineExceeded)

		_, _, err := svc.AddOrMerge(ctx, AddInput{Title: "t", Author: "a", Genre: "g"})
		assert.ErrorIs(t, err, apperr.ErrStorage)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)
	ctx := context.Background()

	t.Run("merged result", func(t *testing.T) {
		repo.EXPECT().Update(gomock.Any(), "a", gomock.Any()).Return(Book{ID: "b", Quantity: 5}, true, nil)

		title := "Dune"
		b, merged, err := svc.Update(ctx, "a", Patch{Title: &title})
		require.NoError(t, err)
		assert.True(t, merged)
		assert.Equal(t, "b", b.ID)
	})

	t.Run("negative quantity", func(t *testing.T) {
		q := -1
		_, _, err := svc.Update(ctx, "a", Patch{Quantity: &q})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("not found passes through", func(t *testing.T) {
		repo.EXPECT().Update(gomock.Any(), "missing", gomock.Any()).Return(Book{}, false, ErrNotFound)

		_, _, err := svc.Update(ctx, "missing", Patch{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)

	repo.EXPECT().Delete(gomock.Any(), "1").Return(nil)
	assert.NoError(t, svc.Delete(context.Background(), "1"))

	repo.EXPECT().Delete(gomock.Any(), "2").Return(ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "2"), apperr.ErrNotFound)

	repo.EXPECT().Delete(gomock.Any(), "3").Return(ErrHasOpenLoans)
	assert.ErrorIs(t, svc.Delete(context.Background(), "3"), apperr.ErrConflict)
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)

	repo.EXPECT().List(gomock.Any(), Query{Genre: "Sci-Fi"}).Return(nil, 0, nil)

	books, total, err := svc.List(context.Background(), Query{Genre: " Sci-Fi ", Limit: -5, Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestService_Document(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := NewMockRepository(ctrl)
	svc := NewService(repo)

	repo.EXPECT().Document(gomock.Any(), "1").Return(Document{}, ErrNotFound)
	_, err := svc.Document(context.Background(), "1")
	require.Error(t, err)
	var e *apperr.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "document not found", e.Message)
}
