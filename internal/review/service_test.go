package review

import (
	"context"
	"errors"
	"testing"

	"bookhive/internal/apperr"
	"bookhive/internal/book"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		valid bool
	}{
		{"lowest", Input{Rating: 1}, true},
		{"highest with comment", Input{Rating: 5, Comment: "great"}, true},
		{"zero", Input{Rating: 0}, false},
		{"six", Input{Rating: 6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperr.ErrValidation)
			}
		})
	}
}

func TestService_Upsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	svc := NewService(mockRepo)
	ctx := context.Background()

	t.Run("trims comment and returns rating", func(t *testing.T) {
		saved := Review{ID: "r1", BookID: "b1", UserID: "u1", Rating: 4, Comment: "solid"}
		mockRepo.EXPECT().Upsert(ctx, "b1", "u1", Input{Rating: 4, Comment: "solid"}).Return(saved, nil)
		mockRepo.EXPECT().Summary(ctx, "b1").Return(Summary{Average: 4, Count: 1}, nil)

		rv, sum, err := svc.Upsert(ctx, "b1", "u1", Input{Rating: 4, Comment: "  solid \n"})
		require.NoError(t, err)
		assert.Equal(t, saved, rv)
		assert.Equal(t, Summary{Average: 4, Count: 1}, sum)
	})

	t.Run("invalid rating never reaches storage", func(t *testing.T) {
		_, _, err := svc.Upsert(ctx, "b1", "u1", Input{Rating: 9})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing book", func(t *testing.T) {
		mockRepo.EXPECT().Upsert(ctx, "nope", "u1", gomock.Any()).Return(Review{}, book.ErrNotFound)

		_, _, err := svc.Upsert(ctx, "nope", "u1", Input{Rating: 3})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo.EXPECT().Upsert(ctx, "b1", "u1", gomock.Any()).Return(Review{}, errors.New("disk full"))

		_, _, err := svc.Upsert(ctx, "b1", "u1", Input{Rating: 3})
		assert.ErrorIs(t, err, apperr.ErrStorage)
	})
}

func TestService_ListNeverNil(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	mockRepo.EXPECT().List(gomock.Any(), "b1").Return(nil, nil)

	out, err := NewService(mockRepo).List(context.Background(), "b1")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestService_DeleteMine(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	mockRepo.EXPECT().DeleteMine(gomock.Any(), "b1", "u1").Return(false, nil)
	mockRepo.EXPECT().Summary(gomock.Any(), "b1").Return(Summary{}, nil)

	deleted, sum, err := NewService(mockRepo).DeleteMine(context.Background(), "b1", "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, sum.Count)
}
