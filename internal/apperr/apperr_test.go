package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesOnCode(t *testing.T) {
	err := fmt.Errorf("borrow: %w", &Error{Code: CodeUnavailable, Message: "no copies left"})

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestStorage(t *testing.T) {
	t.Run("wraps foreign errors", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Storage("list books", cause)

		assert.True(t, errors.Is(err, ErrStorage))
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, CodeStorage, CodeOf(err))
	})

	t.Run("keeps domain errors", func(t *testing.T) {
		err := Storage("borrow", ErrAlreadyBorrowed)
		assert.True(t, errors.Is(err, ErrAlreadyBorrowed))
		assert.False(t, errors.Is(err, ErrStorage))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Storage("noop", nil))
	})
}

func TestValidationDetails(t *testing.T) {
	err := Validation(FieldError{Field: "title", Message: "title is required"})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, []FieldError{{Field: "title", Message: "title is required"}}, DetailsOf(err))
	assert.Nil(t, DetailsOf(errors.New("plain")))
}
