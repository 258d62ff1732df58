package review

import (
	"context"

	"bookhive/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert saves the reader's review of the book, replacing an earlier one, and
// returns it with the book's new rating.
func (s *Service) Upsert(ctx context.Context, bookID, userID string, in Input) (Review, Summary, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Review{}, Summary{}, err
	}
	rv, err := s.repo.Upsert(ctx, bookID, userID, in)
	if err != nil {
		return Review{}, Summary{}, apperr.Storage("save review", err)
	}
	sum, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return Review{}, Summary{}, apperr.Storage("book rating", err)
	}
	return rv, sum, nil
}

// List returns the book's reviews, newest first.
func (s *Service) List(ctx context.Context, bookID string) ([]Review, error) {
	out, err := s.repo.List(ctx, bookID)
	if err != nil {
		return nil, apperr.Storage("list reviews", err)
	}
	if out == nil {
		out = []Review{}
	}
	return out, nil
}

// DeleteMine removes the reader's review; deleting nothing is not an error.
func (s *Service) DeleteMine(ctx context.Context, bookID, userID string) (bool, Summary, error) {
	deleted, err := s.repo.DeleteMine(ctx, bookID, userID)
	if err != nil {
		return false, Summary{}, apperr.Storage("delete review", err)
	}
	sum, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return false, Summary{}, apperr.Storage("book rating", err)
	}
	return deleted, sum, nil
}

func (s *Service) Summary(ctx context.Context, bookID string) (Summary, error) {
	sum, err := s.repo.Summary(ctx, bookID)
	if err != nil {
		return Summary{}, apperr.Storage("book rating", err)
	}
	return sum, nil
}
