package book

import (
	"context"
	"errors"
	"strings"

	"bookhive/internal/apperr"
)

// Service provides catalog business logic.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AddOrMerge adds a book, or folds it into the existing record with the same
// title, author and genre. The boolean reports whether a record was created.
func (s *Service) AddOrMerge(ctx context.Context, in AddInput) (Book, bool, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return Book{}, false, err
	}
	b, created, err := s.repo.AddOrMerge(ctx, in)
	if err != nil {
		return Book{}, false, apperr.Storage("add book", err)
	}
	return b, created, nil
}

// Update applies p to the book. When the edit makes the book a duplicate of
// another record, the two are merged, the edited one is removed and the
// surviving record is returned with merged set.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, bool, error) {
	p = p.normalize()
	if err := p.Validate(); err != nil {
		return Book{}, false, err
	}
	b, merged, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return Book{}, false, apperr.Storage("update book", err)
	}
	return b, merged, nil
}

// Delete removes the book. Books with open loans cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	return apperr.Storage("delete book", s.repo.Delete(ctx, id))
}

func (s *Service) Get(ctx context.Context, id string) (Book, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return Book{}, apperr.Storage("get book", err)
	}
	return b, nil
}

// List returns the books matching q and the total number of matches.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	if q.Limit < 0 {
		q.Limit = 0
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	q.Genre = strings.TrimSpace(q.Genre)
	q.Author = strings.TrimSpace(q.Author)
	q.Q = strings.TrimSpace(q.Q)

	books, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, apperr.Storage("list books", err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, total, nil
}

// ListAll returns every book in the catalog.
func (s *Service) ListAll(ctx context.Context) ([]Book, error) {
	books, _, err := s.List(ctx, Query{})
	return books, err
}

// Document returns the file attached to the book.
func (s *Service) Document(ctx context.Context, id string) (Document, error) {
	doc, err := s.repo.Document(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return Document{}, apperr.New(apperr.CodeNotFound, "document not found")
	}
	if err != nil {
		return Document{}, apperr.Storage("get document", err)
	}
	return doc, nil
}
