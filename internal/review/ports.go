package review

import "context"

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=review

// Repository stores reviews. Methods taking a bookID fail with
// book.ErrNotFound when the book does not exist.
type Repository interface {
	Upsert(ctx context.Context, bookID, userID string, in Input) (Review, error)
	List(ctx context.Context, bookID string) ([]Review, error)
	DeleteMine(ctx context.Context, bookID, userID string) (bool, error)
	Summary(ctx context.Context, bookID string) (Summary, error)
}
