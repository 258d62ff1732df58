package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage. AddOrMerge, Update
// and Delete must be atomic with respect to each other and to loan changes on
// the same book.
type Repository interface {
	AddOrMerge(ctx context.Context, in AddInput) (Book, bool, error)
	Update(ctx context.Context, id string, p Patch) (Book, bool, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Book, error)
	List(ctx context.Context, q Query) ([]Book, int, error)
	Document(ctx context.Context, id string) (Document, error)
}
