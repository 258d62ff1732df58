// Package ingest imports books from Open Library into the catalogue. Every
// imported title goes through add-or-merge, so re-importing only raises
// quantities.
package ingest

import (
	"context"
	"time"

	"bookhive/internal/book"
	"bookhive/internal/platform/openlibrary"
)

const fallbackGenre = "General"

type Config struct {
	BatchSize   int
	Concurrency int
}

// Request names what to import: explicit ISBNs, and up to Limit hits for
// each subject. Copies is the quantity added per title.
type Request struct {
	ISBNs    []string
	Subjects []string
	Limit    int
	Copies   int
	Status   *book.Status
}

// Run summarises one import.
type Run struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Discovered int       `json:"discovered"`
	Fetched    int       `json:"fetched"`
	Added      int       `json:"added"`
	Merged     int       `json:"merged"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

type Source interface {
	SearchBooks(ctx context.Context, subject string, limit int) (*openlibrary.SearchResponse, error)
	GetBooksByISBN(ctx context.Context, isbns []string) (map[string]openlibrary.BookDetails, error)
}

type Catalog interface {
	AddOrMerge(ctx context.Context, in book.AddInput) (book.Book, bool, error)
}
