package book

import (
	"strings"
	"time"

	"bookhive/internal/apperr"

	"golang.org/x/text/cases"
)

var (
	ErrNotFound     = &apperr.Error{Code: apperr.CodeNotFound, Message: "book not found"}
	ErrHasOpenLoans = &apperr.Error{Code: apperr.CodeConflict, Message: "book has open loans"}
	ErrLoanClash    = &apperr.Error{Code: apperr.CodeConflict, Message: "a reader holds open loans on both merged books"}
	ErrConcurrent   = &apperr.Error{Code: apperr.CodeConflict, Message: "book was changed concurrently, retry"}
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	return s == StatusOnline || s == StatusOffline
}

// Book is a catalog record. Quantity counts the physical copies on the shelf;
// an online book can always be borrowed.
type Book struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Author       string    `json:"author" db:"author"`
	Genre        string    `json:"genre" db:"genre"`
	Quantity     int       `json:"quantity" db:"quantity"`
	Status       Status    `json:"status" db:"status"`
	HasDocument  bool      `json:"has_document" db:"has_document"`
	DocumentName string    `json:"document_name,omitempty" db:"document_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (b Book) Available() bool {
	return b.Status == StatusOnline || b.Quantity > 0
}

func (b Book) Key() Key {
	return MatchKey(b.Title, b.Author, b.Genre)
}

// Key is the case-insensitive identity of a book.
type Key struct {
	Title  string
	Author string
	Genre  string
}

// MatchKey folds title, author and genre for duplicate detection. Case and
// runs of whitespace are ignored.
func MatchKey(title, author, genre string) Key {
	return Key{Title: foldKey(title), Author: foldKey(author), Genre: foldKey(genre)}
}

func foldKey(s string) string {
	// a Caser keeps state, so one per call
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}

// Document is a file attached to a book, usually a PDF.
type Document struct {
	Name        string `db:"name"`
	ContentType string `db:"content_type"`
	Data        []byte `db:"data"`
}

// AddInput describes a book to add, or to merge into an existing record with
// the same identity.
type AddInput struct {
	Title    string
	Author   string
	Genre    string
	Quantity int
	Status   *Status
	Document *Document
}

func (in AddInput) normalize() AddInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	return in
}

func (in AddInput) Validate() error {
	var details []apperr.FieldError
	details = requireText(details, "title", in.Title)
	details = requireText(details, "author", in.Author)
	details = requireText(details, "genre", in.Genre)
	if in.Quantity < 0 {
		details = append(details, apperr.FieldError{Field: "quantity", Message: "quantity must be greater than or equal to 0"})
	}
	details = checkStatus(details, in.Status)
	details = checkDocument(details, in.Document)
	if len(details) > 0 {
		return apperr.Validation(details...)
	}
	return nil
}

// NewBook builds the record created when no duplicate exists.
func (in AddInput) NewBook(id string) Book {
	b := Book{
		ID:       id,
		Title:    in.Title,
		Author:   in.Author,
		Genre:    in.Genre,
		Quantity: in.Quantity,
		Status:   StatusOffline,
	}
	if in.Status != nil {
		b.Status = *in.Status
	}
	return b
}

// MergeAdd folds an add request into the existing record: copies are summed,
// status is replaced only when given.
func MergeAdd(existing Book, in AddInput) Book {
	existing.Quantity += in.Quantity
	if in.Status != nil {
		existing.Status = *in.Status
	}
	return existing
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title    *string
	Author   *string
	Genre    *string
	Quantity *int
	Status   *Status
	Document *Document
}

func (p Patch) normalize() Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	p.Title, p.Author, p.Genre = trim(p.Title), trim(p.Author), trim(p.Genre)
	return p
}

func (p Patch) Validate() error {
	var details []apperr.FieldError
	if p.Title != nil {
		details = requireText(details, "title", *p.Title)
	}
	if p.Author != nil {
		details = requireText(details, "author", *p.Author)
	}
	if p.Genre != nil {
		details = requireText(details, "genre", *p.Genre)
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		details = append(details, apperr.FieldError{Field: "quantity", Message: "quantity must be greater than or equal to 0"})
	}
	details = checkStatus(details, p.Status)
	details = checkDocument(details, p.Document)
	if len(details) > 0 {
		return apperr.Validation(details...)
	}
	return nil
}

// Apply returns b with the patch fields applied.
func (b Book) Apply(p Patch) Book {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Quantity != nil {
		b.Quantity = *p.Quantity
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Document != nil {
		b.HasDocument = true
		b.DocumentName = p.Document.Name
	}
	return b
}

// MergeInto folds source, an edited record whose identity now collides with
// target, into target. Copies are summed. An explicit status wins; otherwise
// the merged record is online if either side was.
func MergeInto(target, source Book, explicit *Status) Book {
	target.Quantity += source.Quantity
	switch {
	case explicit != nil:
		target.Status = *explicit
	case source.Status == StatusOnline:
		target.Status = StatusOnline
	}
	if source.HasDocument {
		target.HasDocument = true
		target.DocumentName = source.DocumentName
	}
	return target
}

// Query filters and pages List. Limit 0 returns every match.
type Query struct {
	Genre         string
	Author        string
	Q             string
	AvailableOnly bool
	Sort          string // title, created_at, quantity
	Desc          bool
	Limit         int
	Offset        int
}

func requireText(details []apperr.FieldError, field, v string) []apperr.FieldError {
	if v == "" {
		return append(details, apperr.FieldError{Field: field, Message: field + " is required"})
	}
	return details
}

func checkStatus(details []apperr.FieldError, s *Status) []apperr.FieldError {
	if s != nil && !s.Valid() {
		return append(details, apperr.FieldError{Field: "status", Message: "status must be either online or offline"})
	}
	return details
}

func checkDocument(details []apperr.FieldError, d *Document) []apperr.FieldError {
	if d != nil && (strings.TrimSpace(d.Name) == "" || len(d.Data) == 0) {
		return append(details, apperr.FieldError{Field: "document", Message: "document must have a name and content"})
	}
	return details
}
