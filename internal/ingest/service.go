package ingest

import (
	"context"
	"strings"
	"time"

	"bookhive/internal/apperr"
	"bookhive/internal/book"
	"bookhive/internal/platform/openlibrary"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	source  Source
	catalog Catalog
	cfg     Config
	log     *zap.Logger
}

func NewService(source Source, catalog Catalog, cfg Config, log *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, catalog: catalog, cfg: cfg, log: log}
}

type candidate struct {
	isbn  string
	genre string
}

// Import discovers, fetches and adds the requested books. Copies is taken
// as given, so zero registers titles without physical stock. A failed batch or
// a rejected title is counted and logged; only discovery errors and
// cancellation abort the run.
func (s *Service) Import(ctx context.Context, req Request) (run Run, err error) {
	run.StartedAt = time.Now()
	defer func() { run.FinishedAt = time.Now() }()

	if req.Copies < 0 {
		return run, apperr.Validation(apperr.FieldError{Field: "copies", Message: "copies must be greater than or equal to 0"})
	}

	cands, err := s.discover(ctx, req)
	if err != nil {
		return run, err
	}
	run.Discovered = len(cands)

	details := s.hydrate(ctx, cands, &run)
	if err := ctx.Err(); err != nil {
		return run, err
	}

	for i, c := range cands {
		d, ok := details[i]
		if !ok {
			continue
		}
		in, ok := toAddInput(c, d, req)
		if !ok {
			run.Skipped++
			continue
		}
		_, created, err := s.catalog.AddOrMerge(ctx, in)
		if err != nil {
			run.Failed++
			s.log.Warn("import rejected", zap.String("isbn", c.isbn), zap.String("title", in.Title), zap.Error(err))
			continue
		}
		if created {
			run.Added++
		} else {
			run.Merged++
		}
	}

	s.log.Info("import finished",
		zap.Int("discovered", run.Discovered),
		zap.Int("added", run.Added),
		zap.Int("merged", run.Merged),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
	)
	return run, nil
}

func (s *Service) discover(ctx context.Context, req Request) ([]candidate, error) {
	seen := make(map[string]bool)
	var out []candidate
	add := func(isbn, genre string) {
		isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
		if isbn == "" || seen[isbn] {
			return
		}
		seen[isbn] = true
		out = append(out, candidate{isbn: isbn, genre: genre})
	}

	for _, isbn := range req.ISBNs {
		add(isbn, "")
	}
	for _, subject := range req.Subjects {
		limit := req.Limit
		if limit <= 0 {
			limit = 20
		}
		res, err := s.source.SearchBooks(ctx, subject, limit)
		if err != nil {
			return nil, err
		}
		for _, doc := range res.Docs {
			add(doc.PreferredISBN(), subject)
		}
	}
	return out, nil
}

// hydrate fetches details in batches, a few batches at a time. The result is
// keyed by candidate index.
func (s *Service) hydrate(ctx context.Context, cands []candidate, run *Run) map[int]openlibrary.BookDetails {
	var batches [][]int
	for start := 0; start < len(cands); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(cands))
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		batches = append(batches, idx)
	}

	results := make([]map[string]openlibrary.BookDetails, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for b, idx := range batches {
		isbns := make([]string, len(idx))
		for j, i := range idx {
			isbns[j] = cands[i].isbn
		}
		g.Go(func() error {
			res, err := s.source.GetBooksByISBN(gctx, isbns)
			if err != nil {
				s.log.Warn("failed to hydrate batch", zap.Strings("isbns", isbns), zap.Error(err))
				return nil
			}
			results[b] = res
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]openlibrary.BookDetails)
	for b, idx := range batches {
		if results[b] == nil {
			run.Failed += len(idx)
			continue
		}
		for _, i := range idx {
			d, ok := results[b][cands[i].isbn]
			if !ok {
				run.Skipped++
				continue
			}
			run.Fetched++
			out[i] = d
		}
	}
	return out
}

func toAddInput(c candidate, d openlibrary.BookDetails, req Request) (book.AddInput, bool) {
	in := book.AddInput{
		Title:    strings.TrimSpace(d.Title),
		Author:   strings.TrimSpace(d.FirstAuthor()),
		Genre:    c.genre,
		Quantity: req.Copies,
		Status:   req.Status,
	}
	if in.Genre == "" {
		in.Genre = d.FirstSubject()
	}
	if in.Genre == "" {
		in.Genre = fallbackGenre
	}
	if in.Title == "" || in.Author == "" {
		return book.AddInput{}, false
	}
	return in, true
}
