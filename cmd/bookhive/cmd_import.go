package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"bookhive/internal/book"
	"bookhive/internal/ingest"
	"bookhive/internal/platform/openlibrary"

	"github.com/spf13/cobra"
)

func (c *cli) booksImportCmd() *cobra.Command {
	var (
		req    ingest.Request
		status string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import books from Open Library by subject or ISBN",
		Example: `  bookhive books import --subject fantasy --limit 50
  bookhive books import --isbn 9780441013593 --copies 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(req.Subjects) == 0 && len(req.ISBNs) == 0 {
				return errors.New("at least one --subject or --isbn is required")
			}
			if status != "" {
				s := book.Status(status)
				req.Status = &s
			}

			ic := c.cfg.Import
			client := openlibrary.NewClient(ic.UserAgent, ic.RPS, ic.MaxRetries, openlibrary.WithBaseURL(ic.BaseURL))
			svc := ingest.NewService(client, book.NewService(c.store.Books), ingest.Config{
				BatchSize:   ic.BatchSize,
				Concurrency: ic.Concurrency,
			}, c.log)

			run, err := svc.Import(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(run)
			}
			fmt.Fprintf(c.out, "imported %d of %d: %d new, %d merged, %d skipped, %d failed\n",
				run.Added+run.Merged, run.Discovered, run.Added, run.Merged, run.Skipped, run.Failed)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&req.Subjects, "subject", nil, "Open Library subject to search, repeatable")
	f.StringSliceVar(&req.ISBNs, "isbn", nil, "ISBN to import, repeatable")
	f.IntVar(&req.Limit, "limit", 20, "search hits per subject")
	f.IntVar(&req.Copies, "copies", 1, "copies added per title")
	f.StringVar(&status, "status", "", "online or offline")
	return cmd
}
