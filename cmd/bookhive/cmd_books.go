package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"bookhive/internal/book"
	"bookhive/internal/loan"

	"github.com/spf13/cobra"
)

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Inspect and edit the catalogue",
	}
	cmd.AddCommand(c.booksListCmd(), c.booksAddCmd(), c.booksImportCmd())
	return cmd
}

func (c *cli) booksListCmd() *cobra.Command {
	var q book.Query
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			books, total, err := book.NewService(c.store.Books).List(cmd.Context(), q)
			if err != nil {
				return err
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(books)
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tQTY\tSTATUS")
			for _, b := range books {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Quantity, b.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%d book(s)\n", total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Genre, "genre", "", "filter by genre")
	f.StringVar(&q.Author, "author", "", "filter by author")
	f.StringVar(&q.Q, "q", "", "search title and author")
	f.BoolVar(&q.AvailableOnly, "available", false, "only books that can be borrowed")
	return cmd
}

func (c *cli) booksAddCmd() *cobra.Command {
	var (
		in     book.AddInput
		status string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book, merging into an existing record with the same title, author and genre",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				s := book.Status(status)
				in.Status = &s
			}
			b, created, err := book.NewService(c.store.Books).AddOrMerge(cmd.Context(), in)
			if err != nil {
				return err
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(map[string]any{"book": b, "merged": !created})
			}
			verb := "added"
			if !created {
				verb = "merged into"
			}
			fmt.Fprintf(c.out, "%s %s (%q, quantity %d)\n", verb, b.ID, b.Title, b.Quantity)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "title")
	f.StringVar(&in.Author, "author", "", "author")
	f.StringVar(&in.Genre, "genre", "", "genre")
	f.IntVar(&in.Quantity, "quantity", 1, "copies to add")
	f.StringVar(&status, "status", "", "online or offline")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("genre")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var bookID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show open loan counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := loan.NewService(c.store.Loans, nil, loan.WithLogger(c.log))
			total, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := map[string]any{"total_borrowed": total}
			if bookID != "" {
				n, err := svc.ActiveLoanCount(cmd.Context(), bookID)
				if err != nil {
					return err
				}
				out["book_id"] = bookID
				out["active_loans"] = n
			}
			if c.asJSON {
				return json.NewEncoder(c.out).Encode(out)
			}
			fmt.Fprintf(c.out, "open loans: %d\n", total)
			if bookID != "" {
				fmt.Fprintf(c.out, "open loans of %s: %d\n", bookID, out["active_loans"])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bookID, "book", "", "also count the open loans of this book")
	return cmd
}
