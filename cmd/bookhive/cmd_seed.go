package main

import (
	"fmt"
	"math/rand"

	"bookhive/internal/book"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var classics = []book.AddInput{
	{Title: "1984", Author: "George Orwell", Genre: "Dystopia", Quantity: 3},
	{Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopia", Quantity: 2},
	{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Quantity: 4},
	{Title: "Emma", Author: "Jane Austen", Genre: "Classic", Quantity: 2},
	{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Classic", Quantity: 3},
	{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", Quantity: 5},
	{Title: "Moby-Dick", Author: "Herman Melville", Genre: "Adventure", Quantity: 1},
	{Title: "The Origin of Species", Author: "Charles Darwin", Genre: "Science", Quantity: 1},
}

var seedWords = []string{
	"Adventure", "Mystery", "Journey", "Discovery", "Secrets", "Dreams", "Hope",
	"Love", "War", "Peace", "Science", "Nature", "Technology", "History", "Future",
	"Past", "Present", "Reality", "Imagination", "Wisdom", "Life", "Death",
	"Light", "Darkness", "World", "Universe", "Time", "Space", "Mind", "Soul",
}

var seedGenres = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography", "Philosophy", "Art"}

func (c *cli) seedCmd() *cobra.Command {
	var (
		extra int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a starter catalogue",
		Long: `Adds a handful of classics plus --count generated titles. Seeding twice
merges into the same records and only raises their quantities.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := book.NewService(c.store.Books)
			rng := rand.New(rand.NewSource(seed))

			inputs := append([]book.AddInput(nil), classics...)
			for i := 0; i < extra; i++ {
				inputs = append(inputs, book.AddInput{
					Title:    fmt.Sprintf("Book Title %d - %s", i+1, seedWords[rng.Intn(len(seedWords))]),
					Author:   fmt.Sprintf("%s %s", seedWords[rng.Intn(len(seedWords))], seedWords[rng.Intn(len(seedWords))]),
					Genre:    seedGenres[rng.Intn(len(seedGenres))],
					Quantity: 1 + rng.Intn(5),
				})
			}

			var created, merged int
			for _, in := range inputs {
				_, isNew, err := svc.AddOrMerge(cmd.Context(), in)
				if err != nil {
					return fmt.Errorf("seed %q: %w", in.Title, err)
				}
				if isNew {
					created++
				} else {
					merged++
				}
			}
			c.log.Debug("seed finished", zap.Int("created", created), zap.Int("merged", merged))
			fmt.Fprintf(c.out, "seeded %d book(s): %d new, %d merged\n", len(inputs), created, merged)
			return nil
		},
	}
	cmd.Flags().IntVar(&extra, "count", 0, "generated titles to add on top of the classics")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed for generated titles")
	return cmd
}
