package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"paperlab/internal/card"
	"paperlab/internal/term"
)

var searchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search arXiv and print result cards",
	Long: `Search arXiv and print each result as a card. Without terms the configured
DEFAULT_QUERY is used. --expand shows abstracts and authors, and --id resolves
single papers through the same cache as the search.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 0, "maximum number of results (default MAX_RESULTS)")
	searchCmd.Flags().Bool("expand", false, "show abstracts and authors")
	searchCmd.Flags().StringSlice("id", nil, "paper identifiers to show after the search results")
	searchCmd.Flags().Int("width", 0, "card width in columns")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	maxResults, _ := cmd.Flags().GetInt("max-results")
	expand, _ := cmd.Flags().GetBool("expand")
	ids, _ := cmd.Flags().GetStringSlice("id")
	width, _ := cmd.Flags().GetInt("width")

	ctx := cmd.Context()
	q := a.query(strings.Join(args, " "), maxResults)
	results, err := a.library.Search(ctx, q)
	if err != nil {
		return err
	}

	// Bookmarks live in a running server, so terminal cards are never marked.
	now := time.Now()
	views := make([]card.View, 0, len(results)+len(ids))
	for _, p := range results {
		views = append(views, card.Present(p, expand, false, now))
	}
	for _, id := range ids {
		p, err := a.library.Find(ctx, id)
		if err != nil {
			return err
		}
		views = append(views, card.Present(p, true, false, now))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d result(s) for %q\n", len(results), q.Text)
	fmt.Fprintln(out, term.NewRenderer(width).Cards(views))
	return nil
}
