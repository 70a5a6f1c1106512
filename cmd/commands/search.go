package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/ncobase/revsearch/data/search"
	"github.com/spf13/cobra"
)

const ruleWidth = 80

func newSearchCommand(a *app) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "search INDEX_NAME QUERY_TEXT",
		Short: "Run a match query against the review index",
		Example: `  revsearch search amazon_reviews "配送が早い"
  revsearch search amazon_reviews 品質 -n 10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			hits, err := svc.Search(cmd.Context(), args[0], args[1], size)
			if err != nil {
				return err
			}
			printHits(cmd.OutOrStdout(), hits)
			return nil
		},
	}

	cmd.Flags().IntVarP(&size, "size", "n", search.DefaultSize, "number of results to return")
	return cmd
}

func printHits(w io.Writer, hits []search.Hit) {
	if len(hits) == 0 {
		_, _ = fmt.Fprintln(w, "No results found.")
		return
	}
	_, _ = fmt.Fprintf(w, "\nFound %d results:\n\n", len(hits))
	rule := strings.Repeat("-", ruleWidth)
	for _, h := range hits {
		_, _ = fmt.Fprintf(w, "Score: %.2f\n", h.Score)
		_, _ = fmt.Fprintf(w, "Text: %s\n", h.Text)
		_, _ = fmt.Fprintln(w, rule)
	}
}
