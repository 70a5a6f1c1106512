package commands

import (
	"fmt"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/ncobase/revsearch/dataset"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newInitCommand(a *app) *cobra.Command {
	var (
		indexName string
		source    string
		path      string
		limit     int
		batchSize int
		noRefresh bool
		recreate  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the review index and load the dataset into it",
		Long: `Create the index with the kuromoji analyzer if it does not exist yet,
then bulk load the reviews dataset. By default the Japanese split of
mteb/amazon_reviews_multi is fetched from Hugging Face.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if indexName == "" {
				indexName = a.cfg.Search.IndexName
			}
			ds := *a.cfg.Dataset
			flags := cmd.Flags()
			if flags.Changed("source") {
				ds.Source = source
			}
			if flags.Changed("path") {
				ds.Path = path
				if !flags.Changed("source") && ds.Source == config.SourceHuggingFace {
					ds.Source = config.SourceJSONLines
				}
			}
			if flags.Changed("limit") {
				ds.Limit = limit
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			if recreate {
				if err := svc.DeleteIndex(ctx, indexName); err != nil {
					return err
				}
			}
			if _, err := svc.EnsureIndex(ctx, indexName); err != nil {
				return err
			}

			src, err := dataset.FromConfig(&ds, a.log.WithField("component", "dataset"))
			if err != nil {
				return errors.WithStack(err)
			}
			records, err := src.Records(ctx)
			if err != nil {
				return errors.Wrap(err, "load dataset")
			}

			_, _ = fmt.Fprintf(out, "Indexing %d reviews...\n", len(records))
			result, err := svc.Load(ctx, indexName, records, search.LoadOptions{
				BatchSize: batchSize,
				Refresh:   !noRefresh,
			})
			if err != nil {
				return err
			}
			a.log.WithField("index", indexName).
				WithField("count", result.Indexed).
				Info("dataset indexed")

			_, _ = fmt.Fprintln(out, "Finished indexing successfully!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&indexName, "index-name", "n", "", "name of the index (default amazon_reviews)")
	cmd.Flags().StringVar(&source, "source", config.SourceHuggingFace, "dataset source: hf, jsonl or parquet")
	cmd.Flags().StringVar(&path, "path", "", "local dataset file for the jsonl and parquet sources")
	cmd.Flags().IntVar(&limit, "limit", 0, "load at most N reviews (0 loads all)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "documents per bulk request (0 sends one request)")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "do not refresh the index after loading")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "delete the index before creating it")

	return cmd
}
