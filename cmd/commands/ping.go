package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/ncobase/revsearch/logging/logger"
	"github.com/spf13/cobra"
)

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the search engine answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			printAlive(cmd.OutOrStdout(), svc.Ping(cmd.Context()))
			return nil
		},
	}
}

func printAlive(w io.Writer, alive bool) {
	_, _ = fmt.Fprintf(w, "Client is alive: %t\n", alive)
}

// Healthcheck builds a client from the environment and configuration, prints
// whether it answered and returns 0 only when it did.
func Healthcheck(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(".env", "")
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		PrintError(stderr, err, false)
		return 1
	}

	log, cleanup, err := logger.New(cfg.Logger)
	if err != nil {
		PrintError(stderr, err, false)
		return 1
	}
	defer cleanup()

	alive := ping(ctx, cfg.Search, log)
	printAlive(stdout, alive)
	if !alive {
		return 1
	}
	return 0
}

func ping(ctx context.Context, cfg *config.Search, log *logger.Logger) bool {
	client, err := search.NewClient(cfg)
	if err != nil {
		log.WithError(err).Warn("cannot create search client")
		return false
	}
	return search.NewService(client, log.WithField("component", "search")).Ping(ctx)
}
