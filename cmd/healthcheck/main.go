// Command healthcheck prints whether the configured search engine answers
// and exits non-zero when it does not.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncobase/revsearch/cmd/commands"
	_ "github.com/ncobase/revsearch/data/search/elasticsearch"
	_ "github.com/ncobase/revsearch/data/search/opensearch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Healthcheck(ctx, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
