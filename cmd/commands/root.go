package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ncobase/revsearch/config"
	"github.com/ncobase/revsearch/data/search"
	"github.com/ncobase/revsearch/logging/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries the state shared by subcommands once the root pre-run hook
// has loaded configuration.
type app struct {
	configFile string
	envFile    string
	debug      bool
	engine     string
	addresses  []string
	insecure   bool

	cfg     *config.Config
	log     *logger.Logger
	cleanup func()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "revsearch",
		Short: "Index and search Japanese product reviews with the kuromoji analyzer",
		Long: `revsearch creates a review index that analyzes Japanese text with kuromoji,
bulk loads the Amazon reviews dataset into it and runs match queries.

Connection settings come from revsearch.yaml, REVSEARCH_* variables,
OPENSEARCH_USER / OPENSEARCH_PASSWORD and the flags below.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.close() },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "config file path (default ./revsearch.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.BoolVar(&a.debug, "debug", false, "verbose logging and stack traces on error")
	flags.StringVar(&a.engine, "engine", "", "search engine: opensearch or elasticsearch")
	flags.StringSliceVar(&a.addresses, "address", nil, "engine node URL, repeatable")
	flags.BoolVar(&a.insecure, "insecure", false, "INSECURE: skip TLS certificate verification")

	rootCmd.AddCommand(
		newInitCommand(a),
		newSearchCommand(a),
		newPingCommand(a),
		NewVersionCommand(),
	)

	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.envFile, a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Search.Engine = a.engine
	}
	if flags.Changed("address") {
		cfg.Search.Addresses = a.addresses
	}
	if a.insecure {
		cfg.Search.InsecureSkipTLS = true
	}
	if a.debug {
		cfg.Logger.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return errors.WithStack(err)
	}

	l, cleanup, err := logger.New(cfg.Logger)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	a.cfg, a.log, a.cleanup = cfg, l, cleanup

	if cfg.Search.InsecureSkipTLS {
		l.Warn("TLS certificate verification is disabled")
	}
	l.WithFields(logrus.Fields{
		"engine":    cfg.Search.Engine,
		"addresses": cfg.Search.Addresses,
		"username":  cfg.Search.Username,
		"password":  cfg.Search.Password,
	}).Debug("configuration loaded")
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// service builds a client for the configured engine.
func (a *app) service() (*search.Service, error) {
	client, err := search.NewClient(a.cfg.Search)
	if err != nil {
		return nil, errors.Wrap(err, "create search client")
	}
	return search.NewService(client, a.log.WithField("component", "search")), nil
}

func loadConfig(envFile, configFile string) (*config.Config, error) {
	if envFile != "" {
		if err := config.LoadEnvFile(envFile); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cfg, nil
}

// Run executes the CLI with args and returns the process exit code. Errors
// are printed to stderr as a single line, followed by the stack trace when
// --debug is set.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		debug, _ := rootCmd.PersistentFlags().GetBool("debug")
		PrintError(stderr, err, debug)
		return 1
	}
	return 0
}

// PrintError writes err for a user. With debug the %+v form, which includes
// the recorded stack, follows the message.
func PrintError(w io.Writer, err error, debug bool) {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	if debug {
		_, _ = fmt.Fprintf(w, "%+v\n", err)
	}
}
