package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ndaredline/internal/config"
	"ndaredline/internal/logging"
	"ndaredline/internal/vectorstore"
	"ndaredline/internal/vectorstore/openai"
)

// newStorage builds the hosted vector store client. Tests replace it.
var newStorage = func(cfg *config.AppConfig, apiKey string) (vectorstore.Storage, error) {
	return openai.NewStorage(openai.Config{BaseURL: cfg.Oracle.BaseURL, APIKey: apiKey})
}

func newProvisionCmd(opts *options) *cobra.Command {
	var (
		name     string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "provision <playbook-file>",
		Short: "Create the playbook collection used for redlining",
		Long: `Provision uploads the negotiation playbook, creates a vector store holding it
and waits until the file is searchable. If ingestion fails, is cancelled or
the command is interrupted, the new store is deleted again.

On success the DEFAULT_VECTOR_STORE_ID line for the .env file is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(); err != nil {
				return err
			}
			key, err := config.LoadAPIKey(opts.cfg)
			if err != nil {
				return err
			}
			storage, err := newStorage(opts.cfg, key)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), opts.cfg.Log.Level)
			return runProvision(cmd, storage, logger, args[0], name, interval)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Vector store name (default \"NDA Playbook Store (<file>)\")")
	cmd.Flags().DurationVar(&interval, "poll-interval", vectorstore.DefaultPollInterval, "Delay between file status checks")
	return cmd
}

func runProvision(cmd *cobra.Command, storage vectorstore.Storage, logger *log.Logger, path, name string, interval time.Duration) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	res, err := vectorstore.NewProvisioner(storage, interval, logger).Provision(ctx, path, name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printSuccess(out, "Vector store %q is ready (id %s).", res.Name, res.StoreID)
	printHint(out, "Add this line to your .env file:")
	printSuccess(out, "DEFAULT_VECTOR_STORE_ID=%q", res.StoreID)
	return nil
}
