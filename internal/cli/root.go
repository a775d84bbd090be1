package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ndaredline/internal/config"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// options holds the persistent flags and the configuration they resolve to.
type options struct {
	configPath string
	cfg        *config.AppConfig
}

// load resolves the configuration once per invocation. The .env file is read
// first so the YAML-named environment variables can come from it.
func (o *options) load() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	var (
		cfg *config.AppConfig
		err error
	)
	if o.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	o.cfg = cfg
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "nda",
		Short: "Redline NDA contracts against a negotiation playbook",
		Long: `nda reads a contract (.txt, .md or .pdf), summarizes it, splits it into
clauses and redlines every clause against the fallback language held in a
hosted playbook collection. The aggregated report is written next to the
other analyses in the output directory.

Run "nda provision" once to create the playbook collection and put the
printed DEFAULT_VECTOR_STORE_ID line into your .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (default ./config.yaml or ~/.config/nda/config.yaml)")

	root.AddCommand(newAnalyzeCmd(opts), newProvisionCmd(opts), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nda %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
