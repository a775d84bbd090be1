package cli

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ndaredline/internal/config"
	"ndaredline/internal/loader"
	"ndaredline/internal/logging"
	"ndaredline/internal/oracle"
	"ndaredline/internal/oracle/openai"
	"ndaredline/internal/redline"
	"ndaredline/internal/report"
	"ndaredline/internal/scope"
	"ndaredline/internal/segmenter"
	"ndaredline/internal/service"
	"ndaredline/internal/summarizer"
	"ndaredline/internal/tui"
)

// newOracle builds the oracle client. Tests replace it.
var newOracle = func(cfg *config.AppConfig, apiKey string, logger *log.Logger) (oracle.Client, error) {
	return openai.NewClient(openai.Config{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  apiKey,
		Model:   cfg.Oracle.Model,
		Timeout: cfg.Oracle.Timeout(),
	}, logger)
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var (
		userID   string
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <contract-file>",
		Short: "Summarize and redline a contract",
		Long: `Analyze loads the contract, asks the model for an executive summary, splits
the text into clauses and redlines each clause against the playbook
collection. Clauses are redlined one at a time unless redline.concurrency
says otherwise.

A failed summary or clause never aborts the run: it is replaced by a
placeholder or an HTML comment in the report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(); err != nil {
				return err
			}
			env, err := config.LoadEnv(opts.cfg)
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.cfg, env, args[0], userID, progress)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id whose custom playbook collection is searched too")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress view; logs go to <output dir>/nda.log")
	return cmd
}

// pipeline is one fully wired analysis run.
type pipeline struct {
	service   *service.AnalysisService
	processor *redline.Processor
}

func buildPipeline(cfg *config.AppConfig, env config.Env, logger *log.Logger, observer redline.Observer) (*pipeline, error) {
	client, err := newOracle(cfg, env.APIKey, logger)
	if err != nil {
		return nil, err
	}
	opts := []redline.Option{redline.WithConcurrency(cfg.Redline.Concurrency), redline.WithLogger(logger)}
	if observer != nil {
		opts = append(opts, redline.WithObserver(observer))
	}
	proc := redline.NewProcessor(client, opts...)
	svc := service.NewAnalysisService(
		loader.New(logger),
		scope.NewResolver(env.DefaultCollectionID, scope.StaticLookup(cfg.UserCollections), logger),
		summarizer.New(client, logger),
		segmenter.New(client, logger),
		proc,
		report.NewWriter(cfg.Output.Dir, cfg.Output.Suffix),
		logger,
	)
	return &pipeline{service: svc, processor: proc}, nil
}

func runAnalyze(ctx context.Context, stdout, stderr io.Writer, cfg *config.AppConfig, env config.Env, path, userID string, progress bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if progress {
		return runAnalyzeWithProgress(ctx, stdout, stderr, cfg, env, path, userID)
	}

	logger := logging.New(stderr, cfg.Log.Level)
	p, err := buildPipeline(cfg, env, logger, nil)
	if err != nil {
		return err
	}
	res, err := p.service.Analyze(ctx, path, userID)
	if err != nil {
		return err
	}
	printResult(stdout, res)
	return nil
}

func runAnalyzeWithProgress(ctx context.Context, stdout, stderr io.Writer, cfg *config.AppConfig, env config.Env, path, userID string) error {
	// The log shares the output directory. If that directory is unusable the
	// run still goes ahead and the report write failure is reported instead.
	logger := logging.Discard()
	logFile, logErr := logging.OpenFile(cfg.Output.Dir, "nda.log")
	if logErr == nil {
		defer logFile.Close()
		logger = logging.New(logFile, cfg.Log.Level)
	}

	prog := tea.NewProgram(tui.New(path), tea.WithInput(nil), tea.WithOutput(stderr))
	reporter := tui.NewReporter(prog)
	p, err := buildPipeline(cfg, env, logger, reporter)
	if err != nil {
		return err
	}
	p.service.SetObserver(reporter)

	var (
		res    *service.Result
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, runErr = p.service.Analyze(ctx, path, userID)
		msg := tui.DoneMsg{Err: runErr}
		if res != nil {
			msg.OutputPath = res.OutputPath
		}
		prog.Send(msg)
	}()
	if _, err := prog.Run(); err != nil {
		logger.Warn("progress view stopped", "err", err)
	}
	<-done

	if runErr != nil {
		return runErr
	}
	printResult(stdout, res)
	if logErr != nil {
		printHint(stdout, "Log file unavailable: %v", logErr)
	} else {
		printHint(stdout, "Log written to %s", logFile.Path)
	}
	return nil
}

func printResult(w io.Writer, res *service.Result) {
	if res.WriteErr != nil {
		printHeader(w, "=== Final Aggregated Output (File write failed) ===")
		io.WriteString(w, res.Text+"\n")
		return
	}
	printSuccess(w, "Analysis complete. Output saved to: %s", res.OutputPath)
}
