// Package cli implements rfctl, the command-line front end of the risk
// engine.  Commands run the engine in process unless --server points them
// at a running API server.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/recidivism-forecast/internal/bootstrap"
	"github.com/turtacn/recidivism-forecast/internal/config"
	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/pkg/client"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath    string
	LogLevel      string
	OutputFormat  string
	Verbose       bool
	Timeout       time.Duration
	ServerAddr    string
	ConstantsPath string
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Backend      Backend
	OutputFormat string
	Timeout      time.Duration

	closers []func()
}

// Close releases whatever the backend opened.
func (c *CLIContext) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rfctl",
		Short: "Recidivism risk scoring and offense forecasting",
		Long: "rfctl scores offender profiles, forecasts the next likely offenses and\n" +
			"builds intervention plans from a fixed research constants table.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				cliCtx.Close()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: RISK_* environment)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputTable, "output format (table, json, yaml, csv)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-command timeout")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address; runs the engine in process when empty")
	pf.StringVar(&opts.ConstantsPath, "constants", "", "constants table override (.yaml, .yml or .toml)")

	cmd.AddCommand(
		newScoreCmd(),
		newForecastCmd(),
		newPlanCmd(),
		newReportCmd(),
		newBatchCmd(),
		newStatsCmd(),
		newConstantsCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun initializes config, logger and backend, then stores the
// CLIContext on the command.  Commands annotated with skipBackend only get
// config and logger.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	if err := validOutput(opts.OutputFormat); err != nil {
		return err
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
	}

	if _, skip := cmd.Annotations[annotationSkipBackend]; !skip {
		if err := initBackend(cliCtx, opts); err != nil {
			return err
		}
	}

	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cliCtx))
	return nil
}

// annotationSkipBackend marks commands that need neither engine nor server.
const annotationSkipBackend = "rfctl/skip-backend"

// initConfig loads the config file, or the RISK_* environment when no file
// is given.  --constants overrides the configured table.
func initConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.LoadOrEnv(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.ConstantsPath != "" {
		cfg.Engine.ConstantsPath = opts.ConstantsPath
	}
	return cfg, nil
}

// initLogger creates a console logger on stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level, err := logging.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

func initBackend(cliCtx *CLIContext, opts *RootOptions) error {
	if opts.ServerAddr != "" {
		c, err := client.NewClient(opts.ServerAddr,
			client.WithTimeout(opts.Timeout),
			client.WithUserAgent("rfctl/"+Version),
			client.WithLogger(sdkLogger{cliCtx.Logger}))
		if err != nil {
			return err
		}
		cliCtx.Backend = &remoteBackend{c: c}
		return nil
	}

	// The CLI never serves metrics; storage, cache and events follow the
	// configuration.
	cfg := *cliCtx.Config
	cfg.Metrics.Enabled = false
	infra, err := bootstrap.Open(&cfg, cliCtx.Logger)
	if err != nil {
		return err
	}
	cliCtx.closers = append(cliCtx.closers, infra.Close)

	engine, err := bootstrap.NewEngine(cfg.Engine, cliCtx.Logger.Named("engine"))
	if err != nil {
		cliCtx.Close()
		return err
	}
	svc, err := infra.NewService(engine)
	if err != nil {
		cliCtx.Close()
		return err
	}
	cliCtx.Backend = &localBackend{svc: svc}
	return nil
}

// sdkLogger adapts the structured logger to the SDK's printf interface.
type sdkLogger struct{ l logging.Logger }

func (s sdkLogger) Debugf(format string, args ...interface{}) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Infof(format string, args ...interface{})  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s sdkLogger) Errorf(format string, args ...interface{}) { s.l.Error(fmt.Sprintf(format, args...)) }

// GetCLIContext extracts the CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLI context not initialized")
	}
	return cliCtx, nil
}

// commandContext returns the CLI context plus a context bounded by --timeout.
func commandContext(cmd *cobra.Command) (*CLIContext, context.Context, context.CancelFunc, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		c, cancel := context.WithTimeout(ctx, cliCtx.Timeout)
		return cliCtx, c, cancel, nil
	}
	c, cancel := context.WithCancel(ctx)
	return cliCtx, c, cancel, nil
}

// Execute runs the CLI with os.Args.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// PrintResult writes data in the format selected by --output.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := OutputJSON
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	return render(cmd.OutOrStdout(), format, data)
}

// PrintError writes err with its code and detail when it carries them.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(w, "Error: [%s] %s\n", apiErr.Code, apiErr.Message)
		if apiErr.Detail != "" {
			fmt.Fprintf(w, "  %s\n", apiErr.Detail)
		}
		return
	}
	if appErr, ok := errors.AsAppError(err); ok {
		fmt.Fprintf(w, "Error: [%s] %s\n", appErr.Code, appErr.Message)
		if appErr.Detail != "" {
			fmt.Fprintf(w, "  %s\n", appErr.Detail)
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err.Error())
}

// PrintSuccess writes a one-line confirmation to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

//Personal.AI order the ending
