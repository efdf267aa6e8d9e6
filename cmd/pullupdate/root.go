package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"pulldata/internal/config"
	"pulldata/internal/infrastructure"
	"pulldata/internal/pullupdate"
)

// app holds the state shared by the subcommands of one invocation
type app struct {
	configPath string
	logLevel   string
	skipNotify bool

	cfg       *config.Config
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Refresh a Survey123 pull data CSV and publish it to the form",
		Long: `pullupdate reads the pull data sheet, strips whitespace and commas from
every text field, overwrites the CSV, swaps it into the survey package on the
portal and emails the recipients when done.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (default: pullupdate.yaml or configs/pullupdate.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Clean the sheet, publish the CSV into the survey and notify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, "run", a.skipNotify, (*pullupdate.Updater).Run)
		},
	}
	runCmd.Flags().BoolVar(&a.skipNotify, "skip-notify", false, "do not send the completion email")

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Only load, clean and write the CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, "clean", true, (*pullupdate.Updater).Clean)
		},
	}

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the existing CSV into the survey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, "publish", true, (*pullupdate.Updater).Publish)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	}

	root.AddCommand(runCmd, cleanCmd, publishCmd, versionCmd)
	return root
}

// setup loads configuration and starts logging and telemetry
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.providers = providers
	return nil
}

// teardown pushes metrics and flushes exporters. Failures are logged only so
// that they never mask the outcome of the run.
func (a *app) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.providers != nil {
		if err := a.providers.PushMetrics(ctx, a.cfg.Telemetry.PushgatewayURL, a.cfg.Telemetry.Job); err != nil {
			a.logger.Warn("Metrics push failed", slog.String("error", err.Error()))
		}
		if err := a.providers.Shutdown(ctx); err != nil {
			a.logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}
	infrastructure.CloseLogFile()
}

type updaterFunc func(*pullupdate.Updater, context.Context) (*pullupdate.Result, error)

func (a *app) execute(cmd *cobra.Command, command string, skipNotify bool, fn updaterFunc) error {
	if err := a.setup(); err != nil {
		return err
	}
	defer a.teardown()

	updater, closeFn, err := pullupdate.Build(a.cfg, pullupdate.Options{
		SkipNotify: skipNotify,
		Providers:  a.providers,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := fn(updater, cmd.Context())
	if result != nil {
		if perr := printResult(cmd, result); perr != nil {
			a.logger.Warn("Failed to print result", slog.String("error", perr.Error()))
		}
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}
	return nil
}

// printResult writes the run summary as indented JSON
func printResult(cmd *cobra.Command, result *pullupdate.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
