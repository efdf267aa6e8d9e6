package pullupdate

import (
	"fmt"
	"log/slog"

	"pulldata/internal/archive"
	"pulldata/internal/config"
	"pulldata/internal/exporter"
	"pulldata/internal/files"
	"pulldata/internal/infrastructure"
	"pulldata/internal/notify"
	"pulldata/internal/portal"
	"pulldata/internal/source"
	"pulldata/internal/table"
	"pulldata/internal/validation"
)

// Options controls how Build wires an Updater
type Options struct {
	// SkipNotify leaves the notifier out even when mail is enabled
	SkipNotify bool
	Providers  *infrastructure.OTelProviders
	Logger     *slog.Logger
}

// Build wires the production collaborators for cfg. The returned func
// releases network resources and must be called when the run is over.
func Build(cfg *config.Config, opts Options) (*Updater, func(), error) {
	logger := opts.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	src, err := source.New(cfg.Source, source.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	fm := files.NewManager("", logger)
	client := portal.NewClient(cfg.Portal, logger)

	deps := Dependencies{
		Source:    src,
		Cleaner:   table.NewCleaner(logger),
		Writer:    exporter.NewCSVWriter(logger, cfg.Output.BOM),
		Portal:    client,
		Archiver:  archive.NewArchiver(fm, logger),
		Workspace: fm,
		Preflight: validation.NewFileValidator(logger),
		Logger:    logger,
	}

	if opts.Providers != nil {
		metrics, err := infrastructure.CreateJobMetrics(opts.Providers.Meter)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to create job metrics: %w", err)
		}
		deps.Metrics = metrics
		deps.Tracer = opts.Providers.Tracer
	}

	if cfg.Mail.Enabled && !opts.SkipNotify {
		if err := cfg.ValidateMail(); err != nil {
			client.Close()
			return nil, nil, err
		}
		mailer, err := notify.NewMailer(cfg.Mail, logger)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		deps.Notifier = mailer
	}

	return NewUpdater(cfg, deps), client.Close, nil
}
