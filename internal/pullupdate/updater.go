package pullupdate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"pulldata/internal/config"
	"pulldata/internal/infrastructure"
	"pulldata/internal/notify"
	"pulldata/internal/portal"
	"pulldata/internal/table"
)

// TracerName names the tracer used for step spans
const TracerName = "pulldata.pullupdate"

// Dependencies are the collaborators of an Updater. Notifier may be nil, in
// which case the notify step is skipped.
type Dependencies struct {
	Source    Loader
	Cleaner   Cleaner
	Writer    TableWriter
	Portal    Portal
	Archiver  Packager
	Notifier  Notifier
	Workspace Workspace
	Preflight Preflight
	Metrics   *infrastructure.JobMetrics
	Tracer    trace.Tracer
	Logger    *slog.Logger
	Now       func() time.Time
}

// Updater runs the pull data refresh. Steps run strictly in order; the first
// failure stops the run and temporary artifacts are left on disk for
// inspection.
type Updater struct {
	cfg  *config.Config
	deps Dependencies
	log  *slog.Logger
}

// NewUpdater creates an updater for cfg
func NewUpdater(cfg *config.Config, deps Dependencies) *Updater {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(TracerName)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Updater{
		cfg:  cfg,
		deps: deps,
		log:  infrastructure.WithComponent(deps.Logger, "pullupdate"),
	}
}

// run carries the values steps hand to each other
type run struct {
	result  *Result
	table   *table.Table
	item    *portal.Item
	zipPath string
	archive string
	extract string
}

// Run refreshes the CSV, publishes it into the survey and notifies recipients
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	return u.execute(ctx, "run", func(ctx context.Context, r *run) error {
		if err := u.preflightSource(); err != nil {
			return err
		}
		if err := u.preflightPublish(); err != nil {
			return err
		}
		if err := u.refresh(ctx, r); err != nil {
			return err
		}
		if err := u.publish(ctx, r); err != nil {
			return err
		}
		return u.notify(ctx, r)
	})
}

// Clean loads, cleans and writes the CSV without touching the portal
func (u *Updater) Clean(ctx context.Context) (*Result, error) {
	return u.execute(ctx, "clean", func(ctx context.Context, r *run) error {
		if err := u.preflightSource(); err != nil {
			return err
		}
		return u.refresh(ctx, r)
	})
}

// Publish uploads the CSV already at the output path into the survey
func (u *Updater) Publish(ctx context.Context) (*Result, error) {
	return u.execute(ctx, "publish", func(ctx context.Context, r *run) error {
		if err := u.deps.Preflight.ValidateFile(u.cfg.Output.CSVPath); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
		if err := u.preflightPublish(); err != nil {
			return err
		}
		return u.publish(ctx, r)
	})
}

func (u *Updater) execute(ctx context.Context, command string, body func(context.Context, *run) error) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := u.deps.Tracer.Start(ctx, "pullupdate."+command,
		trace.WithAttributes(attribute.String("command", command)))
	defer span.End()

	r := &run{result: &Result{
		Command:   command,
		TraceID:   infrastructure.GetTraceID(ctx),
		StartedAt: u.deps.Now(),
		CSVPath:   u.cfg.Output.CSVPath,
	}}

	u.log.InfoContext(ctx, "Starting pull data update", slog.String("command", command))

	err := body(ctx, r)
	r.result.FinishedAt = u.deps.Now()
	infrastructure.RecordRun(ctx, u.deps.Metrics, command, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		u.log.ErrorContext(ctx, "Pull data update failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		return r.result, err
	}

	u.log.InfoContext(ctx, "Pull data update finished",
		slog.String("command", command),
		slog.Duration("duration", r.result.Duration()),
		slog.Int("rows_written", r.result.RowsWritten))
	return r.result, nil
}

// step runs fn inside a span and records its duration and outcome
func (u *Updater) step(ctx context.Context, r *run, id string, fn func(context.Context) error) error {
	state := NewStepState(id)
	r.result.Steps = append(r.result.Steps, state)

	ctx, span := u.deps.Tracer.Start(ctx, "pullupdate.step."+id,
		trace.WithAttributes(attribute.String("step.id", id)))
	defer span.End()

	state.Start()
	u.log.InfoContext(ctx, "Step started", slog.String("step", id))

	err := fn(ctx)
	if err != nil {
		state.Fail(err)
	} else {
		state.Complete()
	}
	infrastructure.RecordStep(ctx, u.deps.Metrics, id, state.Duration(), err)

	if err != nil {
		u.log.ErrorContext(ctx, "Step failed",
			slog.String("step", id),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s step: %w", id, err)
	}

	u.log.InfoContext(ctx, "Step completed",
		slog.String("step", id),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (u *Updater) preflightSource() error {
	if u.cfg.Source.Kind == config.SourceExcel {
		if err := u.deps.Preflight.ValidateWorkbook(u.cfg.Source.Path); err != nil {
			return fmt.Errorf("preflight: %w", err)
		}
	}
	if err := u.deps.Preflight.ValidateOutputDirectory(filepath.Dir(u.cfg.Output.CSVPath)); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	return nil
}

func (u *Updater) preflightPublish() error {
	if err := u.cfg.ValidatePublish(); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if err := u.deps.Preflight.ValidateOutputDirectory(u.cfg.Survey.DownloadDir); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	return nil
}

// refresh loads, cleans and writes the table
func (u *Updater) refresh(ctx context.Context, r *run) error {
	res := r.result

	err := u.step(ctx, r, StepLoad, func(ctx context.Context) error {
		t, err := u.deps.Source.Load(ctx)
		if err != nil {
			return err
		}
		r.table = t
		return nil
	})
	if err != nil {
		return err
	}

	err = u.step(ctx, r, StepClean, func(ctx context.Context) error {
		report := u.deps.Cleaner.Clean(ctx, r.table)
		res.CleanedColumns = report.Cleaned
		res.SkippedColumns = report.Skipped
		res.ChangedCells = report.Changed
		if m := u.deps.Metrics; m != nil && len(report.Skipped) > 0 {
			m.ColumnsSkipped.Add(ctx, int64(len(report.Skipped)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return u.step(ctx, r, StepWrite, func(ctx context.Context) error {
		n, err := u.deps.Writer.WriteTable(u.cfg.Output.CSVPath, r.table)
		if err != nil {
			return err
		}
		res.RowsWritten = n
		if m := u.deps.Metrics; m != nil {
			m.RowsWritten.Add(ctx, int64(n))
		}
		u.log.InfoContext(ctx, "Pull data CSV written",
			slog.String("path", u.cfg.Output.CSVPath),
			slog.Int("rows", n))
		return nil
	})
}

// publish swaps the CSV into the survey package and uploads it
func (u *Updater) publish(ctx context.Context, r *run) error {
	res := r.result
	ws := u.cfg.Survey.Workspace()

	err := u.step(ctx, r, StepSignIn, func(ctx context.Context) error {
		if err := u.deps.Portal.SignIn(ctx); err != nil {
			return err
		}
		item, err := u.deps.Portal.Item(ctx, u.cfg.Survey.ItemID)
		if err != nil {
			return err
		}
		r.item = item
		res.ItemID = item.ID
		res.SurveyTitle = item.Title
		return nil
	})
	if err != nil {
		return err
	}

	err = u.step(ctx, r, StepDownload, func(ctx context.Context) error {
		path, err := u.deps.Portal.Download(ctx, r.item, ws.DownloadDir)
		if err != nil {
			return err
		}
		r.zipPath = path
		return u.deps.Preflight.ValidateArchive(path)
	})
	if err != nil {
		return err
	}

	err = u.step(ctx, r, StepRepackage, func(ctx context.Context) error {
		// A folder left by a failed run would be zipped up with the fresh package
		if u.deps.Workspace.FileExists(ws.ExtractDir) {
			if err := u.deps.Workspace.DeleteDirectory(ws.ExtractDir); err != nil {
				return fmt.Errorf("remove stale extraction folder: %w", err)
			}
		}
		if _, err := u.deps.Archiver.Extract(r.zipPath, ws.ExtractDir); err != nil {
			return err
		}
		r.extract = ws.ExtractDir
		if err := u.deps.Workspace.DeleteFile(r.zipPath); err != nil {
			return fmt.Errorf("remove downloaded package: %w", err)
		}
		if err := u.deps.Archiver.ReplaceFile(u.cfg.Output.CSVPath, ws.MediaPath()); err != nil {
			return err
		}

		r.archive = ws.ArchivePath(r.item.Title)
		size, err := u.deps.Archiver.Create(ws.ExtractDir, r.archive)
		if err != nil {
			return err
		}
		res.ArchiveName = filepath.Base(r.archive)
		res.ArchiveBytes = size
		return nil
	})
	if err != nil {
		return err
	}

	err = u.step(ctx, r, StepUpload, func(ctx context.Context) error {
		if err := u.deps.Portal.UpdateData(ctx, r.item, r.archive); err != nil {
			return err
		}
		if m := u.deps.Metrics; m != nil {
			m.ArchiveBytes.Add(ctx, res.ArchiveBytes,
				metric.WithAttributes(attribute.String("item_id", r.item.ID)))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return u.step(ctx, r, StepCleanup, func(ctx context.Context) error {
		if err := u.deps.Workspace.DeleteFile(r.archive); err != nil {
			return fmt.Errorf("remove rebuilt package: %w", err)
		}
		if err := u.deps.Workspace.DeleteDirectory(r.extract); err != nil {
			return fmt.Errorf("remove extraction folder: %w", err)
		}
		return nil
	})
}

// notify emails the recipients, or records the step as skipped
func (u *Updater) notify(ctx context.Context, r *run) error {
	if u.deps.Notifier == nil {
		state := NewStepState(StepNotify)
		state.Skip("notifications disabled")
		r.result.Steps = append(r.result.Steps, state)
		u.log.InfoContext(ctx, "Step skipped",
			slog.String("step", StepNotify),
			slog.String("reason", state.Message))
		return nil
	}

	return u.step(ctx, r, StepNotify, func(ctx context.Context) error {
		sent, err := u.deps.Notifier.Notify(ctx, notify.Completion{
			Survey:   r.result.SurveyTitle,
			Username: u.cfg.Portal.Username,
			At:       u.deps.Now(),
		})
		r.result.EmailsSent = sent
		if m := u.deps.Metrics; m != nil && sent > 0 {
			m.EmailsSent.Add(ctx, int64(sent))
		}
		return err
	})
}
