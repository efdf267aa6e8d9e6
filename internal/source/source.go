package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pulldata/internal/config"
	apperrors "pulldata/internal/errors"
	"pulldata/internal/table"
)

// Source loads the pull data table
type Source interface {
	Load(ctx context.Context) (*table.Table, error)
}

// Option customises a loader created by New
type Option func(*options)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
}

// WithLogger sets the logger used for progress messages
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient replaces the client used by the CSV URL loader
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// New returns the loader selected by cfg.Kind
func New(cfg config.SourceConfig, opts ...Option) (Source, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	var src Source
	switch cfg.Kind {
	case config.SourceExcel:
		src = NewExcelSource(cfg.Path, cfg.Sheet, cfg.Columns, o.logger)
	case config.SourceCSVURL:
		client := o.httpClient
		if client == nil {
			client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		}
		src = NewCSVURLSource(cfg.URL, cfg.Columns, client, o.logger)
	case config.SourceSheets:
		src = NewSheetsSource(cfg, o.logger)
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}

	if cfg.InferTypes {
		src = inferring{src}
	}
	return src, nil
}

// inferring marks numeric columns after loading so the cleaner skips them
type inferring struct {
	Source
}

func (s inferring) Load(ctx context.Context) (*table.Table, error) {
	t, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	t.InferKinds()
	return t, nil
}

// selectColumns builds a table from rows and keeps the configured columns
func selectColumns(rows [][]string, columns []int, origin string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no rows", origin), nil)
	}

	t, err := table.FromRows(rows).Select(columns)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to select columns from %s", origin), err)
	}
	return t, nil
}
