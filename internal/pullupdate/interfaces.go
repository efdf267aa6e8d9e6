package pullupdate

import (
	"context"

	"pulldata/internal/notify"
	"pulldata/internal/portal"
	"pulldata/internal/table"
)

// Loader reads the pull data table
type Loader interface {
	Load(ctx context.Context) (*table.Table, error)
}

// Cleaner normalises text columns in place
type Cleaner interface {
	Clean(ctx context.Context, t *table.Table) table.Report
}

// TableWriter persists the cleaned table
type TableWriter interface {
	WriteTable(path string, t *table.Table) (int, error)
}

// Portal is the part of the GIS portal API the job uses
type Portal interface {
	SignIn(ctx context.Context) error
	Item(ctx context.Context, id string) (*portal.Item, error)
	Download(ctx context.Context, item *portal.Item, dir string) (string, error)
	UpdateData(ctx context.Context, item *portal.Item, zipPath string) error
}

// Packager unpacks, patches and repacks the survey package
type Packager interface {
	Extract(src, dest string) (int, error)
	ReplaceFile(src, dst string) error
	Create(srcDir, dest string) (int64, error)
}

// Notifier sends the completion notice
type Notifier interface {
	Notify(ctx context.Context, c notify.Completion) (int, error)
}

// Workspace removes temporary artifacts
type Workspace interface {
	FileExists(path string) bool
	DeleteFile(path string) error
	DeleteDirectory(path string) error
}

// Preflight checks inputs and output folders before a command starts, and
// the downloaded package before it is unpacked
type Preflight interface {
	ValidateWorkbook(path string) error
	ValidateFile(path string) error
	ValidateArchive(path string) error
	ValidateOutputDirectory(dir string) error
}
