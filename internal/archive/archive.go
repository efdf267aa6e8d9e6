package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "pulldata/internal/errors"
	"pulldata/internal/files"
)

// Archiver unpacks, patches and repacks survey packages
type Archiver struct {
	files  *files.Manager
	logger *slog.Logger
}

// NewArchiver creates an archiver using fm for single-file operations
func NewArchiver(fm *files.Manager, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	if fm == nil {
		fm = files.NewManager("", logger)
	}
	return &Archiver{files: fm, logger: logger}
}

// Extract unpacks the zip archive src into dest and returns the number of
// files written. Entries that would land outside dest are rejected.
func (a *Archiver) Extract(src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return 0, apperrors.NewArchiveError("failed to open archive", err).WithContext("path", src)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return 0, apperrors.NewStorageError("failed to create extraction folder", err)
	}

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to resolve extraction folder", err)
	}

	count := 0
	for _, f := range r.File {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if path != root && !strings.HasPrefix(path, root+string(os.PathSeparator)) {
			return count, apperrors.NewArchiveError(fmt.Sprintf("illegal entry path %q", f.Name), nil)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0755); err != nil {
				return count, apperrors.NewStorageError("failed to create folder", err)
			}
			continue
		}

		if err := extractFile(f, path); err != nil {
			return count, apperrors.NewArchiveError(fmt.Sprintf("failed to extract %s", f.Name), err)
		}
		count++
	}

	a.logger.Info("Archive extracted",
		slog.String("archive", src),
		slog.String("destination", dest),
		slog.Int("files", count))
	return count, nil
}

func extractFile(f *zip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReplaceFile overwrites dst inside an extracted tree with src. The folder of
// dst must already exist: a package without it is not the expected survey.
func (a *Archiver) ReplaceFile(src, dst string) error {
	if err := a.files.CopyFile(src, dst); err != nil {
		return apperrors.NewArchiveError("failed to replace packaged file", err).
			WithContext("destination", dst)
	}
	return nil
}

// Create zips the tree under srcDir into dest with entry names relative to
// srcDir, and returns the size of the archive. An existing dest is replaced.
func (a *Archiver) Create(srcDir, dest string) (int64, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return 0, apperrors.NewArchiveError("source folder not found", err).WithContext("path", srcDir)
	}
	if !info.IsDir() {
		return 0, apperrors.NewArchiveError(fmt.Sprintf("%s is not a folder", srcDir), nil)
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to resolve archive path", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to create archive", err).WithContext("path", dest)
	}

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if abs, _ := filepath.Abs(path); abs == destAbs {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		return addEntry(zw, path, filepath.ToSlash(rel), d)
	})

	if walkErr != nil {
		zw.Close()
		out.Close()
		return 0, apperrors.NewArchiveError("failed to build archive", walkErr)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return 0, apperrors.NewArchiveError("failed to finish archive", err)
	}
	if err := out.Close(); err != nil {
		return 0, apperrors.NewStorageError("failed to close archive", err)
	}

	size, err := a.files.GetFileSize(dest)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to stat archive", err)
	}

	a.logger.Info("Archive created",
		slog.String("source", srcDir),
		slog.String("archive", dest),
		slog.Int64("size_bytes", size))
	return size, nil
}

func addEntry(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name

	if d.IsDir() {
		header.Name += "/"
		_, err := zw.CreateHeader(header)
		return err
	}

	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
