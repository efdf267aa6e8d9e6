package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "pulldata/internal/errors"
)

var workbookExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

var zipMagic = []byte("PK\x03\x04")

// FileValidator checks the files and folders a run touches before any step
// has side effects
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateOutputDirectory ensures dir exists or can be created, and that a
// file can be written inside it
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	probe, err := os.CreateTemp(dir, ".write_test_*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateFile checks that path is an existing readable regular file
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewValidationError(fmt.Sprintf("file %s does not exist", path))
	}
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is a readable OOXML workbook
func (v *FileValidator) ValidateWorkbook(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range workbookExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return apperrors.NewValidationError(fmt.Sprintf("unsupported workbook extension %q, expected one of %s",
			ext, strings.Join(workbookExtensions, " ")))
	}

	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.checkZipHeader(path)
}

// ValidateArchive checks that path is a readable zip archive
func (v *FileValidator) ValidateArchive(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.checkZipHeader(path)
}

// checkZipHeader reads the local file header signature. Workbooks are zip
// containers too.
func (v *FileValidator) checkZipHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, zipMagic) {
		v.logger.Error("File is not a zip container", slog.String("file", path))
		return apperrors.NewValidationError(fmt.Sprintf("%s is not a zip container", path))
	}
	return nil
}
