package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pulldata/internal/table"
)

// CSVWriter writes tables to CSV files
type CSVWriter struct {
	logger    *slog.Logger
	bomPrefix bool
}

// NewCSVWriter creates a new CSV writer instance. With bomPrefix set every
// file starts with a UTF-8 byte order mark so Excel detects the encoding.
func NewCSVWriter(logger *slog.Logger, bomPrefix bool) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger, bomPrefix: bomPrefix}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteTable overwrites filePath with the header and records of t and
// returns the number of records written. No index column is added.
func (w *CSVWriter) WriteTable(filePath string, t *table.Table) (int, error) {
	records := t.Records()
	err := w.WriteCSV(filePath, WriteOptions{
		Headers:   t.Header(),
		Records:   records,
		BOMPrefix: w.bomPrefix,
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteCSV creates or truncates filePath and writes the given rows
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}

	if err := writeRows(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeRows(file *os.File, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
