package table

import (
	"context"
	"log/slog"
	"strings"
)

// Report summarises one cleaning pass
type Report struct {
	Cleaned []string // text columns that were processed
	Skipped []string // columns left alone because they are not text
	Changed int      // cells whose value changed
}

// Cleaner strips whitespace and commas from text columns
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner that reports skipped columns to logger
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger}
}

// CleanValue removes every comma and then trims surrounding whitespace.
// Removing commas first keeps the result free of edge whitespace even for
// input such as "abc ,", which makes cleaning a fixed point.
func CleanValue(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// Clean rewrites every text column of t in place. Columns of any other kind
// are skipped and logged; skipping is never an error.
func (c *Cleaner) Clean(ctx context.Context, t *Table) Report {
	var report Report

	for i := range t.Columns {
		col := &t.Columns[i]

		if col.Kind != KindText {
			c.logger.WarnContext(ctx, "Column skipped because its values are not text",
				slog.String("column", col.Name),
				slog.String("kind", col.Kind.String()))
			report.Skipped = append(report.Skipped, col.Name)
			continue
		}

		for r, v := range col.Values {
			cleaned := CleanValue(v)
			if cleaned != v {
				col.Values[r] = cleaned
				report.Changed++
			}
		}
		report.Cleaned = append(report.Cleaned, col.Name)
	}

	c.logger.DebugContext(ctx, "Cleaning pass finished",
		slog.Int("cleaned_columns", len(report.Cleaned)),
		slog.Int("skipped_columns", len(report.Skipped)),
		slog.Int("changed_cells", report.Changed))

	return report
}
