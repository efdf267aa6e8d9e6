// Package table holds the pull data record set and the field cleaner.
//
// A Table is column-major: each Column carries its name, a Kind and the cell
// values as strings. Loaders in package source build tables from a
// spreadsheet, a CSV export or the Sheets API; the Cleaner then normalises
// every text column so that no value has edge whitespace or commas:
//
//	t := table.FromRows(rows)
//	t, err := t.Select([]int{3, 4, 5})
//	report := table.NewCleaner(logger).Clean(ctx, t)
//
// Non-text columns (see InferKinds) are reported in Report.Skipped and left
// untouched.
package table
