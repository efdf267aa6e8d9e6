// Package source loads the pull data table from a workbook, a CSV export URL
// or the Google Sheets API. Every loader treats the first row as the header,
// reads all cells as text and keeps only the configured column positions.
package source
