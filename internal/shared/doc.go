// Package shared holds code used across packages that belongs to no single
// step of the job. Its testutil subpackage provides the buffered slog handler
// and the workbook and survey package fixtures used by the tests.
package shared
