package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulldata/internal/shared/testutil"
	"pulldata/internal/table"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTable(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	w := NewCSVWriter(logger, false)
	path := filepath.Join(t.TempDir(), "nested", "out", "pull.csv")

	tbl := table.FromRecords([]string{"SiteID", "Notes"}, [][]string{
		{"S-001", "fenced gated"},
		{"S-002", `quoted "name"`},
		{"S-003", ""},
	})

	n, err := w.WriteTable(path, tbl)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, [][]string{
		{"SiteID", "Notes"},
		{"S-001", "fenced gated"},
		{"S-002", `quoted "name"`},
		{"S-003", ""},
	}, readCSV(t, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SiteID,Notes\n", string(data[:13]))
	assert.True(t, handler.ContainsAttr("record_count", int64(3)))
}

func TestWriteTableOverwrites(t *testing.T) {
	w := NewCSVWriter(nil, false)
	path := filepath.Join(t.TempDir(), "pull.csv")
	require.NoError(t, os.WriteFile(path, []byte("old,content,that,is,long\n1,2,3,4,5\n6,7,8,9,10\n"), 0644))

	_, err := w.WriteTable(path, table.FromRecords([]string{"a"}, [][]string{{"1"}}))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(data))
}

func TestWriteTableHeaderOnly(t *testing.T) {
	w := NewCSVWriter(nil, false)
	path := filepath.Join(t.TempDir(), "pull.csv")

	n, err := w.WriteTable(path, table.FromRecords([]string{"a", "b"}, nil))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, [][]string{{"a", "b"}}, readCSV(t, path))
}

func TestWriteCSVWithBOM(t *testing.T) {
	w := NewCSVWriter(nil, true)
	path := filepath.Join(t.TempDir(), "bom.csv")

	_, err := w.WriteTable(path, table.FromRecords([]string{"x"}, [][]string{{"1"}}))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Equal(t, "x\n1\n", string(data[3:]))
}

func TestWriteCSVUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := NewCSVWriter(nil, false).WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{Headers: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}
