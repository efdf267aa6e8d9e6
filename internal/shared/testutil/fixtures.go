package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PullDataRows is a small workbook sheet shaped like the production one:
// three leading bookkeeping columns followed by the pull data fields.
func PullDataRows() [][]string {
	return [][]string{
		{"Row", "Updated", "Editor", "SiteID", "SiteName", "Owner", "Commodity", "Tonnage", "County", "Permit", "Status", "Inspector", "Notes"},
		{"1", "2024-01-02", "jd", "S-001", " Granite Ridge ", "Acme, Inc.", "Granite", "12,345", "Ada", "P-1", "Active", "Lee", " ok "},
		{"2", "2024-01-03", "jd", "S-002", "Blue Quarry", "Stone Co", "Limestone", "900", "Boise", "P-2", "Idle", "Kim", ""},
		{"3", "2024-01-04", "mk", "S-003", "Red, Hill", "  Rocks LLC", "Sand", "1,000,000", "Canyon", "P-3", "Active", "Ray", "fenced,  gated"},
	}
}

// WriteWorkbook creates an .xlsx file at path with rows on the named sheet
func WriteWorkbook(t *testing.T, path, sheet string, rows [][]string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, f.SaveAs(path))
}

// WriteZip creates a zip archive at path holding files keyed by slash path
func WriteZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(out)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// SurveyPackage returns the files of a minimal form-survey package with the
// given pull data file in its media folder
func SurveyPackage(mediaFile, content string) map[string]string {
	return map[string]string{
		"esriinfo/Minerals.xml":       "<form/>",
		"esriinfo/Minerals.info":      `{"type":"form"}`,
		"esriinfo/Minerals.itemInfo":  "{}",
		"esriinfo/media/logo.png":     "png",
		"esriinfo/media/" + mediaFile: content,
	}
}

// ReadZip returns the regular files of the archive at path keyed by name
func ReadZip(t *testing.T, path string) map[string]string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(data)
	}
	return files
}
