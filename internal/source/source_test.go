package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"pulldata/internal/config"
	apperrors "pulldata/internal/errors"
	"pulldata/internal/shared/testutil"
	"pulldata/internal/table"
)

var pullColumns = []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

func TestExcelSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MineralsPullData.xlsm")
	testutil.WriteWorkbook(t, path, config.DefaultSheet, testutil.PullDataRows())
	logger, handler := testutil.NewTestLogger(t)

	src := NewExcelSource(path, config.DefaultSheet, pullColumns, logger)
	tbl, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"SiteID", "SiteName", "Owner", "Commodity", "Tonnage", "County", "Permit", "Status", "Inspector", "Notes"}, tbl.Header())
	want := [][]string{
		{"S-001", " Granite Ridge ", "Acme, Inc.", "Granite", "12,345", "Ada", "P-1", "Active", "Lee", " ok "},
		{"S-002", "Blue Quarry", "Stone Co", "Limestone", "900", "Boise", "P-2", "Idle", "Kim", ""},
		{"S-003", "Red, Hill", "  Rocks LLC", "Sand", "1,000,000", "Canyon", "P-3", "Active", "Ray", "fenced,  gated"},
	}
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, handler.ContainsMessage("Workbook loaded"))
}

func TestExcelSourceDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.xlsx")
	sheet := config.DefaultSheet

	f := excelize.NewFile()
	idx, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Inspected", "Site", "Tonnage", "Due"}))
	require.NoError(t, f.SetCellValue(sheet, "A2", time.Date(2021, 11, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "B2", "S-001"))
	require.NoError(t, f.SetCellValue(sheet, "C2", 44505))
	require.NoError(t, f.SetCellValue(sheet, "D2", 44506))
	require.NoError(t, f.SetCellValue(sheet, "A3", time.Date(2021, 11, 6, 13, 30, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "B3", "44505"))
	require.NoError(t, f.SetCellValue(sheet, "C3", 3.5))

	custom := "dd/mm/yyyy"
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "D2", "D2", style))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := NewExcelSource(path, sheet, []int{0, 1, 2, 3}, nil).Load(context.Background())
	require.NoError(t, err)

	want := [][]string{
		{"2021-11-05 00:00:00", "S-001", "44505", "2021-11-06 00:00:00"},
		{"2021-11-06 13:30:00", "44505", "3.5", ""},
	}
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestDateFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"yyyy-mm-dd", true},
		{"dd/mm/yyyy hh:mm", true},
		{"mm:ss", true},
		{"h:mm AM/PM", true},
		{"#,##0.00", false},
		{"0%", false},
		{`0 "days"`, false},
		{"[$-409]#,##0", false},
		{"General", false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, dateFormat(tt.format))
		})
	}
}

func TestExcelSourceErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	testutil.WriteWorkbook(t, path, "Other", testutil.PullDataRows())

	tests := []struct {
		name    string
		path    string
		sheet   string
		columns []int
		errType apperrors.ErrorType
	}{
		{"missing file", filepath.Join(dir, "nope.xlsx"), "Other", pullColumns, apperrors.ErrTypeStorage},
		{"missing sheet", path, config.DefaultSheet, pullColumns, apperrors.ErrTypeParsing},
		{"column out of range", path, "Other", []int{3, 20}, apperrors.ErrTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExcelSource(tt.path, tt.sheet, tt.columns, nil).Load(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestCSVURLSource(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/spreadsheets/d/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("a,b,c,d\n1,\" x, y \",3\n4,5,6,7\n"))
	})
	r.Get("/empty", func(w http.ResponseWriter, r *http.Request) {})
	server := httptest.NewServer(r)
	defer server.Close()

	t.Run("selects columns", func(t *testing.T) {
		src := NewCSVURLSource(server.URL+"/spreadsheets/d/abc/export?format=csv&gid=2113599541", []int{1, 3}, server.Client(), nil)
		tbl, err := src.Load(context.Background())
		require.NoError(t, err)

		assert.Equal(t, []string{"b", "d"}, tbl.Header())
		assert.Equal(t, [][]string{{" x, y ", ""}, {"5", "7"}}, tbl.Records())
	})

	t.Run("not found", func(t *testing.T) {
		src := NewCSVURLSource(server.URL+"/missing", []int{0}, server.Client(), nil)
		_, err := src.Load(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("empty body", func(t *testing.T) {
		src := NewCSVURLSource(server.URL+"/empty", []int{0}, server.Client(), nil)
		_, err := src.Load(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	})
}

func TestSheetsSource(t *testing.T) {
	var gotID string
	r := chi.NewRouter()
	r.Get("/v4/spreadsheets/{id}/values/*", func(w http.ResponseWriter, r *http.Request) {
		gotID = chi.URLParam(r, "id")
		render.JSON(w, r, map[string]any{
			"range":          "'For Pull Data'!A1:E3",
			"majorDimension": "ROWS",
			"values": [][]any{
				{"n", "name", "owner"},
				{"1", " Granite ", "Acme, Inc."},
				{"2", "Basalt"},
			},
		})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	cfg := config.SourceConfig{
		Kind:          config.SourceSheets,
		SpreadsheetID: "sheet-123",
		Range:         config.DefaultSheet,
		APIKey:        "test-key",
		Columns:       []int{1, 2},
	}
	src := NewSheetsSource(cfg, nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))

	tbl, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", gotID)
	assert.Equal(t, []string{"name", "owner"}, tbl.Header())
	assert.Equal(t, [][]string{{" Granite ", "Acme, Inc."}, {"Basalt", ""}}, tbl.Records())
}

func TestSheetsSourceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	src := NewSheetsSource(config.SourceConfig{SpreadsheetID: "x", Range: "A1:B2", Columns: []int{0}}, nil,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()))

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

func TestNew(t *testing.T) {
	t.Run("excel", func(t *testing.T) {
		src, err := New(config.SourceConfig{Kind: config.SourceExcel, Path: "x.xlsx", Sheet: "S", Columns: []int{0}})
		require.NoError(t, err)
		assert.IsType(t, &ExcelSource{}, src)
	})

	t.Run("csv url", func(t *testing.T) {
		src, err := New(config.SourceConfig{Kind: config.SourceCSVURL, URL: "http://example.com/x.csv", Columns: []int{0}})
		require.NoError(t, err)
		assert.IsType(t, &CSVURLSource{}, src)
	})

	t.Run("sheets", func(t *testing.T) {
		src, err := New(config.SourceConfig{Kind: config.SourceSheets, APIKey: "k", Columns: []int{0}})
		require.NoError(t, err)
		assert.IsType(t, &SheetsSource{}, src)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := New(config.SourceConfig{Kind: "ftp"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("infer types", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(strings.Join([]string{"id,name", "1,a", "2,b"}, "\n")))
		}))
		defer server.Close()

		src, err := New(config.SourceConfig{
			Kind:       config.SourceCSVURL,
			URL:        server.URL,
			Columns:    []int{0, 1},
			InferTypes: true,
		}, WithHTTPClient(server.Client()))
		require.NoError(t, err)

		tbl, err := src.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, table.KindNumber, tbl.Columns[0].Kind)
		assert.Equal(t, table.KindText, tbl.Columns[1].Kind)
	})
}
