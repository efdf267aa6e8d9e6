package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulldata/internal/config"
	"pulldata/internal/infrastructure"
	"pulldata/internal/pullupdate"
	"pulldata/internal/shared/testutil"
)

// execute runs the root command in a scratch directory
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		os.Chdir(wd)
		infrastructure.ResetLoggerForTesting()
	})

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	content := `
source:
  kind: excel
  path: book.xlsx
output:
  csv_path: out/MineralsPulldata.csv
mail:
  enabled: false
logging:
  level: error
telemetry:
  trace_exporter: none
  metric_exporter: none
`
	path := filepath.Join(dir, "pullupdate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, config.AppName+" "+config.AppVersion+"\n", out)
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, filepath.Join(dir, "book.xlsx"), config.DefaultSheet, testutil.PullDataRows())
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, dir, "clean", "--config", cfgPath, "--log-level", "warn")
	require.NoError(t, err)

	var result pullupdate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "clean", result.Command)
	assert.Equal(t, 3, result.RowsWritten)

	data, err := os.ReadFile(filepath.Join(dir, "out", "MineralsPulldata.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "S-001,Granite Ridge,Acme Inc.,Granite,12345,Ada,P-1,Active,Lee,ok", lines[1])
}

func TestPublishWithoutPortalSettings(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out", "MineralsPulldata.csv"), []byte("a\n1\n"), 0644))

	_, err := execute(t, dir, "publish", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish failed")
	assert.Contains(t, err.Error(), "portal.username")
}

func TestRunRequiresMailSettings(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteWorkbook(t, filepath.Join(dir, "book.xlsx"), config.DefaultSheet, testutil.PullDataRows())
	cfgPath := writeConfig(t, dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Replace(readFile(t, cfgPath), "enabled: false", "enabled: true", 1)), 0644))

	_, err := execute(t, dir, "run", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mail.recipients")
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	require.NoError(t, os.WriteFile(cfgPath, []byte(strings.Replace(readFile(t, cfgPath), "kind: excel", "kind: ftp", 1)), 0644))

	_, err := execute(t, dir, "clean", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestUnknownArgument(t *testing.T) {
	_, err := execute(t, t.TempDir(), "clean", "extra")
	assert.Error(t, err)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
