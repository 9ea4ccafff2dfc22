package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeportal/internal/core"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "homeportal.db")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AMQP_URL", "")
	return dbPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = "date,account_name,balance,currency\n" +
	"2024-01-31,Checking,1000,USD\n" +
	"2024-02-29,Checking,1200,USD\n" +
	"2024-02-30,Broken,1,USD\n"

func TestImportDryRunLeavesDatabaseAlone(t *testing.T) {
	dbPath := setupEnv(t)

	out, err := runCLI(t, "import", "--dry-run", writeCSV(t, sampleCSV))
	require.NoError(t, err)

	var outcome core.ImportOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, 2, outcome.Imported)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, 4, outcome.Failed[0].LineNumber)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create the database")
}

func TestImportThenSummary(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "import", writeCSV(t, sampleCSV))
	require.NoError(t, err)

	out, err := runCLI(t, "summary", "--from", "2024-02", "--to", "2024-02")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"month":"2024-02","totals":{"USD":1200}}]}`, out)

	_, err = runCLI(t, "summary", "--from", "2024-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid month")
}

func TestImportMissingFile(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = runCLI(t, "import")
	assert.Error(t, err, "file argument is required")
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)
}

func TestWorkerRequiresBroker(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMQP_URL")
}

func TestInvalidConfigFailsEarly(t *testing.T) {
	setupEnv(t)
	t.Setenv("LOG_FORMAT", "xml")

	_, err := runCLI(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log format")
}
