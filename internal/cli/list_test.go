package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseradb/tessera/internal/store"
)

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "app.db")
}

func TestListEmptyDatabase(t *testing.T) {
	db := tempDB(t)

	out, _, err := runCLI(t, "list", "Tweet", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No partitions of Tweet recorded")
}

func TestListBadConfigIsUsageError(t *testing.T) {
	out, _, err := runCLI(t, "list", "Tweet", "--config", "/no/such/tessera.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeBadConfig)
}

func TestEnsureApplyThenList(t *testing.T) {
	dir := writeSpec(t, validSpec)
	db := tempDB(t)

	out, _, err := runCLI(t, "ensure", "Tweet", "foo", "--specs", dir, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Ensured 1 partition(s) of Tweet")
	assert.Contains(t, out, "created tweet_foo")
	assert.Contains(t, out, "created star_foo")

	out, _, err = runCLI(t, "list", "Tweet", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Partitions of Tweet:")
	assert.Contains(t, out, "tweet_foo")
	assert.Contains(t, out, "key=foo")
	assert.NotContains(t, out, "star_foo")

	// The cascade's entities were logged under their own template.
	out, _, err = runCLI(t, "list", "Star", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "star_foo")
}

func TestEnsureApplyIsIdempotent(t *testing.T) {
	dir := writeSpec(t, validSpec)
	db := tempDB(t)

	_, _, err := runCLI(t, "ensure", "Tweet", "foo", "--specs", dir, "--db", db)
	require.NoError(t, err)

	// Second run against a fresh universe sees the tables already there.
	out, _, err := runCLI(t, "ensure", "Tweet", "foo", "--specs", dir, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "exists  tweet_foo")
	assert.Contains(t, out, "exists  star_foo")
	assert.NotContains(t, out, "created")
}

func TestListFallsBackToPhysicalTables(t *testing.T) {
	db := tempDB(t)

	// A partition table that exists physically but was never logged,
	// e.g. created by hand or before the bookkeeping schema existed.
	s, err := store.Open(db)
	require.NoError(t, err)
	_, err = s.DB().Exec("CREATE TABLE tweet_2024_01 (id INTEGER PRIMARY KEY AUTOINCREMENT)")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, _, err := runCLI(t, "list", "Tweet", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Partitions of Tweet:")
	assert.Contains(t, out, "tweet_2024_01")
	assert.Contains(t, out, "key=2024_01")
	assert.Contains(t, out, "(unlogged)")
}

func TestListPrefersLogOverScan(t *testing.T) {
	dir := writeSpec(t, validSpec)
	db := tempDB(t)

	_, _, err := runCLI(t, "ensure", "Tweet", "foo", "--specs", dir, "--db", db)
	require.NoError(t, err)

	out, _, err := runCLI(t, "list", "Tweet", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "created=")
	assert.NotContains(t, out, "(unlogged)")
}

func TestListJSON(t *testing.T) {
	dir := writeSpec(t, validSpec)
	db := tempDB(t)

	_, _, err := runCLI(t, "ensure", "Tweet", "foo", "--specs", dir, "--db", db)
	require.NoError(t, err)

	out, _, err := runCLI(t, "--format", "json", "list", "Tweet", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []store.LogEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "tweet_foo", resp.Data[0].Table)
	assert.Equal(t, "foo", resp.Data[0].Key)
}
