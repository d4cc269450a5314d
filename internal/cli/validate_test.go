package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSuccessText(t *testing.T) {
	dir := writeSpec(t, validSpec)

	out, _, err := runCLI(t, "validate", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Validated 2 template(s) from 1 CUE file(s)")
	assert.Contains(t, out, "Tweet: 2 field(s)")
	assert.Contains(t, out, "partitioned by month")
	assert.Contains(t, out, "fk → Tweet")
}

func TestValidateSuccessJSON(t *testing.T) {
	dir := writeSpec(t, validSpec)

	out, _, err := runCLI(t, "--format", "json", "validate", dir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   ValidationSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.FileCount)
	require.Len(t, resp.Data.Templates, 2)
	assert.Equal(t, "Tweet", resp.Data.Templates[0].Name)
	assert.Equal(t, "month", resp.Data.Templates[0].Scheme)
	assert.Equal(t, "Tweet", resp.Data.Templates[1].ForeignKey)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	dir := writeSpec(t, `
template: Tweet: {
	fields: blob: {type: "binary"}
}
template: Star: {
	fields: tweet: {fk: "Tweet", onDelete: "EXPLODE"}
}
`)

	out, _, err := runCLI(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	// Collect-all mode reports both template errors in one run.
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `unknown field type "binary"`)
	assert.Contains(t, out, `unknown onDelete action "EXPLODE"`)
	assert.Contains(t, err.Error(), "2 error(s)")
}

func TestValidateMissingDirectory(t *testing.T) {
	out, _, err := runCLI(t, "validate", "/no/such/dir")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestValidateErrorsJSON(t *testing.T) {
	dir := writeSpec(t, `template: Tweet: {fields: blob: {type: "binary"}}`)

	out, _, err := runCLI(t, "--format", "json", "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompile, resp.Error.Code)
}

func TestValidateRejectsNonAbstractTemplate(t *testing.T) {
	dir := writeSpec(t, `
template: Audit: {
	abstract: false
	fields: note: {type: "text"}
}
`)

	out, _, err := runCLI(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeConfigInvalid)
}
