package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitUsageError, GetExitCode(NewExitError(ExitUsageError, "bad flags")))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	// Wrapped ExitErrors still carry their code.
	wrapped := fmt.Errorf("context: %w", NewExitError(ExitUsageError, "bad"))
	assert.Equal(t, ExitUsageError, GetExitCode(wrapped))
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := WrapExitError(ExitFailure, "outer", inner)

	assert.Equal(t, "outer: inner", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestFormatterSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]string{"template": "Tweet"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestFormatterErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Error(ErrCodeNameCollision, "name already bound", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNameCollision, resp.Error.Code)
	assert.Equal(t, "name already bound", resp.Error.Message)
}

func TestFormatterErrorText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Error(ErrCodeUnknownTemplate, "unknown template", nil))
	assert.Equal(t, "Error [E011]: unknown template\n", buf.String())
}

func TestVerboseLogGating(t *testing.T) {
	var out, errOut bytes.Buffer

	quiet := &OutputFormatter{Writer: &out, ErrWriter: &errOut}
	quiet.VerboseLog("hidden %d", 1)
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	verbose := &OutputFormatter{Writer: &out, ErrWriter: &errOut, Verbose: true}
	verbose.VerboseLog("shown %d", 2)
	assert.Empty(t, out.String())
	assert.Equal(t, "shown 2\n", errOut.String())

	// Without a dedicated ErrWriter verbose output falls back to Writer.
	fallback := &OutputFormatter{Writer: &out, Verbose: true}
	fallback.VerboseLog("fallback")
	assert.Equal(t, "fallback\n", out.String())
}
