package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validSpec = `
template: Tweet: {
	fields: {
		json: {type: "text"}
		created: {type: "datetime", default: "now"}
	}
	partition: {by: "month"}
}
template: Star: {
	fields: {
		user: {type: "text"}
		tweet: {fk: "Tweet", related: "stars"}
	}
	partition: {by: "month"}
}
`

// writeSpec writes a single CUE spec file into a fresh temp directory and
// returns the directory.
func writeSpec(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "templates.cue"), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

// runCLI executes the root command with args against fresh buffers.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
