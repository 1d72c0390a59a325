package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/curvemigrate/internal/runid"
)

var (
	legacyDir = filepath.Join("..", "importer", "testdata", "legacy")
	badDir    = filepath.Join("..", "importer", "testdata", "bad")
	syntaxDir = filepath.Join("..", "importer", "testdata", "syntax")
	eurDir    = filepath.Join("..", "harness", "testdata", "scenarios", "inputs", "eur")
)

// execute runs the root command with args and returns stdout, stderr and
// the command error. Run ids come from ids, in order.
func execute(t *testing.T, ids []string, args ...string) (string, string, error) {
	t.Helper()
	opts := &RootOptions{}
	if len(ids) > 0 {
		opts.RunIDs = runid.NewFixedGenerator(ids...)
	}
	cmd := newRootCommand(opts)
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "curves.db")
}

// importLegacy imports dir into db under runID and fails the test on error.
func importLegacy(t *testing.T, db, dir, runID string) {
	t.Helper()
	_, _, err := execute(t, []string{runID}, "import", dir, "--db", db)
	require.NoError(t, err)
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.CLIResponse
}
