package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/session"
	"github.com/roach88/combatlens/internal/testutil"
)

// response mirrors CLIResponse with the payload left undecoded.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// execute runs the full command tree against a temp database and
// returns stdout. Run ids are sequential ("cli-1", "cli-2", ...).
func execute(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, &RootOptions{RunIDs: testutil.NewSequentialRunIDs("cli")}, db, args...)
}

func executeWith(t *testing.T, opts *RootOptions, db string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if db != "" {
		args = append([]string{"--db", db}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decode parses a JSON response and, when data is non-nil, its payload.
func decode(t *testing.T, out string, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "combatlens.db")
}

// writeSession writes sess as fixture YAML into dir and returns the path.
func writeSession(t *testing.T, dir string, sess *session.Session) string {
	t.Helper()
	data, err := session.Marshal(sess)
	require.NoError(t, err)
	path := filepath.Join(dir, sess.ID+".yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
