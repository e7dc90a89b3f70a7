package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStateFile drops a YAML state file into a temp dir and returns
// its path.
func writeStateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr
// and the execution error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestEvalCommand_Arithmetic(t *testing.T) {
	state := writeStateFile(t, "a: 2\nb: 3\n")

	out, _, err := execute(t, "eval", state, "a + b * 2")
	require.NoError(t, err)
	assert.Equal(t, "8\n", out)
}

func TestEvalCommand_MemberAccess(t *testing.T) {
	state := writeStateFile(t, "user:\n  name: Ada\n")

	out, _, err := execute(t, "eval", state, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "Ada\n", out)
}

func TestEvalCommand_NullPropagation(t *testing.T) {
	state := writeStateFile(t, "user: null\n")

	out, _, err := execute(t, "eval", state, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestEvalCommand_JSONFormat(t *testing.T) {
	state := writeStateFile(t, "n: 41\n")

	out, _, err := execute(t, "--format", "json", "eval", state, "n + 1")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 42.0, data["value"])
}

func TestEvalCommand_DepsFlag(t *testing.T) {
	state := writeStateFile(t, "user:\n  profile:\n    name: Ada\n")

	out, _, err := execute(t, "eval", state, "user.profile.name", "--deps")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "user.profile.name")
}

func TestEvalCommand_WriteRejectedByDefault(t *testing.T) {
	state := writeStateFile(t, "n: 1\n")

	out, _, err := execute(t, "eval", state, "n = 2")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "READ_ONLY_WRITE")
}

func TestEvalCommand_AllowWrites(t *testing.T) {
	state := writeStateFile(t, "n: 1\n")

	out, _, err := execute(t, "eval", state, "n = n + 1", "--allow-writes")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestEvalCommand_MissingStateFile(t *testing.T) {
	_, _, err := execute(t, "eval", filepath.Join(t.TempDir(), "missing.yaml"), "1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEvalCommand_SyntaxError(t *testing.T) {
	state := writeStateFile(t, "n: 1\n")

	out, _, err := execute(t, "eval", state, "n +")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeParseFailed)
}

func TestTokensCommand(t *testing.T) {
	out, _, err := execute(t, "tokens", "a >= 1 && b")
	require.NoError(t, err)
	assert.Contains(t, out, `identifier "a"`)
	assert.Contains(t, out, `operator ">="`)
	assert.Contains(t, out, `operator "&&"`)
}

func TestASTCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "ast", "a.b")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	node, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "member", node["kind"])
}

func TestDepsCommand(t *testing.T) {
	state := writeStateFile(t, "items:\n  - 1\n  - 2\n")

	out, _, err := execute(t, "deps", state, "items.length")
	require.NoError(t, err)
	assert.Equal(t, "items\n", out)
}

func TestLoadStateFile_NormalizesNumbers(t *testing.T) {
	state := writeStateFile(t, "n: 3\nnested:\n  m: 4\nitems:\n  - 5\n")

	loaded, err := LoadStateFile(state)
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded["n"])
	assert.Equal(t, 4.0, loaded["nested"].(map[string]any)["m"])
	assert.Equal(t, 5.0, loaded["items"].([]any)[0])
}

func TestLoadStateFile_RejectsNonMapping(t *testing.T) {
	state := writeStateFile(t, "- 1\n- 2\n")

	_, err := LoadStateFile(state)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeBadState)
}
