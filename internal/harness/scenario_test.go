package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario drops a scenario YAML into a temp dir and returns its
// path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/counter.yaml")
	require.NoError(t, err)

	assert.Equal(t, "counter", scenario.Name)
	assert.Len(t, scenario.Steps, 3)
	assert.Len(t, scenario.Assertions, 1)
	assert.Equal(t, "count * 2", scenario.Steps[0].Observe)
	assert.Equal(t, "doubled", scenario.Steps[0].As)
	require.NotNil(t, scenario.Steps[1].Write)
	assert.Equal(t, "count", scenario.Steps[1].Write.Path)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nstate: {}\nsteps:\n  - eval: \"1\"\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nstate: {}\nsteps:\n  - eval: \"1\"\n",
			wantErr: "description is required",
		},
		{
			name:    "missing state",
			content: "name: n\ndescription: d\nsteps:\n  - eval: \"1\"\n",
			wantErr: "state mapping is required",
		},
		{
			name:    "empty steps",
			content: "name: n\ndescription: d\nstate: {}\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "step with two operations",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - eval: \"1\"\n    trigger: \"x\"\n",
			wantErr: "exactly one of",
		},
		{
			name:    "step with no operation",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - expect: 1\n",
			wantErr: "exactly one of",
		},
		{
			name:    "write without path",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - write: { value: 1 }\n",
			wantErr: "path is required",
		},
		{
			name:    "as without observe",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - eval: \"1\"\n    as: label\n",
			wantErr: "as is only valid on observe steps",
		},
		{
			name:    "allow_writes without eval",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - trigger: \"x\"\n    allow_writes: true\n",
			wantErr: "allow_writes is only valid on eval steps",
		},
		{
			name:    "assertion without expr",
			content: "name: n\ndescription: d\nstate: {}\nsteps:\n  - eval: \"1\"\nassertions:\n  - expect: 1\n",
			wantErr: "expr is required",
		},
		{
			name:    "unknown field rejected",
			content: "name: n\ndescription: d\nstate: {}\nstep:\n  - eval: \"1\"\n",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeScenario(t, tc.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
