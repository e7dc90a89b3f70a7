package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePaths evaluates src in a tracked read-only pass and returns
// the reduced dependency paths.
func capturePaths(t *testing.T, s *State, src string) []string {
	t.Helper()
	paths, err := Capture(s, func() error {
		_, evalErr := Evaluate(s, src, false)
		return evalErr
	})
	require.NoError(t, err)
	return paths
}

func TestCapture_MemberChainBindsDeepestPathOnly(t *testing.T) {
	st := newTestState(t, map[string]any{
		"user": map[string]any{"profile": map[string]any{"name": "Ada"}},
	})

	// Not separately on "user" or "user.profile".
	assert.Equal(t, []string{"user.profile.name"}, capturePaths(t, st, "user.profile.name"))
}

func TestCapture_TopLevelIdentifier(t *testing.T) {
	st := newTestState(t, map[string]any{"name": "Ada"})

	assert.Equal(t, []string{"name"}, capturePaths(t, st, "name"))
}

func TestCapture_PrefixReduction(t *testing.T) {
	st := newTestState(t, map[string]any{
		"user":     map[string]any{"name": "Ada"},
		"username": "ada",
	})

	// Reading both user and user.name keeps only the shorter path:
	// invalidating "user" already covers the longer one.
	assert.Equal(t, []string{"user"}, capturePaths(t, st, "user ? user.name : ''"))

	// "username" is NOT a boundary-extension of "user"; both stay.
	assert.Equal(t, []string{"user", "username"}, capturePaths(t, st, "user ? username : ''"))
}

func TestCapture_ArrayLengthIsWholeArrayDependency(t *testing.T) {
	st := newTestState(t, map[string]any{"items": []any{1.0, 2.0}})

	assert.Equal(t, []string{"items"}, capturePaths(t, st, "items.length"))
	assert.Equal(t, []string{"items"}, capturePaths(t, st, "items.length > 1 ? items[0] : null"))
}

func TestCapture_ElementPath(t *testing.T) {
	st := newTestState(t, map[string]any{
		"items": []any{map[string]any{"name": "a"}},
	})

	assert.Equal(t, []string{"items[0].name"}, capturePaths(t, st, "items[0].name"))
}

func TestCapture_ComputedIndexRecordsIndexVariable(t *testing.T) {
	st := newTestState(t, map[string]any{
		"items": []any{"a", "b"},
		"idx":   1.0,
	})

	assert.Equal(t, []string{"idx", "items[1]"}, capturePaths(t, st, "items[idx]"))
}

func TestCapture_NullishBaseStillDepends(t *testing.T) {
	st := newTestState(t, map[string]any{"user": nil})

	// When user becomes non-null, the expression must re-run: the
	// deepest container access is the dependency.
	assert.Equal(t, []string{"user"}, capturePaths(t, st, "user.name"))
}

func TestCapture_StringLengthDependsOnStringPath(t *testing.T) {
	st := newTestState(t, map[string]any{"user": map[string]any{"name": "Ada"}})

	assert.Equal(t, []string{"user.name"}, capturePaths(t, st, "user.name.length"))
}

func TestCapture_AliasReadsRecordUnderlyingPaths(t *testing.T) {
	parent := newTestState(t, map[string]any{
		"items": []any{map[string]any{"name": "a"}},
	})
	child := Compose(parent, map[string]any{"item": "items[0]"})

	// Aliasing adds meaning, never separate storage: the captured
	// path is the underlying location.
	assert.Equal(t, []string{"items[0].name"}, capturePaths(t, child, "item.name"))
}

func TestCapture_NestedFramesDoNotPollute(t *testing.T) {
	st := newTestState(t, map[string]any{"a": 1.0, "b": 2.0})

	var inner []string
	outer, err := Capture(st, func() error {
		if _, err := Evaluate(st, "a", false); err != nil {
			return err
		}
		var innerErr error
		inner, innerErr = Capture(st, func() error {
			_, e := Evaluate(st, "b", false)
			return e
		})
		return innerErr
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, inner)
	assert.Equal(t, []string{"a"}, outer, "inner frame reads stay out of the outer frame")
}

func TestCapture_NoFrameNoRecording(t *testing.T) {
	st := newTestState(t, map[string]any{"a": 1.0})

	// Untracked reads are fine; nothing to assert beyond no panic
	// and the right value.
	assert.Equal(t, 1.0, mustEval(t, st, "a"))
}

func TestCapture_DuplicateReadsRecordOnce(t *testing.T) {
	st := newTestState(t, map[string]any{"a": 1.0})

	assert.Equal(t, []string{"a"}, capturePaths(t, st, "a + a + a"))
}

func TestReducePaths(t *testing.T) {
	testCases := []struct {
		name     string
		in       []string
		expected []string
	}{
		{
			name:     "drops dotted extension",
			in:       []string{"user", "user.name"},
			expected: []string{"user"},
		},
		{
			name:     "drops bracketed extension",
			in:       []string{"items", "items[2]"},
			expected: []string{"items"},
		},
		{
			name:     "keeps non-boundary overlap",
			in:       []string{"user", "username"},
			expected: []string{"user", "username"},
		},
		{
			name:     "independent paths survive in order",
			in:       []string{"b", "a"},
			expected: []string{"b", "a"},
		},
		{
			name:     "chain collapses to root",
			in:       []string{"a.b.c", "a", "a.b"},
			expected: []string{"a"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, reducePaths(tc.in))
		})
	}
}
