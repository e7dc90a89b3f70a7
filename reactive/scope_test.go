package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose_AliasResolvesAgainstParentChain(t *testing.T) {
	parent := newTestState(t, map[string]any{
		"items": []any{map[string]any{"name": "first"}, map[string]any{"name": "second"}},
	})

	child := Compose(parent, map[string]any{"item": "items[0]"})

	// evaluate(child, "item") equals evaluate(parent, "items[0]").
	assert.Equal(t, mustEval(t, parent, "items[0]"), mustEval(t, child, "item"))
	assert.Equal(t, "first", mustEval(t, child, "item.name"))
}

func TestCompose_AliasesChain(t *testing.T) {
	parent := newTestState(t, map[string]any{
		"items": []any{map[string]any{"name": "first"}},
	})

	row := Compose(parent, map[string]any{"item": "items[0]"})
	cell := Compose(row, map[string]any{"label": "item.name"})

	// A string alias may reference another alias; resolution happens
	// against the same composed state.
	assert.Equal(t, "first", mustEval(t, cell, "label"))
}

func TestCompose_OpaqueAliasReturnedVerbatim(t *testing.T) {
	parent := newTestState(t, nil)

	payload := map[string]any{"key": "Escape"}
	child := Compose(parent, map[string]any{
		"$event": payload,
		"$":      2.0,
	})

	// Non-string aliases come back as-is: the event payload is a
	// live object, never re-evaluated as an expression.
	assert.Equal(t, payload, mustEval(t, child, "$event"))
	assert.Equal(t, "Escape", mustEval(t, child, "$event.key"))
	assert.Equal(t, 2.0, mustEval(t, child, "$"))
}

func TestCompose_NewAliasWinsOnCollision(t *testing.T) {
	parent := newTestState(t, map[string]any{"a": "root", "b": "root"})

	outer := Compose(parent, map[string]any{"item": "a"})
	inner := Compose(outer, map[string]any{"item": "b"})

	assert.Equal(t, "root", mustEval(t, outer, "item"))
	assert.Equal(t, "root", mustEval(t, inner, "item"))

	// Rebind the underlying values to tell the two apart.
	_, err := Evaluate(parent, "a = 'A', b = 'B'", true)
	require.NoError(t, err)
	assert.Equal(t, "A", mustEval(t, outer, "item"))
	assert.Equal(t, "B", mustEval(t, inner, "item"), "newer alias entry wins")
}

func TestCompose_SharesRegistry(t *testing.T) {
	parent := newTestState(t, map[string]any{"x": 1.0})
	child := Compose(parent, nil)

	fired := 0
	require.NoError(t, Bind(child, "x", func() { fired++ }))

	// A write through the parent fires the child's effect: the whole
	// composition chain shares one registry.
	_, err := Evaluate(parent, "x = 2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestCompose_IterationScopes(t *testing.T) {
	parent := newTestState(t, map[string]any{
		"items": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
			map[string]any{"name": "c"},
		},
	})

	n := int(mustEval(t, parent, "items.length").(float64))
	var got []string
	for i := 0; i < n; i++ {
		row := Compose(parent, map[string]any{
			"item": "items[" + string(rune('0'+i)) + "]",
			"$":    float64(i),
		})
		got = append(got, mustEval(t, row, "item.name").(string))
		require.NoError(t, Cleanup(parent, row))
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, parent.inner, "all iteration scopes retired")
}

func TestCleanup_RemovesExactlyTheChildSubset(t *testing.T) {
	parent := newTestState(t, map[string]any{
		"user": map[string]any{"name": "Ada"},
	})
	child := Compose(parent, nil)

	parentFired, childFired := 0, 0
	require.NoError(t, Bind(parent, "user.name", func() { parentFired++ }))
	require.NoError(t, Bind(child, "user.name", func() { childFired++ }))

	require.NoError(t, Cleanup(parent, child))

	// Writes to the path the child privately bound no longer invoke
	// the child's effects; sibling/parent effects on the same path
	// still fire.
	_, err := Evaluate(parent, "user.name = 'Bob'", true)
	require.NoError(t, err)

	assert.Equal(t, 1, parentFired)
	assert.Equal(t, 0, childFired)
	assert.Equal(t, 1, parent.core.registry.entryLen("user.name"))
}

func TestCleanup_PrunesEmptyEntries(t *testing.T) {
	parent := newTestState(t, map[string]any{"x": 1.0})
	child := Compose(parent, nil)

	require.NoError(t, Bind(child, "x", func() {}))
	require.NoError(t, Bind(child, "y", func() {}))
	assert.Equal(t, 2, parent.core.registry.pathCount())

	require.NoError(t, Cleanup(parent, child))
	assert.Equal(t, 0, parent.core.registry.pathCount(), "no leaked entries")
}

func TestCleanup_RunsFinalizersInOrder(t *testing.T) {
	parent := newTestState(t, nil)
	child := Compose(parent, nil)

	var order []string
	OnCleanup(child, func() { order = append(order, "first") })
	OnCleanup(child, func() { order = append(order, "second") })

	require.NoError(t, Cleanup(parent, child))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCleanup_RecursesIntoInnerStates(t *testing.T) {
	parent := newTestState(t, map[string]any{"x": 1.0})
	child := Compose(parent, nil)
	grandchild := Compose(child, nil)

	fired := 0
	require.NoError(t, Bind(grandchild, "x", func() { fired++ }))

	var finalized []string
	OnCleanup(grandchild, func() { finalized = append(finalized, "grandchild") })

	require.NoError(t, Cleanup(parent, child))

	assert.Equal(t, []string{"grandchild"}, finalized)
	assert.True(t, grandchild.dead)

	_, err := Evaluate(parent, "x = 2", true)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestCleanup_DoubleCleanupIsConsistencyError(t *testing.T) {
	parent := newTestState(t, nil)
	child := Compose(parent, nil)

	require.NoError(t, Cleanup(parent, child))

	err := Cleanup(parent, child)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err))
}

func TestCleanup_WrongParentIsConsistencyError(t *testing.T) {
	parent := newTestState(t, nil)
	stranger := newTestState(t, nil)
	child := Compose(parent, nil)

	err := Cleanup(stranger, child)
	require.Error(t, err)
	assert.True(t, IsConsistencyError(err), "ownership corruption is never a silent no-op")
}

func TestCleanup_MidTriggerEffectBecomesNoOp(t *testing.T) {
	parent := newTestState(t, map[string]any{"x": 1.0})
	child := Compose(parent, nil)

	childFired := 0

	// The first effect (parent-owned, registered earlier on the same
	// path) cleans the child up mid-fire. The child's effect is in
	// the trigger snapshot but must become a silent no-op.
	require.NoError(t, Bind(parent, "x", func() {
		_ = Cleanup(parent, child)
	}))
	require.NoError(t, Bind(child, "x", func() { childFired++ }))

	_, err := Evaluate(parent, "x = 2", true)
	require.NoError(t, err)

	assert.Equal(t, 0, childFired)
	assert.True(t, child.dead)
}

func TestCleanup_ChurnLeavesNoResidue(t *testing.T) {
	// Uses the production ID generator: the churn loop outlives any
	// fixed token list.
	parent := CreateState(map[string]any{
		"items": []any{map[string]any{"name": "a"}},
	})

	// Thousands of create/destroy cycles per interaction is the
	// design load; nothing may accumulate.
	for i := 0; i < 2000; i++ {
		row := Compose(parent, map[string]any{"item": "items[0]"})
		require.NoError(t, Bind(row, "items[0].name", func() {}))
		require.NoError(t, Cleanup(parent, row))
	}

	assert.Empty(t, parent.inner)
	assert.Equal(t, 0, parent.core.registry.pathCount())
}
