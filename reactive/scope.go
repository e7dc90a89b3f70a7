package reactive

import "sort"

// aliasTable is an ordered name -> value map. A string value is an
// expression re-evaluated against the composed state at read time; a
// non-string value (a live event payload, a host function) is
// returned verbatim. Order is inherited from ancestors, with newer
// entries winning on collision.
type aliasTable struct {
	names  []string
	values map[string]any
}

func newAliasTable() *aliasTable {
	return &aliasTable{values: make(map[string]any)}
}

func (t *aliasTable) get(name string) (any, bool) {
	v, ok := t.values[name]
	return v, ok
}

func (t *aliasTable) set(name string, v any) {
	if _, exists := t.values[name]; !exists {
		t.names = append(t.names, name)
	}
	t.values[name] = v
}

// clone copies the table for a child scope.
func (t *aliasTable) clone() *aliasTable {
	child := &aliasTable{
		names:  append([]string{}, t.names...),
		values: make(map[string]any, len(t.values)),
	}
	for k, v := range t.values {
		child.values[k] = v
	}
	return child
}

// Compose derives a child state that layers the given aliases over
// the parent: the child shares the parent's registry, capture stack
// and mutation barrier; its alias table is the parent's merged with
// the new entries (new entries win on collision); its private
// inner-bindings, inner-states and finalizer lists start empty. The
// child registers itself in the parent's inner-state set so cleanup
// of the parent reaches it.
//
// One Compose per scope-introducing operation: loop iteration,
// template instantiation, event dispatch. Every composed child MUST
// be retired with Cleanup before its owning scope is discarded, or
// its registry contributions leak.
//
// New alias names are merged in sorted order for deterministic
// iteration; aliasing adds meaning, never separate storage.
func Compose(parent *State, aliases map[string]any) *State {
	child := &State{
		id:            parent.core.idGen.Generate(),
		core:          parent.core,
		root:          parent.root,
		parent:        parent,
		aliases:       parent.aliases.clone(),
		inner:         make(map[*State]struct{}),
		innerBindings: make(map[string][]*binding),
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child.aliases.set(name, aliases[name])
	}

	parent.inner[child] = struct{}{}

	parent.core.log.Debug("scope composed",
		"parent_id", parent.id,
		"child_id", child.id,
		"aliases", len(aliases),
	)
	return child
}

// Cleanup retires a composed child state. In order: the alias table
// is cleared; for each path the child privately contributed to, that
// exact binding subset is removed from the shared registry (pruning
// entries that empty); finalizers run in registration order;
// remaining inner states are cleaned up recursively; the child is
// removed from the parent's inner-state set; the child's fields are
// nulled out to prevent reuse.
//
// A child missing from its parent's inner-state set is ownership
// corruption, reported as a ConsistencyError - never a silent no-op.
// Cleanup only prevents future firings; it cannot interrupt an effect
// already executing.
func Cleanup(parent, child *State) error {
	if child.dead {
		return &ConsistencyError{
			ParentID: parent.id,
			ChildID:  child.id,
			Message:  "cleanup of already cleaned-up state",
		}
	}

	child.aliases = nil

	for path, bindings := range child.innerBindings {
		child.core.registry.remove(path, bindings)
	}

	for _, fn := range child.finalizers {
		fn()
	}

	// Recursion deletes from child.inner; iterate a snapshot.
	innerStates := make([]*State, 0, len(child.inner))
	for inner := range child.inner {
		innerStates = append(innerStates, inner)
	}
	for _, inner := range innerStates {
		if err := Cleanup(child, inner); err != nil {
			return err
		}
	}

	if _, owned := parent.inner[child]; !owned {
		return &ConsistencyError{
			ParentID: parent.id,
			ChildID:  child.id,
			Message:  "child missing from parent inner-state set",
		}
	}
	delete(parent.inner, child)

	child.core.log.Debug("scope cleaned up",
		"parent_id", parent.id,
		"child_id", child.id,
	)

	child.dead = true
	child.root = nil
	child.parent = nil
	child.inner = nil
	child.innerBindings = nil
	child.finalizers = nil
	return nil
}
