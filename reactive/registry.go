package reactive

// binding ties one effect to one path, remembering which state
// contributed it so cleanup can remove exactly that contribution and
// so effects of cleaned-up scopes become silent no-ops.
type binding struct {
	path   string
	effect Effect
	owner  *State
}

// Registry owns the path -> effect-set map shared by an entire
// composition chain. Lookup is by exact path - no wildcard matching,
// since prefix reduction already happened at capture time. Firing is
// synchronous and in insertion order; there is no batching,
// coalescing, or async scheduling.
//
// The registry never proactively prunes stale entries; removing a
// scope's contribution is Cleanup's responsibility.
type Registry struct {
	entries map[string][]*binding
}

func newRegistry() *Registry {
	return &Registry{entries: make(map[string][]*binding)}
}

// bind appends an effect to the path's entry and returns the binding
// handle used for later removal.
func (r *Registry) bind(path string, effect Effect, owner *State) *binding {
	b := &binding{path: path, effect: effect, owner: owner}
	r.entries[path] = append(r.entries[path], b)
	return b
}

// remove deletes exactly the given bindings from the path's entry,
// pruning the entry when it empties. Bindings are matched by
// identity.
func (r *Registry) remove(path string, bindings []*binding) {
	entry := r.entries[path]
	if len(entry) == 0 {
		return
	}

	doomed := make(map[*binding]struct{}, len(bindings))
	for _, b := range bindings {
		doomed[b] = struct{}{}
	}

	kept := entry[:0]
	for _, b := range entry {
		if _, gone := doomed[b]; !gone {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		delete(r.entries, path)
		return
	}
	r.entries[path] = kept
}

// trigger invokes every effect registered on exactly the given path,
// synchronously, in insertion order. Effects whose owning scope has
// been cleaned up are silent no-ops. Re-entrant triggering is
// permitted; when a max depth is configured, exceeding it returns a
// TRIGGER_DEPTH_EXCEEDED error instead of recursing further.
func (r *Registry) trigger(c *core, path string) error {
	entry := r.entries[path]
	if len(entry) == 0 {
		return nil
	}

	if c.maxTriggerDepth > 0 && c.triggerDepth >= c.maxTriggerDepth {
		c.log.Error("re-entrant trigger depth exceeded",
			"path", path,
			"depth", c.triggerDepth,
			"limit", c.maxTriggerDepth,
		)
		return evalErrorf(ErrCodeTriggerDepth, "trigger depth %d exceeded on %q", c.maxTriggerDepth, path)
	}

	c.triggerDepth++
	defer func() { c.triggerDepth-- }()

	c.log.Debug("trigger", "path", path, "effects", len(entry))

	// Effects may bind or clean up mid-fire; iterate a snapshot.
	snapshot := make([]*binding, len(entry))
	copy(snapshot, entry)

	for _, b := range snapshot {
		if b.owner != nil && b.owner.dead {
			continue
		}
		b.effect()
	}
	return nil
}

// entryLen reports how many effects are bound to a path. Used by
// tests and diagnostics.
func (r *Registry) entryLen(path string) int {
	return len(r.entries[path])
}

// pathCount reports how many paths currently have bindings. Used by
// tests to verify cleanup leaves no leaks.
func (r *Registry) pathCount() int {
	return len(r.entries)
}
