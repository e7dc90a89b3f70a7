// Package reactive implements the fine-grained reactive state engine
// behind expression bindings.
//
// ARCHITECTURE:
//
// A State wraps a plain data graph (maps and slices) in Container
// wrappers so every read and write is intercepted. During a tracked
// evaluation, reads record fully-qualified paths ("user.profile.name",
// "items[2]") into the active capture frame. A collaborator turns the
// captured paths into registry bindings attached to an effect closure;
// a later write through the container triggers every effect bound to
// the written path, synchronously, before the write returns.
//
// Scoped Composition:
// Compose derives a child State that layers name->expression aliases
// over its parent (loop items, template parameters, event payloads).
// The whole composition chain shares ONE binding registry, ONE capture
// stack, and ONE mutation barrier; a child only tracks which registry
// entries it privately contributed so Cleanup can remove exactly that
// subset. This asymmetry - shared storage, privately tracked
// contribution - lets thousands of short-lived scopes come and go
// without leaking registry entries.
//
// Execution model:
// Single-threaded, synchronous, re-entrant. No batching, no async
// scheduling, no background goroutines. An effect may itself read and
// write state, re-entering the trigger path; there is no cycle
// detection unless WithMaxTriggerDepth is set.
//
// Security:
// The evaluator never synthesizes or executes host source text. An
// expression can only reach values exposed by the supplied state via
// property traversal - no ambient globals, no reflection escape hatch.
package reactive
