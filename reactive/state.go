package reactive

import (
	"log/slog"

	"github.com/google/uuid"
)

// IDGenerator generates unique state identifiers.
// Implemented by UUIDv7Generator (production) and FixedGenerator
// (tests, golden traces).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 state identifiers.
// Sortability by creation time helps when reading logs of scope
// churn. Stateless and safe for reuse.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined identifiers for deterministic
// tests and golden trace comparison. Not safe for concurrent use -
// the engine is single-threaded, and so are its tests.
type FixedGenerator struct {
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
// Generate panics once all tokens are consumed; that is a fail-fast
// signal of test misconfiguration.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next predetermined identifier.
func (g *FixedGenerator) Generate() string {
	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// core holds the structures shared by an entire composition chain:
// one registry, one capture stack, one mutation barrier. Composed
// children alias the parent's core; they never get their own.
type core struct {
	registry *Registry
	capture  captureStack

	// readOnly is the mutation barrier: true while a read-only
	// evaluation pass is in flight. Saved and restored around each
	// Evaluate call, so re-entrant evaluation nests correctly.
	readOnly bool

	// triggerDepth counts re-entrant trigger nesting. Guarded by
	// maxTriggerDepth when non-zero; unbounded otherwise.
	triggerDepth    int
	maxTriggerDepth int

	log   *slog.Logger
	idGen IDGenerator
}

// Effect is a zero-argument closure that redoes a tracked evaluation
// and its visible side effect. The same effect instance may be bound
// to many paths.
type Effect func()

// State is a reactive view over a wrapped data graph, optionally
// extended with scope aliases. One State is created per top-level
// binding; Compose derives short-lived children for loop iterations,
// template instantiations and event dispatches.
type State struct {
	id   string
	core *core
	root *Container

	parent  *State
	aliases *aliasTable

	// inner is the set of child states this state owns. Cleanup of
	// this state recursively cleans them up.
	inner map[*State]struct{}

	// innerBindings records, per path, exactly the registry bindings
	// this state contributed, so cleanup can undo precisely that
	// subset of the shared registry.
	innerBindings map[string][]*binding

	finalizers []func()

	dead bool
}

// Option configures state construction.
type Option func(*core)

// WithMaxTriggerDepth sets a ceiling on re-entrant trigger nesting.
// The engine has no cycle detection: an effect that unconditionally
// writes a path it depends on recurses without bound. A non-zero
// ceiling turns that into a TRIGGER_DEPTH_EXCEEDED error instead of
// a stack overflow. Default is 0 (unlimited, matching the reference
// behavior).
func WithMaxTriggerDepth(depth int) Option {
	return func(c *core) {
		c.maxTriggerDepth = depth
	}
}

// WithLogger sets the slog logger used for trigger and scope
// diagnostics. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *core) {
		c.log = log
	}
}

// WithIDGenerator sets the state identifier generator. Tests use
// NewFixedGenerator for deterministic IDs.
func WithIDGenerator(gen IDGenerator) Option {
	return func(c *core) {
		c.idGen = gen
	}
}

// CreateState wraps a host-supplied plain data graph so reads and
// writes are intercepted. One state per top-level binding; multiple
// independent states never share a registry.
//
// The graph is wrapped lazily and in place: nested maps and slices
// are wrapped the first time they are read or attached.
func CreateState(value map[string]any, opts ...Option) *State {
	c := &core{
		registry: newRegistry(),
		log:      slog.Default(),
		idGen:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}

	st := &State{
		id:            c.idGen.Generate(),
		core:          c,
		aliases:       newAliasTable(),
		inner:         make(map[*State]struct{}),
		innerBindings: make(map[string][]*binding),
	}
	st.root = newObjectContainer(c, "", value)

	c.log.Debug("state created", "state_id", st.id)
	return st
}

// ID returns the state's unique identifier.
func (s *State) ID() string { return s.id }

// Root returns the wrapped root container. Collaborators that walk
// the graph directly (rather than through expressions) read and write
// through it so interception still applies.
func (s *State) Root() *Container { return s.root }

// OnCleanup registers a finalizer to run when the state is cleaned
// up. Finalizers run in registration order, after the state's private
// registry bindings are removed and before inner states are cleaned.
func OnCleanup(s *State, fn func()) {
	s.finalizers = append(s.finalizers, fn)
}

// Trigger is the explicit trigger hook for collaborators that perform
// structural changes the wrapping layer cannot see generically, such
// as manually pulsing a synthetic index path after reusing an element
// in place. It fires every effect bound to exactly the given path.
func Trigger(s *State, path string) error {
	if s.dead {
		return evalErrorf(ErrCodeStateDestroyed, "trigger on cleaned-up state %s", s.id)
	}
	return s.core.registry.trigger(s.core, path)
}

// guardLive returns an error if the state has already been cleaned up.
func (s *State) guardLive() error {
	if s.dead {
		return evalErrorf(ErrCodeStateDestroyed, "state %s already cleaned up", s.id)
	}
	return nil
}
