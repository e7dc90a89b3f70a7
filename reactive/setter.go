package reactive

import (
	"fmt"

	"github.com/roach88/reval/expr"
)

// GetSetter resolves a path or alias to its parent container and
// final key, once, and returns a closure that writes through the
// normal intercepted path - so the write still detects change and
// triggers the registry.
//
// pathOrAlias is an identifier or member expression ("user.name",
// "items[2]", or an alias name introduced by Compose). Aliases chain:
// a setter for "item" with alias item -> "items[0]" writes to
// items[0].
func GetSetter(s *State, pathOrAlias string) (func(value any) error, error) {
	if err := s.guardLive(); err != nil {
		return nil, err
	}

	node, err := expr.Parse(pathOrAlias)
	if err != nil {
		return nil, err
	}
	switch node.(type) {
	case *expr.Identifier, *expr.Member:
		// settable shapes
	default:
		return nil, evalErrorf(ErrCodeBadAssignTarget, "%q does not name a settable location", pathOrAlias)
	}

	ev := &evaluator{st: s}
	target, err := ev.resolveTarget(node)
	if err != nil {
		return nil, fmt.Errorf("resolve setter for %q: %w", pathOrAlias, err)
	}

	return target.write, nil
}
