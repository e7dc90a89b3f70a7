package reactive

// Bind registers an effect on a path in the chain's shared registry,
// recording the contribution against this state so Cleanup removes
// exactly this subset later. The same effect may be bound to many
// paths.
func Bind(s *State, path string, effect Effect) error {
	if err := s.guardLive(); err != nil {
		return err
	}

	b := s.core.registry.bind(path, effect, s)
	s.innerBindings[path] = append(s.innerBindings[path], b)
	return nil
}

// Observe is the composed form collaborators use for one-way
// bindings: it evaluates src in a tracked read-only pass, hands the
// value to handler, and binds an effect on every captured path that
// re-evaluates and re-invokes handler on change.
//
// Handler receives the evaluation error, if any, on re-runs; errors
// are never swallowed. Dependencies are captured once, from the
// initial pass.
func Observe(s *State, src string, handler func(value any, err error)) error {
	if err := s.guardLive(); err != nil {
		return err
	}

	var initial any
	paths, err := Capture(s, func() error {
		v, evalErr := Evaluate(s, src, false)
		if evalErr != nil {
			return evalErr
		}
		initial = v
		return nil
	})
	if err != nil {
		return err
	}
	handler(initial, nil)

	effect := func() {
		handler(Evaluate(s, src, false))
	}
	for _, path := range paths {
		if err := Bind(s, path, effect); err != nil {
			return err
		}
	}
	return nil
}
