package reactive

import "strings"

// frame accumulates the paths read during one tracked evaluation
// pass, preserving first-seen order.
type frame struct {
	seen  map[string]struct{}
	paths []string
}

func newFrame() *frame {
	return &frame{seen: make(map[string]struct{})}
}

func (f *frame) record(path string) {
	if _, dup := f.seen[path]; dup {
		return
	}
	f.seen[path] = struct{}{}
	f.paths = append(f.paths, path)
}

// captureStack is the per-state stack of capture frames. Only the
// top frame records; nested tracked passes push their own frame so
// an inner evaluation does not pollute the outer one.
type captureStack struct {
	frames []*frame
}

func (s *captureStack) push() *frame {
	f := newFrame()
	s.frames = append(s.frames, f)
	return f
}

func (s *captureStack) pop() *frame {
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

func (s *captureStack) record(path string) {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1].record(path)
}

// extendsAt reports whether long extends short at a '.' or '['
// boundary, i.e. invalidating short already covers long.
func extendsAt(short, long string) bool {
	if len(long) <= len(short) || !strings.HasPrefix(long, short) {
		return false
	}
	switch long[len(short)] {
	case '.', '[':
		return true
	}
	return false
}

// reducePaths drops every recorded path that extends another
// recorded path at a boundary: if a pass read both "user" and
// "user.name", invalidating "user" already covers the longer path,
// so the longer one is dropped. Survivors keep first-seen order.
//
// Interior links of a member chain are never recorded in the first
// place (see the evaluator's base-position reads), so evaluating
// "user.profile.name" yields exactly that one path.
func reducePaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		covered := false
		for _, q := range paths {
			if q != p && extendsAt(q, p) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, p)
		}
	}
	return out
}

// Capture runs fn with a fresh capture frame on the state's capture
// stack and returns the reduced set of paths read during the pass.
// Registering the paths against an effect is the caller's business;
// see Bind and Observe.
func Capture(s *State, fn func() error) ([]string, error) {
	if err := s.guardLive(); err != nil {
		return nil, err
	}

	s.core.capture.push()
	err := fn()
	f := s.core.capture.pop()
	if err != nil {
		return nil, err
	}
	return reducePaths(f.paths), nil
}
