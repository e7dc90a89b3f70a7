package reactive

import (
	"fmt"
	"sort"
	"strconv"
)

// Container interposes get/set accessors in front of a plain map or
// slice so reads feed the capture stack and writes feed the registry.
// It never owns the underlying value; the root still does.
//
// Wrapping is recursive and lazy: a nested map or slice is wrapped
// the first time it is read or attached, and the wrapper is stored
// back in place of the plain value. Because the wrapper itself is
// what subsequent reads see, a value is never double-wrapped and no
// identity side-table is needed to tag wrapped values.
type Container struct {
	core    *core
	path    string
	isArray bool

	obj map[string]any // set when !isArray
	arr []any          // set when isArray
}

// joinKey appends a dotted property segment to a path.
func joinKey(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// joinIndex appends a bracketed index segment to a path.
func joinIndex(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func newObjectContainer(c *core, path string, m map[string]any) *Container {
	if m == nil {
		m = make(map[string]any)
	}
	return &Container{core: c, path: path, obj: m}
}

func newArrayContainer(c *core, path string, s []any) *Container {
	return &Container{core: c, path: path, isArray: true, arr: s}
}

// wrapValue wraps a plain map or slice in a Container at the given
// path. Already-wrapped values and non-container values pass through
// unchanged.
func wrapValue(c *core, path string, v any) any {
	switch val := v.(type) {
	case *Container:
		return val
	case map[string]any:
		return newObjectContainer(c, path, val)
	case []any:
		return newArrayContainer(c, path, val)
	default:
		return v
	}
}

// IsArray reports whether the container wraps a slice.
func (c *Container) IsArray() bool { return c.isArray }

// Path returns the container's fully-qualified path within the graph.
// The root container's path is empty.
func (c *Container) Path() string { return c.path }

// record funnels a read path into the active capture frame, if any.
func (c *Container) record(path string) {
	c.core.capture.record(path)
}

// recordSelf records a dependency on the container's own whole path.
// Array length and mutation-method reads land here: either can be
// invalidated by any structural change, so the whole-array path is
// the right granularity.
func (c *Container) recordSelf() {
	if c.path != "" {
		c.record(c.path)
	}
}

// sameScalar reports whether a write can be skipped as a no-change
// write. Only comparable scalar values are ever considered equal;
// attaching a map, slice or container always counts as a change
// unless it is the identical wrapper.
func sameScalar(old, new any) bool {
	switch new.(type) {
	case nil, bool, float64, string, int, int64:
		switch old.(type) {
		case nil, bool, float64, string, int, int64:
			return old == new
		}
		return false
	case *Container:
		return old == new
	default:
		return false
	}
}

// guardWrite enforces the mutation barrier.
func (c *Container) guardWrite(path string) error {
	if c.core.readOnly {
		return evalErrorf(ErrCodeReadOnlyWrite, "write to %q during read-only evaluation", path)
	}
	return nil
}

// ---- object access ----

// Get reads a property, recording the property path into the active
// capture frame and lazily wrapping nested containers. Missing keys
// read as nil (undefined).
func (c *Container) Get(key string) any {
	c.record(joinKey(c.path, key))
	return c.getQuiet(key)
}

// getQuiet reads a property without recording a dependency. The
// evaluator uses it for base-position reads in a member chain, where
// only the terminal full path is a dependency, and records the
// terminal path itself.
func (c *Container) getQuiet(key string) any {
	v, ok := c.obj[key]
	if !ok {
		return nil
	}
	path := joinKey(c.path, key)
	w := wrapValue(c.core, path, v)
	if _, raw := v.(*Container); !raw {
		c.obj[key] = w
	}
	return w
}

// Has reports whether the property exists, without recording a
// dependency.
func (c *Container) Has(key string) bool {
	_, ok := c.obj[key]
	return ok
}

// Set writes a property through the interception path: the mutation
// barrier is checked, unchanged scalar writes are skipped, attached
// containers are wrapped, and effects bound to exactly the property
// path fire before Set returns.
//
// Replacing a whole container fires only the property's own path; it
// does not re-fire paths registered under the old value's children.
// Consumers needing child-level precision re-subscribe at the new
// granularity themselves.
func (c *Container) Set(key string, value any) error {
	path := joinKey(c.path, key)
	if err := c.guardWrite(path); err != nil {
		return err
	}

	old, had := c.obj[key]
	if had && sameScalar(old, value) {
		return nil
	}

	c.obj[key] = wrapValue(c.core, path, value)
	return c.core.registry.trigger(c.core, path)
}

// Keys returns the object's keys in sorted order, without recording
// a dependency. Used by diagnostic surfaces.
func (c *Container) Keys() []string {
	keys := make([]string, 0, len(c.obj))
	for k := range c.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- array access ----

// Index reads an element, recording the element path. Out-of-range
// reads are nil (undefined), matching source-language semantics.
func (c *Container) Index(i int) any {
	c.record(joinIndex(c.path, i))
	return c.indexQuiet(i)
}

// indexQuiet reads an element without recording a dependency.
func (c *Container) indexQuiet(i int) any {
	if i < 0 || i >= len(c.arr) {
		return nil
	}
	path := joinIndex(c.path, i)
	v := c.arr[i]
	w := wrapValue(c.core, path, v)
	if _, raw := v.(*Container); !raw {
		c.arr[i] = w
	}
	return w
}

// SetIndex writes an element through the interception path. Writing
// past the end grows the array with nils first, firing the whole
// array path for the structural change and the element path for the
// value.
func (c *Container) SetIndex(i int, value any) error {
	path := joinIndex(c.path, i)
	if err := c.guardWrite(path); err != nil {
		return err
	}
	if i < 0 {
		return evalErrorf(ErrCodeNotIndexable, "negative index %d on %q", i, c.path)
	}

	grew := false
	for i >= len(c.arr) {
		c.arr = append(c.arr, nil)
		grew = true
	}

	if !grew && sameScalar(c.arr[i], value) {
		return nil
	}
	c.arr[i] = wrapValue(c.core, path, value)

	if grew {
		if err := c.triggerSelf(); err != nil {
			return err
		}
	}
	return c.core.registry.trigger(c.core, path)
}

// Len returns the array length, recording a whole-array dependency.
func (c *Container) Len() int {
	c.recordSelf()
	return len(c.arr)
}

// rawLen returns the length without recording a dependency.
func (c *Container) rawLen() int { return len(c.arr) }

func (c *Container) triggerSelf() error {
	if c.path == "" {
		return nil
	}
	return c.core.registry.trigger(c.core, c.path)
}

// rewrapElements re-wraps every element at its (possibly new) index
// after a structural mutation. Wrappers that moved have their paths
// relocated recursively; plain containers get wrapped fresh.
func (c *Container) rewrapElements() {
	for i, v := range c.arr {
		path := joinIndex(c.path, i)
		switch val := v.(type) {
		case *Container:
			if val.path != path {
				val.relocate(path)
			}
		case map[string]any, []any:
			c.arr[i] = wrapValue(c.core, path, v)
		}
	}
}

// relocate rewires the container's path (and its wrapped children's
// paths) after its position in the graph changed.
func (c *Container) relocate(path string) {
	c.path = path
	if c.isArray {
		for i, v := range c.arr {
			if child, ok := v.(*Container); ok {
				child.relocate(joinIndex(path, i))
			}
		}
		return
	}
	for k, v := range c.obj {
		if child, ok := v.(*Container); ok {
			child.relocate(joinKey(path, k))
		}
	}
}

// ---- structural array mutations ----
//
// Every structural operation delegates to the underlying slice, then
// re-wraps elements at their new indexes and fires the whole-array
// path exactly once - never once per shifted element.

// Push appends elements and returns the new length.
func (c *Container) Push(items ...any) (int, error) {
	if err := c.guardWrite(c.path); err != nil {
		return 0, err
	}
	c.arr = append(c.arr, items...)
	c.rewrapElements()
	return len(c.arr), c.triggerSelf()
}

// Pop removes and returns the last element (nil if empty).
func (c *Container) Pop() (any, error) {
	if err := c.guardWrite(c.path); err != nil {
		return nil, err
	}
	if len(c.arr) == 0 {
		return nil, nil
	}
	last := c.arr[len(c.arr)-1]
	c.arr = c.arr[:len(c.arr)-1]
	c.rewrapElements()
	return last, c.triggerSelf()
}

// Shift removes and returns the first element (nil if empty).
func (c *Container) Shift() (any, error) {
	if err := c.guardWrite(c.path); err != nil {
		return nil, err
	}
	if len(c.arr) == 0 {
		return nil, nil
	}
	first := c.arr[0]
	c.arr = append([]any{}, c.arr[1:]...)
	c.rewrapElements()
	return first, c.triggerSelf()
}

// Unshift prepends elements and returns the new length.
func (c *Container) Unshift(items ...any) (int, error) {
	if err := c.guardWrite(c.path); err != nil {
		return 0, err
	}
	c.arr = append(append([]any{}, items...), c.arr...)
	c.rewrapElements()
	return len(c.arr), c.triggerSelf()
}

// Splice removes deleteCount elements starting at start, inserts the
// given items in their place, and returns the removed elements.
// Negative start counts from the end.
func (c *Container) Splice(start, deleteCount int, items ...any) ([]any, error) {
	if err := c.guardWrite(c.path); err != nil {
		return nil, err
	}

	n := len(c.arr)
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := append([]any{}, c.arr[start:start+deleteCount]...)

	tail := append([]any{}, c.arr[start+deleteCount:]...)
	c.arr = append(c.arr[:start], append(append([]any{}, items...), tail...)...)
	c.rewrapElements()
	return removed, c.triggerSelf()
}

// Reverse reverses the array in place and returns the container.
func (c *Container) Reverse() (*Container, error) {
	if err := c.guardWrite(c.path); err != nil {
		return nil, err
	}
	for i, j := 0, len(c.arr)-1; i < j; i, j = i+1, j-1 {
		c.arr[i], c.arr[j] = c.arr[j], c.arr[i]
	}
	c.rewrapElements()
	return c, c.triggerSelf()
}

// Sort sorts the array in place by string form (source-language
// default sort semantics) and returns the container.
func (c *Container) Sort() (*Container, error) {
	if err := c.guardWrite(c.path); err != nil {
		return nil, err
	}
	sort.SliceStable(c.arr, func(i, j int) bool {
		return displayString(c.arr[i]) < displayString(c.arr[j])
	})
	c.rewrapElements()
	return c, c.triggerSelf()
}

// ---- export ----

// Plain returns the underlying value as a plain Go graph with all
// wrappers stripped, for hosts that need to serialize or inspect the
// final state. No dependencies are recorded.
func (c *Container) Plain() any {
	if c.isArray {
		out := make([]any, len(c.arr))
		for i, v := range c.arr {
			out[i] = plainValue(v)
		}
		return out
	}
	out := make(map[string]any, len(c.obj))
	for k, v := range c.obj {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	if child, ok := v.(*Container); ok {
		return child.Plain()
	}
	return v
}

// displayString renders a value the way the evaluator's string
// concatenation does.
func displayString(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case *Container:
		if val.isArray {
			return fmt.Sprintf("[array %d]", len(val.arr))
		}
		return "[object]"
	default:
		return fmt.Sprintf("%v", val)
	}
}
