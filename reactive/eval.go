package reactive

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/reval/expr"
)

// Func is a host-exposed function value. Hosts place Funcs in the
// state graph (or aliases) to make them callable from expressions.
type Func func(args ...any) any

// Method is a receiver-aware host function value. When invoked as
// a.b(...), the evaluator passes the evaluated a as recv; when
// invoked bare, recv is nil. The receiver is derived structurally
// from the callee's shape - there is no dynamic scoping.
type Method func(recv any, args ...any) any

// arrayMethods are the structural mutation operations intercepted on
// array containers. Reading one as a property records a whole-array
// dependency, same as reading length.
var arrayMethods = map[string]bool{
	"push":    true,
	"pop":     true,
	"shift":   true,
	"unshift": true,
	"splice":  true,
	"sort":    true,
	"reverse": true,
}

// boundArrayMethod is the value produced by reading a mutation-method
// property off an array container.
type boundArrayMethod struct {
	arr  *Container
	name string
}

// Evaluate compiles and walks exprSrc against the state's wrapped
// context. With allowMutation false (display expressions) the
// mutation barrier rejects every write; with allowMutation true
// (event-triggered expressions) writes go through the normal
// intercepted path and trigger dependents before returning.
//
// Capturing and registering dependencies around this call is the
// caller's responsibility; see Capture, Bind and Observe.
func Evaluate(s *State, exprSrc string, allowMutation bool) (any, error) {
	if err := s.guardLive(); err != nil {
		return nil, err
	}

	node, err := expr.Parse(exprSrc)
	if err != nil {
		return nil, err
	}

	// Save/restore rather than set/clear: evaluation is re-entrant
	// (an effect may evaluate while a trigger is in flight).
	prev := s.core.readOnly
	s.core.readOnly = !allowMutation
	defer func() { s.core.readOnly = prev }()

	ev := &evaluator{st: s}
	v, _, err := ev.eval(node, false)
	if err != nil {
		var ee *EvalError
		if errors.As(err, &ee) && ee.Expr == "" {
			ee.Expr = exprSrc
		}
		return nil, err
	}
	return v, nil
}

// evaluator walks one AST against one state. It is created per
// Evaluate call and holds no caches.
type evaluator struct {
	st *State
}

// eval evaluates a node.
//
// base marks base position within a member chain: the read's path is
// not recorded, but returned as the pending path so the enclosing
// member either extends it (container base) or records it verbatim
// (scalar or nullish base - the deepest container access is then the
// real dependency). Terminal reads (base false) record immediately.
func (ev *evaluator) eval(n expr.Node, base bool) (any, string, error) {
	switch node := n.(type) {
	case *expr.Literal:
		return node.Value, "", nil

	case *expr.Identifier:
		return ev.evalIdentifier(node.Name, base)

	case *expr.Member:
		return ev.evalMember(node, base)

	case *expr.Call:
		v, err := ev.evalCall(node)
		return v, "", err

	case *expr.Binary:
		v, err := ev.evalBinary(node)
		return v, "", err

	case *expr.Unary:
		v, err := ev.evalUnary(node)
		return v, "", err

	case *expr.Ternary:
		cond, _, err := ev.eval(node.Cond, false)
		if err != nil {
			return nil, "", err
		}
		if truthy(cond) {
			v, _, err := ev.eval(node.Then, false)
			return v, "", err
		}
		v, _, err := ev.eval(node.Else, false)
		return v, "", err

	case *expr.ObjectLiteral:
		obj := make(map[string]any, len(node.Entries))
		for _, entry := range node.Entries {
			v, _, err := ev.eval(entry.Value, false)
			if err != nil {
				return nil, "", err
			}
			obj[entry.Key] = v
		}
		return obj, "", nil

	case *expr.Assign:
		v, err := ev.evalAssign(node)
		return v, "", err

	case *expr.Sequence:
		var last any
		for _, sub := range node.Exprs {
			v, _, err := ev.eval(sub, false)
			if err != nil {
				return nil, "", err
			}
			last = v
		}
		return last, "", nil
	}

	return nil, "", evalErrorf(ErrCodeNotIndexable, "unknown node type %T", n)
}

// evalIdentifier resolves a bare name: scope aliases first, then the
// root container. A string-valued alias is itself an expression,
// re-evaluated against this same composed state; a non-string alias
// is returned verbatim. Missing names read as nil (undefined).
func (ev *evaluator) evalIdentifier(name string, base bool) (any, string, error) {
	if alias, ok := ev.st.aliases.get(name); ok {
		if src, isExpr := alias.(string); isExpr {
			node, err := expr.Parse(src)
			if err != nil {
				return nil, "", fmt.Errorf("alias %q: %w", name, err)
			}
			return ev.eval(node, base)
		}
		return alias, "", nil
	}

	path := name
	if base {
		return ev.st.root.getQuiet(name), path, nil
	}
	ev.st.core.capture.record(path)
	return ev.st.root.getQuiet(name), "", nil
}

// evalMember evaluates property access with null propagation on a
// nullish base and a NOT_INDEXABLE error on scalar bases that have
// no such property semantics.
func (ev *evaluator) evalMember(m *expr.Member, base bool) (any, string, error) {
	baseVal, pending, err := ev.eval(m.Object, true)
	if err != nil {
		return nil, "", err
	}

	prop, _, err := ev.evalProperty(m)
	if err != nil {
		return nil, "", err
	}

	switch bv := baseVal.(type) {
	case nil:
		// Null-propagating: the deepest container access is still
		// the dependency - when it becomes non-null, re-run.
		ev.recordPending(pending, base)
		return nil, pending, nil

	case *Container:
		return ev.containerMember(bv, prop, base)

	case string:
		ev.recordPending(pending, base)
		return stringMember(bv, prop), pending, nil

	case map[string]any:
		// Object-literal result: plain read, nothing to track.
		if key, ok := prop.(string); ok {
			return bv[key], "", nil
		}
		return bv[toPropertyKey(prop)], "", nil

	default:
		return nil, "", evalErrorf(ErrCodeNotIndexable, "cannot read property %v of %s", prop, typeName(baseVal))
	}
}

// evalProperty resolves the property key: dotted access carries the
// name as a literal, computed access evaluates the index expression
// as an ordinary (recorded) read.
func (ev *evaluator) evalProperty(m *expr.Member) (any, string, error) {
	if !m.Computed {
		lit, ok := m.Property.(*expr.Literal)
		if !ok {
			return nil, "", evalErrorf(ErrCodeNotIndexable, "malformed member property %T", m.Property)
		}
		return lit.Value, "", nil
	}
	return ev.eval(m.Property, false)
}

// recordPending records a suppressed base-position path, unless this
// member is itself in base position (then the caller inherits it).
func (ev *evaluator) recordPending(pending string, base bool) {
	if !base && pending != "" {
		ev.st.core.capture.record(pending)
	}
}

// containerMember reads a property off a wrapped container.
func (ev *evaluator) containerMember(c *Container, prop any, base bool) (any, string, error) {
	if c.isArray {
		switch key := prop.(type) {
		case float64:
			return ev.containerRead(c, joinIndex(c.path, int(key)), func() any {
				return c.indexQuiet(int(key))
			}, base)
		case string:
			if key == "length" {
				// Whole-array dependency: any structural change
				// invalidates the length.
				ev.recordPending(c.path, base)
				return float64(c.rawLen()), c.path, nil
			}
			if arrayMethods[key] {
				ev.recordPending(c.path, base)
				return boundArrayMethod{arr: c, name: key}, c.path, nil
			}
			return nil, "", nil
		default:
			return nil, "", nil
		}
	}

	key := toPropertyKey(prop)
	return ev.containerRead(c, joinKey(c.path, key), func() any {
		return c.getQuiet(key)
	}, base)
}

func (ev *evaluator) containerRead(c *Container, path string, read func() any, base bool) (any, string, error) {
	if base {
		return read(), path, nil
	}
	ev.st.core.capture.record(path)
	return read(), "", nil
}

// stringMember supports length on strings; other properties read as
// undefined.
func stringMember(s string, prop any) any {
	if key, ok := prop.(string); ok && key == "length" {
		return float64(len(s))
	}
	return nil
}

// evalCall evaluates a call. If the callee is a member expression,
// its object is evaluated once and passed as the receiver; otherwise
// there is no receiver.
func (ev *evaluator) evalCall(call *expr.Call) (any, error) {
	var callee any
	var recv any
	var err error

	if member, ok := call.Callee.(*expr.Member); ok {
		recv, _, err = ev.eval(member.Object, true)
		if err != nil {
			return nil, err
		}
		prop, _, perr := ev.evalProperty(member)
		if perr != nil {
			return nil, perr
		}
		callee, err = ev.memberCallee(recv, prop)
		if err != nil {
			return nil, err
		}
	} else {
		callee, _, err = ev.eval(call.Callee, false)
		if err != nil {
			return nil, err
		}
	}

	args := make([]any, 0, len(call.Args))
	for _, argNode := range call.Args {
		arg, _, aerr := ev.eval(argNode, false)
		if aerr != nil {
			return nil, aerr
		}
		args = append(args, arg)
	}

	return ev.invoke(callee, recv, args)
}

// memberCallee resolves the method slot of a call receiver, recording
// the method path as the dependency.
func (ev *evaluator) memberCallee(recv any, prop any) (any, error) {
	switch base := recv.(type) {
	case nil:
		return nil, nil
	case *Container:
		v, _, err := ev.containerMember(base, prop, false)
		return v, err
	case map[string]any:
		return base[toPropertyKey(prop)], nil
	default:
		return nil, evalErrorf(ErrCodeNotIndexable, "cannot read property %v of %s", prop, typeName(recv))
	}
}

// invoke calls a resolved callee value. Anything that is not an
// invokable value fails with NOT_INVOKABLE.
func (ev *evaluator) invoke(callee, recv any, args []any) (any, error) {
	switch fn := callee.(type) {
	case boundArrayMethod:
		return ev.invokeArrayMethod(fn, args)
	case Func:
		return fn(args...), nil
	case Method:
		return fn(recv, args...), nil
	case func(args ...any) any:
		return fn(args...), nil
	default:
		return nil, evalErrorf(ErrCodeNotInvokable, "%s is not invokable", typeName(callee))
	}
}

func (ev *evaluator) invokeArrayMethod(m boundArrayMethod, args []any) (any, error) {
	switch m.name {
	case "push":
		n, err := m.arr.Push(args...)
		return float64(n), err
	case "pop":
		return m.arr.Pop()
	case "shift":
		return m.arr.Shift()
	case "unshift":
		n, err := m.arr.Unshift(args...)
		return float64(n), err
	case "splice":
		start, count := 0, 0
		if len(args) > 0 {
			start = toIndex(args[0])
		}
		if len(args) > 1 {
			count = toIndex(args[1])
		} else if len(args) == 1 {
			count = m.arr.rawLen()
		}
		var items []any
		if len(args) > 2 {
			items = args[2:]
		}
		removed, err := m.arr.Splice(start, count, items...)
		return removed, err
	case "sort":
		return m.arr.Sort()
	case "reverse":
		return m.arr.Reverse()
	}
	return nil, evalErrorf(ErrCodeNotInvokable, "unknown array method %q", m.name)
}

// evalAssign writes through the context's own interception: resolving
// the target never records dependencies, and the write triggers the
// registry before the assignment expression returns its value.
func (ev *evaluator) evalAssign(a *expr.Assign) (any, error) {
	value, _, err := ev.eval(a.Value, false)
	if err != nil {
		return nil, err
	}

	target, err := ev.resolveTarget(a.Target)
	if err != nil {
		return nil, err
	}
	if err := target.write(value); err != nil {
		return nil, err
	}
	return value, nil
}

// writeTarget is a resolved assignment slot: a container plus either
// a property key or an element index.
type writeTarget struct {
	c       *Container
	key     string
	idx     int
	isIndex bool
}

func (t writeTarget) write(v any) error {
	if t.isIndex {
		return t.c.SetIndex(t.idx, v)
	}
	return t.c.Set(t.key, v)
}

// resolveTarget resolves an identifier or member LHS to its parent
// container and final key. String aliases chain: assigning through
// an alias writes to the location the alias expression names.
func (ev *evaluator) resolveTarget(n expr.Node) (writeTarget, error) {
	switch node := n.(type) {
	case *expr.Identifier:
		if alias, ok := ev.st.aliases.get(node.Name); ok {
			src, isExpr := alias.(string)
			if !isExpr {
				return writeTarget{}, evalErrorf(ErrCodeBadAssignTarget, "alias %q is not an assignable location", node.Name)
			}
			aliasNode, err := expr.Parse(src)
			if err != nil {
				return writeTarget{}, fmt.Errorf("alias %q: %w", node.Name, err)
			}
			switch aliasNode.(type) {
			case *expr.Identifier, *expr.Member:
				return ev.resolveTarget(aliasNode)
			default:
				return writeTarget{}, evalErrorf(ErrCodeBadAssignTarget, "alias %q does not name a location", node.Name)
			}
		}
		return writeTarget{c: ev.st.root, key: node.Name}, nil

	case *expr.Member:
		baseVal, _, err := ev.eval(node.Object, true)
		if err != nil {
			return writeTarget{}, err
		}
		prop, _, err := ev.evalProperty(node)
		if err != nil {
			return writeTarget{}, err
		}

		c, ok := baseVal.(*Container)
		if !ok {
			return writeTarget{}, evalErrorf(ErrCodeNotIndexable, "cannot assign property %v of %s", prop, typeName(baseVal))
		}
		if c.isArray {
			idx, isNum := prop.(float64)
			if !isNum {
				return writeTarget{}, evalErrorf(ErrCodeBadAssignTarget, "array index must be a number, got %s", typeName(prop))
			}
			return writeTarget{c: c, idx: int(idx), isIndex: true}, nil
		}
		return writeTarget{c: c, key: toPropertyKey(prop)}, nil
	}

	return writeTarget{}, evalErrorf(ErrCodeBadAssignTarget, "%T is not an assignable target", n)
}

// ---- operator semantics ----
//
// Full native operator behavior: string + concatenates, == and != are
// loose, && and || short-circuit and return the operand unconverted.

func (ev *evaluator) evalBinary(b *expr.Binary) (any, error) {
	// Short-circuit forms evaluate the right side conditionally.
	switch b.Op {
	case "&&":
		left, _, err := ev.eval(b.Left, false)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return left, nil
		}
		right, _, err := ev.eval(b.Right, false)
		return right, err

	case "||":
		left, _, err := ev.eval(b.Left, false)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return left, nil
		}
		right, _, err := ev.eval(b.Right, false)
		return right, err
	}

	left, _, err := ev.eval(b.Left, false)
	if err != nil {
		return nil, err
	}
	right, _, err := ev.eval(b.Right, false)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case "+":
		return addValues(left, right), nil
	case "-":
		return toNumber(left) - toNumber(right), nil
	case "*":
		return toNumber(left) * toNumber(right), nil
	case "/":
		return toNumber(left) / toNumber(right), nil
	case "%":
		return math.Mod(toNumber(left), toNumber(right)), nil
	case "==":
		return looseEq(left, right), nil
	case "!=":
		return !looseEq(left, right), nil
	case "===":
		return strictEq(left, right), nil
	case "!==":
		return !strictEq(left, right), nil
	case ">":
		cmp, ok := compareValues(left, right)
		return ok && cmp > 0, nil
	case "<":
		cmp, ok := compareValues(left, right)
		return ok && cmp < 0, nil
	case ">=":
		cmp, ok := compareValues(left, right)
		return ok && cmp >= 0, nil
	case "<=":
		cmp, ok := compareValues(left, right)
		return ok && cmp <= 0, nil
	}
	return nil, evalErrorf(ErrCodeNotInvokable, "unknown operator %q", b.Op)
}

func (ev *evaluator) evalUnary(u *expr.Unary) (any, error) {
	operand, _, err := ev.eval(u.Operand, false)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case "!":
		return !truthy(operand), nil
	case "-":
		return -toNumber(operand), nil
	case "+":
		return toNumber(operand), nil
	}
	return nil, evalErrorf(ErrCodeNotInvokable, "unknown unary operator %q", u.Op)
}

// truthy follows source-language truthiness: false, zero, empty
// string and nil are false; everything else, containers included,
// is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// toNumber coerces a value for arithmetic: numbers pass through,
// booleans become 0/1, nil and blank strings are 0, numeric strings
// parse. Everything non-coercible is NaN, so comparisons against it
// come out false the way native semantics require.
func toNumber(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		return math.NaN()
	case int:
		return float64(val)
	case int64:
		return float64(val)
	default:
		return math.NaN()
	}
}

// toIndex coerces an argument to an array index. NaN becomes 0 rather
// than going through a float-to-int conversion of NaN, which Go leaves
// unspecified.
func toIndex(v any) int {
	f := toNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// addValues implements +: concatenation when either side is a
// string, numeric addition otherwise.
func addValues(left, right any) any {
	if ls, ok := left.(string); ok {
		return ls + displayString(right)
	}
	if rs, ok := right.(string); ok {
		return displayString(left) + rs
	}
	return toNumber(left) + toNumber(right)
}

// looseEq is loose equality: nils are equal to each other, strings
// compare as strings, mixed scalars compare numerically, containers
// compare by identity.
func looseEq(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lc, ok := left.(*Container); ok {
		return lc == right
	}
	if rc, ok := right.(*Container); ok {
		return rc == left
	}
	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	if lIsStr && rIsStr {
		return ls == rs
	}
	return toNumber(left) == toNumber(right)
}

// strictEq is strict equality: same type, same value; containers by
// identity.
func strictEq(left, right any) bool {
	switch lv := left.(type) {
	case nil:
		return right == nil
	case bool:
		rv, ok := right.(bool)
		return ok && lv == rv
	case float64:
		rv, ok := right.(float64)
		return ok && lv == rv
	case string:
		rv, ok := right.(string)
		return ok && lv == rv
	case *Container:
		return left == right
	default:
		return false
	}
}

// compareValues orders two values: string/string lexically, anything
// else numerically. Returns -1, 0 or 1, with ok false when either
// side coerces to NaN; every relational comparison involving NaN is
// false.
func compareValues(left, right any) (int, bool) {
	ls, lIsStr := left.(string)
	rs, rIsStr := right.(string)
	if lIsStr && rIsStr {
		switch {
		case ls < rs:
			return -1, true
		case ls > rs:
			return 1, true
		default:
			return 0, true
		}
	}
	ln, rn := toNumber(left), toNumber(right)
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return 0, false
	}
	switch {
	case ln < rn:
		return -1, true
	case ln > rn:
		return 1, true
	default:
		return 0, true
	}
}

// toPropertyKey converts a computed property value to a string key.
func toPropertyKey(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// typeName names a value's type for error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Container:
		return "container"
	case map[string]any:
		return "object"
	case Func, Method, boundArrayMethod:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}
