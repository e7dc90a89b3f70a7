package expr

// Node is the sealed interface implemented by every AST variant.
// Only the node types in this file implement it. Nodes are immutable
// once built; Parse constructs a fresh tree per call.
type Node interface {
	node() // sealed
}

// Literal is a number, string, boolean, null or undefined literal.
// Value is float64, string, bool, or nil.
type Literal struct {
	Value any
}

func (*Literal) node() {}

// Identifier is a bare name resolved against the evaluation context.
type Identifier struct {
	Name string
}

func (*Identifier) node() {}

// Member is property access: obj.name or obj[expr].
//
// For dotted access Computed is false and Property is a *Literal
// holding the property name as a string. For bracketed access
// Computed is true and Property is an arbitrary expression.
type Member struct {
	Object   Node
	Property Node
	Computed bool
}

func (*Member) node() {}

// Call is a function invocation. When Callee is a *Member, the
// member's object doubles as the receiver - the evaluator derives
// this structurally, there is no separate receiver field.
type Call struct {
	Callee Node
	Args   []Node
}

func (*Call) node() {}

// Binary is an infix operation: arithmetic, comparison, equality,
// or short-circuit logical.
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

func (*Binary) node() {}

// Unary is a prefix operation: ! - +
type Unary struct {
	Op      string
	Operand Node
}

func (*Unary) node() {}

// Ternary is cond ? then : else. Both branches are right-associative.
type Ternary struct {
	Cond Node
	Then Node
	Else Node
}

func (*Ternary) node() {}

// ObjectEntry is one key/value pair of an object literal. Keys are
// always plain strings; shorthand {key} desugars to {key: key} at
// parse time.
type ObjectEntry struct {
	Key   string
	Value Node
}

// ObjectLiteral is {key: expr, ...} with entries in source order.
type ObjectLiteral struct {
	Entries []ObjectEntry
}

func (*ObjectLiteral) node() {}

// Assign is target = value, right-associative. Target is restricted
// to *Identifier or *Member by the parser.
type Assign struct {
	Target Node
	Value  Node
}

func (*Assign) node() {}

// Sequence is a comma expression: every sub-expression is evaluated,
// the last value is the result.
type Sequence struct {
	Exprs []Node
}

func (*Sequence) node() {}
