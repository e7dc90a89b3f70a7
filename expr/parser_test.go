package expr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustParse parses or fails the test.
func mustParse(t *testing.T, src string) Node {
	t.Helper()
	node, err := Parse(src)
	require.NoError(t, err, "parse %q", src)
	return node
}

// assertAST compares a parsed expression against an expected tree.
func assertAST(t *testing.T, src string, expected Node) {
	t.Helper()
	got := mustParse(t, src)
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("AST mismatch for %q (-want +got):\n%s", src, diff)
	}
}

func TestParse_Literals(t *testing.T) {
	testCases := []struct {
		src   string
		value any
	}{
		{"42", 42.0},
		{"'hi'", "hi"},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"undefined", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			assertAST(t, tc.src, &Literal{Value: tc.value})
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	// 2 + 3 * 4 groups the multiplication tighter.
	assertAST(t, "2 + 3 * 4", &Binary{
		Op:   "+",
		Left: &Literal{Value: 2.0},
		Right: &Binary{
			Op:    "*",
			Left:  &Literal{Value: 3.0},
			Right: &Literal{Value: 4.0},
		},
	})

	// Parens override.
	assertAST(t, "(2 + 3) * 4", &Binary{
		Op: "*",
		Left: &Binary{
			Op:    "+",
			Left:  &Literal{Value: 2.0},
			Right: &Literal{Value: 3.0},
		},
		Right: &Literal{Value: 4.0},
	})
}

func TestParse_ComparisonBindsLooserThanAdditive(t *testing.T) {
	assertAST(t, "a + 1 > b", &Binary{
		Op: ">",
		Left: &Binary{
			Op:    "+",
			Left:  &Identifier{Name: "a"},
			Right: &Literal{Value: 1.0},
		},
		Right: &Identifier{Name: "b"},
	})
}

func TestParse_LogicalPrecedence(t *testing.T) {
	// && binds tighter than ||.
	assertAST(t, "a || b && c", &Binary{
		Op:   "||",
		Left: &Identifier{Name: "a"},
		Right: &Binary{
			Op:    "&&",
			Left:  &Identifier{Name: "b"},
			Right: &Identifier{Name: "c"},
		},
	})
}

func TestParse_TernaryRightAssociative(t *testing.T) {
	// a ? b : c ? d : e groups as a ? b : (c ? d : e).
	assertAST(t, "a ? b : c ? d : e", &Ternary{
		Cond: &Identifier{Name: "a"},
		Then: &Identifier{Name: "b"},
		Else: &Ternary{
			Cond: &Identifier{Name: "c"},
			Then: &Identifier{Name: "d"},
			Else: &Identifier{Name: "e"},
		},
	})
}

func TestParse_AssignmentRightAssociative(t *testing.T) {
	assertAST(t, "a = b = 1", &Assign{
		Target: &Identifier{Name: "a"},
		Value: &Assign{
			Target: &Identifier{Name: "b"},
			Value:  &Literal{Value: 1.0},
		},
	})
}

func TestParse_MemberChain(t *testing.T) {
	assertAST(t, "items[2].name", &Member{
		Object: &Member{
			Object:   &Identifier{Name: "items"},
			Property: &Literal{Value: 2.0},
			Computed: true,
		},
		Property: &Literal{Value: "name"},
	})
}

func TestParse_CallReceiverIsStructural(t *testing.T) {
	// a.b(c): the callee is a member expression; the evaluator
	// derives the receiver from its object, no extra AST shape.
	assertAST(t, "a.b(c)", &Call{
		Callee: &Member{
			Object:   &Identifier{Name: "a"},
			Property: &Literal{Value: "b"},
		},
		Args: []Node{&Identifier{Name: "c"}},
	})

	assertAST(t, "f()", &Call{Callee: &Identifier{Name: "f"}})
}

func TestParse_ObjectLiteral(t *testing.T) {
	assertAST(t, "{name: 'Ada', age: 36}", &ObjectLiteral{
		Entries: []ObjectEntry{
			{Key: "name", Value: &Literal{Value: "Ada"}},
			{Key: "age", Value: &Literal{Value: 36.0}},
		},
	})
}

func TestParse_ObjectLiteralShorthand(t *testing.T) {
	assertAST(t, "{name, age: 1}", &ObjectLiteral{
		Entries: []ObjectEntry{
			{Key: "name", Value: &Identifier{Name: "name"}},
			{Key: "age", Value: &Literal{Value: 1.0}},
		},
	})
}

func TestParse_ObjectLiteralStringKey(t *testing.T) {
	assertAST(t, "{'full name': x}", &ObjectLiteral{
		Entries: []ObjectEntry{
			{Key: "full name", Value: &Identifier{Name: "x"}},
		},
	})
}

func TestParse_Sequence(t *testing.T) {
	assertAST(t, "a = 1, b = 2", &Sequence{
		Exprs: []Node{
			&Assign{Target: &Identifier{Name: "a"}, Value: &Literal{Value: 1.0}},
			&Assign{Target: &Identifier{Name: "b"}, Value: &Literal{Value: 2.0}},
		},
	})
}

func TestParse_UnaryChain(t *testing.T) {
	assertAST(t, "!!x", &Unary{
		Op:      "!",
		Operand: &Unary{Op: "!", Operand: &Identifier{Name: "x"}},
	})

	assertAST(t, "-x + 1", &Binary{
		Op:    "+",
		Left:  &Unary{Op: "-", Operand: &Identifier{Name: "x"}},
		Right: &Literal{Value: 1.0},
	})
}

func TestParse_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"dangling operator", "a +"},
		{"missing close paren", "(a + b"},
		{"missing close bracket", "items[0"},
		{"missing ternary colon", "a ? b"},
		{"assign to literal", "1 = 2"},
		{"assign to call", "f() = 2"},
		{"shorthand string key", "{'name'}"},
		{"bad object key", "{1: x}"},
		{"empty expression", ""},
		{"trailing garbage", "a b"},
		{"dot without property", "a."},
		{"dangling comma", "a,"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			require.Error(t, err)
			assert.True(t, IsSyntaxError(err), "want syntax error, got %v", err)
		})
	}
}

func TestParse_SyntaxErrorNamesExpectedAndActual(t *testing.T) {
	_, err := Parse("items[0")
	require.Error(t, err)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "']'", se.Expected)
	assert.Equal(t, EOF, se.Got.Type)
	assert.Contains(t, err.Error(), "expected ']'")
}

func TestParse_EmptyObjectAndArgs(t *testing.T) {
	assertAST(t, "{}", &ObjectLiteral{})
	assertAST(t, "f()", &Call{Callee: &Identifier{Name: "f"}})
}

func TestParse_ParenthesisedSequence(t *testing.T) {
	assertAST(t, "(a, b)", &Sequence{
		Exprs: []Node{&Identifier{Name: "a"}, &Identifier{Name: "b"}},
	})
}
