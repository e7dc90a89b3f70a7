// Package expr implements the restricted expression language used by
// reactive bindings: a tokenizer, a recursive-descent parser, and the
// AST both of them agree on.
//
// The grammar is deliberately small and auditable. It covers literals,
// identifiers, member access, calls, the usual arithmetic/comparison/
// logical operators, the ternary, object literals, assignment, and the
// comma sequence. It does NOT cover statements, declarations, loops,
// destructuring, regex literals, or template strings - expressions are
// the whole language.
//
// This package is the foundational layer: it imports nothing else in
// the module and knows nothing about reactive state. Evaluation lives
// in the reactive package.
package expr
