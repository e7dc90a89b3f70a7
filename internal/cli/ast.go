package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reval/expr"
)

// NewASTCommand creates the ast command.
func NewASTCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ast <expr>",
		Short:         "Parse an expression and dump its syntax tree",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runAST(rootOpts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := NewFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	node, err := expr.Parse(src)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	dump := dumpNode(node)
	if formatter.Format == "json" {
		return formatter.Success(dump)
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding syntax tree", err)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}

// dumpNode converts a syntax tree into a kind-tagged structure that
// survives JSON encoding; the node types themselves carry no type tag.
func dumpNode(n expr.Node) map[string]any {
	switch node := n.(type) {
	case *expr.Literal:
		return map[string]any{"kind": "literal", "value": node.Value}
	case *expr.Identifier:
		return map[string]any{"kind": "identifier", "name": node.Name}
	case *expr.Member:
		return map[string]any{
			"kind":     "member",
			"object":   dumpNode(node.Object),
			"property": dumpNode(node.Property),
			"computed": node.Computed,
		}
	case *expr.Call:
		args := make([]any, len(node.Args))
		for i, arg := range node.Args {
			args[i] = dumpNode(arg)
		}
		return map[string]any{"kind": "call", "callee": dumpNode(node.Callee), "args": args}
	case *expr.Binary:
		return map[string]any{
			"kind":  "binary",
			"op":    node.Op,
			"left":  dumpNode(node.Left),
			"right": dumpNode(node.Right),
		}
	case *expr.Unary:
		return map[string]any{"kind": "unary", "op": node.Op, "operand": dumpNode(node.Operand)}
	case *expr.Ternary:
		return map[string]any{
			"kind": "ternary",
			"cond": dumpNode(node.Cond),
			"then": dumpNode(node.Then),
			"else": dumpNode(node.Else),
		}
	case *expr.ObjectLiteral:
		entries := make([]any, len(node.Entries))
		for i, entry := range node.Entries {
			entries[i] = map[string]any{"key": entry.Key, "value": dumpNode(entry.Value)}
		}
		return map[string]any{"kind": "object", "entries": entries}
	case *expr.Assign:
		return map[string]any{
			"kind":   "assign",
			"target": dumpNode(node.Target),
			"value":  dumpNode(node.Value),
		}
	case *expr.Sequence:
		exprs := make([]any, len(node.Exprs))
		for i, e := range node.Exprs {
			exprs[i] = dumpNode(e)
		}
		return map[string]any{"kind": "sequence", "exprs": exprs}
	default:
		return map[string]any{"kind": fmt.Sprintf("%T", n)}
	}
}
