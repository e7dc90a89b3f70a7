package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/reval/expr"
	"github.com/roach88/reval/reactive"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	AllowWrites bool
	ShowDeps    bool
}

// EvalResult is the payload emitted for a successful evaluation.
type EvalResult struct {
	Value any      `json:"value"`
	Deps  []string `json:"deps,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <state-file> <expr>",
		Short: "Evaluate an expression against a state file",
		Long: `Evaluate a restricted-grammar expression against a YAML state file.

Reads are tracked; writes are rejected unless --allow-writes is set.
With --deps the captured dependency paths are printed alongside the
result.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AllowWrites, "allow-writes", false, "permit assignments and array mutation")
	cmd.Flags().BoolVar(&opts.ShowDeps, "deps", false, "print captured dependency paths")

	return cmd
}

func runEval(opts *EvalOptions, statePath, src string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	state, err := LoadStateFile(statePath)
	if err != nil {
		return outputStateError(formatter, err)
	}
	formatter.VerboseLog("Loaded state from %s (%d top-level key(s))", statePath, len(state))

	st := reactive.CreateState(state)

	var value any
	var deps []string
	if opts.ShowDeps {
		deps, err = reactive.Capture(st, func() error {
			var evalErr error
			value, evalErr = reactive.Evaluate(st, src, opts.AllowWrites)
			return evalErr
		})
	} else {
		value, err = reactive.Evaluate(st, src, opts.AllowWrites)
	}
	if err != nil {
		return outputEvalError(formatter, err)
	}

	result := &EvalResult{Value: plainValue(value), Deps: deps}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, formatScalar(result.Value))
	if opts.ShowDeps {
		if len(deps) == 0 {
			fmt.Fprintln(formatter.Writer, "deps: (none)")
		} else {
			fmt.Fprintf(formatter.Writer, "deps: %v\n", deps)
		}
	}
	return nil
}

// plainValue strips container wrappers so results serialize cleanly.
func plainValue(v any) any {
	if c, ok := v.(*reactive.Container); ok {
		return c.Plain()
	}
	return v
}

// formatScalar renders an evaluation result the way the expression
// language displays values: integral floats without a fraction, null
// for nil.
func formatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

func outputStateError(formatter *OutputFormatter, err error) error {
	var se *StateError
	if errors.As(err, &se) {
		_ = formatter.Error(se.Code, se.Message, nil)
		return WrapExitError(ExitCommandError, se.Message, err)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, err.Error(), err)
}

func outputEvalError(formatter *OutputFormatter, err error) error {
	code := ErrCodeEvalFailed
	details := any(nil)

	var lexErr *expr.LexError
	var synErr *expr.SyntaxError
	var evalErr *reactive.EvalError
	switch {
	case errors.As(err, &lexErr):
		code = ErrCodeParseFailed
		details = map[string]any{"pos": lexErr.Pos}
	case errors.As(err, &synErr):
		code = ErrCodeParseFailed
		details = map[string]any{"pos": synErr.Got.Pos}
	case errors.As(err, &evalErr):
		details = map[string]any{"eval_code": string(evalErr.Code), "expr": evalErr.Expr}
	}

	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, err.Error(), err)
}
