package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reval/reactive"
)

// DepsResult is the payload emitted by the deps command.
type DepsResult struct {
	Expr  string   `json:"expr"`
	Paths []string `json:"paths"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps <state-file> <expr>",
		Short: "Show the dependency paths an expression reads",
		Long: `Evaluate an expression in a tracked read-only pass and print the
reduced set of state paths it depends on. These are the paths a
binding on the expression would re-run for.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(rootOpts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runDeps(rootOpts *RootOptions, statePath, src string, cmd *cobra.Command) error {
	formatter := NewFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	state, err := LoadStateFile(statePath)
	if err != nil {
		return outputStateError(formatter, err)
	}

	st := reactive.CreateState(state)
	paths, err := reactive.Capture(st, func() error {
		_, evalErr := reactive.Evaluate(st, src, false)
		return evalErr
	})
	if err != nil {
		return outputEvalError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(&DepsResult{Expr: src, Paths: paths})
	}

	if len(paths) == 0 {
		fmt.Fprintln(formatter.Writer, "(no dependencies)")
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(formatter.Writer, p)
	}
	return nil
}
