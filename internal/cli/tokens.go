package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reval/expr"
)

// TokenDump is one token in the JSON token listing.
type TokenDump struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Pos  int    `json:"pos"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tokens <expr>",
		Short:         "Tokenize an expression",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTokens(rootOpts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := NewFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	tokens, err := expr.Tokenize(src)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	if formatter.Format == "json" {
		dump := make([]TokenDump, len(tokens))
		for i, tok := range tokens {
			dump[i] = TokenDump{Type: tok.Type.String(), Text: tok.Text, Pos: tok.Pos}
		}
		return formatter.Success(dump)
	}

	for _, tok := range tokens {
		fmt.Fprintf(formatter.Writer, "%4d  %s\n", tok.Pos, tok)
	}
	return nil
}
