// Command reval evaluates restricted-grammar expressions against a
// reactive state container.
//
// Usage:
//
//	reval eval state.yaml "user.name"
//	reval eval state.yaml "count = count + 1" --allow-writes
//	reval deps state.yaml "items.length"
//	reval tokens "a >= 1 && b"
//	reval ast "a.b[0]"
package main

import (
	"os"

	"github.com/roach88/reval/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
