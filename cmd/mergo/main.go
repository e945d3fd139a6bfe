// Command mergo is the CLI front-end for the syntax-aware merge engine:
// "merge" runs a three-way merge on a file (or, when LEFT is a directory, a
// tree of files filtered by --include/--exclude) across base/left/right
// revisions, and "solve"
// re-resolves the conflicts left in a file by a previous (possibly
// line-based) merge.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/mergo/internal/logx"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(-1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mergo",
		Short:         "Syntax-aware three-way merge for source code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMergeCmd())
	root.AddCommand(newSolveCmd())
	return root
}

func exitErr(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "mergo: %v\n", err)
	}
	return err
}

func newLogger(verbose bool) *logx.Logger {
	return logx.New(verbose)
}
