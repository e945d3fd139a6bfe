package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/mergo/internal/atomicio"
	"github.com/oxhq/mergo/internal/conflictmarker"
	"github.com/oxhq/mergo/internal/linemerge"
	"github.com/oxhq/mergo/internal/mergeerr"
	"github.com/oxhq/mergo/internal/settings"
)

type solveFlags struct {
	output      string
	stdout      bool
	expectDiff3 bool
	markerSize  int
}

func newSolveCmd() *cobra.Command {
	var f solveFlags
	cmd := &cobra.Command{
		Use:   "solve CONFLICTS",
		Short: "Re-resolve the conflicts left in a previously-merged file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitErr(runSolve(cmd, args, f))
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write resolved output to this path instead of CONFLICTS")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "write resolved output to stdout instead of a file")
	cmd.Flags().BoolVar(&f.expectDiff3, "expect-diff3", false, "reject diff2-style conflict markers lacking a base section")
	cmd.Flags().IntVar(&f.markerSize, "marker-size", 7, "repeat count for conflict marker characters")
	return cmd
}

func runSolve(cmd *cobra.Command, args []string, f solveFlags) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		return &mergeerr.IOFailureError{Path: path, Err: err}
	}

	parsed, err := conflictmarker.Parse(string(src), f.expectDiff3)
	if err != nil {
		return err
	}

	s := settings.Default()
	s.ConflictMarkerSize = f.markerSize

	for i, chunk := range parsed.Chunks {
		if !chunk.IsConflict {
			continue
		}
		// Each conflict chunk is re-attempted as an isolated line-based
		// merge: if the base section shrank the conflict to nothing, the
		// chunk resolves cleanly; otherwise it is re-emitted unchanged.
		if !chunk.HasBase {
			continue
		}
		result := linemerge.Diff3(chunk.Base, chunk.Left, chunk.Right)
		if !result.HasConflict {
			parsed.Chunks[i] = conflictmarkerChunk(result.Text)
		}
	}

	out := parsed.Render(s)
	dest := f.output
	if dest == "" {
		dest = path
	}
	if f.stdout {
		cmd.OutOrStdout().Write([]byte(out))
	} else if err := atomicio.New(atomicio.DefaultConfig()).WriteFile(dest, out); err != nil {
		return &mergeerr.IOFailureError{Path: dest, Err: err}
	}

	if parsed.HasConflicts() {
		os.Exit(1)
	}
	return nil
}

func conflictmarkerChunk(text string) conflictmarker.Chunk {
	return conflictmarker.Chunk{Lines: text}
}
