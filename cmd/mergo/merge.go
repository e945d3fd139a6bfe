package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/mergo/internal/atomicio"
	"github.com/oxhq/mergo/internal/cascade"
	"github.com/oxhq/mergo/internal/config"
	"github.com/oxhq/mergo/internal/langprofile"
	"github.com/oxhq/mergo/internal/langprofile/builtin"
	"github.com/oxhq/mergo/internal/logx"
	"github.com/oxhq/mergo/internal/mergeerr"
	"github.com/oxhq/mergo/internal/settings"
)

type mergeFlags struct {
	output     string
	stdout     bool
	language   string
	diff3      bool
	compact    bool
	markerSize int
	timeoutMS  int
	verbose    bool
	include    []string
	exclude    []string
}

func newMergeCmd() *cobra.Command {
	var f mergeFlags
	cmd := &cobra.Command{
		Use:   "merge BASE LEFT RIGHT",
		Short: "Three-way merge BASE/LEFT/RIGHT, writing the result in place of LEFT by default",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitErr(runMerge(cmd, args, f))
		},
	}
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write merged output to this path instead of LEFT")
	cmd.Flags().BoolVar(&f.stdout, "stdout", false, "write merged output to stdout instead of a file")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "force a language profile instead of detecting from LEFT's extension")
	cmd.Flags().BoolVar(&f.diff3, "diff3", true, "include the base section in conflicts rendered by the structured merge (line-based conflicts always include it)")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "factor out conflict sides' common leading/trailing lines")
	cmd.Flags().IntVar(&f.markerSize, "marker-size", 7, "repeat count for conflict marker characters in the structured merge's conflicts (line-based conflicts always use 7)")
	cmd.Flags().IntVar(&f.timeoutMS, "timeout-ms", 5000, "budget for the structured-merge pass before falling back to a line-based merge")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "when LEFT is a directory, only merge files matching one of these doublestar globs")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "when LEFT is a directory, skip files matching one of these doublestar globs")
	return cmd
}

func runMerge(cmd *cobra.Command, args []string, f mergeFlags) error {
	basePath, leftPath, rightPath := args[0], args[1], args[2]
	logger := newLogger(f.verbose)
	cfg := config.Load()
	if !cmd.Flags().Changed("diff3") {
		f.diff3 = cfg.Diff3
	}
	if !cmd.Flags().Changed("compact") {
		f.compact = cfg.CompactConflicts
	}
	if !cmd.Flags().Changed("marker-size") {
		f.markerSize = cfg.ConflictMarkerSize
	}
	if !cmd.Flags().Changed("timeout-ms") {
		f.timeoutMS = int(cfg.MergeTimeout / time.Millisecond)
	}

	info, err := os.Stat(leftPath)
	if err != nil {
		return &mergeerr.IOFailureError{Path: leftPath, Err: err}
	}
	if info.IsDir() {
		return runBatchMerge(cmd, logger, basePath, leftPath, rightPath, f)
	}

	outcome, err := mergeOneFile(cmd, logger, basePath, leftPath, rightPath, f)
	if err != nil {
		return err
	}

	dest := f.output
	if dest == "" {
		dest = leftPath
	}
	if f.stdout {
		cmd.OutOrStdout().Write([]byte(outcome.Text))
	} else if err := atomicio.New(atomicio.DefaultConfig()).WriteFile(dest, outcome.Text); err != nil {
		return &mergeerr.IOFailureError{Path: dest, Err: err}
	}

	if outcome.HasConflict {
		os.Exit(1)
	}
	return nil
}

// mergeOneFile runs the full cascade merge for a single BASE/LEFT/RIGHT
// file triple, without touching the filesystem beyond reading the inputs.
func mergeOneFile(cmd *cobra.Command, logger *logx.Logger, basePath, leftPath, rightPath string, f mergeFlags) (cascade.Outcome, error) {
	baseSrc, err := os.ReadFile(basePath)
	if err != nil {
		return cascade.Outcome{}, &mergeerr.IOFailureError{Path: basePath, Err: err}
	}
	leftSrc, err := os.ReadFile(leftPath)
	if err != nil {
		return cascade.Outcome{}, &mergeerr.IOFailureError{Path: leftPath, Err: err}
	}
	rightSrc, err := os.ReadFile(rightPath)
	if err != nil {
		return cascade.Outcome{}, &mergeerr.IOFailureError{Path: rightPath, Err: err}
	}

	registry := langprofile.NewRegistry()
	builtin.Register(registry)
	profile, ok := registry.FindByFilenameOrName(leftPath, f.language)
	if !ok {
		logger.Debugf("no language profile for %s, falling back to line-based merge only", leftPath)
	}

	s := settings.Default()
	s.Diff3 = f.diff3
	s.ConflictMarkerSize = f.markerSize
	compact := f.compact
	s.Compact = &compact

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(f.timeoutMS)*time.Millisecond)
	defer cancel()

	// The inputs are merged with LF line endings; the output gets CRLF back
	// when most of LEFT's line endings are CRLF.
	crlf := strings.Count(string(leftSrc), "\r\n")*2 > strings.Count(string(leftSrc), "\n")
	lf := func(b []byte) string { return strings.ReplaceAll(string(b), "\r\n", "\n") }
	outcome, err := cascade.Merge(ctx, lf(baseSrc), lf(leftSrc), lf(rightSrc), profile, s)
	if err != nil {
		return cascade.Outcome{}, err
	}
	if crlf {
		outcome.Text = strings.ReplaceAll(outcome.Text, "\n", "\r\n")
	}
	logger.Debugf("merge resolved via %s strategy, conflict mass %d", outcome.Method, outcome.ConflictMass)
	return outcome, nil
}
