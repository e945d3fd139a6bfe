package main

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/oxhq/mergo/internal/atomicio"
	"github.com/oxhq/mergo/internal/logx"
	"github.com/oxhq/mergo/internal/mergeerr"
)

// runBatchMerge merges every file under the LEFT tree against its
// same-relative-path counterpart under BASE and RIGHT, honoring --include/
// --exclude doublestar globs matched against the path relative to LEFT.
func runBatchMerge(cmd *cobra.Command, logger *logx.Logger, baseDir, leftDir, rightDir string, f mergeFlags) error {
	writer := atomicio.New(atomicio.DefaultConfig())
	conflicted := false

	walkErr := filepath.WalkDir(leftDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(leftDir, path)
		if err != nil {
			return err
		}
		if !matchesBatch(rel, f.include, f.exclude) {
			return nil
		}

		basePath := filepath.Join(baseDir, rel)
		rightPath := filepath.Join(rightDir, rel)
		if _, err := os.Stat(basePath); err != nil {
			logger.Debugf("skipping %s: no base counterpart", rel)
			return nil
		}
		if _, err := os.Stat(rightPath); err != nil {
			logger.Debugf("skipping %s: no right counterpart", rel)
			return nil
		}

		outcome, err := mergeOneFile(cmd, logger, basePath, path, rightPath, f)
		if err != nil {
			return err
		}
		if outcome.HasConflict {
			conflicted = true
		}

		dest := path
		if f.output != "" {
			dest = filepath.Join(f.output, rel)
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
		}
		if f.stdout {
			cmd.OutOrStdout().Write([]byte(outcome.Text))
			return nil
		}
		if err := writer.WriteFile(dest, outcome.Text); err != nil {
			return &mergeerr.IOFailureError{Path: dest, Err: err}
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	if conflicted {
		os.Exit(1)
	}
	return nil
}

// matchesBatch reports whether rel should be merged: it must match at least
// one include glob (or there are none, meaning "match everything") and none
// of the exclude globs.
func matchesBatch(rel string, include, exclude []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pat := range exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pat := range include {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
