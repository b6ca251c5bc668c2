package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/clicky/task"
)

// RelativePath converts an absolute path to a relative path from the current working directory
func RelativePath(absPath string) string {
	if absPath == "" {
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Base(absPath)
	}

	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return filepath.Base(absPath)
	}

	// Paths outside the working directory read better as absolute
	if len(relPath) > len(absPath) {
		return absPath
	}

	return relPath
}

// LogPath returns a clean path for logging (relative if shorter, absolute otherwise)
func LogPath(path string) string {
	if path == "" {
		return ""
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}

	return RelativePath(absPath)
}

// LogOperation executes a function and logs start/completion in a unified way
func LogOperation(t *task.Task, operation, target string, fn func() error) error {
	if t == nil {
		return fn()
	}

	t.SetDescription(fmt.Sprintf("%s %s...", operation, target))

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	if err != nil {
		t.Errorf("❌ %s failed: %v", operation, err)
		return err
	}

	if duration > 500*time.Millisecond {
		t.Infof("✅ %s completed (%v)", operation, duration.Round(10*time.Millisecond))
	} else {
		t.Infof("✅ %s completed", operation)
	}

	return nil
}

// LogScanSummary logs how many candidates turned into records
func LogScanSummary(t *task.Task, roots []string, candidates, records, failures int) {
	if t == nil {
		return
	}

	if len(roots) == 1 {
		t.Infof("Scanned %s: %d candidates, %d plugins", LogPath(roots[0]), candidates, records)
	} else {
		t.Infof("Scanned %d locations: %d candidates, %d plugins", len(roots), candidates, records)
	}
	if failures > 0 {
		t.Warnf("%d plugins could not be read, filename metadata was used instead", failures)
	}
}
