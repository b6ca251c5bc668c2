package scanner

import (
	"strings"

	"github.com/flanksource/clicky/task"
)

// DefaultExtensions are the plugin file and bundle extensions discovered when none are configured
var DefaultExtensions = []string{".vst3", ".vst", ".dll"}

// DefaultWorkers bounds concurrent metadata extraction
const DefaultWorkers = 8

// Option configures a Scanner
type Option func(*Scanner)

// WithWorkers sets how many plugins are read concurrently; values below 1 read sequentially
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// WithExtensions replaces the discovered extensions, e.g. [".vst3", ".dll"]
func WithExtensions(exts ...string) Option {
	return func(s *Scanner) {
		var cleaned []string
		for _, e := range exts {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			cleaned = append(cleaned, e)
		}
		if len(cleaned) > 0 {
			s.extensions = cleaned
		}
	}
}

// WithTask reports progress and per-file warnings on a clicky task
func WithTask(t *task.Task) Option {
	return func(s *Scanner) {
		s.task = t
	}
}
