package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
)

// Candidate is a plugin file or bundle found during discovery
type Candidate struct {
	// Path is absolute with symlinks resolved
	Path string
	// Root is the scan root the candidate was found under
	Root   string
	Format types.Format
	// Bundle is true for .vst3 and .vst directories
	Bundle bool
}

// Discover walks every root and returns the plugin candidates sorted by path.
// A root may be a directory or a single plugin. Matches nested inside a bundle are skipped and
// the same physical file reached through several roots is returned once.
func (s *Scanner) Discover(ctx context.Context, roots []string) ([]Candidate, error) {
	seen := map[string]bool{}
	var candidates []Candidate

	add := func(c Candidate) {
		if seen[c.Path] {
			return
		}
		seen[c.Path] = true
		candidates = append(candidates, c)
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs, err := resolve(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve plugin path %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read plugin path %s: %w", root, err)
		}

		if s.isPlugin(abs) {
			add(Candidate{Path: abs, Root: filepath.Dir(abs), Format: formatOf(abs), Bundle: info.IsDir()})
			continue
		}
		if !info.IsDir() {
			logger.Warnf("Skipping %s: not a plugin or directory", utils.LogPath(root))
			continue
		}

		found, err := s.glob(ctx, abs)
		if err != nil {
			return nil, err
		}
		logger.V(3).Infof("Found %d candidates under %s", len(found), utils.LogPath(abs))
		for _, c := range found {
			add(c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}

func (s *Scanner) glob(ctx context.Context, root string) ([]Candidate, error) {
	pattern := s.pattern()
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid plugin extensions %v", s.extensions)
	}

	var found []Candidate
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(rel string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if insideBundle(rel, s.extensions) {
			return nil
		}

		abs, err := resolve(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			logger.Warnf("Skipping %s: %v", rel, err)
			return nil
		}
		found = append(found, Candidate{Path: abs, Root: root, Format: formatOf(abs), Bundle: d.IsDir()})
		return nil
	}, doublestar.WithCaseInsensitive())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return found, nil
}

// pattern builds the glob for the configured extensions, e.g. **/*.{vst3,dll}.
// Matching is case-insensitive through the walk option.
func (s *Scanner) pattern() string {
	alternatives := make([]string, 0, len(s.extensions))
	for _, ext := range s.extensions {
		alternatives = append(alternatives, strings.TrimPrefix(ext, "."))
	}
	return "**/*.{" + strings.Join(alternatives, ",") + "}"
}

func (s *Scanner) isPlugin(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// insideBundle reports whether any parent directory of rel is itself a plugin
func insideBundle(rel string, extensions []string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		ext := strings.ToLower(filepath.Ext(dir))
		for _, e := range extensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}

func formatOf(path string) types.Format {
	if strings.EqualFold(filepath.Ext(path), ".vst3") {
		return types.FormatVST3
	}
	return types.FormatVST2
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
