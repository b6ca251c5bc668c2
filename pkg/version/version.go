package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	dottedNumeric  = regexp.MustCompile(`^\d+(\.\d+)*$`)
	versionPrefix  = regexp.MustCompile(`(?i)^(?:version|ver\.|ver\b|build\b|release\b|rev\.|rev\b)[\s:_-]*`)
	defaultPattern = `v?(\d+(?:\.\d+)*(?:-[a-zA-Z0-9-_.]+)?)`
)

// Normalize removes common prefixes and suffixes from version strings
// Handles: v1.2.3 -> 1.2.3, Version 3.0 -> 3.0, build 1042 -> 1042, ver.2.1 -> 2.1, bx-1.7 -> 1.7
func Normalize(version string) string {
	if version == "" {
		return version
	}

	version = strings.TrimSpace(version)
	version = versionPrefix.ReplaceAllString(version, "")
	if looksLikeVersion(version) && (version[0] == 'v' || version[0] == 'V') {
		version = version[1:]
	}

	// Strip a product prefix when it carries no digits ("bx-1.7" -> "1.7")
	if idx := strings.IndexAny(version, "-_ "); idx > 0 && !strings.ContainsAny(version[:idx], "0123456789") {
		if possibleVersion := strings.TrimSpace(version[idx+1:]); looksLikeVersion(possibleVersion) {
			version = strings.TrimLeft(possibleVersion, "vV")
		}
	}

	version = strings.TrimSuffix(version, "-release")
	version = strings.TrimSuffix(version, "-Release")

	return strings.TrimSpace(version)
}

// looksLikeVersion checks if a string looks like a version number
// Must start with a digit or 'v'/'V' followed by digit
func looksLikeVersion(s string) bool {
	if len(s) == 0 {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return true
	}
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') && s[1] >= '0' && s[1] <= '9' {
		return true
	}
	return false
}

// Extract finds a version inside free text such as "Version 3.0.1 (build 42)".
// If no pattern is provided a default pattern for dotted versions is used.
func Extract(text, pattern string) (string, error) {
	if pattern == "" {
		pattern = defaultPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid version pattern: %w", err)
	}

	matches := re.FindStringSubmatch(text)
	if len(matches) < 2 {
		return "", fmt.Errorf("version not found in %q", text)
	}

	return Normalize(matches[1]), nil
}

// parsed is a version reduced to numeric release components plus an optional pre-release
type parsed struct {
	parts []string
	pre   string
	sv    *semver.Version
}

func parse(v string) (parsed, bool) {
	norm := Normalize(v)
	if norm == "" {
		return parsed{}, false
	}

	// Tier 1: dotted numeric of any length
	if dottedNumeric.MatchString(norm) {
		parts := strings.Split(norm, ".")
		for i, p := range parts {
			parts[i] = trimZeros(p)
		}
		return parsed{parts: parts}, true
	}

	// Tier 2: semantic version with pre-release and build metadata
	sv, err := semver.NewVersion(norm)
	if err != nil {
		return parsed{}, false
	}
	return parsed{
		parts: []string{
			strconv.FormatUint(sv.Major(), 10),
			strconv.FormatUint(sv.Minor(), 10),
			strconv.FormatUint(sv.Patch(), 10),
		},
		pre: sv.Prerelease(),
		sv:  sv,
	}, true
}

func trimZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// compareNumber compares unsigned decimal strings without leading zeros, of any length
func compareNumber(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Parseable reports whether a version can be ordered by Compare
func Parseable(v string) bool {
	_, ok := parse(v)
	return ok
}

// Compare compares two version strings, normalizing them first.
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2; ok is false when either
// version is neither dotted numeric nor semver, in which case there is no ordering.
// Missing components count as zero, so 1.2 == 1.2.0.
func Compare(v1, v2 string) (result int, ok bool) {
	p1, ok1 := parse(v1)
	p2, ok2 := parse(v2)
	if !ok1 || !ok2 {
		return 0, false
	}

	n := max(len(p1.parts), len(p2.parts))
	for i := 0; i < n; i++ {
		a, b := "0", "0"
		if i < len(p1.parts) {
			a = p1.parts[i]
		}
		if i < len(p2.parts) {
			b = p2.parts[i]
		}
		if c := compareNumber(a, b); c != 0 {
			return c, true
		}
	}

	switch {
	case p1.pre == "" && p2.pre == "":
		return 0, true
	case p1.pre == "":
		return 1, true
	case p2.pre == "":
		return -1, true
	default:
		return p1.sv.Compare(p2.sv), true
	}
}

// Newer returns the higher of two versions. A parseable version beats an unparseable one;
// when neither can be ordered, or both are equal, the first is returned.
func Newer(v1, v2 string) string {
	if c, ok := Compare(v1, v2); ok {
		if c < 0 {
			return v2
		}
		return v1
	}
	if !Parseable(v1) && Parseable(v2) {
		return v2
	}
	if strings.TrimSpace(v1) == "" {
		return v2
	}
	return v1
}
