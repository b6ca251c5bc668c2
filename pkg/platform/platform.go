package platform

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Platform represents a target OS/Architecture combination
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// Global overrides for platform detection
var (
	globalOSOverride   string
	globalArchOverride string
	globalMutex        sync.RWMutex
)

// String returns a string representation of the platform (e.g., "windows-amd64")
func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// SetGlobalOverrides sets global OS and architecture overrides from CLI flags
func SetGlobalOverrides(osOverride, archOverride string) {
	p := Platform{OS: osOverride, Arch: archOverride}.Normalize()
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalOSOverride = p.OS
	globalArchOverride = p.Arch
}

// Current returns the current platform, respecting global overrides
func Current() Platform {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	os := globalOSOverride
	arch := globalArchOverride

	if os == "" {
		os = runtime.GOOS
	}
	if arch == "" {
		arch = runtime.GOARCH
	}

	return Platform{
		OS:   os,
		Arch: arch,
	}
}

// Parse parses a platform string (e.g., "darwin-arm64" or "win64/x64") into a Platform.
// Aliases are kept as written; call Normalize for GOOS/GOARCH names.
func Parse(platformStr string) (Platform, error) {
	parts := strings.FieldsFunc(strings.TrimSpace(platformStr), func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 2 {
		return Platform{}, fmt.Errorf("invalid platform format: %s (expected os-arch)", platformStr)
	}
	return Platform{
		OS:   parts[0],
		Arch: parts[1],
	}, nil
}

// Normalize converts platform aliases to GOOS/GOARCH names
func (p Platform) Normalize() Platform {
	return Platform{
		OS:   normalizeOS(p.OS),
		Arch: normalizeArch(p.Arch),
	}
}

func normalizeOS(os string) string {
	switch strings.ToLower(os) {
	case "macos", "osx", "mac":
		return "darwin"
	case "win", "win32", "win64":
		return "windows"
	default:
		return strings.ToLower(os)
	}
}

func normalizeArch(arch string) string {
	switch strings.ToLower(arch) {
	case "x86_64", "x64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	case "i386", "i686", "x86", "386":
		return "386"
	case "armv7", "armv7l", "arm":
		return "arm"
	default:
		return strings.ToLower(arch)
	}
}

// PluginArch maps an architecture to the label used in plugin reports: x64, x86, arm64
func PluginArch(arch string) string {
	switch normalizeArch(arch) {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	case "":
		return ""
	default:
		return normalizeArch(arch)
	}
}

// IsWindows returns true if the platform is Windows
func (p Platform) IsWindows() bool {
	return p.OS == "windows"
}

// IsDarwin returns true if the platform is macOS
func (p Platform) IsDarwin() bool {
	return p.OS == "darwin"
}
