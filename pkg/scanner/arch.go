package scanner

import (
	"os"
	"path/filepath"

	"github.com/flanksource/vstscan/pkg/machine"
)

// bundleArchDirs maps bundle architecture folders to report labels, in preference order
var bundleArchDirs = []struct {
	dir  string
	arch string
}{
	{"x86_64-win", "x64"},
	{"arm64x-win", "arm64"},
	{"arm64-win", "arm64"},
	{"x86-win", "x86"},
	{"MacOS", machine.Universal},
	{"x86_64-linux", "x64"},
	{"aarch64-linux", "arm64"},
}

// bundleArch inspects the Contents folder of a bundle. A MacOS folder is labelled
// from its executable when that can be read, and universal otherwise.
func bundleArch(bundle string) string {
	for _, d := range bundleArchDirs {
		dir := filepath.Join(bundle, "Contents", d.dir)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		if d.dir == "MacOS" {
			if arch := executableArch(dir); arch != "" {
				return arch
			}
		}
		return d.arch
	}
	return ""
}

// executableArch returns the architecture of the first recognizable binary in dir
func executableArch(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if arch := machine.Arch(filepath.Join(dir, e.Name())); arch != "" {
			return arch
		}
	}
	return ""
}

// binaryArch reads the header of a single-file plugin. Files that are not binaries have no architecture.
func binaryArch(path string) string {
	return machine.Arch(path)
}
