package platform

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// RegistryLocation is a registry key and value holding a ';' separated list of plugin folders
type RegistryLocation struct {
	Key   string
	Value string
}

// RegistryLocations are read from both HKEY_LOCAL_MACHINE and HKEY_CURRENT_USER
var RegistryLocations = []RegistryLocation{
	{Key: `SOFTWARE\VST`, Value: "VSTPluginsPath"},
	{Key: `SOFTWARE\Steinberg\VST Plugins Path`, Value: "VSTPluginsPath"},
}

// Env resolves environment variables; os.Getenv in production
type Env func(string) string

// DefaultPluginPaths returns the existing, unique plugin folders of the platform in sorted order.
// Registry folders are only consulted when running on Windows.
func DefaultPluginPaths(p Platform) []string {
	candidates := CandidatePaths(p, os.Getenv)
	if p.IsWindows() {
		for _, loc := range RegistryLocations {
			candidates = append(candidates, readRegistryPaths(loc)...)
		}
		candidates = append(candidates, vendorSubfolders(standardVST3(os.Getenv))...)
	}
	return existingDirs(candidates)
}

// CandidatePaths lists the conventional plugin folders of a platform, whether they exist or not
func CandidatePaths(p Platform, env Env) []string {
	switch {
	case p.IsWindows():
		return windowsPaths(env)
	case p.IsDarwin():
		home := homeDir(env)
		paths := []string{
			"/Library/Audio/Plug-Ins/VST",
			"/Library/Audio/Plug-Ins/VST3",
		}
		if home != "" {
			paths = append(paths,
				filepath.Join(home, "Library/Audio/Plug-Ins/VST"),
				filepath.Join(home, "Library/Audio/Plug-Ins/VST3"))
		}
		return paths
	default:
		home := homeDir(env)
		paths := []string{
			"/usr/lib/vst",
			"/usr/lib/vst3",
			"/usr/local/lib/vst",
			"/usr/local/lib/vst3",
		}
		if home != "" {
			paths = append(paths, filepath.Join(home, ".vst"), filepath.Join(home, ".vst3"))
		}
		return paths
	}
}

func windowsPaths(env Env) []string {
	programFiles := envOr(env, "ProgramFiles", `C:\Program Files`)
	programFilesX86 := envOr(env, "ProgramFiles(x86)", `C:\Program Files (x86)`)

	paths := []string{
		programFiles + `\Common Files\Steinberg\VST2`,
		programFilesX86 + `\VstPlugins`,
		programFilesX86 + `\Steinberg\VstPlugins`,
	}
	paths = append(paths, standardVST3(env)...)

	if profile := env("USERPROFILE"); profile != "" {
		paths = append(paths, profile+`\Documents\VST`, profile+`\Documents\VST3`)
	}
	if local := env("LOCALAPPDATA"); local != "" {
		paths = append(paths, local+`\Programs\VST`, local+`\Programs\VST3`)
	}
	if roaming := env("APPDATA"); roaming != "" {
		paths = append(paths, roaming+`\VST3`)
	}
	return paths
}

func standardVST3(env Env) []string {
	return []string{
		envOr(env, "CommonProgramFiles", `C:\Program Files\Common Files`) + `\VST3`,
		envOr(env, "CommonProgramFiles(x86)", `C:\Program Files (x86)\Common Files`) + `\VST3`,
	}
}

// vendorSubfolders lists the directories directly inside each base that are not plugin bundles
func vendorSubfolders(bases []string) []string {
	var out []string
	for _, base := range bases {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || strings.EqualFold(filepath.Ext(e.Name()), ".vst3") {
				continue
			}
			out = append(out, filepath.Join(base, e.Name()))
		}
	}
	return out
}

func existingDirs(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if seen[clean] {
			continue
		}
		seen[clean] = true

		info, err := os.Stat(clean)
		if err != nil {
			log.Debugf("Skipping plugin folder %s: %v", clean, err)
			continue
		}
		if !info.IsDir() {
			log.Debugf("Skipping plugin folder %s: not a directory", clean)
			continue
		}
		out = append(out, clean)
	}
	sort.Strings(out)
	log.Debugf("Found %d default plugin folders", len(out))
	return out
}

// SplitPathList splits a registry path list on ';', dropping blanks
func SplitPathList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func homeDir(env Env) string {
	if home := env("HOME"); home != "" {
		return home
	}
	return env("USERPROFILE")
}

func envOr(env Env, key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}
