//go:build windows

package platform

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

// readRegistryPaths reads a plugin folder list from HKLM and HKCU.
// Missing keys are normal and ignored.
func readRegistryPaths(loc RegistryLocation) []string {
	var paths []string
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		key, err := registry.OpenKey(root, loc.Key, registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		value, _, err := key.GetStringValue(loc.Value)
		key.Close()
		if err != nil {
			log.Debugf("Registry value %s\\%s not readable: %v", loc.Key, loc.Value, err)
			continue
		}
		paths = append(paths, SplitPathList(value)...)
	}
	return paths
}
