//go:build !windows

package platform

func readRegistryPaths(RegistryLocation) []string {
	return nil
}
