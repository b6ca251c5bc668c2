package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"howett.net/plist"
)

// metadata is what a plugin says about itself; any field may be empty
type metadata struct {
	Name       string
	Vendor     string
	Version    string
	Identifier string
	Copyright  string
}

// merge fills the empty fields of m from other
func (m *metadata) merge(other metadata) {
	if m.Name == "" {
		m.Name = other.Name
	}
	if m.Vendor == "" {
		m.Vendor = other.Vendor
	}
	if m.Version == "" {
		m.Version = other.Version
	}
	if m.Identifier == "" {
		m.Identifier = other.Identifier
	}
	if m.Copyright == "" {
		m.Copyright = other.Copyright
	}
}

func (m metadata) empty() bool {
	return m == metadata{}
}

// infoPlist holds the Info.plist keys plugin bundles use
type infoPlist struct {
	BundleName          string `plist:"CFBundleName"`
	DisplayName         string `plist:"CFBundleDisplayName"`
	Identifier          string `plist:"CFBundleIdentifier"`
	ShortVersion        string `plist:"CFBundleShortVersionString"`
	BundleVersion       string `plist:"CFBundleVersion"`
	ComponentVendor     string `plist:"AudioComponentManufacturer"`
	Manufacturer        string `plist:"Manufacturer"`
	HumanReadableRights string `plist:"NSHumanReadableCopyright"`
}

// readInfoPlist parses Contents/Info.plist of a bundle. XML and binary plists are accepted.
func readInfoPlist(bundle string) (metadata, error) {
	path := filepath.Join(bundle, "Contents", "Info.plist")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return metadata{}, nil
	}
	if err != nil {
		return metadata{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var info infoPlist
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return metadata{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return metadata{
		Name:       firstNonEmpty(info.BundleName, info.DisplayName),
		Vendor:     firstNonEmpty(info.ComponentVendor, info.Manufacturer),
		Version:    firstNonEmpty(info.ShortVersion, info.BundleVersion),
		Identifier: info.Identifier,
		Copyright:  info.HumanReadableRights,
	}, nil
}

// readModuleInfo parses Contents/Resources/moduleinfo.json of a VST3 bundle.
// The SDK writes it with comments and trailing commas, so it is read leniently.
func readModuleInfo(bundle string) (metadata, error) {
	path := filepath.Join(bundle, "Contents", "Resources", "moduleinfo.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return metadata{}, nil
	}
	if err != nil {
		return metadata{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return metadata{}, fmt.Errorf("failed to parse %s: not a JSON object", path)
	}

	return metadata{
		Name: doc.Get("Name").String(),
		Vendor: firstNonEmpty(
			doc.Get(`Factory Info.Vendor`).String(),
			doc.Get("Vendor").String(),
			doc.Get("Classes.0.Vendor").String(),
		),
		Version: firstNonEmpty(doc.Get("Version").String(), doc.Get("Classes.0.Version").String()),
	}, nil
}

// sidecarSuffixes are tried in order next to a VST2 binary, e.g. Plugin.dll.metadata.json
var sidecarSuffixes = []string{".metadata.json", ".json"}

// readSidecar parses the first valid JSON sidecar next to a plugin binary.
// An error is returned only when a sidecar exists and none of them can be read.
func readSidecar(path string) (metadata, error) {
	var errs []error
	for _, suffix := range sidecarSuffixes {
		sidecar := path + suffix
		data, err := os.ReadFile(sidecar)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", sidecar, err))
			continue
		}
		if !gjson.ValidBytes(data) {
			errs = append(errs, fmt.Errorf("failed to parse %s: invalid JSON", sidecar))
			continue
		}

		doc := gjson.ParseBytes(data)
		return metadata{
			Name:       doc.Get("name").String(),
			Vendor:     firstNonEmpty(doc.Get("manufacturer").String(), doc.Get("vendor").String()),
			Version:    doc.Get("version").String(),
			Identifier: doc.Get("identifier").String(),
		}, nil
	}
	return metadata{}, errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
