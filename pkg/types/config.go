package types

// VendorEntry is one canonical vendor in the alias table
type VendorEntry struct {
	// Name is the canonical label written to reports
	Name string `json:"name" yaml:"name"`
	// Aliases are vendor spellings that resolve to Name (matched ignoring case, punctuation and whitespace)
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	// Prefixes are plugin-name prefixes that identify the vendor, e.g. "bx_"
	Prefixes []string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	// Fragments are plugin-name fragments that identify the vendor, e.g. "smarteq"
	Fragments []string `json:"fragments,omitempty" yaml:"fragments,omitempty"`
}

// Settings controls scanning and reporting
type Settings struct {
	// Workers is the number of plugins inspected in parallel
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// Output is the default report path
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	// Formats lists the report formats to write (txt, json, yaml, csv)
	Formats []string `json:"formats,omitempty" yaml:"formats,omitempty"`
	// Extensions are the file extensions treated as plugin candidates
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	// UnknownVendor overrides the sentinel used when the vendor cannot be determined
	UnknownVendor string `json:"unknown_vendor,omitempty" yaml:"unknown_vendor,omitempty"`
	// FuzzyDistance is the maximum edit distance for a near-miss alias match (0 disables)
	FuzzyDistance *int `json:"fuzzy_distance,omitempty" yaml:"fuzzy_distance,omitempty"`
	// FuzzyMinLength is the minimum alias length eligible for near-miss matching
	FuzzyMinLength int `json:"fuzzy_min_length,omitempty" yaml:"fuzzy_min_length,omitempty"`
	// LineTemplate is a gomplate template for text report lines
	LineTemplate string `json:"line_template,omitempty" yaml:"line_template,omitempty"`
	// IncludeDefaultPaths also scans the platform's standard plugin folders
	IncludeDefaultPaths bool `json:"include_default_paths,omitempty" yaml:"include_default_paths,omitempty"`
}

// Config is the merged configuration: embedded defaults plus the optional user vstscan.yaml
type Config struct {
	// Vendors is the alias table
	Vendors []VendorEntry `json:"vendors" yaml:"vendors"`
	// ShortFragments are fragments under four characters that are still trusted
	ShortFragments []string `json:"short_fragments,omitempty" yaml:"short_fragments,omitempty"`
	// UnknownAliases are vendor placeholders treated as absent, e.g. "n/a"
	UnknownAliases []string `json:"unknown_aliases,omitempty" yaml:"unknown_aliases,omitempty"`
	// CorporateSuffixes are trailing words stripped from vendor names, e.g. "GmbH"
	CorporateSuffixes []string `json:"corporate_suffixes,omitempty" yaml:"corporate_suffixes,omitempty"`
	// Settings controls scanning and reporting
	Settings Settings `json:"settings" yaml:"settings"`
}
