package cmd

import (
	"fmt"
	"runtime"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/api/icons"
	"github.com/flanksource/vstscan/pkg/config"
	"github.com/flanksource/vstscan/pkg/platform"
)

var buildInfo = BuildInfo{Version: "dev", Commit: "unknown", Date: "unknown"}

type VersionOptions struct {
	Vendors bool `json:"vendors,omitempty" flag:"vendors"`
}

// BuildInfo describes the running binary
type BuildInfo struct {
	Version  string   `json:"version"`
	Commit   string   `json:"commit"`
	Date     string   `json:"date"`
	Dirty    bool     `json:"dirty,omitempty"`
	Go       string   `json:"go"`
	Platform string   `json:"platform"`
	Vendors  []string `json:"vendors,omitempty"`
}

func (b BuildInfo) Pretty() api.Text {
	version := b.Version
	if b.Dirty {
		version += "-dirty"
	}
	text := clicky.Text("").Add(icons.InfoAlt).Append(" vstscan "+version, "bold").
		Append(fmt.Sprintf(" (%s, %s, %s, %s)", b.Commit, b.Date, b.Go, b.Platform), "text-muted")
	if len(b.Vendors) > 0 {
		text = text.Append(fmt.Sprintf("\n%d vendors:", len(b.Vendors)), "text-muted")
		for _, v := range b.Vendors {
			text = text.Append("\n  " + v)
		}
	}
	return text
}

// SetVersion records the build metadata injected through ldflags
func SetVersion(version, commit, date, dirty string) {
	buildInfo = BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
		Dirty:   dirty == "true",
	}
}

func init() {
	clicky.AddCommand(rootCmd, VersionOptions{}, func(opts VersionOptions) (any, error) {
		return GetVersion(opts), nil
	})
}

// GetVersion returns the build metadata, optionally with the configured vendor labels
func GetVersion(opts VersionOptions) BuildInfo {
	info := buildInfo
	info.Go = runtime.Version()
	info.Platform = platform.Current().String()
	if opts.Vendors {
		info.Vendors = config.ListVendors()
	}
	return info
}
