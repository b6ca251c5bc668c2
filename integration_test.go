package vstscan_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"howett.net/plist"

	"github.com/flanksource/vstscan"
	"github.com/flanksource/vstscan/pkg/report"
)

// pluginTree lays out a small plugin collection: the same plugins installed in two folders,
// a VST2 sidecar, a vendor folder and a plugin nobody can identify
func pluginTree() string {
	root, err := filepath.EvalSymlinks(GinkgoT().TempDir())
	Expect(err).ToNot(HaveOccurred())

	vst3 := func(dir, name string, info map[string]interface{}) {
		contents := filepath.Join(root, dir, name+".vst3", "Contents")
		Expect(os.MkdirAll(filepath.Join(contents, "x86_64-win"), 0755)).To(Succeed())
		data, err := plist.Marshal(info, plist.XMLFormat)
		Expect(err).ToNot(HaveOccurred())
		Expect(os.WriteFile(filepath.Join(contents, "Info.plist"), data, 0644)).To(Succeed())
	}
	file := func(path, content string) {
		path = filepath.Join(root, path)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	}

	vst3("VST3", "bx_digital V3", map[string]interface{}{
		"CFBundleName":               "bx_digital V3",
		"AudioComponentManufacturer": "brainworx",
		"CFBundleShortVersionString": "3.0",
	})
	vst3("Backup/VST3", "bx_digital V3", map[string]interface{}{
		"CFBundleName":               "bx_digital V3",
		"AudioComponentManufacturer": "Brainworx GmbH",
		"CFBundleShortVersionString": "2.5",
	})
	vst3("VST3", "smartEQ 4", map[string]interface{}{
		"CFBundleName":               "smartEQ 4",
		"AudioComponentManufacturer": "sonible GmbH",
		"CFBundleIdentifier":         "com.sonible.smarteq4",
	})
	file("VST2/Aquarius.dll", "")
	file("VST2/Aquarius.dll.metadata.json", `{"name": "Aquarius", "manufacturer": "Acustica Audio s.r.l.", "version": "1.2"}`)
	file("VST2/FabFilter/Pro-Q 3.dll", "")
	file("VST2/Unsorted/SomePlugin.dll", "")
	return root
}

var _ = Describe("Scan", func() {
	var root string

	BeforeEach(func() {
		root = pluginTree()
	})

	It("should scan, normalize, merge and group the plugin tree", func() {
		res, err := vstscan.Scan(context.Background(), []string{root}, vstscan.WithConfig(defaults()), vstscan.WithWorkers(2))
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Roots).To(Equal([]string{root}))

		Expect(lines(res.Report)).To(Equal(map[string][]string{
			"Acustica Audio":      {"Aquarius (VST2, v1.2)"},
			"Brainworx":           {"bx_digital V3 (VST3, v3.0)"},
			"FabFilter":           {"Pro-Q 3 (VST2)"},
			"Sonible":             {"smartEQ 4 (VST3)"},
			vstscan.UnknownVendor: {"SomePlugin (VST2)"},
		}))
		Expect(res.Collapses).To(HaveLen(1))
		Expect(res.Stats.Total).To(Equal(5))
		Expect(res.Stats.Unknown).To(Equal(1))
		Expect(res.Stats.Duplicates).To(Equal(1))
		Expect(res.Stats.Arch).To(HaveKeyWithValue("x64", 2))
	})

	It("should write the grouped text report and the unknown vendor report", func() {
		res, err := vstscan.Scan(context.Background(), []string{root}, vstscan.WithConfig(defaults()), vstscan.WithDiagnostics(true))
		Expect(err).ToNot(HaveOccurred())

		out := filepath.Join(GinkgoT().TempDir(), "reports", "plugins.txt")
		Expect(report.Write(out, report.FormatText, res.Report, report.Options{})).To(Succeed())
		unknown := report.OutputPath(out, report.FormatText, "_unknown")
		Expect(report.WriteUnknownFile(unknown, res.Report, res.Sentinel)).To(Succeed())

		text, err := os.ReadFile(out)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(text)).To(HavePrefix("[Acustica Audio]\n- Aquarius (VST2, v1.2)\n\n[Brainworx]\n- bx_digital V3 (VST3, v3.0)\n"))

		unknownText, err := os.ReadFile(unknown)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(unknownText)).To(ContainSubstring("# 1 plugins without a known vendor"))
		Expect(string(unknownText)).To(ContainSubstring(filepath.Join(root, "VST2", "Unsorted", "SomePlugin.dll")))
	})

	It("should filter the scan", func() {
		res, err := vstscan.Scan(context.Background(), []string{root}, vstscan.WithConfig(defaults()), vstscan.WithFilter(`format == "VST3"`))
		Expect(err).ToNot(HaveOccurred())
		for _, r := range res.Report.Records() {
			Expect(r.Format).To(Equal(vstscan.FormatVST3))
		}
		Expect(res.Report.Total).To(Equal(2))
	})

	It("should count the same plugin reached through overlapping roots once", func() {
		res, err := vstscan.Scan(context.Background(), []string{root, filepath.Join(root, "VST3")}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		for _, r := range res.Report.Records() {
			if strings.HasPrefix(r.Name, "smartEQ") {
				Expect(r.Copies).To(Equal(1))
			}
		}
	})

	It("should fail without paths", func() {
		cfg := defaults()
		cfg.Settings.IncludeDefaultPaths = false
		_, err := vstscan.Scan(context.Background(), nil, vstscan.WithConfig(cfg))
		Expect(err).To(MatchError(ContainSubstring("no plugin paths")))
	})

	It("should fail for a missing root", func() {
		_, err := vstscan.Scan(context.Background(), []string{filepath.Join(root, "missing")}, vstscan.WithConfig(defaults()))
		Expect(err).To(HaveOccurred())
	})
})
