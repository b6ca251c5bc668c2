package vstscan_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/vstscan"
	"github.com/flanksource/vstscan/pkg/config"
	"github.com/flanksource/vstscan/pkg/types"
)

func defaults() *types.Config {
	cfg, err := config.LoadDefaultConfig()
	Expect(err).ToNot(HaveOccurred())
	return cfg
}

func lines(r types.Report) map[string][]string {
	out := map[string][]string{}
	for _, g := range r.Groups {
		for _, p := range g.Plugins {
			out[g.Vendor] = append(out[g.Vendor], p.String())
		}
	}
	return out
}

var _ = Describe("Process", func() {
	It("should merge brainworx copies into one line under Brainworx", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "brainworx", Name: "bx_digital V3", Format: vstscan.FormatVST3, Version: "3.0", SourcePath: "/a/bx_digital V3.vst3"},
			{RawVendor: "Brainworx GmbH", Name: "bx_digital V3", Format: vstscan.FormatVST3, Version: "2.5", SourcePath: "/b/bx_digital V3.vst3"},
		}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())

		Expect(r.Groups).To(HaveLen(1))
		Expect(r.Groups[0].Vendor).To(Equal("Brainworx"))
		Expect(r.Groups[0].Plugins).To(HaveLen(1))
		Expect(r.Groups[0].Plugins[0].String()).To(Equal("bx_digital V3 (VST3, v3.0)"))
		Expect(r.Groups[0].Plugins[0].Copies).To(Equal(2))
		Expect(r.Groups[0].Plugins[0].Paths).To(BeEmpty())
	})

	It("should keep the newest version and both formats", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "FabFilter", Name: "Pro-Q 3", Format: vstscan.FormatVST2, Version: "1.0"},
			{RawVendor: "fabfilter software instruments", Name: "Pro-Q 3", Format: vstscan.FormatVST2, Version: "2.1"},
			{RawVendor: "FabFilter", Name: "Pro-Q 3", Format: vstscan.FormatVST3},
		}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		Expect(lines(r)).To(Equal(map[string][]string{
			"FabFilter": {"Pro-Q 3 (VST3)", "Pro-Q 3 (VST2, v2.1)"},
		}))
	})

	It("should group unknown vendors and order vendors case-insensitively", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{Name: "SomePlugin", Format: vstscan.FormatVST2, SourcePath: "/vst/SomePlugin.dll"},
			{RawVendor: "Zebra", Name: "Z1", Format: vstscan.FormatVST3},
			{RawVendor: "acustica audio", Name: "Aquarius", Format: vstscan.FormatVST3},
			{Name: "bx_console 9000", Format: vstscan.FormatVST2},
		}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())

		var vendors []string
		for _, g := range r.Groups {
			vendors = append(vendors, g.Vendor)
		}
		Expect(vendors).To(Equal([]string{"Acustica Audio", "Brainworx", vstscan.UnknownVendor, "Zebra"}))
	})

	It("should report fallback vendors that differ only by case in one group", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "KORG", Name: "Triton", Format: vstscan.FormatVST3},
			{RawVendor: "Korg", Name: "M1", Format: vstscan.FormatVST3},
			{RawVendor: "korg", Name: "Polysix", Format: vstscan.FormatVST2},
		}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.Groups).To(HaveLen(1))
		Expect(r.Groups[0].Plugins).To(HaveLen(3))
		Expect(r.Groups[0].Vendor).To(Equal("KORG"))
	})

	It("should drop records without a name or format", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "Waves", Name: "", Format: vstscan.FormatVST3},
			{RawVendor: "Waves", Name: "L2", Format: "AU"},
			{RawVendor: "Waves", Name: "WaveShell1-VST3 14.0", Format: vstscan.FormatVST3},
		}, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.Total).To(Equal(1))
	})

	It("should not modify the input", func() {
		input := []vstscan.Record{{RawVendor: "Brainworx GmbH", Name: "bx_digital V3", Format: vstscan.FormatVST3, SourcePath: "/a"}}
		_, err := vstscan.Process(input, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		Expect(input[0].Vendor).To(BeEmpty())
		Expect(input[0].SourcePath).To(Equal("/a"))
	})

	It("should keep source paths with diagnostics", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "u-he", Name: "Diva", Format: vstscan.FormatVST3, SourcePath: "/b/Diva.vst3"},
			{RawVendor: "u-he", Name: "Diva", Format: vstscan.FormatVST3, SourcePath: "/a/Diva.vst3"},
		}, vstscan.WithConfig(defaults()), vstscan.WithDiagnostics(true))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.Groups[0].Plugins[0].Paths).To(Equal([]string{"/a/Diva.vst3", "/b/Diva.vst3"}))
	})

	It("should apply a filter after merging", func() {
		r, err := vstscan.Process([]vstscan.Record{
			{RawVendor: "Valhalla DSP", Name: "VintageVerb", Format: vstscan.FormatVST3, Version: "4.0"},
			{RawVendor: "Valhalla DSP", Name: "Supermassive", Format: vstscan.FormatVST3, Version: "1.5"},
			{RawVendor: "Valhalla DSP", Name: "Supermassive", Format: vstscan.FormatVST3, Version: "2.5"},
		}, vstscan.WithConfig(defaults()), vstscan.WithFilter(`newer(version, "2.0")`))
		Expect(err).ToNot(HaveOccurred())
		Expect(lines(r)).To(Equal(map[string][]string{
			"Valhalla DSP": {"Supermassive (VST3, v2.5)", "VintageVerb (VST3, v4.0)"},
		}))
	})

	It("should reject an invalid filter", func() {
		_, err := vstscan.Process(nil, vstscan.WithConfig(defaults()), vstscan.WithFilter(`vendor ==`))
		Expect(err).To(HaveOccurred())
	})

	It("should produce an empty report for no plugins", func() {
		r, err := vstscan.Process(nil, vstscan.WithConfig(defaults()))
		Expect(err).ToNot(HaveOccurred())
		Expect(r.Empty()).To(BeTrue())
	})
})
