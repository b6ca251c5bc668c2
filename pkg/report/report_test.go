package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/flanksource/vstscan/pkg/types"
)

func rec(vendor, name string, format types.Format, version string) types.Record {
	return types.Record{Vendor: vendor, Name: name, Format: format, Version: version}
}

var _ = Describe("Build", func() {
	It("should order vendors case-insensitively", func() {
		r := Build([]types.Record{
			rec("Zebra", "Z1", types.FormatVST3, ""),
			rec("acustica audio", "Aqua", types.FormatVST3, ""),
			rec("Acustica Audio", "Nebula", types.FormatVST3, ""),
			rec("Brainworx", "bx_digital V3", types.FormatVST3, "3.0"),
		})

		vendors := []string{}
		for _, g := range r.Groups {
			vendors = append(vendors, g.Vendor)
		}
		Expect(vendors).To(Equal([]string{"Acustica Audio", "Brainworx", "Zebra"}))
		Expect(r.Total).To(Equal(4))
	})

	It("should keep vendors differing only by case in one group", func() {
		r := Build([]types.Record{
			rec("korg", "M1", types.FormatVST3, ""),
			rec("KORG", "Triton", types.FormatVST3, ""),
			rec("Korg", "Polysix", types.FormatVST2, ""),
		})
		Expect(r.Groups).To(HaveLen(1))
		Expect(r.Groups[0].Vendor).To(Equal("KORG"))
		Expect(r.Groups[0].Plugins).To(HaveLen(3))
		for _, p := range r.Groups[0].Plugins {
			Expect(p.Vendor).To(Equal("KORG"))
		}
	})

	It("should list Acustica Audio before Zebra", func() {
		r := Build([]types.Record{
			rec("Zebra", "Z1", types.FormatVST3, ""),
			rec("Acustica Audio", "Nebula", types.FormatVST3, ""),
		})
		Expect(r.Groups[0].Vendor).To(Equal("Acustica Audio"))
		Expect(r.Groups[1].Vendor).To(Equal("Zebra"))
	})

	It("should order plugins by name then VST3 before VST2", func() {
		r := Build([]types.Record{
			rec("FabFilter", "Pro-Q 3", types.FormatVST2, "3.21"),
			rec("FabFilter", "pro-c 2", types.FormatVST3, ""),
			rec("FabFilter", "Pro-Q 3", types.FormatVST3, "3.21"),
			rec("FabFilter", "Pro-L 2", types.FormatVST3, ""),
		})
		Expect(r.Groups).To(HaveLen(1))
		var lines []string
		for _, p := range r.Groups[0].Plugins {
			lines = append(lines, p.String())
		}
		Expect(lines).To(Equal([]string{
			"pro-c 2 (VST3)",
			"Pro-L 2 (VST3)",
			"Pro-Q 3 (VST3, v3.21)",
			"Pro-Q 3 (VST2, v3.21)",
		}))
	})

	It("should not modify the input", func() {
		input := []types.Record{
			rec("B", "z", types.FormatVST3, ""),
			rec("A", "y", types.FormatVST3, ""),
			rec("B", "a", types.FormatVST3, ""),
		}
		Build(input)
		Expect(input[0].Name).To(Equal("z"))
		Expect(input[2].Name).To(Equal("a"))
	})

	It("should return an empty report for no records", func() {
		r := Build(nil)
		Expect(r.Empty()).To(BeTrue())
		Expect(r.Groups).To(BeEmpty())
	})
})

var _ = Describe("Writers", func() {
	var r types.Report

	BeforeEach(func() {
		bx := rec("Brainworx", "bx_digital V3", types.FormatVST3, "3.0")
		bx.Paths = []string{"/a/bx_digital V3.vst3"}
		bx.Copies = 2
		unknown := rec(types.UnknownVendor, "SomePlugin", types.FormatVST2, "")
		unknown.Paths = []string{"/vst/SomePlugin.dll"}
		unknown.RawVendor = "ACME-ish"
		r = Build([]types.Record{
			bx,
			rec("Acustica Audio", "Ultramarine4", types.FormatVST3, "v1.2"),
			unknown,
		})
	})

	It("should write the grouped text report", func() {
		var buf bytes.Buffer
		Expect(WriteText(&buf, r, Options{})).To(Succeed())
		Expect(buf.String()).To(Equal(strings.Join([]string{
			"[Acustica Audio]",
			"- Ultramarine4 (VST3, v1.2)",
			"",
			"[Brainworx]",
			"- bx_digital V3 (VST3, v3.0)",
			"",
			"[Unknown Vendor]",
			"- SomePlugin (VST2)",
			"",
		}, "\n")))
	})

	It("should append paths when asked", func() {
		var buf bytes.Buffer
		Expect(WriteText(&buf, r, Options{Paths: true})).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("- bx_digital V3 (VST3, v3.0) :: /a/bx_digital V3.vst3\n"))
	})

	It("should render a line template", func() {
		var buf bytes.Buffer
		Expect(WriteText(&buf, r, Options{LineTemplate: "* {{.name}} [{{.format}}]"})).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("[Brainworx]\n* bx_digital V3 [VST3]\n"))
	})

	It("should write JSON that round-trips", func() {
		var buf bytes.Buffer
		Expect(WriteJSON(&buf, r)).To(Succeed())
		var decoded types.Report
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded.Total).To(Equal(3))
		Expect(decoded.Groups[1].Plugins[0].Name).To(Equal("bx_digital V3"))
	})

	It("should write YAML", func() {
		var buf bytes.Buffer
		Expect(WriteYAML(&buf, r)).To(Succeed())
		var decoded types.Report
		Expect(yaml.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
		Expect(decoded.Groups).To(HaveLen(3))
	})

	It("should write CSV rows in report order", func() {
		var buf bytes.Buffer
		Expect(WriteCSV(&buf, r)).To(Succeed())
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(4))
		Expect(lines[0]).To(Equal("Vendor,Name,Format,Version,Arch,Identifier,Copies,Paths"))
		Expect(lines[2]).To(Equal("Brainworx,bx_digital V3,VST3,3.0,,,2,/a/bx_digital V3.vst3"))
	})

	It("should list unknown vendors with raw vendor and path", func() {
		var buf bytes.Buffer
		Expect(WriteUnknown(&buf, r, "")).To(Succeed())
		Expect(buf.String()).To(Equal("# 1 plugins without a known vendor\n" +
			"- SomePlugin (VST2) [raw vendor: ACME-ish] :: /vst/SomePlugin.dll\n"))
	})

	It("should create parent directories when writing files", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "nested", "out", "plugins.json")
		Expect(Write(path, FormatJSON, r, Options{})).To(Succeed())
		data, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"vendor": "Brainworx"`))
	})

	It("should write nothing for an empty report", func() {
		var buf bytes.Buffer
		Expect(WriteText(&buf, Build(nil), Options{})).To(Succeed())
		Expect(buf.String()).To(BeEmpty())
	})
})

var _ = DescribeTable("OutputPath",
	func(base string, format Format, suffix, expected string) {
		Expect(OutputPath(base, format, suffix)).To(Equal(expected))
	},
	Entry("same format", "plugins.txt", FormatText, "", "plugins.txt"),
	Entry("other format", "out/plugins.txt", FormatJSON, "", "out/plugins.json"),
	Entry("unknown report", "plugins.txt", FormatText, "_unknown", "plugins_unknown.txt"),
	Entry("no extension", "report", FormatCSV, "", "report.csv"),
)

var _ = DescribeTable("ParseFormat",
	func(input string, expected Format, ok bool) {
		f, err := ParseFormat(input)
		if !ok {
			Expect(err).To(HaveOccurred())
			return
		}
		Expect(err).ToNot(HaveOccurred())
		Expect(f).To(Equal(expected))
	},
	Entry("txt", "txt", FormatText, true),
	Entry("text", "TEXT", FormatText, true),
	Entry("yml", "yml", FormatYAML, true),
	Entry("csv", "csv", FormatCSV, true),
	Entry("xml", "xml", Format(""), false),
)

var _ = Describe("Summarize", func() {
	It("should count formats, unknowns, duplicates and rank vendors", func() {
		a := rec("Acustica Audio", "Nebula", types.FormatVST3, "")
		a.Arch = "x64"
		b := rec("Acustica Audio", "Aqua", types.FormatVST2, "")
		b.Copies = 3
		b.Arch = "x64"
		c := rec("Brainworx", "bx_digital V3", types.FormatVST3, "")
		c.Arch = "x86"
		d := rec(types.UnknownVendor, "SomePlugin", types.FormatVST3, "")

		s := Summarize(Build([]types.Record{a, b, c, d}), "")
		Expect(s.Total).To(Equal(4))
		Expect(s.Vendors).To(Equal(2))
		Expect(s.VST3).To(Equal(3))
		Expect(s.VST2).To(Equal(1))
		Expect(s.Duplicates).To(Equal(2))
		Expect(s.Unknown).To(Equal(1))
		Expect(s.UnknownPercent).To(BeNumerically("~", 25.0))
		Expect(s.Arch).To(Equal(map[string]int{"x64": 2, "x86": 1}))
		Expect(s.Top).To(Equal([]VendorCount{{"Acustica Audio", 2}, {"Brainworx", 1}}))
	})

	It("should cap the ranking", func() {
		var records []types.Record
		for i := 0; i < TopVendors+5; i++ {
			records = append(records, rec("Vendor "+string(rune('A'+i)), "P", types.FormatVST3, ""))
		}
		Expect(Summarize(Build(records), "").Top).To(HaveLen(TopVendors))
	})
})
