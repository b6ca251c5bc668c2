package config

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/vstscan/pkg/types"
	"github.com/flanksource/vstscan/pkg/utils"
	"github.com/samber/lo"
)

func aliasKeys(v types.VendorEntry) []string {
	return lo.Map(v.Aliases, func(a string, _ int) string { return utils.Key(a) })
}

func vendorByName(config *types.Config, name string) (types.VendorEntry, bool) {
	return lo.Find(config.Vendors, func(v types.VendorEntry) bool { return v.Name == name })
}

var _ = Describe("Config", func() {
	Describe("LoadDefaultConfig", func() {
		It("should load the embedded vendor table", func() {
			config, err := LoadDefaultConfig()
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Vendors).ToNot(BeEmpty())
			Expect(ValidateConfig(config)).To(Succeed())
		})

		It("should make every label an alias of itself", func() {
			config, err := LoadDefaultConfig()
			Expect(err).ToNot(HaveOccurred())
			for _, v := range config.Vendors {
				keys := lo.Map(v.Aliases, func(a string, _ int) string { return utils.Key(a) })
				Expect(keys).To(ContainElement(utils.Key(v.Name)), v.Name)
			}
		})

		DescribeTable("should carry the well-known vendors",
			func(label string, alias string) {
				config, err := LoadDefaultConfig()
				Expect(err).ToNot(HaveOccurred())
				v, ok := vendorByName(config, label)
				Expect(ok).To(BeTrue(), label)
				Expect(aliasKeys(v)).To(ContainElement(utils.Key(alias)))
			},
			Entry("Brainworx via Plugin Alliance", "Brainworx", "plugin alliance"),
			Entry("Brainworx via bx", "Brainworx", "bx"),
			Entry("Acustica regional suffix", "Acustica Audio", "acustica audio srl"),
			Entry("Sonible", "Sonible", "sonible"),
			Entry("u-he", "u-he", "uhe"),
		)

		It("should lower-case prefixes and keep their trailing space", func() {
			config, err := LoadDefaultConfig()
			Expect(err).ToNot(HaveOccurred())
			v, ok := vendorByName(config, "PSPaudioware")
			Expect(ok).To(BeTrue())
			Expect(v.Prefixes).To(ContainElement("psp "))
		})
	})

	Describe("MergeWithDefaults", func() {
		var defaults *types.Config

		BeforeEach(func() {
			var err error
			defaults, err = LoadDefaultConfig()
			Expect(err).ToNot(HaveOccurred())
		})

		It("should return the defaults when there is no user config", func() {
			merged := MergeWithDefaults(defaults, nil)
			Expect(merged.Vendors).To(HaveLen(len(defaults.Vendors)))
			Expect(merged.Settings.Workers).To(Equal(defaults.Settings.Workers))
		})

		It("should extend an existing vendor with user aliases", func() {
			user := &types.Config{Vendors: []types.VendorEntry{
				{Name: "Sonible", Aliases: []string{"sonible labs"}, Fragments: []string{"pure:"}},
			}}
			merged := MergeWithDefaults(defaults, user)
			v, ok := vendorByName(merged, "Sonible")
			Expect(ok).To(BeTrue())
			Expect(aliasKeys(v)).To(ContainElements("sonible", "soniblelabs"))
			Expect(v.Fragments).To(ContainElements("smarteq", "pure:"))
			Expect(merged.Vendors).To(HaveLen(len(defaults.Vendors)))
		})

		It("should add new vendors", func() {
			user := &types.Config{Vendors: []types.VendorEntry{
				{Name: "Kazrog", Aliases: []string{"kazrog llc"}},
			}}
			merged := MergeWithDefaults(defaults, user)
			_, ok := vendorByName(merged, "Kazrog")
			Expect(ok).To(BeTrue())
			Expect(merged.Vendors).To(HaveLen(len(defaults.Vendors) + 1))
		})

		It("should move an alias claimed by a user vendor", func() {
			user := &types.Config{Vendors: []types.VendorEntry{
				{Name: "Plugin Alliance", Aliases: []string{"plugin alliance", "pluginalliance"}},
			}}
			merged := MergeWithDefaults(defaults, user)
			applyVendorDefaults(merged)
			Expect(ValidateConfig(merged)).To(Succeed())

			bx, _ := vendorByName(merged, "Brainworx")
			Expect(aliasKeys(bx)).ToNot(ContainElement("pluginalliance"))
			Expect(aliasKeys(bx)).To(ContainElement("brainworx"))
		})

		It("should let user settings override defaults", func() {
			user := &types.Config{Settings: types.Settings{
				Workers:       2,
				Formats:       []string{"json", "csv"},
				FuzzyDistance: lo.ToPtr(0),
			}}
			merged := MergeWithDefaults(defaults, user)
			Expect(merged.Settings.Workers).To(Equal(2))
			Expect(merged.Settings.Formats).To(Equal([]string{"json", "csv"}))
			Expect(*merged.Settings.FuzzyDistance).To(Equal(0))
			Expect(merged.Settings.Output).To(Equal(defaults.Settings.Output))
		})
	})

	Describe("LoadMergedConfig", func() {
		It("should load and merge an explicit user file", func() {
			path := filepath.Join(GinkgoT().TempDir(), ConfigFile)
			Expect(os.WriteFile(path, []byte(`
vendors:
  - name: Kazrog
    aliases: [kazrog llc]
settings:
  workers: 3
`), 0644)).To(Succeed())

			config, err := LoadMergedConfig(path)
			Expect(err).ToNot(HaveOccurred())
			Expect(config.Settings.Workers).To(Equal(3))
			Expect(config.Settings.UnknownVendor).To(Equal(types.UnknownVendor))
			v, ok := vendorByName(config, "Kazrog")
			Expect(ok).To(BeTrue())
			Expect(v.Aliases).To(Equal([]string{"Kazrog", "kazrog llc"}))
		})

		It("should fail on an explicit file that does not exist", func() {
			_, err := LoadMergedConfig(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})

		It("should reject a user file that breaks validation", func() {
			path := filepath.Join(GinkgoT().TempDir(), ConfigFile)
			Expect(os.WriteFile(path, []byte(`
vendors:
  - name: None
`), 0644)).To(Succeed())

			_, err := LoadMergedConfig(path)
			Expect(err).To(MatchError(ContainSubstring("unknown placeholder")))
		})
	})

	Describe("ValidateConfig", func() {
		It("should reject a nil configuration", func() {
			Expect(ValidateConfig(nil)).To(MatchError("configuration is nil"))
		})

		It("should reject an alias shared by two vendors", func() {
			config := &types.Config{Vendors: []types.VendorEntry{
				{Name: "Alpha Audio", Aliases: []string{"alpha"}},
				{Name: "Alpha Labs", Aliases: []string{"ALPHA"}},
			}}
			Expect(ValidateConfig(config)).To(MatchError(ContainSubstring("already an alias of Alpha Audio")))
		})

		It("should reject duplicate labels", func() {
			config := &types.Config{Vendors: []types.VendorEntry{
				{Name: "u-he"},
				{Name: "U He"},
			}}
			Expect(ValidateConfig(config)).To(MatchError(ContainSubstring("duplicates")))
		})

		It("should reject unknown report formats", func() {
			config := &types.Config{Settings: types.Settings{Formats: []string{"xml"}}}
			Expect(ValidateConfig(config)).To(MatchError(ContainSubstring("unknown report format")))
		})
	})
})
