package machine

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/flanksource/vstscan/pkg/platform"
	"github.com/samber/lo"
)

// Universal is the architecture label of a Mach-O binary carrying more than one slice
const Universal = "universal"

// Info contains the detected container format and architecture of a plugin binary
type Info struct {
	OS   string
	Arch string // plugin label: x64, x86, arm64, arm or universal
	Type string // "elf", "macho", "pe", "unknown"
	// Slices lists the architectures of a universal Mach-O
	Slices []string
}

// Known reports whether the file was recognized as a binary with a known architecture
func (i *Info) Known() bool {
	return i != nil && i.Type != "unknown" && i.Arch != ""
}

var (
	elfMagic  = []byte{0x7f, 'E', 'L', 'F'}
	peMagic   = []byte{'M', 'Z'}
	fatMagic  = []byte{0xca, 0xfe, 0xba, 0xbe}
	machMagic = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce}, // 32-bit
		{0xfe, 0xed, 0xfa, 0xcf}, // 64-bit
		{0xce, 0xfa, 0xed, 0xfe}, // 32-bit swapped
		{0xcf, 0xfa, 0xed, 0xfe}, // 64-bit swapped
	}
)

// Detect identifies the binary at path from its magic bytes. Files that are not
// ELF, Mach-O or PE (including empty files) are reported with Type "unknown".
func Detect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, 4)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	magic = magic[:n]

	switch {
	case bytes.HasPrefix(magic, elfMagic):
		return detectELF(f)
	case bytes.HasPrefix(magic, fatMagic):
		return detectFat(f)
	case lo.SomeBy(machMagic, func(m []byte) bool { return bytes.HasPrefix(magic, m) }):
		return detectMachO(f)
	case bytes.HasPrefix(magic, peMagic):
		return detectPE(f)
	}
	return &Info{Type: "unknown"}, nil
}

func detectELF(r io.ReaderAt) (*Info, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF: %w", err)
	}

	info := &Info{OS: "linux", Type: "elf"}
	switch f.Machine {
	case elf.EM_X86_64:
		info.Arch = platform.PluginArch("amd64")
	case elf.EM_AARCH64:
		info.Arch = platform.PluginArch("arm64")
	case elf.EM_386:
		info.Arch = platform.PluginArch("386")
	case elf.EM_ARM:
		info.Arch = platform.PluginArch("arm")
	}
	return info, nil
}

func detectMachO(r io.ReaderAt) (*Info, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Mach-O: %w", err)
	}
	return &Info{OS: "darwin", Type: "macho", Arch: machoArch(f.Cpu)}, nil
}

// detectFat reports a universal binary; a fat file with a single slice takes that slice's architecture
func detectFat(r io.ReaderAt) (*Info, error) {
	f, err := macho.NewFatFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse universal Mach-O: %w", err)
	}

	info := &Info{OS: "darwin", Type: "macho"}
	for _, a := range f.Arches {
		if arch := machoArch(a.Cpu); arch != "" {
			info.Slices = append(info.Slices, arch)
		}
	}
	info.Slices = lo.Uniq(info.Slices)

	switch len(info.Slices) {
	case 0:
	case 1:
		info.Arch = info.Slices[0]
	default:
		info.Arch = Universal
	}
	return info, nil
}

func machoArch(cpu macho.Cpu) string {
	switch cpu {
	case macho.CpuAmd64:
		return platform.PluginArch("amd64")
	case macho.CpuArm64:
		return platform.PluginArch("arm64")
	case macho.Cpu386:
		return platform.PluginArch("386")
	case macho.CpuArm:
		return platform.PluginArch("arm")
	}
	return ""
}

func detectPE(r io.ReaderAt) (*Info, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PE: %w", err)
	}

	info := &Info{OS: "windows", Type: "pe"}
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		info.Arch = platform.PluginArch("amd64")
	case pe.IMAGE_FILE_MACHINE_ARM64:
		info.Arch = platform.PluginArch("arm64")
	case pe.IMAGE_FILE_MACHINE_I386:
		info.Arch = platform.PluginArch("386")
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		info.Arch = platform.PluginArch("arm")
	}
	return info, nil
}

// Arch returns the architecture label of the binary at path, or "" when it cannot be determined
func Arch(path string) string {
	info, err := Detect(path)
	if err != nil || !info.Known() {
		return ""
	}
	return info.Arch
}
