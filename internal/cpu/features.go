package cpu

import (
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

// Features describes the CPU capabilities the instruction probes care about.
//
// The flags come from golang.org/x/sys/cpu and are informational: whether an
// instruction really executes is decided by running it under the fault trap.
type Features struct {
	// x86
	HasPOPCNT bool
	HasSSE42  bool
	HasBMI2   bool
	HasAVX2   bool
	HasAVX512 bool

	// arm64
	HasASIMD   bool
	HasCRC32   bool
	HasATOMICS bool
	HasSVE     bool

	Architecture string
}

// DetectFeatures reports the available CPU features for the current process.
func DetectFeatures() Features {
	return Features{
		HasPOPCNT:    cpu.X86.HasPOPCNT,
		HasSSE42:     cpu.X86.HasSSE42,
		HasBMI2:      cpu.X86.HasBMI2,
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512,
		HasASIMD:     cpu.ARM64.HasASIMD,
		HasCRC32:     cpu.ARM64.HasCRC32,
		HasATOMICS:   cpu.ARM64.HasATOMICS,
		HasSVE:       cpu.ARM64.HasSVE,
		Architecture: runtime.GOARCH,
	}
}

// Names returns the set feature flags, sorted, in lower case.
func (f Features) Names() []string {
	flags := map[string]bool{
		"popcnt":  f.HasPOPCNT,
		"sse4.2":  f.HasSSE42,
		"bmi2":    f.HasBMI2,
		"avx2":    f.HasAVX2,
		"avx512":  f.HasAVX512,
		"asimd":   f.HasASIMD,
		"crc32":   f.HasCRC32,
		"atomics": f.HasATOMICS,
		"sve":     f.HasSVE,
	}

	names := make([]string, 0, len(flags))
	for name, set := range flags {
		if set {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}

// Has reports whether the named flag (as returned by Names) is set.
// Unknown names report false.
func (f Features) Has(name string) bool {
	for _, n := range f.Names() {
		if n == name {
			return true
		}
	}

	return false
}
