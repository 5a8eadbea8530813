package device

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// HostInfo describes the CPU device.
type HostInfo struct {
	Arch     string
	NumCPU   int
	Features []string // SIMD extensions relevant to bulk fills and copies
}

func (h HostInfo) String() string {
	if len(h.Features) == 0 {
		return fmt.Sprintf("%s, %d logical CPUs", h.Arch, h.NumCPU)
	}
	return fmt.Sprintf("%s, %d logical CPUs, %s", h.Arch, h.NumCPU, strings.Join(h.Features, " "))
}

// Host returns information about the host CPU.
func Host() HostInfo {
	info := HostInfo{Arch: runtime.GOARCH, NumCPU: runtime.NumCPU()}
	add := func(ok bool, name string) {
		if ok {
			info.Features = append(info.Features, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return info
}
