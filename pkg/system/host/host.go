// Package host describes the machine a measurement runs on.
package host

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	gohost "github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	xcpu "golang.org/x/sys/cpu"
)

// Summary is a short description of the local machine.
type Summary struct {
	Host      string `json:"host"`
	Kernel    string `json:"kernel"`
	CPUModel  string `json:"cpu_model"`
	CPUVendor string `json:"cpu_vendor"`
	CPUs      int    `json:"cpus"`
	MemBytes  uint64 `json:"mem_bytes"`
}

// Summarize collects a Summary. Fields that cannot be read are left empty;
// the first error encountered is returned alongside the partial result.
func Summarize(ctx context.Context) (Summary, error) {
	s := Summary{CPUs: runtime.NumCPU()}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if hi, err := gohost.InfoWithContext(ctx); err == nil {
		s.Host = hi.Hostname
		s.Kernel = hi.KernelVersion
	} else {
		keep(fmt.Errorf("host info: %w", err))
	}

	if ci, err := cpu.InfoWithContext(ctx); err == nil && len(ci) > 0 {
		s.CPUModel = ci[0].ModelName
		s.CPUVendor = ci[0].VendorID
	} else if err != nil {
		keep(fmt.Errorf("cpu info: %w", err))
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		s.CPUs = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemBytes = vm.Total
	} else {
		keep(fmt.Errorf("memory info: %w", err))
	}

	return s, firstErr
}

// MemHumanized renders MemBytes in GiB.
func (s Summary) MemHumanized() string {
	return fmt.Sprintf("%.1f GiB", float64(s.MemBytes)/(1<<30))
}

// RawFPEventsSupported reports whether the raw floating-point event codes
// (r53xxxx, Intel FP_COMP_OPS_EXE umasks) mean anything on this CPU. Other
// vendors either reject them or count unrelated events, and the FP term is off.
func RawFPEventsSupported(ctx context.Context) bool {
	var vendor string
	if ci, err := cpu.InfoWithContext(ctx); err == nil && len(ci) > 0 {
		vendor = ci[0].VendorID
	}
	return rawFPEvents(runtime.GOARCH, vendor, xcpu.X86.HasSSE2)
}

const _intelVendor = "GenuineIntel"

func rawFPEvents(arch, vendor string, sse2 bool) bool {
	switch arch {
	case "amd64", "386":
		return sse2 && vendor == _intelVendor
	default:
		return false
	}
}
