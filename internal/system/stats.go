package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Usage is a snapshot of what the current process has consumed.
type Usage struct {
	RSSBytes   uint64
	CPUSeconds float64
	CPUPercent float64
	Goroutines int
	// HostAvailable is the memory left on the host.
	HostAvailable uint64
}

// CurrentUsage samples the running process.
func CurrentUsage() (Usage, error) {
	u := Usage{Goroutines: runtime.NumGoroutine()}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return u, fmt.Errorf("open process: %w", err)
	}
	mi, err := p.MemoryInfo()
	if err != nil {
		return u, fmt.Errorf("memory info: %w", err)
	}
	u.RSSBytes = mi.RSS

	if times, err := p.Times(); err == nil {
		u.CPUSeconds = times.User + times.System
	}
	if pct, err := p.CPUPercent(); err == nil {
		u.CPUPercent = pct
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		u.HostAvailable = vm.Available
	}
	return u, nil
}

// HumanBytes formats a byte count with a binary unit.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
