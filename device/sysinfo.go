package device

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemInfo is a point-in-time snapshot of machine load.
type SystemInfo struct {
	OS            string  `json:"os"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
}

// GetSystemInfo samples CPU, memory, and disk usage.
func (c *Controller) GetSystemInfo() (string, SystemInfo, error) {
	info := SystemInfo{OS: runtime.GOOS}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		info.CPUPercent = percents[0]
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return "", info, fmt.Errorf("%w: memory stats: %v", ErrDeviceControlUnavailable, err)
	}
	info.MemoryPercent = vm.UsedPercent
	info.MemoryTotalGB = float64(vm.Total) / (1 << 30)

	if du, err := disk.Usage("/"); err == nil {
		info.DiskPercent = du.UsedPercent
		info.DiskTotalGB = float64(du.Total) / (1 << 30)
	}

	msg := fmt.Sprintf("CPU at %.0f percent, memory at %.0f percent, disk at %.0f percent",
		info.CPUPercent, info.MemoryPercent, info.DiskPercent)
	return msg, info, nil
}
