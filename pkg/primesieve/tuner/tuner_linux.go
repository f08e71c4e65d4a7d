//go:build linux

package tuner

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// errNoMemAvailable is returned for kernels that predate MemAvailable.
var errNoMemAvailable = errors.New("meminfo has no MemAvailable")

// Detect detects available system resources (CPU and RAM).
// Total memory comes from sysinfo(2). Available memory is the kernel's
// MemAvailable estimate, which counts reclaimable page cache; free plus
// buffer memory from sysinfo is used when /proc cannot be read.
func Detect() (SystemResources, error) {
	resources := SystemResources{
		CPUCores: runtime.NumCPU(),
	}

	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return resources, fmt.Errorf("sysinfo: %w", err)
	}

	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	resources.TotalRAM = int64(uint64(info.Totalram) * unit)

	available, err := memAvailable(procfs.DefaultMountPoint)
	if err != nil {
		logger.Debug("falling back to sysinfo free memory", "error", err)
		available = int64((uint64(info.Freeram) + uint64(info.Bufferram)) * unit)
	}
	resources.AvailableRAM = available

	return resources, nil
}

// memAvailable reads MemAvailable in bytes from the meminfo file under the
// given proc mount point.
func memAvailable(mountPoint string) (int64, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return 0, err
	}
	info, err := fs.Meminfo()
	if err != nil {
		return 0, err
	}
	if info.MemAvailable == nil {
		return 0, errNoMemAvailable
	}
	return int64(*info.MemAvailable) * 1024, nil
}
