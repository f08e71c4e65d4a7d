//go:build !darwin && !linux

package tuner

import (
	"runtime"
)

// defaultTotalRAM is the assumed total RAM when detection is unavailable.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024

// Detect detects available system resources (CPU and RAM).
// Memory is not probed on this platform; an 8GiB machine with half of it
// free is assumed.
func Detect() (SystemResources, error) {
	totalRAM := int64(defaultTotalRAM)

	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     totalRAM,
		AvailableRAM: totalRAM / 2,
	}, nil
}
