//go:build !darwin && !linux

package tuner

import "runtime"

// Detect reports the CPU cores and assumes defaultTotalRAM, half of it
// available.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     defaultTotalRAM,
		AvailableRAM: defaultTotalRAM / 2,
	}, nil
}
