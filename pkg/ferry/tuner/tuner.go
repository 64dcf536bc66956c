// Package tuner sizes engine buffers from the resources of the host. It is
// used when engine.chunk_size is "auto".
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the RAM in bytes that is free or reclaimable. It is an
	// estimate on platforms without a direct query.
	AvailableRAM int64
}

// defaultTotalRAM is assumed when memory cannot be detected.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024
