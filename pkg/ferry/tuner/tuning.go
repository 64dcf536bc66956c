package tuner

import "math/bits"

// Copy chunk bounds.
const (
	minChunkSize = 64 * 1024
	maxChunkSize = 1024 * 1024

	// chunkMemoryDivisor is the share of available RAM one copy chunk may
	// take: 8 GiB available or more gives 1 MiB chunks.
	chunkMemoryDivisor = 8192
)

// Tuning holds the engine settings derived from system resources.
type Tuning struct {
	// ChunkSize is the copy buffer size in bytes, a power of two.
	ChunkSize int
}

// Calculate derives engine settings from resources.
func Calculate(resources SystemResources) Tuning {
	return Tuning{ChunkSize: chunkSize(resources.AvailableRAM)}
}

// chunkSize scales the copy buffer with available memory, rounded down to
// a power of two and clamped to [minChunkSize, maxChunkSize].
func chunkSize(availableRAM int64) int {
	n := availableRAM / chunkMemoryDivisor
	if n <= minChunkSize {
		return minChunkSize
	}
	if n >= maxChunkSize {
		return maxChunkSize
	}
	return 1 << (bits.Len64(uint64(n)) - 1)
}

// Auto detects the host resources and returns their tuning. Detection
// failures fall back to the platform defaults Detect reports.
func Auto() Tuning {
	resources, _ := Detect()
	return Calculate(resources)
}
