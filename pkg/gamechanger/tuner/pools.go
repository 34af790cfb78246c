package tuner

// Pool limits.
const (
	// maxWorkers caps every pool.
	maxWorkers = 32

	minHashWorkers = 2
	minCopyWorkers = 2

	// copyWorkerMemory is the memory budget assumed per copy worker.
	copyWorkerMemory = 64 << 20

	// memoryFraction is the share of available RAM the copy pool may claim.
	memoryFraction = 0.10
)

// Pools holds worker counts for the manifest builder and the
// snapshot/restore copy loops.
type Pools struct {
	// Hash bounds concurrent file hashing while building manifests.
	Hash int

	// Copy bounds concurrent file copies during capture and restore.
	Copy int
}

// Calculate sizes the pools:
//   - Hash: twice the core count, since hashing small files waits on I/O.
//   - Copy: the core count, reduced when available RAM cannot carry
//     that many workers at copyWorkerMemory each.
//
// Both are clamped to [min, maxWorkers].
func Calculate(res SystemResources) Pools {
	cores := max(res.CPUCores, 1)

	hash := clamp(cores*2, minHashWorkers, maxWorkers)

	copyWorkers := cores
	if res.AvailableRAM > 0 {
		byMemory := int(float64(res.AvailableRAM) * memoryFraction / copyWorkerMemory)
		copyWorkers = min(copyWorkers, byMemory)
	}
	copyWorkers = clamp(copyWorkers, minCopyWorkers, maxWorkers)

	return Pools{Hash: hash, Copy: copyWorkers}
}

// CalculateWithOverride applies the workers setting. A positive override
// sets both pools, still capped at maxWorkers; zero or less keeps the
// calculated values.
func CalculateWithOverride(res SystemResources, override int) Pools {
	p := Calculate(res)
	if override > 0 {
		n := min(override, maxWorkers)
		p.Hash = n
		p.Copy = n
	}
	return p
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
