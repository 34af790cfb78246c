// Package tuner sizes the hashing and copy worker pools from the CPU and
// memory of the machine running a backup.
package tuner

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
)

var logger = logging.Get("tuner")

// fallbackTotalRAM is used when memory detection fails.
const fallbackTotalRAM = 8 << 30

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the RAM the OS reports as available without swapping.
	AvailableRAM int64
}

// Detect reads the core count from the runtime and memory figures from
// gopsutil. When memory cannot be read the resources fall back to 8 GiB
// total with half of it available, and the error is returned alongside.
func Detect() (SystemResources, error) {
	res := SystemResources{CPUCores: runtime.NumCPU()}

	vm, err := mem.VirtualMemory()
	if err != nil {
		res.TotalRAM = fallbackTotalRAM
		res.AvailableRAM = fallbackTotalRAM / 2
		return res, fmt.Errorf("reading memory statistics: %w", err)
	}
	res.TotalRAM = int64(vm.Total)
	res.AvailableRAM = int64(vm.Available)
	if res.AvailableRAM <= 0 || res.AvailableRAM > res.TotalRAM {
		res.AvailableRAM = res.TotalRAM / 2
	}
	return res, nil
}

// Workers returns Calculate for the detected resources with an optional
// override. Detection errors are logged and the fallback figures used.
func Workers(override int) Pools {
	res, err := Detect()
	if err != nil {
		logger.Warn("resource detection failed, using defaults", "error", err)
	}
	pools := CalculateWithOverride(res, override)
	logger.Debug("worker pools sized",
		"cpus", res.CPUCores,
		"available_ram", res.AvailableRAM,
		"hash", pools.Hash,
		"copy", pools.Copy)
	return pools
}
