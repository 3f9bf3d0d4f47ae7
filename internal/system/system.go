// Package system holds the host-resource helpers shared by the engine and
// the offline frame writer: a frame buffer pool and worker-count sizing.
package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// AutoWorkers picks a worker count for parallel frame rendering. It starts
// from the logical CPU count and caps it so in-flight frame buffers fit in
// roughly half the available memory, keeping headroom for an encoder
// process. frameBytes is the size of one RGBA frame.
func AutoWorkers(frameBytes int) int {
	workers := runtime.NumCPU()
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		workers = n
	}
	if frameBytes <= 0 {
		return workers
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm.Available > 0 {
		budget := int(vm.Available / 2 / uint64(frameBytes))
		if budget < 1 {
			budget = 1
		}
		if workers > budget {
			workers = budget
		}
	}
	return workers
}
