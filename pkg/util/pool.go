package util

import "runtime"

// GetOptimalPoolSize returns the default size for CPU-bound pools.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Twice the core count keeps cores busy while workers sit in cgo parser
// calls or page faults on mapped files. The cap bounds parser memory on
// large machines.
func GetOptimalPoolSize() int {
	return min(max(runtime.NumCPU()*2, 4), 32)
}

// GetOptimalPoolSizeWithOverride returns override when positive, otherwise
// GetOptimalPoolSize.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}

// WorkerCount sizes a pool for a batch of jobs: never more workers than
// jobs, never fewer than one.
func WorkerCount(override, jobs int) int {
	return max(min(GetOptimalPoolSizeWithOverride(override), jobs), 1)
}
