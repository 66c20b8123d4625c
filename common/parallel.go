// Package common - shared data-parallel helpers used by the transformation engine.
package common

import (
	"runtime"
	"sync"
)

// Number is the set of numeric types that Clamp accepts.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Clamp restricts a value to the specified range [lo, hi].
//
// Arguments:
// - value: The value to clamp.
// - lo: Minimum allowed value.
// - hi: Maximum allowed value.
//
// Returns:
// - The clamped value within [lo, hi].
//
// @example
// clamped := Clamp(1.3, 0, 1) // Returns 1
// index := Clamp(-2, 0, width-1) // Returns 0
func Clamp[T Number](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// minPartition is the smallest number of elements worth handing to a goroutine.
const minPartition = 1024

// Parallel executes fn across multiple goroutines, each receiving a
// contiguous [partStart, partEnd) slice of the index space [0, dataSize).
//
// Partitions never overlap, so fn may write to its own range of a shared
// destination without synchronization. Parallel returns only after every
// partition has completed.
//
// Arguments:
// - dataSize: The size of the data to process.
// - fn: Function to execute for each partition (receives start and end indices).
//
// Returns:
// - None.
//
// @example
//
//	Parallel(height, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        // Process row y
//	    }
//	})
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	ParallelN(dataSize, 1, fn)
}

// ParallelN is Parallel with a hint of how much work each index carries.
// Row-oriented callers pass the row width so that small images still run
// serially while tall images with few columns are split.
func ParallelN(dataSize, costPerIndex int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}
	if costPerIndex < 1 {
		costPerIndex = 1
	}

	numGoroutines := runtime.GOMAXPROCS(0)
	if numGoroutines > dataSize {
		numGoroutines = dataSize
	}

	// Process serially if the data is too small for goroutine overhead to pay off.
	if numGoroutines < 2 || dataSize*costPerIndex < minPartition*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize
		// Last partition gets any remaining data.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}
	wg.Wait()
}
