package openmap

import (
	"math"
	"math/bits"
	"unsafe"
)

const (
	// DefaultCapacity is the number of entries a table is sized for when the
	// caller has no better estimate.
	DefaultCapacity = 16

	// DefaultLoadFactor is the default occupancy ratio before a table grows.
	DefaultLoadFactor float32 = 0.75

	// MaxCapacity is the largest number of slots a single table may have.
	MaxCapacity = 1 << 30

	// Tables never shrink below this many slots on removal.
	shrinkFloor = 16
)

// Returns the next power of 2 for the given value `v`, or 1 for v <= 1.
func NextPowerOf2(v int) int {
	if v <= 1 {
		return 1
	}

	return 1 << bits.Len(uint(v-1))
}

// arraySize returns the least power of two no smaller than
// ceil(expected/loadFactor), and at least 2. It reports false if that
// exceeds MaxCapacity.
func arraySize(expected int, loadFactor float32) (int, bool) {
	need := math.Ceil(float64(expected) / float64(loadFactor))
	if need > MaxCapacity {
		return 0, false
	}

	return max(2, NextPowerOf2(int(need))), true
}

// maxFill is the size at which a table of n slots grows. It's always below n,
// so a probe always meets an empty slot.
func maxFill(n int, loadFactor float32) int {
	fill := int(math.Floor(float64(n) * float64(loadFactor)))

	return min(max(1, fill), n-1)
}

// Estimates capacity (number of entries) that fit into the given memory size
// in bytes at the given load factor without growing, for plain tables.
func CapacityFromSize[K comparable, V any](size uintptr, loadFactor float32) int {
	var (
		k K
		v V
	)

	slotSize := unsafe.Sizeof(k) + unsafe.Sizeof(v)
	if slotSize == 0 {
		slotSize = 1
	}

	slots := size / slotSize
	if slots < 3 {
		return 0
	}

	// Tables are powers of two plus the zero-key sentinel.
	n := 1 << (bits.Len(uint(slots-1)) - 1)
	n = min(n, MaxCapacity)

	// Reaching maxFill triggers growth.
	return maxFill(n, loadFactor) - 1
}
