package openmap

import (
	"hash/maphash"
	"math"
	"reflect"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// 2^64 / phi, the multiplier of Fibonacci hashing.
const phi64 = 0x9E3779B97F4A7C15

const (
	canonicalNaN32 = 0x7fc00000
	canonicalNaN64 = 0x7ff8000000000000
)

type HashFunc[K comparable] func(K) uint64

// EqualFunc reports whether two keys (or values) are the same entry.
// It must agree with the HashFunc: equal keys hash equally.
type EqualFunc[K comparable] func(a, b K) bool

// Returns a HashFunc backed by hash/maphash with the given seed.
func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// StringHashFunc returns an unseeded xxhash64 hash for string keys. It's
// deterministic across processes, which the default maphash hash is not.
func StringHashFunc() HashFunc[string] {
	return xxhash.Sum64String
}

// FloatHashFunc hashes floats by their canonical bit pattern, so -0.0 and
// 0.0 hash differently and every NaN hashes the same.
func FloatHashFunc[F constraints.Float](seed maphash.Seed) HashFunc[F] {
	return func(f F) uint64 {
		return maphash.Comparable(seed, floatBits(f))
	}
}

// FloatEqual compares floats by their canonical bit pattern.
func FloatEqual[F constraints.Float](a, b F) bool {
	return floatBits(a) == floatBits(b)
}

func floatBits[F constraints.Float](f F) uint64 {
	if unsafe.Sizeof(f) == 4 {
		return uint64(float32Bits(float32(f)))
	}

	return float64Bits(float64(f))
}

func float32Bits(f float32) uint32 {
	if f != f {
		return canonicalNaN32
	}

	return math.Float32bits(f)
}

func float64Bits(f float64) uint64 {
	if f != f {
		return canonicalNaN64
	}

	return math.Float64bits(f)
}

// mix spreads the entropy of a raw hash code over all 64 bits. Tables probe
// with the low bits and segmented maps route with the high bits, so both ends
// have to be well distributed even for identity-like hash functions.
func mix(h uint64) uint64 {
	h *= phi64
	h ^= h >> 32

	return h ^ (h >> 16)
}

// defaultEqual returns == for every type but floats, which compare by
// canonical bit pattern. Detection goes by kind, so named float types are
// covered too.
func defaultEqual[T comparable]() EqualFunc[T] {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float32:
		return func(a, b T) bool {
			return float32Bits(*(*float32)(unsafe.Pointer(&a))) == float32Bits(*(*float32)(unsafe.Pointer(&b)))
		}
	case reflect.Float64:
		return func(a, b T) bool {
			return float64Bits(*(*float64)(unsafe.Pointer(&a))) == float64Bits(*(*float64)(unsafe.Pointer(&b)))
		}
	default:
		return func(a, b T) bool {
			return a == b
		}
	}
}

func defaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	switch reflect.TypeFor[K]().Kind() {
	case reflect.Float32:
		return func(k K) uint64 {
			return maphash.Comparable(seed, float32Bits(*(*float32)(unsafe.Pointer(&k))))
		}
	case reflect.Float64:
		return func(k K) uint64 {
			return maphash.Comparable(seed, float64Bits(*(*float64)(unsafe.Pointer(&k))))
		}
	default:
		return MakeDefaultHashFunc[K](seed)
	}
}
