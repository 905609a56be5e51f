package openmap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

//go:nocheckptr
func unsafeConvertSlice[Dest any, Src any](s []Src) []Dest {
	return unsafe.Slice((*Dest)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

func newTable[K comparable, V comparable](tb testing.TB, capacity int, ordered bool, opts ...Option[K]) *table[K, V] {
	tb.Helper()

	c, err := newConfig(capacity, opts)
	require.NoError(tb, err)

	var tt table[K, V]
	tt.init(capacity, ordered, c)

	return &tt
}

// hashForSlot finds a raw hash whose mixed value lands on slot in a table
// with the given mask.
func hashForSlot(mask, slot int) uint64 {
	for h := uint64(1); ; h++ {
		if int(mix(h)&uint64(mask)) == slot {
			return h
		}
	}
}

// slotHashes builds a hash function sending each key to the chosen ideal
// slot of a table with the given mask. Keys missing from slots hash to 0.
func slotHashes[K comparable](mask int, slots map[K]int) HashFunc[K] {
	hashes := make(map[K]uint64, len(slots))
	for k, s := range slots {
		hashes[k] = hashForSlot(mask, s)
	}

	return func(k K) uint64 {
		return hashes[k]
	}
}

func requirePanicsWith(t *testing.T, target error, f func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")

		err, ok := r.(error)
		require.Truef(t, ok, "panic value %v is not an error", r)
		require.ErrorIs(t, err, target)
	}()

	f()
}

// checkTable verifies the bookkeeping of tt: size matches a slot scan,
// every entry is reachable from its ideal slot without crossing an empty
// slot, and for ordered tables the links form one consistent list.
func checkTable[K comparable, V comparable](t *testing.T, tt *table[K, V]) {
	t.Helper()

	live := 0
	if tt.containsZero {
		live++
	}

	for i := 0; i < tt.n; i++ {
		if tt.isZero(tt.keys[i]) {
			continue
		}

		live++

		for p := tt.slot(tt.hash(tt.keys[i])); p != i; p = (p + 1) & tt.mask {
			require.Falsef(t, tt.isZero(tt.keys[p]), "gap at slot %d before entry at %d", p, i)
		}

		require.Equal(t, i, tt.findIndex(tt.hash(tt.keys[i]), tt.keys[i]))
	}

	require.Equal(t, tt.size, live, "size doesn't match slot scan")
	require.Less(t, tt.size, tt.maxFill+1)

	if tt.order == nil {
		return
	}

	o := tt.order
	seen := 0
	prev := noSlot
	for i := o.first; i != noSlot; i = o.next(i) {
		require.Equal(t, prev, o.prev(i), "broken prev link")
		require.True(t, i == tt.n || !tt.isZero(tt.keys[i]), "link to an empty slot")

		prev = i
		seen++
		require.LessOrEqual(t, seen, tt.size, "cycle in links")
	}

	require.Equal(t, prev, o.last)
	require.Equal(t, tt.size, seen, "links don't cover every entry")
}
