package openmap

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newMap[K comparable, V comparable](t *testing.T, opts ...Option[K]) *Map[K, V] {
	t.Helper()

	m, err := NewMap[K, V](DefaultCapacity, opts...)
	require.NoError(t, err)

	return m
}

func TestMap_Basic(t *testing.T) {
	m := newMap[string, int](t)

	// Put and Get
	_, ok := m.Put("foo", 42)
	require.False(t, ok)

	v, ok := m.Get("foo")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// Update existing key
	old, ok := m.Put("foo", 100)
	require.True(t, ok)
	assert.Equal(t, 42, old)

	v, ok = m.Get("foo")
	require.True(t, ok)
	assert.Equal(t, 100, v)

	// Get non-existent key
	_, ok = m.Get("bar")
	assert.False(t, ok)
	assert.Equal(t, 7, m.GetOrDefault("bar", 7))
	assert.Equal(t, 100, m.GetOrDefault("foo", 7))

	// Remove
	old, ok = m.Remove("foo")
	assert.True(t, ok)
	assert.Equal(t, 100, old)

	_, ok = m.Get("foo")
	assert.False(t, ok)

	// Remove non-existent key
	_, ok = m.Remove("foo")
	assert.False(t, ok)
	assert.True(t, m.IsEmpty())
}

func TestMap_New_InvalidArgument(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		opts     []Option[int]
	}{
		{"negative capacity", -1, nil},
		{"zero load factor", 16, []Option[int]{WithLoadFactor[int](0)}},
		{"full load factor", 16, []Option[int]{WithLoadFactor[int](1)}},
		{"NaN load factor", 16, []Option[int]{WithLoadFactor[int](float32(math.NaN()))}},
		{"too many slots", MaxCapacity, nil},
		{"max int capacity", math.MaxInt, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMap[int, int](tt.capacity, tt.opts...)
			require.ErrorIs(t, err, ErrInvalidArgument)

			_, err = NewLinkedMap[int, int](tt.capacity, tt.opts...)
			require.ErrorIs(t, err, ErrInvalidArgument)

			_, err = NewSet[int](tt.capacity, tt.opts...)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	m, err := NewMap[int, int](0)
	require.NoError(t, err)
	require.Equal(t, 2, m.Stats().Capacity)
}

func TestMap_ZeroKey(t *testing.T) {
	m := newMap[int, int](t)

	old, ok := m.Put(0, 0)
	require.False(t, ok)
	require.Zero(t, old)

	old, ok = m.Put(0, 5)
	require.True(t, ok)
	require.Zero(t, old)

	v, ok := m.Get(0)
	require.True(t, ok)
	require.Equal(t, 5, v)
	require.Equal(t, 1, m.Size())
	require.True(t, m.Stats().ContainsZeroKey)
	require.True(t, m.ContainsKey(0))
	require.True(t, m.ContainsValue(5))

	keys := slices.Collect(m.Keys())
	require.Equal(t, []int{0}, keys)

	_, ok = m.Remove(0)
	require.True(t, ok)
	require.False(t, m.ContainsKey(0))
	require.False(t, m.Stats().ContainsZeroKey)
}

func TestMap_RemoveMiddle(t *testing.T) {
	m := newMap[int, int](t)

	for i := range 100 {
		m.Put(i, i*i)
	}

	_, ok := m.Remove(50)
	require.True(t, ok)
	require.Equal(t, 99, m.Size())

	for i := range 100 {
		v, ok := m.Get(i)
		if i == 50 {
			require.False(t, ok)
			continue
		}

		require.True(t, ok, "key %d", i)
		require.Equal(t, i*i, v)
	}

	checkTable(t, &m.t)
}

func TestMap_FloatKeys(t *testing.T) {
	m := newMap[float32, float64](t)

	negZero := float32(math.Copysign(0, -1))
	nan := float32(math.NaN())
	otherNaN := math.Float32frombits(0x7fc00001)

	m.Put(negZero, 1)
	m.Put(0, 2)

	require.Equal(t, 2, m.Size(), "-0.0 and 0.0 are distinct keys")
	require.True(t, m.Stats().ContainsZeroKey)

	v, _ := m.Get(negZero)
	require.Equal(t, float64(1), v)

	v, _ = m.Get(0)
	require.Equal(t, float64(2), v)

	m.Put(nan, math.NaN())

	v, ok := m.Get(otherNaN)
	require.True(t, ok, "every NaN is the same key")
	require.True(t, math.IsNaN(v))
	require.True(t, m.ContainsValue(math.NaN()))
	require.Equal(t, 3, m.Size())

	require.True(t, m.RemoveValue(otherNaN, -math.NaN()))
	require.Equal(t, 2, m.Size())
}

func TestMap_DefaultReturnValue(t *testing.T) {
	m := newMap[string, int](t)
	require.Zero(t, m.DefaultReturnValue())

	m.SetDefaultReturnValue(-1)
	require.Equal(t, -1, m.DefaultReturnValue())

	v, ok := m.Get("missing")
	require.False(t, ok)
	require.Equal(t, -1, v)

	v, ok = m.Remove("missing")
	require.False(t, ok)
	require.Equal(t, -1, v)

	v, ok = m.Put("a", 1)
	require.False(t, ok)
	require.Equal(t, -1, v)

	v, ok = m.Replace("missing", 3)
	require.False(t, ok)
	require.Equal(t, -1, v)
	require.False(t, m.ContainsKey("missing"))
}

func TestMap_PutIfAbsent(t *testing.T) {
	m := newMap[string, int](t)

	_, ok := m.PutIfAbsent("a", 1)
	require.False(t, ok)

	v, ok := m.PutIfAbsent("a", 2)
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, _ = m.Get("a")
	require.Equal(t, 1, v)
}

func TestMap_ConditionalUpdates(t *testing.T) {
	m := newMap[string, int](t)
	m.Put("a", 1)

	require.False(t, m.RemoveValue("a", 2))
	require.False(t, m.RemoveValue("b", 1))
	require.True(t, m.ContainsKey("a"))

	old, ok := m.Replace("a", 3)
	require.True(t, ok)
	require.Equal(t, 1, old)

	require.False(t, m.ReplaceValue("a", 1, 4))
	require.True(t, m.ReplaceValue("a", 3, 4))
	require.False(t, m.ReplaceValue("b", 0, 4))

	v, _ := m.Get("a")
	require.Equal(t, 4, v)

	require.True(t, m.RemoveValue("a", 4))
	require.True(t, m.IsEmpty())
}

func TestMap_Compute(t *testing.T) {
	m := newMap[string, int](t)

	v, ok := m.Compute("a", func(k string, old int, present bool) (int, bool) {
		require.Equal(t, "a", k)
		require.False(t, present)
		require.Zero(t, old)

		return 10, true
	})
	require.True(t, ok)
	require.Equal(t, 10, v)

	v, ok = m.Compute("a", func(_ string, old int, present bool) (int, bool) {
		require.True(t, present)
		return old * 2, true
	})
	require.True(t, ok)
	require.Equal(t, 20, v)

	_, ok = m.Compute("a", func(string, int, bool) (int, bool) {
		return 0, false
	})
	require.False(t, ok)
	require.False(t, m.ContainsKey("a"))

	// Dropping an absent key is a no-op.
	_, ok = m.Compute("b", func(string, int, bool) (int, bool) {
		return 0, false
	})
	require.False(t, ok)
	require.True(t, m.IsEmpty())
}

func TestMap_ComputeIfAbsentIfPresent(t *testing.T) {
	m := newMap[string, int](t)

	calls := 0
	absent := func(k string) (int, bool) {
		calls++
		return len(k), true
	}

	v, ok := m.ComputeIfAbsent("abc", absent)
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = m.ComputeIfAbsent("abc", absent)
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, 1, calls, "present key doesn't call f")

	_, ok = m.ComputeIfAbsent("x", func(string) (int, bool) { return 0, false })
	require.False(t, ok)
	require.False(t, m.ContainsKey("x"))

	_, ok = m.ComputeIfPresent("x", func(string, int) (int, bool) {
		t.Fatal("called for an absent key")
		return 0, true
	})
	require.False(t, ok)

	v, ok = m.ComputeIfPresent("abc", func(_ string, old int) (int, bool) { return old + 1, true })
	require.True(t, ok)
	require.Equal(t, 4, v)

	_, ok = m.ComputeIfPresent("abc", func(string, int) (int, bool) { return 0, false })
	require.False(t, ok)
	require.True(t, m.IsEmpty())
}

func TestMap_Merge(t *testing.T) {
	m := newMap[string, int](t)
	sum := func(old, value int) (int, bool) { return old + value, true }

	v, ok := m.Merge("a", 5, sum)
	require.True(t, ok)
	require.Equal(t, 5, v)

	v, ok = m.Merge("a", 3, sum)
	require.True(t, ok)
	require.Equal(t, 8, v)

	_, ok = m.Merge("a", 3, func(int, int) (int, bool) { return 0, false })
	require.False(t, ok)
	require.False(t, m.ContainsKey("a"))
}

func TestMap_NonDefault(t *testing.T) {
	m := newMap[string, int](t)
	m.SetDefaultReturnValue(-1)

	inc := func(_ string, old int) int { return old + 1 }

	require.Equal(t, 0, m.ComputeNonDefault("a", inc), "starts from the default return value")
	require.Equal(t, 1, m.ComputeNonDefault("a", inc))
	require.Equal(t, -1, m.ComputeNonDefault("a", func(string, int) int { return -1 }))
	require.False(t, m.ContainsKey("a"), "default result removes the key")

	require.Equal(t, -1, m.ComputeIfAbsentNonDefault("b", func(string) int { return -1 }))
	require.False(t, m.ContainsKey("b"))
	require.Equal(t, 7, m.ComputeIfAbsentNonDefault("b", func(string) int { return 7 }))
	require.Equal(t, 7, m.ComputeIfAbsentNonDefault("b", func(string) int { return 8 }))

	require.Equal(t, -1, m.ComputeIfPresentNonDefault("c", inc))
	require.False(t, m.ContainsKey("c"))
	require.Equal(t, 8, m.ComputeIfPresentNonDefault("b", inc))
	require.Equal(t, -1, m.ComputeIfPresentNonDefault("b", func(string, int) int { return -1 }))
	require.False(t, m.ContainsKey("b"))

	sum := func(old, value int) int { return old + value }

	require.Equal(t, -1, m.MergeNonDefault("d", -1, sum))
	require.False(t, m.ContainsKey("d"))
	require.Equal(t, 5, m.MergeNonDefault("d", 5, sum))
	require.Equal(t, 8, m.MergeNonDefault("d", 3, sum))
	require.Equal(t, -1, m.MergeNonDefault("d", -9, sum))
	require.False(t, m.ContainsKey("d"))

	require.True(t, m.IsEmpty())
}

func TestMap_AddToSubFrom(t *testing.T) {
	m := newMap[string, int](t)

	require.Equal(t, 0, AddTo(m, "a", 5))
	require.Equal(t, 5, AddTo(m, "a", 2))
	require.Equal(t, 7, m.GetOrDefault("a", 0))

	require.Equal(t, 7, SubFrom(m, "a", 3))
	require.Equal(t, 4, SubFrom(m, "a", 4))
	require.False(t, m.ContainsKey("a"), "reaching the default return value removes the key")

	require.Equal(t, 0, SubFrom(m, "b", 0))
	require.False(t, m.ContainsKey("b"))

	require.Equal(t, 0, SubFrom(m, "b", 2))
	require.False(t, m.ContainsKey("b"), "an absent key stays absent")
	require.True(t, m.IsEmpty())

	m.Put("c", 2)
	require.Equal(t, 2, SubFrom(m, "c", 5))
	require.False(t, m.ContainsKey("c"), "passing the default return value removes the key")

	m.Put("d", -3)
	require.Equal(t, -3, SubFrom(m, "d", -1))
	require.Equal(t, -2, m.GetOrDefault("d", 0))
	require.Equal(t, -2, SubFrom(m, "d", -4))
	require.False(t, m.ContainsKey("d"))

	m.SetDefaultReturnValue(10)
	require.Equal(t, 10, AddTo(m, "z", 1))
	require.Equal(t, 11, m.GetOrDefault("z", 0))

	f := newMap[int, float64](t)
	AddTo(f, 0, 0.5)
	AddTo(f, 0, 0.25)
	require.Equal(t, 0.75, f.GetOrDefault(0, 0))
}

func TestMap_SubFromEmpty(t *testing.T) {
	m := newMap[int, int](t)

	require.Equal(t, 0, SubFrom(m, 8, 5))
	require.Equal(t, 0, m.Size())

	m.Put(8, 2)
	require.Equal(t, 2, SubFrom(m, 8, 5))
	require.Equal(t, 0, m.Size())
	checkTable(t, &m.t)
}

func TestMap_New_HoldsCapacity(t *testing.T) {
	for _, capacity := range []int{0, 1, 11, 12, 24, 47, 48, 1000} {
		m, err := NewMap[int, int](capacity)
		require.NoError(t, err)

		initial := m.Stats().Capacity
		for i := range capacity {
			m.Put(i+1, i)
		}

		require.Equal(t, initial, m.Stats().Capacity, "capacity %d", capacity)
		require.Equal(t, capacity, m.Size())
	}

	m, err := NewMap[int, int](12)
	require.NoError(t, err)
	require.Equal(t, 32, m.Stats().Capacity)
}

func TestMap_Grow(t *testing.T) {
	m, err := NewMap[int, int](0)
	require.NoError(t, err)

	for i := range 10_000 {
		m.Put(i, i)
	}

	require.Equal(t, 10_000, m.Size())

	for i := range 10_000 {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, i, v)
	}

	s := m.Stats()
	require.Less(t, s.Size, s.MaxFill)
	require.Equal(t, 16384, s.Capacity)
}

func TestMap_Iteration(t *testing.T) {
	m := newMap[int, string](t)
	want := map[int]string{0: "zero", 1: "one", 2: "two", 3: "three"}
	m.PutAll(maps.All(want))

	require.Equal(t, want, maps.Collect(m.All()))

	keys := slices.Sorted(m.Keys())
	require.Equal(t, []int{0, 1, 2, 3}, keys)

	values := slices.Sorted(m.Values())
	require.Equal(t, []string{"one", "three", "two", "zero"}, values)

	// Zero key comes first in slot order.
	for k := range m.Keys() {
		require.Zero(t, k)
		break
	}

	n := 0
	m.Range(func(int, string) bool {
		n++
		return n < 2
	})
	require.Equal(t, 2, n)
}

func TestMap_Iterator_Remove(t *testing.T) {
	t.Run("all entries of a wrapping run", func(t *testing.T) {
		const mask = 31

		slots := make(map[int]int)
		for i := 1; i <= 10; i++ {
			slots[i] = mask
		}

		m := newMap[int, int](t, WithHashFunc(slotHashes(mask, slots)))
		for i := 1; i <= 10; i++ {
			m.Put(i, i)
		}

		require.Equal(t, mask, m.t.mask)

		seen := make(map[int]int)
		it := m.Iterator()
		for it.Next() {
			seen[it.Key()]++
			require.Equal(t, it.Key(), it.Value())
			require.NoError(t, it.Remove())
		}

		require.Len(t, seen, 10)
		for k, n := range seen {
			require.Equal(t, 1, n, "key %d", k)
		}

		require.True(t, m.IsEmpty())
		require.Equal(t, mask, m.t.mask, "iterator removal doesn't shrink")
	})

	for _, name := range []string{"default hash", "colliding hash"} {
		t.Run(name, func(t *testing.T) {
			var opts []Option[int]
			if name == "colliding hash" {
				opts = append(opts, WithHashFunc(func(k int) uint64 { return uint64(k % 4) }))
			}

			m := newMap[int, int](t, opts...)
			r := rand.New(rand.NewPCG(3, 4))

			want := make(map[int]int)
			for range 500 {
				k := r.IntN(2000)
				want[k] = k
				m.Put(k, k)
			}

			seen := make(map[int]int)
			it := m.Iterator()
			for it.Next() {
				seen[it.Key()]++
				if it.Key()%3 == 0 {
					require.NoError(t, it.Remove())
				}
			}

			require.Len(t, seen, len(want))
			for k := range want {
				require.Equal(t, 1, seen[k], "key %d", k)

				_, ok := m.Get(k)
				require.Equal(t, k%3 != 0, ok, "key %d", k)
			}

			checkTable(t, &m.t)
		})
	}
}

func TestMap_Iterator_IllegalState(t *testing.T) {
	m := newMap[int, int](t)
	m.Put(1, 1)

	it := m.Iterator()
	require.ErrorIs(t, it.Remove(), ErrIllegalState)

	require.True(t, it.Next())
	require.NoError(t, it.Remove())
	require.ErrorIs(t, it.Remove(), ErrIllegalState)

	require.False(t, it.Next())
	require.False(t, it.Next())
	require.ErrorIs(t, it.Remove(), ErrIllegalState)
}

func TestMap_Clear(t *testing.T) {
	m := newMap[int, int](t)
	for i := range 100 {
		m.Put(i, i)
	}

	capacity := m.Stats().Capacity
	m.Clear()

	require.True(t, m.IsEmpty())
	require.Equal(t, capacity, m.Stats().Capacity)
	require.False(t, m.ContainsKey(0))

	m.Put(1, 1)
	m.ClearAndTrim(0)
	require.True(t, m.IsEmpty())
	require.Equal(t, 2, m.Stats().Capacity)
}

func TestMap_Trim(t *testing.T) {
	m, err := NewMap[int, int](1000)
	require.NoError(t, err)

	for i := range 10 {
		m.Put(i, i)
	}

	require.False(t, m.Trim(-1))
	require.True(t, m.TrimToSize())
	require.Equal(t, 16, m.Stats().Capacity)
	require.Equal(t, 10, m.Size())
}

func TestMap_Clone(t *testing.T) {
	m := newMap[int, int](t)
	m.SetDefaultReturnValue(-1)
	for i := range 10 {
		m.Put(i, i)
	}

	c := m.Clone()
	c.Put(100, 100)
	c.Remove(0)

	require.Equal(t, 10, m.Size())
	require.True(t, m.ContainsKey(0))
	require.False(t, m.ContainsKey(100))

	require.Equal(t, 10, c.Size())
	require.Equal(t, -1, c.DefaultReturnValue())
}

func TestMap_EqualFunc(t *testing.T) {
	type point struct{ x, y int }

	// Points equal up to sign.
	abs := func(v int) int { return max(v, -v) }
	m := newMap[point, string](t,
		WithHashFunc(func(p point) uint64 { return uint64(abs(p.x))<<32 | uint64(abs(p.y)) }),
		WithEqualFunc(func(a, b point) bool { return abs(a.x) == abs(b.x) && abs(a.y) == abs(b.y) }),
	)

	m.Put(point{1, 2}, "a")

	v, ok := m.Get(point{-1, -2})
	require.True(t, ok)
	require.Equal(t, "a", v)
}

func TestMap_Logger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	m, err := NewMap[int, int](DefaultCapacity, WithLogger[int](zap.New(core)))
	require.NoError(t, err)

	for i := range 24 {
		m.Put(i+1, i)
	}

	entries := logs.FilterMessage("rehash").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, int64(32), fields["from"])
	require.Equal(t, int64(64), fields["to"])
	require.Equal(t, int64(24), fields["size"])
}
