package openmap

import "iter"

// Map is a hash map using open addressing with linear probing. Removal
// shifts entries back instead of leaving tombstones, so lookups never walk
// over deleted slots. The zero key is kept in a dedicated slot and works
// like any other key.
//
// Lookups of absent keys return the map's default return value, which is
// the zero V unless changed with SetDefaultReturnValue.
//
// A Map is not safe for concurrent use; see SegmentedMap.
type Map[K comparable, V comparable] struct {
	t table[K, V]
}

// Returns a new map sized to hold capacity entries without growing.
func NewMap[K comparable, V comparable](capacity int, opts ...Option[K]) (*Map[K, V], error) {
	c, err := newConfig(capacity, opts)
	if err != nil {
		return nil, err
	}

	var m Map[K, V]
	m.t.init(capacity, false, c)

	return &m, nil
}

func (m *Map[K, V]) update(key K, fn func(t *table[K, V], h uint64)) {
	fn(&m.t, m.t.hash(key))
}

func (m *Map[K, V]) DefaultReturnValue() V {
	return m.t.defRetValue
}

// Sets the value returned for absent keys.
func (m *Map[K, V]) SetDefaultReturnValue(v V) {
	m.t.defRetValue = v
}

// Returns the value for key and whether it's present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.t.get(m.t.hash(key), key)
}

// Returns the value for key, or def if it's absent.
func (m *Map[K, V]) GetOrDefault(key K, def V) V {
	if v, ok := m.t.get(m.t.hash(key), key); ok {
		return v
	}

	return def
}

func (m *Map[K, V]) ContainsKey(key K) bool {
	return m.t.findIndex(m.t.hash(key), key) >= 0
}

func (m *Map[K, V]) ContainsValue(value V) bool {
	return m.t.containsValue(value)
}

// Puts a key in the map.
// Returns the previous value (or the default return value) and whether the
// key was present.
func (m *Map[K, V]) Put(key K, value V) (V, bool) {
	return m.t.put(m.t.hash(key), key, value)
}

// Puts a key only if it's absent.
// Returns the current value and true if the key was already present.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	return m.t.putIfAbsent(m.t.hash(key), key, value)
}

// Puts every pair yielded by seq, e.g. maps.All(std) or other.All().
func (m *Map[K, V]) PutAll(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		m.t.put(m.t.hash(k), k, v)
	}
}

// Deletes a key from the map.
// Returns the removed value (or the default return value) and whether the
// key was present.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	return m.t.remove(m.t.hash(key), key)
}

// Deletes a key only if it's mapped to value.
func (m *Map[K, V]) RemoveValue(key K, value V) bool {
	return m.t.removeValue(m.t.hash(key), key, value)
}

// Replaces the value of a present key.
func (m *Map[K, V]) Replace(key K, value V) (V, bool) {
	return m.t.replace(m.t.hash(key), key, value)
}

// Replaces the value of key only if it's currently oldValue.
func (m *Map[K, V]) ReplaceValue(key K, oldValue, newValue V) bool {
	return m.t.replaceValue(m.t.hash(key), key, oldValue, newValue)
}

// Compute calls f with the current value (or the default return value) and
// whether the key is present. If f returns false the key is removed,
// otherwise the returned value is stored.
func (m *Map[K, V]) Compute(key K, f func(key K, old V, present bool) (V, bool)) (V, bool) {
	return m.t.compute(m.t.hash(key), key, f)
}

// ComputeNonDefault is Compute where a result equal to the default return
// value means "no entry".
func (m *Map[K, V]) ComputeNonDefault(key K, f func(key K, old V) V) V {
	return m.t.computeNonDefault(m.t.hash(key), key, f)
}

// ComputeIfAbsent stores f's result for an absent key unless f returns
// false. A present key's value is returned untouched.
func (m *Map[K, V]) ComputeIfAbsent(key K, f func(key K) (V, bool)) (V, bool) {
	return m.t.computeIfAbsent(m.t.hash(key), key, f)
}

func (m *Map[K, V]) ComputeIfAbsentNonDefault(key K, f func(key K) V) V {
	return m.t.computeIfAbsentNonDefault(m.t.hash(key), key, f)
}

// ComputeIfPresent replaces a present key's value with f's result, or
// removes the key if f returns false.
func (m *Map[K, V]) ComputeIfPresent(key K, f func(key K, old V) (V, bool)) (V, bool) {
	return m.t.computeIfPresent(m.t.hash(key), key, f)
}

func (m *Map[K, V]) ComputeIfPresentNonDefault(key K, f func(key K, old V) V) V {
	return m.t.computeIfPresentNonDefault(m.t.hash(key), key, f)
}

// Merge stores value for an absent key, otherwise f(old, value); f
// returning false removes the key.
func (m *Map[K, V]) Merge(key K, value V, f func(old, value V) (V, bool)) (V, bool) {
	return m.t.merge(m.t.hash(key), key, value, f)
}

func (m *Map[K, V]) MergeNonDefault(key K, value V, f func(old, value V) V) V {
	return m.t.mergeNonDefault(m.t.hash(key), key, value, f)
}

// Range calls f for every entry until f returns false. f must not modify
// the map, use Iterator to remove entries while walking.
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.t.all(f)
}

func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return m.t.all
}

func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.t.all(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.t.all(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

func (m *Map[K, V]) Iterator() *Iterator[K, V] {
	return newIterator(&m.t)
}

func (m *Map[K, V]) Size() int {
	return m.t.size
}

func (m *Map[K, V]) IsEmpty() bool {
	return m.t.size == 0
}

// Removes all entries, keeping the capacity.
func (m *Map[K, V]) Clear() {
	m.t.Reset()
}

// Shrinks the backing arrays to the smallest size holding n entries. It's a
// no-op if they're already that small or hold more than n entries, and
// reports false only for a negative n.
func (m *Map[K, V]) Trim(n int) bool {
	return m.t.trim(n)
}

// Shrinks the backing arrays to fit the current size.
func (m *Map[K, V]) TrimToSize() bool {
	return m.t.trim(m.t.size)
}

// Removes all entries and shrinks the arrays to hold n entries.
func (m *Map[K, V]) ClearAndTrim(n int) {
	m.t.clearAndTrim(n)
}

func (m *Map[K, V]) Clone() *Map[K, V] {
	return &Map[K, V]{t: m.t.clone()}
}

func (m *Map[K, V]) Stats() Stats {
	return m.t.stats()
}
