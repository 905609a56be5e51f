package openmap

import "iter"

// LinkedMap is a Map that remembers the order of its entries. New keys go to
// the end, Put on a present key keeps its position, and the Move and
// AndMove methods relocate keys to either end. All, Range, Keys, Values and
// Iterator walk the order front to back, Backward walks it back to front.
type LinkedMap[K comparable, V comparable] struct {
	Map[K, V]
}

func NewLinkedMap[K comparable, V comparable](capacity int, opts ...Option[K]) (*LinkedMap[K, V], error) {
	c, err := newConfig(capacity, opts)
	if err != nil {
		return nil, err
	}

	var m LinkedMap[K, V]
	m.t.init(capacity, true, c)

	return &m, nil
}

// Returns the first key, or ErrNoSuchElement if the map is empty.
func (m *LinkedMap[K, V]) FirstKey() (K, error) {
	pos, err := m.t.firstIndex()
	if err != nil {
		return m.t.zeroK, err
	}

	return m.t.keys[pos], nil
}

// Returns the last key, or ErrNoSuchElement if the map is empty.
func (m *LinkedMap[K, V]) LastKey() (K, error) {
	pos, err := m.t.lastIndex()
	if err != nil {
		return m.t.zeroK, err
	}

	return m.t.keys[pos], nil
}

// Removes and returns the first key.
func (m *LinkedMap[K, V]) PollFirstKey() (K, error) {
	pos, err := m.t.firstIndex()
	if err != nil {
		return m.t.zeroK, err
	}

	key := m.t.keys[pos]
	m.t.removeIndex(pos)

	return key, nil
}

// Removes and returns the last key.
func (m *LinkedMap[K, V]) PollLastKey() (K, error) {
	pos, err := m.t.lastIndex()
	if err != nil {
		return m.t.zeroK, err
	}

	key := m.t.keys[pos]
	m.t.removeIndex(pos)

	return key, nil
}

// Puts a key and makes it the first one.
// Returns the previous value (or the default return value) and whether the
// key was present.
func (m *LinkedMap[K, V]) PutAndMoveToFirst(key K, value V) (V, bool) {
	return m.t.putAndMove(m.t.hash(key), key, value, true)
}

// Puts a key and makes it the last one.
func (m *LinkedMap[K, V]) PutAndMoveToLast(key K, value V) (V, bool) {
	return m.t.putAndMove(m.t.hash(key), key, value, false)
}

// Returns the value of key and makes it the first one.
func (m *LinkedMap[K, V]) GetAndMoveToFirst(key K) (V, bool) {
	return m.t.getAndMove(m.t.hash(key), key, true)
}

// Returns the value of key and makes it the last one.
func (m *LinkedMap[K, V]) GetAndMoveToLast(key K) (V, bool) {
	return m.t.getAndMove(m.t.hash(key), key, false)
}

// Makes key the first one. Returns false if it's absent or already first.
func (m *LinkedMap[K, V]) MoveToFirst(key K) bool {
	return m.t.moveKey(m.t.hash(key), key, true)
}

// Makes key the last one. Returns false if it's absent or already last.
func (m *LinkedMap[K, V]) MoveToLast(key K) bool {
	return m.t.moveKey(m.t.hash(key), key, false)
}

// Backward yields entries from last to first.
func (m *LinkedMap[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		o := m.t.order
		for i := o.last; i != noSlot; i = o.prev(i) {
			if !yield(m.t.keys[i], m.t.values[i]) {
				return
			}
		}
	}
}

func (m *LinkedMap[K, V]) Clone() *LinkedMap[K, V] {
	return &LinkedMap[K, V]{Map: Map[K, V]{t: m.t.clone()}}
}
