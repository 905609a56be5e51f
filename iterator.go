package openmap

import "github.com/cockroachdb/errors"

// Iterator walks a Map, LinkedMap, Set or LinkedSet and can remove the
// entry it's on. Modifying the structure other than through Remove while
// iterating has undefined results.
//
//	it := m.Iterator()
//	for it.Next() {
//		if it.Value() < 0 {
//			_ = it.Remove()
//		}
//	}
type Iterator[K comparable, V comparable] struct {
	t *table[K, V]

	curr  int // slot of the current entry, noSlot if there's none
	key   K
	value V

	// Ordered tables.
	next int

	// Unordered tables are scanned from the zero-key slot downwards; slots
	// at or above pos have been visited. When pos goes negative the
	// iterator returns wrapped entries, those that a removal shifted from an
	// unvisited slot into a visited one.
	pos         int
	remaining   int
	zeroPending bool
	wrapped     []K
}

func newIterator[K comparable, V comparable](t *table[K, V]) *Iterator[K, V] {
	it := &Iterator[K, V]{
		t:    t,
		curr: noSlot,
		next: noSlot,
	}

	if t.order != nil {
		it.next = t.order.first
	} else {
		it.pos = t.n
		it.remaining = t.size
		it.zeroPending = t.containsZero
	}

	return it
}

// Next advances to the next entry and reports whether there is one.
func (it *Iterator[K, V]) Next() bool {
	var ok bool
	if it.t.order != nil {
		ok = it.nextLinked()
	} else {
		ok = it.nextScan()
	}

	if !ok {
		it.curr = noSlot
		return false
	}

	it.key, it.value = it.t.keys[it.curr], it.t.values[it.curr]

	return true
}

func (it *Iterator[K, V]) nextLinked() bool {
	if it.next == noSlot {
		return false
	}

	it.curr = it.next
	it.next = it.t.order.next(it.curr)

	return true
}

func (it *Iterator[K, V]) nextScan() bool {
	if it.remaining == 0 {
		return false
	}

	it.remaining--

	if it.zeroPending {
		it.zeroPending = false
		it.curr = it.t.n

		return true
	}

	for {
		it.pos--

		if it.pos < 0 {
			key := it.wrapped[-it.pos-1]

			it.curr = it.t.findIndex(it.t.hash(key), key)
			if it.curr < 0 {
				panic(errors.Wrap(ErrConcurrentModification, "wrapped entry vanished during iteration"))
			}

			return true
		}

		if !it.t.isZero(it.t.keys[it.pos]) {
			it.curr = it.pos
			return true
		}
	}
}

// Returns the key of the current entry.
func (it *Iterator[K, V]) Key() K {
	return it.key
}

// Returns the value of the current entry as of the last call to Next.
func (it *Iterator[K, V]) Value() V {
	return it.value
}

// Remove deletes the current entry. It returns ErrIllegalState if Next
// hasn't returned true since the last Remove. The table never shrinks while
// entries are removed this way.
func (it *Iterator[K, V]) Remove() error {
	if it.curr == noSlot {
		return errors.Wrap(ErrIllegalState, "remove without a current entry")
	}

	switch {
	case it.t.order != nil:
		it.t.removeAt(it.curr, func(from, to int) {
			if from == it.next {
				it.next = to
			}
		}, false)
	case it.curr == it.t.n || it.pos < 0:
		// Every probed slot has been visited, moves can't hide anything.
		it.t.removeAt(it.curr, nil, false)
	default:
		it.t.removeAt(it.curr, func(from, to int) {
			if from < to {
				it.wrapped = append(it.wrapped, it.t.keys[to])
			}
		}, false)
	}

	it.curr = noSlot

	return nil
}
