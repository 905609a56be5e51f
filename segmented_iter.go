package openmap

import "github.com/cockroachdb/errors"

type entry[K comparable, V comparable] struct {
	key   K
	value V
}

// SegmentedIterator walks a SegmentedMap in both directions. It copies one
// non-empty segment at a time under that segment's read lock and moves on to
// the neighbouring segment when the copy runs out, so no lock is held between
// calls. Entries of a segment reflect the segment at the moment the iterator
// entered it. Linked segments are walked in their own order.
type SegmentedIterator[K comparable, V comparable] struct {
	m *SegmentedMap[K, V]

	// seg is -1 before the first segment and len(segments) after the last.
	seg     int
	entries []entry[K, V]
	idx     int

	valid bool
}

// Next advances to the next entry and reports whether there is one.
func (it *SegmentedIterator[K, V]) Next() bool {
	for {
		if it.idx+1 < len(it.entries) {
			it.idx++
			it.valid = true

			return true
		}

		if it.seg+1 >= len(it.m.segments) {
			it.seg = len(it.m.segments)
			it.entries = it.entries[:0]
			it.idx = 0
			it.valid = false

			return false
		}

		it.seg++
		it.entries = it.m.snapshot(it.seg, it.entries)
		it.idx = -1
	}
}

// Prev moves to the previous entry and reports whether there is one.
func (it *SegmentedIterator[K, V]) Prev() bool {
	for {
		if it.idx-1 >= 0 && it.idx-1 < len(it.entries) {
			it.idx--
			it.valid = true

			return true
		}

		if it.seg-1 < 0 {
			it.seg = -1
			it.entries = it.entries[:0]
			it.idx = -1
			it.valid = false

			return false
		}

		it.seg--
		it.entries = it.m.snapshot(it.seg, it.entries)
		it.idx = len(it.entries)
	}
}

// Key returns the current key, or the zero K outside the entries.
func (it *SegmentedIterator[K, V]) Key() K {
	if it.idx < 0 || it.idx >= len(it.entries) {
		var zero K
		return zero
	}

	return it.entries[it.idx].key
}

func (it *SegmentedIterator[K, V]) Value() V {
	if it.idx < 0 || it.idx >= len(it.entries) {
		var zero V
		return zero
	}

	return it.entries[it.idx].value
}

// Remove deletes the current key from the map under its segment's write
// lock. It returns ErrIllegalState if there's no current entry or it was
// already removed.
func (it *SegmentedIterator[K, V]) Remove() error {
	if !it.valid {
		return errors.Wrap(ErrIllegalState, "remove without a current entry")
	}

	it.m.Remove(it.entries[it.idx].key)
	it.valid = false

	return nil
}
