package openmap

import (
	"slices"

	"github.com/cockroachdb/errors"
)

const noSlot = -1

// link holds the slot indices of an entry's neighbours in iteration order.
type link struct {
	prev, next int32
}

// linkOrder is a doubly linked list threaded through a table's slots. It
// follows entries when backward shift or rehash moves them.
type linkOrder struct {
	links []link
	first int
	last  int
}

func newLinkOrder(slots int) *linkOrder {
	return &linkOrder{
		links: make([]link, slots),
		first: noSlot,
		last:  noSlot,
	}
}

func (o *linkOrder) next(i int) int {
	return int(o.links[i].next)
}

func (o *linkOrder) prev(i int) int {
	return int(o.links[i].prev)
}

func (o *linkOrder) linkLast(pos int) {
	if o.last == noSlot {
		o.first, o.last = pos, pos
		o.links[pos] = link{prev: noSlot, next: noSlot}

		return
	}

	o.links[o.last].next = int32(pos)
	o.links[pos] = link{prev: int32(o.last), next: noSlot}
	o.last = pos
}

func (o *linkOrder) linkFirst(pos int) {
	if o.first == noSlot {
		o.first, o.last = pos, pos
		o.links[pos] = link{prev: noSlot, next: noSlot}

		return
	}

	o.links[o.first].prev = int32(pos)
	o.links[pos] = link{prev: noSlot, next: int32(o.first)}
	o.first = pos
}

// unlink splices pos out of the list.
func (o *linkOrder) unlink(pos int) {
	l := o.links[pos]

	if l.prev != noSlot {
		o.links[l.prev].next = l.next
	} else {
		o.first = int(l.next)
	}

	if l.next != noSlot {
		o.links[l.next].prev = l.prev
	} else {
		o.last = int(l.prev)
	}
}

// move repoints the neighbours of the entry at from to its new slot to.
func (o *linkOrder) move(from, to int) {
	l := o.links[from]

	if l.prev != noSlot {
		o.links[l.prev].next = int32(to)
	} else {
		o.first = to
	}

	if l.next != noSlot {
		o.links[l.next].prev = int32(to)
	} else {
		o.last = to
	}

	o.links[to] = l
}

// Returns false if pos is already first.
func (o *linkOrder) moveToFirst(pos int) bool {
	if o.first == pos {
		return false
	}

	o.unlink(pos)
	o.linkFirst(pos)

	return true
}

// Returns false if pos is already last.
func (o *linkOrder) moveToLast(pos int) bool {
	if o.last == pos {
		return false
	}

	o.unlink(pos)
	o.linkLast(pos)

	return true
}

func (o *linkOrder) reset() {
	o.first, o.last = noSlot, noSlot
}

func (o *linkOrder) clone() *linkOrder {
	c := *o
	c.links = slices.Clone(o.links)

	return &c
}

// rehashOrdered places entries into the new arrays in list order and rebuilds
// the list as it goes, so iteration order survives resizing.
func (t *table[K, V]) rehashOrdered(newN int) {
	var (
		o         = t.order
		newMask   = newN - 1
		newKeys   = make([]K, newN+1)
		newValues = make([]V, newN+1)
		newLinks  = make([]link, newN+1)

		newPrev = noSlot
	)

	i := o.first
	for j := t.size; j > 0; j-- {
		if i == noSlot {
			panic(errors.Wrapf(ErrConcurrentModification, "rehash found %d of %d linked entries", t.size-j, t.size))
		}

		var pos int
		if i == t.n {
			pos = newN
		} else {
			pos = int(t.hash(t.keys[i]) & uint64(newMask))
			for !t.isZero(newKeys[pos]) {
				pos = (pos + 1) & newMask
			}
		}

		newKeys[pos] = t.keys[i]
		newValues[pos] = t.values[i]

		if newPrev != noSlot {
			newLinks[newPrev].next = int32(pos)
			newLinks[pos].prev = int32(newPrev)
		} else {
			o.first = pos
			newLinks[pos].prev = noSlot
		}

		newPrev = pos
		i = o.next(i)
	}

	if newPrev != noSlot {
		newLinks[newPrev].next = noSlot
	} else {
		o.first = noSlot
	}

	o.last = newPrev
	o.links = newLinks

	t.keys = newKeys
	t.values = newValues
}

func (t *table[K, V]) firstIndex() (int, error) {
	if t.size == 0 {
		return noSlot, errors.Wrap(ErrNoSuchElement, "empty table")
	}

	return t.order.first, nil
}

func (t *table[K, V]) lastIndex() (int, error) {
	if t.size == 0 {
		return noSlot, errors.Wrap(ErrNoSuchElement, "empty table")
	}

	return t.order.last, nil
}

// putAndMove stores value and moves key to the head (front) or tail of the
// order, inserting it there if absent.
func (t *table[K, V]) putAndMove(h uint64, key K, value V, front bool) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		t.insertAt(-pos-1, key, value, front)
		return t.defRetValue, false
	}

	old := t.values[pos]
	t.values[pos] = value
	t.moveIndex(pos, front)

	return old, true
}

func (t *table[K, V]) getAndMove(h uint64, key K, front bool) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return t.defRetValue, false
	}

	t.moveIndex(pos, front)

	return t.values[pos], true
}

// moveKey reports false if key is absent or already in place.
func (t *table[K, V]) moveKey(h uint64, key K, front bool) bool {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return false
	}

	return t.moveIndex(pos, front)
}

func (t *table[K, V]) moveIndex(pos int, front bool) bool {
	if front {
		return t.order.moveToFirst(pos)
	}

	return t.order.moveToLast(pos)
}
