package openmap

import (
	"math"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// table is an open addressing hash table with linear probing.
//
// Slots [0, n) are probed with hash & mask; an empty slot holds the zero key.
// The zero key itself lives in the extra slot n, which is occupied iff
// containsZero is set. Deletion shifts later entries of the probe run back
// instead of leaving tombstones, so for every occupied slot i the slots from
// hash(keys[i]) & mask up to i are all occupied.
type table[K comparable, V comparable] struct {
	keys   []K
	values []V

	n       int // number of probed slots, always a power of two
	mask    int
	size    int
	maxFill int
	minN    int

	containsZero bool
	loadFactor   float32

	// Insertion order, nil for unordered tables.
	order *linkOrder

	hashFunc HashFunc[K]
	keyEqual EqualFunc[K]
	valEqual EqualFunc[V]

	defRetValue V
	zeroK       K
	zeroV       V

	logger *zap.Logger
}

// init sizes the table so that capacity entries stay below maxFill.
func (t *table[K, V]) init(capacity int, ordered bool, c config[K]) {
	n, _ := arraySize(capacity+1, c.loadFactor)

	t.loadFactor = c.loadFactor
	t.hashFunc = c.hashFunc
	t.keyEqual = c.equalFunc
	t.valEqual = defaultEqual[V]()
	t.logger = c.logger

	t.n = n
	t.minN = n
	t.mask = n - 1
	t.maxFill = maxFill(n, t.loadFactor)
	t.keys = make([]K, n+1)
	t.values = make([]V, n+1)

	if ordered {
		t.order = newLinkOrder(n + 1)
	}
}

func (t *table[K, V]) hash(key K) uint64 {
	return mix(t.hashFunc(key))
}

func (t *table[K, V]) isZero(key K) bool {
	return t.keyEqual(key, t.zeroK)
}

func (t *table[K, V]) slot(h uint64) int {
	return int(h & uint64(t.mask))
}

// findIndex returns the slot holding key, or -(p+1) where p is the slot key
// would be inserted at.
func (t *table[K, V]) findIndex(h uint64, key K) int {
	if t.isZero(key) {
		if t.containsZero {
			return t.n
		}

		return -(t.n + 1)
	}

	for pos := t.slot(h); ; pos = (pos + 1) & t.mask {
		curr := t.keys[pos]
		if t.isZero(curr) {
			return -(pos + 1)
		}

		if t.keyEqual(curr, key) {
			return pos
		}
	}
}

func (t *table[K, V]) insert(pos int, key K, value V) {
	t.insertAt(pos, key, value, false)
}

// insertAt stores a new entry at an empty slot returned by findIndex. Ordered
// tables link it at the head if front is set, at the tail otherwise.
func (t *table[K, V]) insertAt(pos int, key K, value V, front bool) {
	if pos == t.n {
		t.containsZero = true
	}

	t.keys[pos] = key
	t.values[pos] = value

	if t.order != nil {
		if front {
			t.order.linkFirst(pos)
		} else {
			t.order.linkLast(pos)
		}
	}

	t.size++
	if t.size >= t.maxFill {
		t.grow()
	}
}

func (t *table[K, V]) grow() {
	n, ok := arraySize(t.size+1, t.loadFactor)
	if !ok {
		panic(errors.Wrapf(ErrCapacityExceeded, "cannot hold %d entries at load factor %v", t.size+1, t.loadFactor))
	}

	t.rehash(n)
}

func (t *table[K, V]) removeIndex(pos int) V {
	return t.removeAt(pos, nil, true)
}

// removeAt deletes the entry at pos and returns its value. moved, if set, is
// told about every entry the backward shift relocates. Iterators pass
// shrink=false so their slot positions stay valid.
func (t *table[K, V]) removeAt(pos int, moved func(from, to int), shrink bool) V {
	old := t.values[pos]
	t.size--

	if t.order != nil {
		t.order.unlink(pos)
	}

	if pos == t.n {
		t.containsZero = false
		t.keys[pos] = t.zeroK
		t.values[pos] = t.zeroV
	} else {
		t.shiftKeys(pos, moved)
	}

	if shrink && t.n > t.minN && t.size < t.maxFill/4 && t.n > shrinkFloor {
		t.logger.Debug("shrinking sparse table", zap.Int("size", t.size), zap.Int("capacity", t.n))
		t.rehash(t.n / 2)
	}

	return old
}

// shiftKeys closes the hole at pos. It walks the probe run after the hole
// and moves back the first entry whose ideal slot isn't cyclically within
// (hole, entry], which makes the entry's slot the new hole. The walk ends
// at the first empty slot.
func (t *table[K, V]) shiftKeys(pos int, moved func(from, to int)) {
	for {
		last := pos
		pos = (last + 1) & t.mask

		var curr K
		for {
			curr = t.keys[pos]
			if t.isZero(curr) {
				t.keys[last] = t.zeroK
				t.values[last] = t.zeroV

				return
			}

			slot := t.slot(t.hash(curr))
			if last <= pos {
				if last >= slot || slot > pos {
					break
				}
			} else if last >= slot && slot > pos {
				break
			}

			pos = (pos + 1) & t.mask
		}

		t.keys[last] = curr
		t.values[last] = t.values[pos]

		if t.order != nil {
			t.order.move(pos, last)
		}

		if moved != nil {
			moved(pos, last)
		}
	}
}

// rehash moves every entry into fresh arrays of newN probed slots. It's the
// only place n and mask change.
func (t *table[K, V]) rehash(newN int) {
	oldN := t.n

	if t.order != nil {
		t.rehashOrdered(newN)
	} else {
		t.rehashScan(newN)
	}

	t.n = newN
	t.mask = newN - 1
	t.maxFill = maxFill(newN, t.loadFactor)

	t.logger.Debug("rehash", zap.Int("from", oldN), zap.Int("to", newN), zap.Int("size", t.size))
}

func (t *table[K, V]) rehashScan(newN int) {
	var (
		newMask   = newN - 1
		newKeys   = make([]K, newN+1)
		newValues = make([]V, newN+1)

		live = t.size
	)

	if t.containsZero {
		live--
	}

	i := t.n
	for j := live; j > 0; j-- {
		i--
		for i >= 0 && t.isZero(t.keys[i]) {
			i--
		}

		if i < 0 {
			panic(errors.Wrapf(ErrConcurrentModification, "rehash found %d of %d entries", live-j, live))
		}

		key := t.keys[i]
		pos := int(t.hash(key) & uint64(newMask))
		for !t.isZero(newKeys[pos]) {
			pos = (pos + 1) & newMask
		}

		newKeys[pos] = key
		newValues[pos] = t.values[i]
	}

	newKeys[newN] = t.keys[t.n]
	newValues[newN] = t.values[t.n]

	t.keys = newKeys
	t.values = newValues
}

func (t *table[K, V]) get(h uint64, key K) (V, bool) {
	if pos := t.findIndex(h, key); pos >= 0 {
		return t.values[pos], true
	}

	return t.defRetValue, false
}

func (t *table[K, V]) put(h uint64, key K, value V) (V, bool) {
	pos := t.findIndex(h, key)
	if pos >= 0 {
		old := t.values[pos]
		t.values[pos] = value

		return old, true
	}

	t.insert(-pos-1, key, value)

	return t.defRetValue, false
}

func (t *table[K, V]) remove(h uint64, key K) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return t.defRetValue, false
	}

	return t.removeIndex(pos), true
}

func (t *table[K, V]) containsValue(value V) bool {
	if t.containsZero && t.valEqual(t.values[t.n], value) {
		return true
	}

	for i := 0; i < t.n; i++ {
		if !t.isZero(t.keys[i]) && t.valEqual(t.values[i], value) {
			return true
		}
	}

	return false
}

// all yields entries in link order for ordered tables and in slot order,
// zero key first, for the others.
func (t *table[K, V]) all(yield func(K, V) bool) {
	if t.order != nil {
		for i := t.order.first; i >= 0; i = t.order.next(i) {
			if !yield(t.keys[i], t.values[i]) {
				return
			}
		}

		return
	}

	if t.containsZero && !yield(t.keys[t.n], t.values[t.n]) {
		return
	}

	for i := t.n - 1; i >= 0; i-- {
		if !t.isZero(t.keys[i]) && !yield(t.keys[i], t.values[i]) {
			return
		}
	}
}

func (t *table[K, V]) Reset() {
	if t.size == 0 {
		return
	}

	clear(t.keys)
	clear(t.values)

	t.size = 0
	t.containsZero = false

	if t.order != nil {
		t.order.reset()
	}
}

// trim shrinks the table to the smallest size that holds n entries. It
// never grows the table and refuses a negative n.
func (t *table[K, V]) trim(n int) bool {
	if n < 0 {
		return false
	}

	need := math.Ceil(float64(n) / float64(t.loadFactor))
	if need >= float64(t.n) {
		return true
	}

	l := max(2, NextPowerOf2(int(need)))
	if l >= t.n || t.size >= maxFill(l, t.loadFactor) {
		t.logger.Debug("trim skipped", zap.Int("requested", n), zap.Int("size", t.size), zap.Int("capacity", t.n))
		return true
	}

	t.rehash(l)

	return true
}

// clearAndTrim empties the table and, if it's larger than needed for n
// entries, allocates smaller arrays instead of zeroing the old ones.
func (t *table[K, V]) clearAndTrim(n int) {
	l := 2
	if n > 0 {
		l = max(2, NextPowerOf2(int(math.Ceil(float64(n)/float64(t.loadFactor)))))
	}

	if l >= t.n {
		t.Reset()
		return
	}

	t.n = l
	t.mask = l - 1
	t.maxFill = maxFill(l, t.loadFactor)
	t.keys = make([]K, l+1)
	t.values = make([]V, l+1)
	t.size = 0
	t.containsZero = false

	if t.order != nil {
		t.order = newLinkOrder(l + 1)
	}

	t.logger.Debug("cleared and trimmed", zap.Int("capacity", l))
}

// clone returns a deep copy sharing no arrays with t.
func (t *table[K, V]) clone() table[K, V] {
	c := *t
	c.keys = slices.Clone(t.keys)
	c.values = slices.Clone(t.values)

	if t.order != nil {
		c.order = t.order.clone()
	}

	return c
}

func (t *table[K, V]) stats() Stats {
	s := Stats{
		Size:            t.size,
		Capacity:        t.n,
		MinCapacity:     t.minN,
		MaxFill:         t.maxFill,
		LoadFactor:      t.loadFactor,
		ContainsZeroKey: t.containsZero,
	}

	for i := 0; i < t.n; i++ {
		if t.isZero(t.keys[i]) {
			continue
		}

		if d := (i - t.slot(t.hash(t.keys[i]))) & t.mask; d > s.MaxProbeDistance {
			s.MaxProbeDistance = d
		}
	}

	return s
}
