package openmap

import (
	"iter"
	"math/bits"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

// MaxConcurrencyLevel bounds the concurrency level from above, exclusive.
const MaxConcurrencyLevel = 1 << 16

type segment[K comparable, V comparable] struct {
	mu sync.RWMutex
	t  table[K, V]

	// Keeps the next segment's lock off this segment's cache lines.
	_ cpu.CacheLinePad
}

// SegmentedMap is a concurrent map made of independently locked segments,
// each an open addressing table like Map's (or LinkedMap's). The high bits
// of a key's hash pick its segment, the low bits its slot in the segment.
//
// Reads take the segment's read lock and writes its write lock. No operation
// holds more than one segment lock, so writers on different segments never
// wait for each other. Whole-map operations (Size, ContainsValue, Range,
// Iterator, Clone, Clear) visit segments one after another and don't
// observe an atomic snapshot of the map while writers are active.
//
// Callbacks given to the Compute and Merge methods run under the segment's
// write lock and must not use the map.
type SegmentedMap[K comparable, V comparable] struct {
	segments     []segment[K, V]
	segmentShift uint
	segmentMask  uint64
	hashFunc     HashFunc[K]
	ordered      bool
}

// Returns a new map holding capacity entries across concurrencyLevel
// segments. concurrencyLevel must lie in (0, MaxConcurrencyLevel) and is
// rounded up to a power of two.
func NewSegmentedMap[K comparable, V comparable](capacity, concurrencyLevel int, opts ...Option[K]) (*SegmentedMap[K, V], error) {
	return newSegmentedMap[K, V](capacity, concurrencyLevel, false, opts)
}

// NewLinkedSegmentedMap is NewSegmentedMap with LinkedMap segments: each
// segment keeps its insertion order and iteration follows it.
func NewLinkedSegmentedMap[K comparable, V comparable](capacity, concurrencyLevel int, opts ...Option[K]) (*SegmentedMap[K, V], error) {
	return newSegmentedMap[K, V](capacity, concurrencyLevel, true, opts)
}

func newSegmentedMap[K comparable, V comparable](capacity, concurrencyLevel int, ordered bool, opts []Option[K]) (*SegmentedMap[K, V], error) {
	c, err := newConfig(capacity, opts)
	if err != nil {
		return nil, err
	}

	if concurrencyLevel <= 0 || concurrencyLevel >= MaxConcurrencyLevel {
		return nil, invalidArgumentf("concurrency level %d is out of range (0, %d)", concurrencyLevel, MaxConcurrencyLevel)
	}

	count := NextPowerOf2(concurrencyLevel)
	perSegment := (capacity + count - 1) / count

	m := &SegmentedMap[K, V]{
		segments:     make([]segment[K, V], count),
		segmentShift: uint(64 - bits.TrailingZeros(uint(count))),
		segmentMask:  uint64(count - 1),
		hashFunc:     c.hashFunc,
		ordered:      ordered,
	}

	for i := range m.segments {
		sc := c
		sc.logger = c.logger.With(zap.Int("segment", i))
		m.segments[i].t.init(perSegment, ordered, sc)
	}

	return m, nil
}

func (m *SegmentedMap[K, V]) hash(key K) uint64 {
	return mix(m.hashFunc(key))
}

// A single segment has a shift of 64, which yields 0.
func (m *SegmentedMap[K, V]) getSegmentIndex(h uint64) int {
	return int((h >> m.segmentShift) & m.segmentMask)
}

func (m *SegmentedMap[K, V]) getSegment(h uint64) *segment[K, V] {
	return &m.segments[m.getSegmentIndex(h)]
}

func (m *SegmentedMap[K, V]) locate(key K) (*segment[K, V], uint64) {
	h := m.hash(key)
	return m.getSegment(h), h
}

func (m *SegmentedMap[K, V]) update(key K, fn func(t *table[K, V], h uint64)) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.t, h)
}

func (m *SegmentedMap[K, V]) SegmentCount() int {
	return len(m.segments)
}

func (m *SegmentedMap[K, V]) DefaultReturnValue() V {
	s := &m.segments[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.defRetValue
}

// Sets the value returned for absent keys, one segment at a time.
func (m *SegmentedMap[K, V]) SetDefaultReturnValue(v V) {
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.Lock()
		s.t.defRetValue = v
		s.mu.Unlock()
	}
}

func (m *SegmentedMap[K, V]) Get(key K) (V, bool) {
	s, h := m.locate(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.get(h, key)
}

func (m *SegmentedMap[K, V]) GetOrDefault(key K, def V) V {
	if v, ok := m.Get(key); ok {
		return v
	}

	return def
}

func (m *SegmentedMap[K, V]) ContainsKey(key K) bool {
	s, h := m.locate(key)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.t.findIndex(h, key) >= 0
}

func (m *SegmentedMap[K, V]) ContainsValue(value V) bool {
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.RLock()
		found := s.t.containsValue(value)
		s.mu.RUnlock()

		if found {
			return true
		}
	}

	return false
}

func (m *SegmentedMap[K, V]) Put(key K, value V) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.put(h, key, value)
}

func (m *SegmentedMap[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.putIfAbsent(h, key, value)
}

// PutAll locks the target segment once per pair.
func (m *SegmentedMap[K, V]) PutAll(seq iter.Seq2[K, V]) {
	for k, v := range seq {
		m.Put(k, v)
	}
}

func (m *SegmentedMap[K, V]) Remove(key K) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.remove(h, key)
}

func (m *SegmentedMap[K, V]) RemoveValue(key K, value V) bool {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.removeValue(h, key, value)
}

func (m *SegmentedMap[K, V]) Replace(key K, value V) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.replace(h, key, value)
}

func (m *SegmentedMap[K, V]) ReplaceValue(key K, oldValue, newValue V) bool {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.replaceValue(h, key, oldValue, newValue)
}

func (m *SegmentedMap[K, V]) Compute(key K, f func(key K, old V, present bool) (V, bool)) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.compute(h, key, f)
}

func (m *SegmentedMap[K, V]) ComputeNonDefault(key K, f func(key K, old V) V) V {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.computeNonDefault(h, key, f)
}

func (m *SegmentedMap[K, V]) ComputeIfAbsent(key K, f func(key K) (V, bool)) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.computeIfAbsent(h, key, f)
}

func (m *SegmentedMap[K, V]) ComputeIfAbsentNonDefault(key K, f func(key K) V) V {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.computeIfAbsentNonDefault(h, key, f)
}

func (m *SegmentedMap[K, V]) ComputeIfPresent(key K, f func(key K, old V) (V, bool)) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.computeIfPresent(h, key, f)
}

func (m *SegmentedMap[K, V]) ComputeIfPresentNonDefault(key K, f func(key K, old V) V) V {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.computeIfPresentNonDefault(h, key, f)
}

func (m *SegmentedMap[K, V]) Merge(key K, value V, f func(old, value V) (V, bool)) (V, bool) {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.merge(h, key, value, f)
}

func (m *SegmentedMap[K, V]) MergeNonDefault(key K, value V, f func(old, value V) V) V {
	s, h := m.locate(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.t.mergeNonDefault(h, key, value, f)
}

// Size sums the segment sizes, reading one segment at a time.
func (m *SegmentedMap[K, V]) Size() int {
	var n int
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.RLock()
		n += s.t.size
		s.mu.RUnlock()
	}

	return n
}

func (m *SegmentedMap[K, V]) IsEmpty() bool {
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.RLock()
		empty := s.t.size == 0
		s.mu.RUnlock()

		if !empty {
			return false
		}
	}

	return true
}

// snapshot copies the entries of segment i, in order for linked segments.
func (m *SegmentedMap[K, V]) snapshot(i int, buf []entry[K, V]) []entry[K, V] {
	s := &m.segments[i]

	s.mu.RLock()
	defer s.mu.RUnlock()

	buf = buf[:0]
	s.t.all(func(k K, v V) bool {
		buf = append(buf, entry[K, V]{key: k, value: v})
		return true
	})

	return buf
}

// Range calls f for every entry until f returns false. Each segment is
// copied under its read lock and f runs without any lock held, so f may use
// the map.
func (m *SegmentedMap[K, V]) Range(f func(key K, value V) bool) {
	var buf []entry[K, V]
	for i := range m.segments {
		buf = m.snapshot(i, buf)
		for _, e := range buf {
			if !f(e.key, e.value) {
				return
			}
		}
	}
}

func (m *SegmentedMap[K, V]) All() iter.Seq2[K, V] {
	return m.Range
}

func (m *SegmentedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.Range(func(k K, _ V) bool {
			return yield(k)
		})
	}
}

func (m *SegmentedMap[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.Range(func(_ K, v V) bool {
			return yield(v)
		})
	}
}

func (m *SegmentedMap[K, V]) Iterator() *SegmentedIterator[K, V] {
	return &SegmentedIterator[K, V]{m: m, seg: -1, idx: -1}
}

func (m *SegmentedMap[K, V]) Clear() {
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.Lock()
		s.t.Reset()
		s.mu.Unlock()
	}
}

// Trim shrinks every segment to hold its share of n entries.
func (m *SegmentedMap[K, V]) Trim(n int) bool {
	if n < 0 {
		return false
	}

	perSegment := (n + len(m.segments) - 1) / len(m.segments)

	ok := true
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.Lock()
		ok = s.t.trim(perSegment) && ok
		s.mu.Unlock()
	}

	return ok
}

func (m *SegmentedMap[K, V]) ClearAndTrim(n int) {
	perSegment := (max(n, 0) + len(m.segments) - 1) / len(m.segments)

	for i := range m.segments {
		s := &m.segments[i]

		s.mu.Lock()
		s.t.clearAndTrim(perSegment)
		s.mu.Unlock()
	}
}

// Clone copies the map one segment at a time, each under its read lock.
func (m *SegmentedMap[K, V]) Clone() *SegmentedMap[K, V] {
	c := &SegmentedMap[K, V]{
		segments:     make([]segment[K, V], len(m.segments)),
		segmentShift: m.segmentShift,
		segmentMask:  m.segmentMask,
		hashFunc:     m.hashFunc,
		ordered:      m.ordered,
	}

	for i := range m.segments {
		s := &m.segments[i]

		s.mu.RLock()
		c.segments[i].t = s.t.clone()
		s.mu.RUnlock()
	}

	return c
}

func (m *SegmentedMap[K, V]) SegmentStats() []Stats {
	stats := make([]Stats, len(m.segments))
	for i := range m.segments {
		s := &m.segments[i]

		s.mu.RLock()
		stats[i] = s.t.stats()
		s.mu.RUnlock()
	}

	return stats
}
