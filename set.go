package openmap

import "iter"

// Set is a hash set sharing Map's open addressing table, with no values.
// It's not safe for concurrent use.
type Set[K comparable] struct {
	t table[K, struct{}]
}

func NewSet[K comparable](capacity int, opts ...Option[K]) (*Set[K], error) {
	c, err := newConfig(capacity, opts)
	if err != nil {
		return nil, err
	}

	var s Set[K]
	s.t.init(capacity, false, c)

	return &s, nil
}

// Checks whether a key is in the set.
func (s *Set[K]) Contains(key K) bool {
	return s.t.findIndex(s.t.hash(key), key) >= 0
}

// Puts a key in the set.
// Returns whether the key is new.
func (s *Set[K]) Add(key K) bool {
	_, existed := s.t.put(s.t.hash(key), key, struct{}{})
	return !existed
}

// Adds every key yielded by seq.
func (s *Set[K]) AddAll(seq iter.Seq[K]) {
	for k := range seq {
		s.t.put(s.t.hash(k), k, struct{}{})
	}
}

// Deletes a key from the set.
func (s *Set[K]) Remove(key K) bool {
	_, ok := s.t.remove(s.t.hash(key), key)
	return ok
}

func (s *Set[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		s.t.all(func(k K, _ struct{}) bool {
			return yield(k)
		})
	}
}

func (s *Set[K]) Iterator() *Iterator[K, struct{}] {
	return newIterator(&s.t)
}

func (s *Set[K]) Size() int {
	return s.t.size
}

func (s *Set[K]) IsEmpty() bool {
	return s.t.size == 0
}

func (s *Set[K]) Clear() {
	s.t.Reset()
}

func (s *Set[K]) Trim(n int) bool {
	return s.t.trim(n)
}

func (s *Set[K]) ClearAndTrim(n int) {
	s.t.clearAndTrim(n)
}

func (s *Set[K]) Clone() *Set[K] {
	return &Set[K]{t: s.t.clone()}
}

func (s *Set[K]) Stats() Stats {
	return s.t.stats()
}

// LinkedSet is a Set that keeps insertion order. With Add and PollFirst it
// works as a FIFO queue of distinct keys.
type LinkedSet[K comparable] struct {
	Set[K]
}

func NewLinkedSet[K comparable](capacity int, opts ...Option[K]) (*LinkedSet[K], error) {
	c, err := newConfig(capacity, opts)
	if err != nil {
		return nil, err
	}

	var s LinkedSet[K]
	s.t.init(capacity, true, c)

	return &s, nil
}

func (s *LinkedSet[K]) First() (K, error) {
	pos, err := s.t.firstIndex()
	if err != nil {
		return s.t.zeroK, err
	}

	return s.t.keys[pos], nil
}

func (s *LinkedSet[K]) Last() (K, error) {
	pos, err := s.t.lastIndex()
	if err != nil {
		return s.t.zeroK, err
	}

	return s.t.keys[pos], nil
}

// Removes and returns the oldest key.
func (s *LinkedSet[K]) PollFirst() (K, error) {
	pos, err := s.t.firstIndex()
	if err != nil {
		return s.t.zeroK, err
	}

	key := s.t.keys[pos]
	s.t.removeIndex(pos)

	return key, nil
}

// Removes and returns the newest key.
func (s *LinkedSet[K]) PollLast() (K, error) {
	pos, err := s.t.lastIndex()
	if err != nil {
		return s.t.zeroK, err
	}

	key := s.t.keys[pos]
	s.t.removeIndex(pos)

	return key, nil
}

// Adds a key at the front, or moves it there.
// Returns whether the key is new.
func (s *LinkedSet[K]) AddAndMoveToFirst(key K) bool {
	_, existed := s.t.putAndMove(s.t.hash(key), key, struct{}{}, true)
	return !existed
}

// Adds a key at the back, or moves it there.
func (s *LinkedSet[K]) AddAndMoveToLast(key K) bool {
	_, existed := s.t.putAndMove(s.t.hash(key), key, struct{}{}, false)
	return !existed
}

func (s *LinkedSet[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		o := s.t.order
		for i := o.last; i != noSlot; i = o.prev(i) {
			if !yield(s.t.keys[i]) {
				return
			}
		}
	}
}

func (s *LinkedSet[K]) Clone() *LinkedSet[K] {
	return &LinkedSet[K]{Set: Set[K]{t: s.t.clone()}}
}
