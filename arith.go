package openmap

import "golang.org/x/exp/constraints"

// Number is the set of value types AddTo and SubFrom work on.
type Number interface {
	constraints.Integer | constraints.Float
}

// updater is implemented by Map, LinkedMap and SegmentedMap. It hands fn the
// table owning key and key's hash, under whatever lock that table needs.
type updater[K comparable, V comparable] interface {
	update(key K, fn func(t *table[K, V], h uint64))
}

// AddTo adds delta to the value of key, starting from the default return
// value if the key is absent. Returns the previous value.
func AddTo[K comparable, V Number](m updater[K, V], key K, delta V) V {
	var prev V

	m.update(key, func(t *table[K, V], h uint64) {
		pos := t.findIndex(h, key)
		if pos >= 0 {
			prev = t.values[pos]
			t.values[pos] += delta

			return
		}

		prev = t.defRetValue
		t.insert(-pos-1, key, t.defRetValue+delta)
	})

	return prev
}

// SubFrom subtracts delta from the value of a present key. The key is removed
// once the result reaches or passes the default return value in the
// direction of delta. An absent key is left absent. Returns the previous
// value, or the default return value if the key is absent.
func SubFrom[K comparable, V Number](m updater[K, V], key K, delta V) V {
	var prev V

	m.update(key, func(t *table[K, V], h uint64) {
		pos := t.findIndex(h, key)
		if pos < 0 {
			prev = t.defRetValue
			return
		}

		prev = t.values[pos]

		switch value := prev - delta; {
		case delta > 0 && value <= t.defRetValue, delta < 0 && value >= t.defRetValue:
			t.removeIndex(pos)
		default:
			t.values[pos] = value
		}
	})

	return prev
}
