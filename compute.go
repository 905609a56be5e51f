package openmap

// The callbacks below run while the table is being updated. They must not
// modify the structure they were passed to.

func (t *table[K, V]) putIfAbsent(h uint64, key K, value V) (V, bool) {
	pos := t.findIndex(h, key)
	if pos >= 0 {
		return t.values[pos], true
	}

	t.insert(-pos-1, key, value)

	return t.defRetValue, false
}

func (t *table[K, V]) removeValue(h uint64, key K, value V) bool {
	pos := t.findIndex(h, key)
	if pos < 0 || !t.valEqual(t.values[pos], value) {
		return false
	}

	t.removeIndex(pos)

	return true
}

func (t *table[K, V]) replace(h uint64, key K, value V) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return t.defRetValue, false
	}

	old := t.values[pos]
	t.values[pos] = value

	return old, true
}

func (t *table[K, V]) replaceValue(h uint64, key K, oldValue, newValue V) bool {
	pos := t.findIndex(h, key)
	if pos < 0 || !t.valEqual(t.values[pos], oldValue) {
		return false
	}

	t.values[pos] = newValue

	return true
}

// store writes value at the slot findIndex returned, inserting if needed.
func (t *table[K, V]) store(pos int, key K, value V) {
	if pos >= 0 {
		t.values[pos] = value
		return
	}

	t.insert(-pos-1, key, value)
}

func (t *table[K, V]) compute(h uint64, key K, f func(K, V, bool) (V, bool)) (V, bool) {
	pos := t.findIndex(h, key)

	old := t.defRetValue
	if pos >= 0 {
		old = t.values[pos]
	}

	value, keep := f(key, old, pos >= 0)
	if !keep {
		if pos >= 0 {
			t.removeIndex(pos)
		}

		return t.defRetValue, false
	}

	t.store(pos, key, value)

	return value, true
}

func (t *table[K, V]) computeNonDefault(h uint64, key K, f func(K, V) V) V {
	pos := t.findIndex(h, key)

	old := t.defRetValue
	if pos >= 0 {
		old = t.values[pos]
	}

	value := f(key, old)
	if t.valEqual(value, t.defRetValue) {
		if pos >= 0 {
			t.removeIndex(pos)
		}

		return t.defRetValue
	}

	t.store(pos, key, value)

	return value
}

func (t *table[K, V]) computeIfAbsent(h uint64, key K, f func(K) (V, bool)) (V, bool) {
	pos := t.findIndex(h, key)
	if pos >= 0 {
		return t.values[pos], true
	}

	value, ok := f(key)
	if !ok {
		return t.defRetValue, false
	}

	t.insert(-pos-1, key, value)

	return value, true
}

func (t *table[K, V]) computeIfAbsentNonDefault(h uint64, key K, f func(K) V) V {
	pos := t.findIndex(h, key)
	if pos >= 0 {
		return t.values[pos]
	}

	value := f(key)
	if t.valEqual(value, t.defRetValue) {
		return t.defRetValue
	}

	t.insert(-pos-1, key, value)

	return value
}

func (t *table[K, V]) computeIfPresent(h uint64, key K, f func(K, V) (V, bool)) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return t.defRetValue, false
	}

	value, keep := f(key, t.values[pos])
	if !keep {
		t.removeIndex(pos)
		return t.defRetValue, false
	}

	t.values[pos] = value

	return value, true
}

func (t *table[K, V]) computeIfPresentNonDefault(h uint64, key K, f func(K, V) V) V {
	pos := t.findIndex(h, key)
	if pos < 0 {
		return t.defRetValue
	}

	value := f(key, t.values[pos])
	if t.valEqual(value, t.defRetValue) {
		t.removeIndex(pos)
		return t.defRetValue
	}

	t.values[pos] = value

	return value
}

func (t *table[K, V]) merge(h uint64, key K, value V, f func(old, value V) (V, bool)) (V, bool) {
	pos := t.findIndex(h, key)
	if pos < 0 {
		t.insert(-pos-1, key, value)
		return value, true
	}

	merged, keep := f(t.values[pos], value)
	if !keep {
		t.removeIndex(pos)
		return t.defRetValue, false
	}

	t.values[pos] = merged

	return merged, true
}

func (t *table[K, V]) mergeNonDefault(h uint64, key K, value V, f func(old, value V) V) V {
	pos := t.findIndex(h, key)
	if pos < 0 {
		if t.valEqual(value, t.defRetValue) {
			return t.defRetValue
		}

		t.insert(-pos-1, key, value)

		return value
	}

	merged := f(t.values[pos], value)
	if t.valEqual(merged, t.defRetValue) {
		t.removeIndex(pos)
		return t.defRetValue
	}

	t.values[pos] = merged

	return merged
}
