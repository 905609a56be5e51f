package openmap

import (
	"hash/maphash"

	"go.uber.org/zap"
)

type config[K comparable] struct {
	loadFactor float32
	hashFunc   HashFunc[K]
	equalFunc  EqualFunc[K]
	logger     *zap.Logger
}

type Option[K comparable] func(c *config[K])

// Override default load factor. It must lie in (0, 1).
func WithLoadFactor[K comparable](f float32) Option[K] {
	return func(c *config[K]) {
		c.loadFactor = f
	}
}

// Override default hash function.
func WithHashFunc[K comparable](f HashFunc[K]) Option[K] {
	return func(c *config[K]) {
		c.hashFunc = f
	}
}

// Override default key equality. Useful together with WithHashFunc for keys
// whose identity isn't ==.
func WithEqualFunc[K comparable](f EqualFunc[K]) Option[K] {
	return func(c *config[K]) {
		c.equalFunc = f
	}
}

// Sets the logger used for resize events. Nothing is logged by default.
func WithLogger[K comparable](l *zap.Logger) Option[K] {
	return func(c *config[K]) {
		c.logger = l
	}
}

func newConfig[K comparable](capacity int, opts []Option[K]) (config[K], error) {
	c := config[K]{loadFactor: DefaultLoadFactor}
	for _, opt := range opts {
		opt(&c)
	}

	if capacity < 0 {
		return c, invalidArgumentf("capacity %d is negative", capacity)
	}

	if !(c.loadFactor > 0 && c.loadFactor < 1) {
		return c, invalidArgumentf("load factor %v is out of range (0, 1)", c.loadFactor)
	}

	if _, ok := arraySize(capacity+1, c.loadFactor); !ok || capacity >= MaxCapacity {
		return c, invalidArgumentf("capacity %d exceeds %d slots at load factor %v", capacity, MaxCapacity, c.loadFactor)
	}

	if c.hashFunc == nil {
		c.hashFunc = defaultHashFunc[K](maphash.MakeSeed())
	}

	if c.equalFunc == nil {
		c.equalFunc = defaultEqual[K]()
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	return c, nil
}
