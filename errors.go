package openmap

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidArgument is returned by constructors for a negative capacity,
	// a load factor outside (0, 1) or a concurrency level outside (0, 65536).
	ErrInvalidArgument = errors.New("openmap: invalid argument")

	// ErrCapacityExceeded is raised when a table would need more than
	// MaxCapacity slots.
	ErrCapacityExceeded = errors.New("openmap: capacity exceeded")

	// ErrConcurrentModification is raised when a rehash finds fewer live
	// entries than the table's bookkeeping says it holds. Tables other than
	// SegmentedMap are not safe for concurrent use, this is a best-effort
	// detector.
	ErrConcurrentModification = errors.New("openmap: concurrent modification")

	// ErrNoSuchElement is returned when asking an empty ordered structure for
	// its first or last element.
	ErrNoSuchElement = errors.New("openmap: no such element")

	// ErrIllegalState is returned by Iterator.Remove without a current entry.
	ErrIllegalState = errors.New("openmap: illegal iterator state")
)

func invalidArgumentf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
