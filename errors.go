package cset

import (
	"errors"
	"fmt"
)

// ErrOutOfCapacity is returned by [Set.Add] when the bucket-size prime
// progression is exhausted and the load factor is still exceeded.
var ErrOutOfCapacity = errors.New("cset: out of capacity")

// ErrConcurrentAccessViolation is returned by [Set.Contains], [Set.Clear],
// and [Set.ForEach] when a concurrent mutation is observed around their
// scan; [Set.Iterate] discards it. These
// operations are documented as single-threaded; this error is a best-effort
// detector of a caller violating that contract, not a guarantee.
var ErrConcurrentAccessViolation = errors.New("cset: concurrent access violation")

// CapacityError wraps [ErrOutOfCapacity] with the slot count the table had
// reached when capacity was exhausted, for diagnostics.
type CapacityError struct {
	// Slots is the bucket count in effect when growth was attempted and
	// the prime progression had no further entry.
	Slots int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("cset: out of capacity at %d slots: prime progression exhausted", e.Slots)
}

func (e *CapacityError) Unwrap() error { return ErrOutOfCapacity }

// Is reports whether target is ErrOutOfCapacity, so errors.Is(err,
// ErrOutOfCapacity) matches a *CapacityError without callers needing to
// know the concrete type.
func (e *CapacityError) Is(target error) bool {
	return target == ErrOutOfCapacity
}
