package cset

import (
	"io"
	"iter"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// bucketTable is the bucket array: slots[b] is the arena index of the head
// of the chain for bucket b, or 0 if empty. Its entries are written in
// place by Add/Remove (under the bucket's stripe lock) and by Clear; its
// length never changes, and the resize barrier installs a new, larger
// bucketTable atomically.
type bucketTable struct {
	slots []uint32
}

// Set is a concurrent set of values of type E, hashed and compared by H.
// The zero value is not usable; construct one with [NewSet].
//
// [Set.Add] and [Set.Remove] are safe for concurrent use by any number of
// goroutines. [Set.Contains], [Set.Clear], [Set.Iterate], and
// [Set.ForEach] require the caller to guarantee no concurrent mutation —
// see the package doc comment.
type Set[E any, H Hasher[E]] struct {
	hasher H

	table atomic.Pointer[bucketTable]
	arena atomic.Pointer[arena[E]]

	stripeLocks []sync.Mutex
	stripeCount int

	resizeSignal      atomic.Bool
	resizeCoordinator sync.Mutex

	freeCount  atomic.Int64
	generation atomic.Uint64 // bumped at the start and end of every mutation; even when quiescent, odd while a single mutation is in flight

	logger *slog.Logger
}

// Option configures a [Set] constructed by [NewSet].
type Option[E any, H Hasher[E]] func(*Set[E, H])

// WithLogger sets the structured logger used for resize and
// capacity-exhaustion diagnostics. The default, also used when logger is
// nil, discards all output.
func WithLogger[E any, H Hasher[E]](logger *slog.Logger) Option[E, H] {
	return func(s *Set[E, H]) { s.logger = logger }
}

// WithStripeCount overrides the default stripe count. Intended for tests
// that want to exercise stripe contention or resize behavior with a small
// number of stripes; production callers should use the default.
func WithStripeCount[E any, H Hasher[E]](n int) Option[E, H] {
	return func(s *Set[E, H]) { s.stripeCount = n }
}

// WithHasher overrides the zero-value H instance used to hash and compare
// elements, for hashers that carry configuration (e.g. a seed).
func WithHasher[E any, H Hasher[E]](h H) Option[E, H] {
	return func(s *Set[E, H]) { s.hasher = h }
}

// defaultStripeCount is L in the spec: the fixed number of lock stripes
// partitioning the bucket space.
const defaultStripeCount = 997

// NewSet constructs an empty [Set]. The element type E and its hasher H
// are supplied as type parameters; H's zero value must be a usable
// [Hasher][E] unless [WithHasher] overrides it.
func NewSet[E any, H Hasher[E]](opts ...Option[E, H]) *Set[E, H] {
	s := &Set[E, H]{
		stripeCount: defaultStripeCount,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.stripeLocks = make([]sync.Mutex, s.stripeCount)
	s.table.Store(&bucketTable{slots: make([]uint32, primes[0])})
	s.arena.Store(newArena[E](primes[0], s.stripeCount))
	return s
}

// normalizedHash returns the normalized hash of e per this set's hasher.
func (s *Set[E, H]) normalizedHash(e E) uint32 {
	return normalize(s.hasher.Hash(e))
}

// beginMutation and endMutation bracket the guarded body of Add/Remove and
// the resize barrier's rehash, so Contains/Clear/Iterate can detect a
// mutation racing their scan via the parity of generation.
func (s *Set[E, H]) beginMutation() { s.generation.Add(1) }
func (s *Set[E, H]) endMutation()   { s.generation.Add(1) }

// spinWait busy-waits while the resize barrier is signaled, the same
// runtime.Gosched-based spin the retrieval pack's own magazine-reload code
// (cockroachdb/pebble's concurrentset) uses to wait out a bounded amount
// of concurrent work: at most one resize cycle.
func (s *Set[E, H]) spinWait() {
	for s.resizeSignal.Load() {
		runtime.Gosched()
	}
}

// Add inserts item, returning true if it was not already present. It is
// safe for concurrent use.
func (s *Set[E, H]) Add(item E) (bool, error) {
	h := s.normalizedHash(item)

	if err := s.maybeResize(); err != nil {
		return false, err
	}

	for {
		s.spinWait()

		table := s.table.Load()
		length := len(table.slots)
		bucket := bucketFor(h, length)
		stripe := stripeFor(bucket, s.stripeCount)

		lock := &s.stripeLocks[stripe]
		lock.Lock()

		if s.resizeSignal.Load() || len(s.table.Load().slots) != length {
			lock.Unlock()
			continue
		}

		table = s.table.Load()
		ar := s.arena.Load()

		s.beginMutation()
		head := table.slots[bucket]
		for i := head; i != 0; i = ar.at(i).next {
			n := ar.at(i)
			if n.hash == h && s.hasher.Equal(n.data, item) {
				s.endMutation()
				lock.Unlock()
				return false, nil
			}
		}

		idx, fromFreelist, ok := ar.allocate(stripe)
		if !ok {
			// The arena's bump frontier is exhausted for the current
			// slot count: force a resize (bypassing the load-factor
			// check, since count alone can understate how full the
			// backing array is under freelist churn) and retry.
			s.endMutation()
			lock.Unlock()
			if err := s.resizeBarrier(true); err != nil {
				return false, err
			}
			continue
		}
		if fromFreelist {
			s.freeCount.Add(-1)
		}
		n := ar.at(idx)
		n.hash = h
		n.data = item
		n.next = head
		table.slots[bucket] = idx
		s.endMutation()
		lock.Unlock()

		if err := s.maybeResize(); err != nil {
			return true, err
		}
		return true, nil
	}
}

// Remove deletes item, returning true if it was present. It is safe for
// concurrent use.
func (s *Set[E, H]) Remove(item E) bool {
	h := s.normalizedHash(item)

	for {
		s.spinWait()

		table := s.table.Load()
		length := len(table.slots)
		bucket := bucketFor(h, length)
		stripe := stripeFor(bucket, s.stripeCount)

		lock := &s.stripeLocks[stripe]
		lock.Lock()

		if s.resizeSignal.Load() || len(s.table.Load().slots) != length {
			lock.Unlock()
			continue
		}

		table = s.table.Load()
		ar := s.arena.Load()

		s.beginMutation()
		head := table.slots[bucket]
		if head == 0 {
			s.endMutation()
			lock.Unlock()
			return false
		}

		headNode := ar.at(head)
		if headNode.hash == h && s.hasher.Equal(headNode.data, item) {
			if headNode.next == 0 {
				table.slots[bucket] = 0
				ar.free(head, stripe)
			} else {
				succ := headNode.next
				succNode := ar.at(succ)
				headNode.hash = succNode.hash
				headNode.data = succNode.data
				headNode.next = succNode.next
				ar.free(succ, stripe)
			}
			s.freeCount.Add(1)
			s.endMutation()
			lock.Unlock()
			return true
		}

		prev := head
		for i := headNode.next; i != 0; {
			n := ar.at(i)
			if n.hash == h && s.hasher.Equal(n.data, item) {
				ar.at(prev).next = n.next
				ar.free(i, stripe)
				s.freeCount.Add(1)
				s.endMutation()
				lock.Unlock()
				return true
			}
			prev = i
			i = n.next
		}

		s.endMutation()
		lock.Unlock()
		return false
	}
}

// Contains reports whether item is present. Contains takes no locks: the
// caller must guarantee no concurrent [Set.Add]/[Set.Remove] is in
// flight. On a best-effort basis a violation of that contract is reported
// as [ErrConcurrentAccessViolation] instead of an arbitrary result.
func (s *Set[E, H]) Contains(item E) (bool, error) {
	gen0 := s.generation.Load()
	if gen0%2 != 0 || s.resizeSignal.Load() {
		return false, ErrConcurrentAccessViolation
	}

	h := s.normalizedHash(item)
	table := s.table.Load()
	ar := s.arena.Load()
	bucket := bucketFor(h, len(table.slots))

	found := false
	for i := table.slots[bucket]; i != 0; {
		n := ar.at(i)
		if n.hash == h && s.hasher.Equal(n.data, item) {
			found = true
			break
		}
		i = n.next
	}

	if gen1 := s.generation.Load(); gen1 != gen0 {
		return false, ErrConcurrentAccessViolation
	}
	return found, nil
}

// Count returns the number of elements currently in the set. It never
// blocks and is exact only when no mutation is in flight; under
// concurrent Add/Remove it is a best-effort, eventually-consistent
// estimate (spec: nodePointer - stripes - freeCount).
func (s *Set[E, H]) Count() int {
	ar := s.arena.Load()
	return int(ar.high()) - s.stripeCount - int(s.freeCount.Load())
}

// Len is a convenience alias for [Set.Count].
func (s *Set[E, H]) Len() int { return s.Count() }

// IsEmpty reports whether the set currently has no elements.
func (s *Set[E, H]) IsEmpty() bool { return s.Count() == 0 }

// Clear resets the set to empty, retaining physical arena and bucket
// capacity. Like [Set.Contains], Clear requires the caller to guarantee no
// concurrent mutation is in flight.
func (s *Set[E, H]) Clear() error {
	gen0 := s.generation.Load()
	if gen0%2 != 0 || s.resizeSignal.Load() {
		return ErrConcurrentAccessViolation
	}

	s.beginMutation()
	table := s.table.Load()
	ar := s.arena.Load()

	for i := range table.slots {
		table.slots[i] = 0
	}
	for stripe := 0; stripe < s.stripeCount; stripe++ {
		ar.at(uint32(stripe)).next = 0
	}
	ar.nodePointer.Store(uint32(s.stripeCount))
	s.freeCount.Store(0)
	s.endMutation()

	if gen1 := s.generation.Load(); gen1 != gen0+2 {
		return ErrConcurrentAccessViolation
	}
	return nil
}

// Iterate returns a finite [iter.Seq] yielding every element currently in
// the set exactly once, in unspecified (arena) order. It requires the
// caller to guarantee no concurrent mutation is in flight, and is not
// restartable concurrently with mutation. Any [ErrConcurrentAccessViolation]
// detected mid-scan is silently swallowed by the range-over-func protocol;
// callers that need the error should use [Set.ForEach] directly.
func (s *Set[E, H]) Iterate() iter.Seq[E] {
	return func(yield func(E) bool) {
		_ = s.ForEach(yield)
	}
}

// ForEach calls visit for every element currently in the set, in
// unspecified (arena) order, stopping early if visit returns false. It
// carries the same single-threaded contract as [Set.Iterate].
func (s *Set[E, H]) ForEach(visit func(E) bool) error {
	gen0 := s.generation.Load()
	if gen0%2 != 0 || s.resizeSignal.Load() {
		return ErrConcurrentAccessViolation
	}

	ar := s.arena.Load()
	high := ar.high()
	for i := uint32(s.stripeCount); i < high; i++ {
		n := ar.at(i)
		if n.hash == 0 {
			continue
		}
		if !visit(n.data) {
			break
		}
	}

	if gen1 := s.generation.Load(); gen1 != gen0 {
		return ErrConcurrentAccessViolation
	}
	return nil
}

// Stats reports a point-in-time snapshot of internal bookkeeping, useful
// for the benchmark driver's reporting and otherwise inert.
type Stats struct {
	Slots       int
	Stripes     int
	Count       int
	LoadFactor  float64
	FreeCount   int64
	NodePointer uint32
}

// Stats returns a snapshot of the set's internal bookkeeping, briefly
// holding the coordinator lock so slots/arena are read as a consistent
// pair.
func (s *Set[E, H]) Stats() Stats {
	s.resizeCoordinator.Lock()
	defer s.resizeCoordinator.Unlock()

	table := s.table.Load()
	ar := s.arena.Load()
	freeCount := s.freeCount.Load()
	high := ar.high()

	slots := len(table.slots)
	count := int(high) - s.stripeCount - int(freeCount)
	var lf float64
	if slots > 0 {
		lf = float64(count) / float64(slots)
	}
	return Stats{
		Slots:       slots,
		Stripes:     s.stripeCount,
		Count:       count,
		LoadFactor:  lf,
		FreeCount:   freeCount,
		NodePointer: high,
	}
}
