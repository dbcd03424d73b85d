// Package cset implements a concurrent set of values over a bucketed
// open-hashing table backed by a contiguous arena of link nodes.
//
// # Architecture
//
// The set is a single logical hash table implemented as three cooperating
// layers:
//
// The node arena ([Set]'s internal nodes slice) is a densely packed,
// resizable array of fixed-layout link records addressed by 32-bit index.
// Index 0 is the sentinel meaning "no node". The first L slots (L is the
// stripe count) are freelist heads, one per stripe; element nodes live at
// indices >= L. The arena is the only heap object holding element payloads.
//
// The bucket table is a resizable array of arena indices, one per bucket,
// each the head of a singly linked chain through the arena. The bucket
// index is hash mod len(slots); the slot count is always drawn from a
// fixed, monotonically increasing sequence of primes (see [primes]).
//
// The concurrency controller stripes L mutexes across the bucket space:
// stripe = bucket mod L. Insert, remove, and resize all go through this
// striping; membership queries, clearing, and iteration are documented
// as single-threaded operations and take no locks at all.
//
// # Concurrency contract
//
// [Set.Add] and [Set.Remove] are safe for concurrent use by any number of
// goroutines. [Set.Contains], [Set.Clear], [Set.Iterate], and [Set.ForEach]
// require that the caller guarantee no concurrent mutation is in flight;
// calling them concurrently with [Set.Add]/[Set.Remove] is a programming
// error. [Set.Contains], [Set.Clear], and [Set.ForEach] report such a call,
// on a best-effort basis, as [ErrConcurrentAccessViolation]; [Set.Iterate]
// discards that error.
// [Set.Count] may be called at any time and is exact only when quiescent.
//
// # Non-goals
//
// The set does not preserve insertion order, does not provide lock-free
// progress guarantees, never shrinks its capacity once grown, and does not
// hold strong references between elements: stored values are owned copies.
package cset
