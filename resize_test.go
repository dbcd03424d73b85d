package cset

import "testing"

func TestResizeGrowsThroughMultiplePrimeBoundaries(t *testing.T) {
	s := NewSet[int, IntHasher](WithStripeCount[int, IntHasher](32))

	seenSlots := map[int]bool{}
	for i := 0; i < 20000; i++ {
		if _, err := s.Add(i); err != nil {
			t.Fatalf("Add(%d): unexpected error %v", i, err)
		}
		seenSlots[s.Stats().Slots] = true
	}

	crossed := 0
	for _, p := range primes[:4] {
		if seenSlots[p] {
			crossed++
		}
	}
	if crossed < 3 {
		t.Fatalf("expected to observe at least 3 of the first 4 prime boundaries, saw %d (%v)", crossed, seenSlots)
	}

	for i := 0; i < 20000; i++ {
		mustContains(t, s, i, true)
	}
	if got := s.Count(); got != 20000 {
		t.Fatalf("Count() = %d, want 20000", got)
	}
}

func TestMaybeResizeIsIdempotentUnderNoLoad(t *testing.T) {
	s := NewSet[string, StringHasher]()
	before := s.Stats().Slots
	if err := s.maybeResize(); err != nil {
		t.Fatalf("maybeResize on an empty set: unexpected error %v", err)
	}
	if after := s.Stats().Slots; after != before {
		t.Fatalf("maybeResize on an empty set changed slots from %d to %d", before, after)
	}
}

func TestResizePreservesFreelistNodes(t *testing.T) {
	s := NewSet[int, IntHasher](WithStripeCount[int, IntHasher](16))

	for i := 0; i < 100; i++ {
		s.Add(i)
	}
	for i := 0; i < 50; i++ {
		if !s.Remove(i) {
			t.Fatalf("Remove(%d) should have succeeded", i)
		}
	}

	before := s.Stats()

	for i := 1000; i < 3000; i++ {
		if _, err := s.Add(i); err != nil {
			t.Fatalf("Add(%d): unexpected error %v", i, err)
		}
	}

	after := s.Stats()
	if after.Slots <= before.Slots {
		t.Fatalf("expected a resize to have occurred: before=%+v after=%+v", before, after)
	}

	for i := 50; i < 100; i++ {
		mustContains(t, s, i, true)
	}
	for i := 0; i < 50; i++ {
		mustContains(t, s, i, false)
	}
	for i := 1000; i < 3000; i++ {
		mustContains(t, s, i, true)
	}
}
