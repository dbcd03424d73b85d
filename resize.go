package cset

// maybeResize checks the load-factor trigger and runs the resize barrier
// if it is exceeded. Called at the top of [Set.Add], per spec.
func (s *Set[E, H]) maybeResize() error {
	table := s.table.Load()
	ar := s.arena.Load()
	count := int(ar.high()) - s.stripeCount - int(s.freeCount.Load())
	if !overLoadFactor(count, len(table.slots)) {
		return nil
	}
	return s.resizeBarrier(false)
}

// arenaExhausted reports whether the arena's bump frontier has reached its
// backing array's capacity, meaning no further node can be bump-allocated
// at the current slot count regardless of the load factor (freelist churn
// can strand freed nodes and keep count low while the frontier is maxed).
func arenaExhausted[E any](ar *arena[E]) bool {
	return int(ar.high()) >= len(ar.nodes)
}

// resizeBarrier runs the grow-only rehash protocol: publish the resize
// signal, acquire the coordinator lock, acquire every stripe lock in
// ascending order, re-check the load factor now that all mutators are
// blocked, grow the arena and bucket table, rehash every live node in
// place, and release everything in reverse order. When force is true the
// load-factor re-check is skipped: the caller already knows growth is
// required because the arena's bump frontier is exhausted.
func (s *Set[E, H]) resizeBarrier(force bool) error {
	s.resizeSignal.Store(true)

	s.resizeCoordinator.Lock()
	if !s.resizeSignal.Load() {
		// Another thread completed a resize while we waited for the
		// coordinator lock.
		s.resizeCoordinator.Unlock()
		return nil
	}

	for i := 0; i < s.stripeCount; i++ {
		s.stripeLocks[i].Lock()
	}

	unlockAll := func() {
		for i := s.stripeCount - 1; i >= 0; i-- {
			s.stripeLocks[i].Unlock()
		}
		s.resizeCoordinator.Unlock()
	}

	table := s.table.Load()
	ar := s.arena.Load()
	count := int(ar.high()) - s.stripeCount - int(s.freeCount.Load())
	if !force && !overLoadFactor(count, len(table.slots)) && !arenaExhausted(ar) {
		s.resizeSignal.Store(false)
		unlockAll()
		return nil
	}

	newSlotsLen, ok := nextPrime(len(table.slots))
	if !ok {
		s.logger.Error("cset: bucket-size progression exhausted",
			"slots", len(table.slots), "count", count)
		s.resizeSignal.Store(false)
		unlockAll()
		return &CapacityError{Slots: len(table.slots)}
	}

	s.beginMutation()

	newAr := ar.growCopy(newSlotsLen)
	newSlots := make([]uint32, newSlotsLen)
	for i, high := uint32(s.stripeCount), newAr.high(); i < high; i++ {
		n := newAr.at(i)
		if n.hash == 0 {
			continue
		}
		b := bucketFor(n.hash, newSlotsLen)
		n.next = newSlots[b]
		newSlots[b] = i
	}

	s.arena.Store(newAr)
	s.table.Store(&bucketTable{slots: newSlots})

	s.endMutation()

	s.logger.Info("cset: resized", "oldSlots", len(table.slots), "newSlots", newSlotsLen, "count", count)

	s.resizeSignal.Store(false)
	unlockAll()
	return nil
}
