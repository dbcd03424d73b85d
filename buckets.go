package cset

// primes is the fixed, monotonically increasing sequence of bucket counts
// a [Set] grows through. Each entry is prime so that hash mod p distributes
// well for arbitrary integer hashes, and the sequence roughly doubles.
// Exceeding the final entry fails [Set.Add] with [ErrOutOfCapacity].
var primes = [...]int{
	1367, 2741, 5471, 10937, 19841, 40241, 84463, 174767, 349529, 699053,
	1398107, 2796221, 5592407, 11184829, 22369661, 44739259, 89478503,
	178956983, 357913951, 715827947, 1431655777, 2147483629,
}

// maxLoadFactorNum and maxLoadFactorDen express the 0.7 load-factor
// threshold as an integer ratio so the trigger check (10*count > 7*slots)
// never involves floating point.
const (
	maxLoadFactorNum = 7
	maxLoadFactorDen = 10
)

// nextPrime returns the smallest prime in the progression strictly greater
// than n, and whether one exists.
func nextPrime(n int) (int, bool) {
	for _, p := range primes {
		if p > n {
			return p, true
		}
	}
	return 0, false
}

// overLoadFactor reports whether count/slots exceeds 0.7, computed as
// 10*count > 7*slots to stay in integer arithmetic.
func overLoadFactor(count, slots int) bool {
	return maxLoadFactorDen*count > maxLoadFactorNum*slots
}

// bucketFor computes the bucket index for a normalized hash under a given
// slot count.
func bucketFor(hash uint32, slots int) int {
	return int(hash % uint32(slots))
}

// stripeFor computes the stripe index for a bucket index under a given
// stripe count. Because bucket depends on the current slot count, stripe
// must be recomputed whenever slots.length may have changed — it is not
// resize-invariant.
func stripeFor(bucket, stripeCount int) int {
	return bucket % stripeCount
}
