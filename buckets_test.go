package cset

import "testing"

func TestNextPrimeProgression(t *testing.T) {
	p, ok := nextPrime(primes[0])
	if !ok || p != primes[1] {
		t.Fatalf("nextPrime(%d) = (%d, %v), want (%d, true)", primes[0], p, ok, primes[1])
	}

	_, ok = nextPrime(primes[len(primes)-1])
	if ok {
		t.Fatal("nextPrime past the last entry should report false")
	}
}

func TestOverLoadFactorThreshold(t *testing.T) {
	slots := 1000
	if overLoadFactor(700, slots) {
		t.Fatal("700/1000 == 0.7 should not itself be over the threshold")
	}
	if !overLoadFactor(701, slots) {
		t.Fatal("701/1000 > 0.7 should be over the threshold")
	}
}

func TestBucketAndStripeRouting(t *testing.T) {
	slots := primes[0]
	for _, h := range []uint32{0, 1, 41, uint32(slots), uint32(slots) + 1} {
		b := bucketFor(h, slots)
		if b < 0 || b >= slots {
			t.Fatalf("bucketFor(%d, %d) = %d out of range", h, slots, b)
		}
		st := stripeFor(b, defaultStripeCount)
		if st < 0 || st >= defaultStripeCount {
			t.Fatalf("stripeFor(%d, %d) = %d out of range", b, defaultStripeCount, st)
		}
	}
}
