package sieve

import "math"

// ISqrt returns floor(sqrt(n)) for n >= 0.
func ISqrt(n int) int {
	if n < 2 {
		return n
	}
	r := int(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}

// SeedPrimes runs the classic sieve over [2, m] inside the arena and returns
// the primes found in ascending order. Indices 0 and 1 are already marked.
func SeedPrimes(a *Arena, m int) []int {
	if m > a.limit {
		m = a.limit
	}

	var primes []int
	for i := 2; i <= m; i++ {
		if a.Composite(i) {
			continue
		}
		primes = append(primes, i)
		for j := i + i; j <= m; j += i {
			a.Mark(j)
		}
	}
	return primes
}
