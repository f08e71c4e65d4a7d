package sieve

import "fmt"

// Reference runs a plain single-threaded Sieve of Eratosthenes over [0, n]
// and returns flags with the arena's convention: true for composites and
// for 0 and 1. It is the trusted baseline the parallel pipeline is checked
// against.
func Reference(n int) []bool {
	if n < 0 {
		return nil
	}
	composite := make([]bool, n+1)
	composite[0] = true
	if n >= 1 {
		composite[1] = true
	}
	for p := 2; p*p <= n; p++ {
		if composite[p] {
			continue
		}
		for q := p * p; q <= n; q += p {
			composite[q] = true
		}
	}
	return composite
}

// ReferencePrimes returns all primes <= n in ascending order.
func ReferencePrimes(n int) []int {
	var primes []int
	for i, c := range Reference(n) {
		if !c {
			primes = append(primes, i)
		}
	}
	return primes
}

// ReferenceCount returns the number of primes <= n and their sum.
func ReferenceCount(n int) (int64, Sum) {
	var count int64
	var sum Sum
	for i, c := range Reference(n) {
		if !c {
			count++
			sum.Add(uint64(i))
		}
	}
	return count, sum
}

// ReferenceSummary aggregates the reference sieve for n exactly as Aggregate
// does for a populated arena.
func ReferenceSummary(n, k int) (Summary, error) {
	if n < 0 {
		return Summary{}, fmt.Errorf("%w: limit %d is negative", ErrInvalidConfig, n)
	}
	return Aggregate(&Arena{flags: Reference(n), limit: n}, k)
}
