package sieve_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
)

func BenchmarkRun(b *testing.B) {
	for _, w := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", w), func(b *testing.B) {
			opts := sieve.Options{Limit: 10_000_000, Workers: w, TopK: 10}
			for b.Loop() {
				if _, err := sieve.Run(context.Background(), opts); err != nil {
					b.Fatalf("run failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkReference(b *testing.B) {
	for b.Loop() {
		if _, err := sieve.ReferenceSummary(10_000_000, 10); err != nil {
			b.Fatalf("reference failed: %v", err)
		}
	}
}
