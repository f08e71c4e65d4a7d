// Package main provides the entry point for the primesieve CLI.
package main

import (
	"os"

	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for preconditions rejected before any work began, 1 otherwise.
func exitCode(err error) int {
	if sieve.IsConfigError(err) {
		return 2
	}
	return 1
}
