// Package cache persists sieve results in a Badger store so repeated runs
// for the same bound can be answered without sieving.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

// CacheVersion is incremented when the cache format changes.
const CacheVersion = 1

// KeySeparator separates the fields of a cache key.
const KeySeparator = '\x00'

// Key identifies a cached result. TopK is not part of the key: an entry
// holding the K largest primes also answers every smaller K.
type Key struct {
	Limit   int
	Policy  sieve.PartitionPolicy
	Workers int
}

// NewKey builds a key for a run. The worker count only changes the result
// under PolicyEqual, so it is dropped for the other policies.
func NewKey(limit int, policy sieve.PartitionPolicy, workers int) Key {
	if policy != sieve.PolicyEqual {
		workers = 0
	}
	return Key{Limit: limit, Policy: policy, Workers: workers}
}

// Bytes encodes the key.
// Format: v<version>\x00<limit>\x00<policy>\x00<workers>
func (k Key) Bytes() []byte {
	sep := string(KeySeparator)
	return []byte("v" + strconv.Itoa(CacheVersion) + sep +
		strconv.Itoa(k.Limit) + sep + k.Policy.String() + sep + strconv.Itoa(k.Workers))
}

// ParseKey decodes a key produced by Key.Bytes.
func ParseKey(b []byte) (Key, error) {
	parts := strings.Split(string(b), string(KeySeparator))
	if len(parts) != 4 || parts[0] != "v"+strconv.Itoa(CacheVersion) {
		return Key{}, fmt.Errorf("malformed cache key %q", b)
	}
	limit, err := strconv.Atoi(parts[1])
	if err != nil {
		return Key{}, fmt.Errorf("malformed cache key limit: %w", err)
	}
	policy, err := sieve.ParsePolicy(parts[2])
	if err != nil {
		return Key{}, err
	}
	workers, err := strconv.Atoi(parts[3])
	if err != nil {
		return Key{}, fmt.Errorf("malformed cache key workers: %w", err)
	}
	return Key{Limit: limit, Policy: policy, Workers: workers}, nil
}

// CachedResult is the stored form of a sieve result.
type CachedResult struct {
	Version    int
	Limit      int
	Workers    int
	TopK       int
	SeedBound  int
	SeedPrimes int
	Count      int64
	Sum        string
	Largest    []int
	Elapsed    int64 // nanoseconds
	Gap        *types.Range
	StoredAt   int64 // UnixNano
}

// FromResult converts a result for storage.
func FromResult(r *types.Result) *CachedResult {
	return &CachedResult{
		Version:    CacheVersion,
		Limit:      r.Limit,
		Workers:    r.Workers,
		TopK:       r.TopK,
		SeedBound:  r.SeedBound,
		SeedPrimes: r.SeedPrimes,
		Count:      r.Count,
		Sum:        r.Sum,
		Largest:    r.Largest,
		Elapsed:    int64(r.Elapsed),
		Gap:        r.Gap,
		StoredAt:   time.Now().UnixNano(),
	}
}

// Result converts the entry back to a result reporting the k largest
// primes. It returns false when the entry holds fewer than k.
func (c *CachedResult) Result(k int) (*types.Result, bool) {
	if k > len(c.Largest) {
		return nil, false
	}
	largest := append([]int(nil), c.Largest[len(c.Largest)-k:]...)
	return &types.Result{
		Limit:      c.Limit,
		Workers:    c.Workers,
		TopK:       k,
		SeedBound:  c.SeedBound,
		SeedPrimes: c.SeedPrimes,
		Count:      c.Count,
		Sum:        c.Sum,
		Largest:    largest,
		Elapsed:    time.Duration(c.Elapsed),
		Gap:        c.Gap,
		Cached:     true,
	}, true
}

// Encode serializes the entry to bytes using gob.
func (c *CachedResult) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (c *CachedResult) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(c)
}
