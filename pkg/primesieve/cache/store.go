package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
)

var logger = logging.Get("cache")

// ErrNotFound is returned when no usable cache entry exists.
var ErrNotFound = errors.New("cache entry not found")

// Store wraps Badger for result cache operations.
type Store struct {
	db *badger.DB
}

// Stats summarizes the store contents.
type Stats struct {
	Entries  int
	LSMSize  int64
	VlogSize int64
	Keys     []Key
}

// OpenStore opens or creates a cache store at the given path.
func OpenStore(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = badgerLogger{logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached result for key with the k largest primes.
// It returns ErrNotFound when no entry exists or the entry holds fewer
// than k largest primes. Workers and Ranges describe a run with the given
// worker count, not the run that produced the entry.
func (s *Store) Get(key Key, k, workers int) (*types.Result, error) {
	var entry CachedResult

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Bytes())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}

	r, ok := entry.Result(k)
	if !ok {
		logger.Debug("cache entry too short", "limit", key.Limit, "have", len(entry.Largest), "want", k)
		return nil, ErrNotFound
	}

	// Entries are shared across worker counts outside PolicyEqual, so the
	// layout is rebuilt for the caller.
	ranges, err := sieve.Partition(r.Limit, r.SeedBound, workers, key.Policy)
	if err != nil {
		return nil, err
	}
	r.Workers = workers
	r.Ranges = ranges
	return r, nil
}

// Put stores r under key. An existing entry that already holds at least as
// many largest primes is kept.
func (s *Store) Put(key Key, r *types.Result) error {
	entry := FromResult(r)
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key.Bytes())
		switch {
		case err == nil:
			var existing CachedResult
			if err := item.Value(existing.Decode); err == nil && len(existing.Largest) >= len(entry.Largest) {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key.Bytes(), value)
	})
}

// Delete removes a cached entry.
func (s *Store) Delete(key Key) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key.Bytes())
	})
}

// Clear removes every entry.
func (s *Store) Clear() error {
	return s.db.DropAll()
}

// Stats returns entry counts and on-disk sizes.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	stats.LSMSize, stats.VlogSize = s.db.Size()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			stats.Entries++
			if key, err := ParseKey(it.Item().KeyCopy(nil)); err == nil {
				stats.Keys = append(stats.Keys, key)
			}
		}
		return nil
	})
	return stats, err
}

// badgerLogger routes badger's internal logging to the cache logger.
type badgerLogger struct {
	l *logging.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
