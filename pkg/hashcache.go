package detectdupes

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

var (
	// ErrHashIO marks a digest that could not be computed because the file
	// could not be opened or read to the end. Callers may skip the file.
	ErrHashIO = errors.New("unable to hash file")

	// ErrCacheWrite marks a failure to persist cache entries. Continuing
	// would leave the durable cache silently inconsistent.
	ErrCacheWrite = errors.New("hash cache write failed")
)

// CacheStats counts what the hash cache did during a run
type CacheStats struct {
	Hits     int64 // digests served from memory
	Computed int64 // digests computed by reading a file
	Commits  int64 // transactions committed to the store
}

// HashCache serves digests by path, remembering every digest it computes.
// When a store is attached, computed digests are appended to it in batches
// of FlushSize rows per transaction.
type HashCache struct {
	fs         afero.Fs
	algorithm  *HashAlgorithm
	bufferSize int

	values map[string]string // cacheKey(path) -> hex digest
	loaded int

	store    HashStore
	lock     *cacheLock
	tx       HashTx // non-nil while a transaction is open
	sizeUsed int    // inserts buffered in tx

	stats CacheStats
}

// NewHashCache creates an in-memory cache. Call Initialize or
// InitializeWithStore to add persistence.
func NewHashCache(fs afero.Fs, algorithm *HashAlgorithm, bufferSize int) *HashCache {
	if bufferSize <= 0 {
		bufferSize = DefaultHashBuffer
	}
	return &HashCache{
		fs:         fs,
		algorithm:  algorithm,
		bufferSize: bufferSize,
		values:     make(map[string]string),
	}
}

// Initialize locks and opens the cache database at location and loads all
// known digests. An empty location keeps the cache memory-only. On error the
// cache stays usable without persistence.
func (hc *HashCache) Initialize(location string) error {
	if location == "" {
		return nil
	}

	lock, err := acquireCacheLock(location)
	if err != nil {
		return err
	}

	store, err := OpenSQLiteStore(location)
	if err != nil {
		lock.release()
		return err
	}

	if err := hc.InitializeWithStore(store); err != nil {
		store.Close()
		lock.release()
		return err
	}

	hc.lock = lock
	return nil
}

// InitializeWithStore attaches store, creating its schema and loading every
// row. A path stored more than once resolves to its last row.
func (hc *HashCache) InitializeWithStore(store HashStore) error {
	defer VerboseEnter()()

	if err := store.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to prepare hash cache: %w", err)
	}

	start := time.Now()
	values := make(map[string]string)
	read, ignored := 0, 0
	err := store.LoadAll(func(hash, filename string) {
		if !isDigestFor(hash, hc.algorithm) {
			ignored++
			return
		}
		values[cacheKey(filename)] = hash
		read++
	})
	if err != nil {
		return fmt.Errorf("failed to read hash cache: %w", err)
	}

	for key, hash := range values {
		hc.values[key] = hash
	}
	hc.loaded = read
	hc.store = store

	if read == 0 {
		VerboseLog(1, "Cache is empty as of yet")
	} else {
		VerboseLog(1, "Read %d hashes from the cache in %v", read, time.Since(start).Round(time.Millisecond))
	}
	if ignored > 0 {
		VerboseLog(1, "Ignored %d cached hashes not produced by %s", ignored, hc.algorithm.Name)
	}

	return nil
}

// Persistent reports whether computed digests are being written to a store
func (hc *HashCache) Persistent() bool {
	return hc.store != nil
}

// Loaded returns the number of rows read from the store at initialization
func (hc *HashCache) Loaded() int {
	return hc.loaded
}

// Stats returns the counters accumulated so far
func (hc *HashCache) Stats() CacheStats {
	return hc.stats
}

// Lookup returns the cached digest for path, keyed by cacheKey
func (hc *HashCache) Lookup(path string) (string, bool) {
	digest, ok := hc.values[cacheKey(path)]
	return digest, ok
}

// ComputeOrLookup returns the cached digest for path, hashing the file and
// recording the result when it is not cached yet
func (hc *HashCache) ComputeOrLookup(path string) (string, error) {
	if digest, ok := hc.Lookup(path); ok {
		hc.stats.Hits++
		DebugLog("cache", "hit %s", path)
		return digest, nil
	}

	digest, err := HashFileToHexString(hc.fs, path, hc.algorithm, hc.bufferSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrHashIO, err)
	}
	hc.stats.Computed++
	DebugLog("cache", "computed %s %s", digest, path)

	if err := hc.Write(digest, path); err != nil {
		return "", err
	}
	return digest, nil
}

// Write records digest for path in memory and queues it for the store.
// The FlushSize-th buffered insert commits the transaction.
func (hc *HashCache) Write(digest, path string) error {
	hc.values[cacheKey(path)] = digest

	if hc.store == nil {
		return nil
	}

	if hc.tx == nil {
		tx, err := hc.store.Begin()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCacheWrite, err)
		}
		hc.tx = tx
		hc.sizeUsed = 0
	}

	if err := hc.tx.Insert(digest, absClean(path)); err != nil {
		return fmt.Errorf("%w: insert %s: %w", ErrCacheWrite, path, err)
	}

	hc.sizeUsed++
	if hc.sizeUsed >= FlushSize {
		return hc.Flush()
	}
	return nil
}

// Flush commits the open transaction, if any
func (hc *HashCache) Flush() error {
	if hc.tx == nil {
		return nil
	}

	count := hc.sizeUsed
	err := hc.tx.Commit()
	if err != nil {
		hc.tx.Rollback()
	}
	hc.tx = nil
	hc.sizeUsed = 0

	if err != nil {
		return fmt.Errorf("%w: commit of %d hashes: %w", ErrCacheWrite, count, err)
	}

	hc.stats.Commits++
	DebugLog("cache", "committed %d hashes", count)
	return nil
}

// Close flushes pending writes, closes the store and releases the lock.
// The in-memory map stays usable.
func (hc *HashCache) Close() error {
	flushErr := hc.Flush()

	var closeErr error
	if hc.store != nil {
		closeErr = hc.store.Close()
		hc.store = nil
	}
	hc.lock.release()
	hc.lock = nil

	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close hash cache: %w", closeErr)
	}
	return nil
}
