package detectdupes

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ScanStatistics are the counters of one run
type ScanStatistics struct {
	FilesChecked        int64 `json:"files_checked"`
	BytesChecked        int64 `json:"bytes_checked"`
	FilesDetected       int64 `json:"files_detected"`
	BytesDetected       int64 `json:"bytes_detected"`
	HashesComputed      int64 `json:"hashes_computed"`
	CacheHits           int64 `json:"cache_hits"`
	FilesDeleted        int64 `json:"files_deleted"`
	DeleteErrors        int64 `json:"delete_errors"`
	FilesSkipped        int64 `json:"files_skipped"`
	DroppedPlaceholders int64 `json:"dropped_placeholders"`
}

// DuplicateMatch describes a file whose content equals an earlier canonical file
type DuplicateMatch struct {
	Path      string `json:"path"`
	Canonical string `json:"canonical"`
	Size      int64  `json:"size"`
	Hash      string `json:"hash"`
	Deleted   bool   `json:"deleted"`
}

// IndexOptions configure what the candidate index does with duplicates
type IndexOptions struct {
	// Delete removes every duplicate after reporting it
	Delete bool
	// ConfirmDelete, when set, is asked before each deletion
	ConfirmDelete func(DuplicateMatch) bool
	// OnDuplicate is called once per duplicate, after any deletion
	OnDuplicate func(DuplicateMatch)
	// OnSkip is called for paths that could not be examined
	OnSkip func(path string, err error)
}

// bucketEntry is either an unhashed placeholder or a hashed canonical file
type bucketEntry struct {
	path   string
	digest string
	hashed bool
}

func unhashed(path string) bucketEntry {
	return bucketEntry{path: path}
}

func hashedEntry(digest, path string) bucketEntry {
	return bucketEntry{path: path, digest: digest, hashed: true}
}

// sizeBucket holds the files seen so far with one exact size. It holds
// either a single placeholder or only hashed entries.
type sizeBucket struct {
	placeholder *bucketEntry
	byDigest    map[string]bucketEntry
}

func (b *sizeBucket) len() int {
	if b.placeholder != nil {
		return 1
	}
	return len(b.byDigest)
}

// CandidateIndex groups files by size and hashes them only when a second
// file of the same size shows up
type CandidateIndex struct {
	fs      afero.Fs
	cache   *HashCache
	opts    IndexOptions
	buckets map[int64]*sizeBucket
	stats   ScanStatistics
}

// NewCandidateIndex creates an empty index that hashes through cache
func NewCandidateIndex(fs afero.Fs, cache *HashCache, opts IndexOptions) *CandidateIndex {
	return &CandidateIndex{
		fs:      fs,
		cache:   cache,
		opts:    opts,
		buckets: make(map[int64]*sizeBucket),
	}
}

// Statistics returns a snapshot of the run counters
func (ci *CandidateIndex) Statistics() ScanStatistics {
	stats := ci.stats
	cacheStats := ci.cache.Stats()
	stats.HashesComputed = cacheStats.Computed
	stats.CacheHits = cacheStats.Hits
	return stats
}

// Buckets returns the number of distinct sizes seen
func (ci *CandidateIndex) Buckets() int {
	return len(ci.buckets)
}

// Check examines one file. Unreadable files are skipped; the only error
// returned is a fatal hash cache failure (ErrCacheWrite).
func (ci *CandidateIndex) Check(path string) error {
	info, err := ci.fs.Stat(path)
	if err != nil {
		ci.skip(path, err)
		return nil
	}
	if !info.Mode().IsRegular() {
		ci.skip(path, fmt.Errorf("not a regular file"))
		return nil
	}

	size := info.Size()
	ci.stats.FilesChecked++
	ci.stats.BytesChecked += size

	bucket, exists := ci.buckets[size]
	if !exists {
		// a unique size cannot have a duplicate yet, so don't read it
		entry := unhashed(path)
		ci.buckets[size] = &sizeBucket{placeholder: &entry}
		DebugLog("index", "new size %d: %s", size, path)
		return nil
	}

	if bucket.placeholder != nil {
		if err := ci.promote(bucket); err != nil {
			return err
		}
	}

	digest, err := ci.cache.ComputeOrLookup(path)
	if err != nil {
		if errors.Is(err, ErrCacheWrite) {
			return err
		}
		VerboseLog(1, "Sorry, unable to calculate hash for '%s': %v", path, err)
		return nil
	}

	existing, found := bucket.byDigest[digest]
	if !found {
		bucket.byDigest[digest] = hashedEntry(digest, path)
		return nil
	}

	if SamePath(path, existing.path) {
		DebugLog("index", "same file seen twice: %s", path)
		return nil
	}

	ci.found(DuplicateMatch{
		Path:      path,
		Canonical: existing.path,
		Size:      size,
		Hash:      digest,
	})
	return nil
}

// promote hashes the placeholder of bucket. A placeholder that cannot be
// hashed is dropped and not tracked for the rest of the run.
func (ci *CandidateIndex) promote(bucket *sizeBucket) error {
	entry := *bucket.placeholder
	bucket.placeholder = nil
	bucket.byDigest = make(map[string]bucketEntry)

	digest, err := ci.cache.ComputeOrLookup(entry.path)
	if err != nil {
		if errors.Is(err, ErrCacheWrite) {
			return err
		}
		ci.stats.DroppedPlaceholders++
		Warnf("dropping %s from comparison: %v", entry.path, err)
		return nil
	}

	bucket.byDigest[digest] = hashedEntry(digest, entry.path)
	return nil
}

// found records a duplicate and applies the deletion policy. The canonical
// file is never modified.
func (ci *CandidateIndex) found(match DuplicateMatch) {
	ci.stats.FilesDetected++
	ci.stats.BytesDetected += match.Size

	if ci.opts.Delete && (ci.opts.ConfirmDelete == nil || ci.opts.ConfirmDelete(match)) {
		if err := ci.remove(match.Path); err != nil {
			ci.stats.DeleteErrors++
			Warnf("unable to delete %s: %v", match.Path, err)
		} else {
			ci.stats.FilesDeleted++
			match.Deleted = true
		}
	}

	if ci.opts.OnDuplicate != nil {
		ci.opts.OnDuplicate(match)
	}
}

// remove clears the read-only state of path and deletes it
func (ci *CandidateIndex) remove(path string) error {
	info, err := ci.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0200 == 0 {
		if err := ci.fs.Chmod(path, info.Mode().Perm()|0200); err != nil {
			return fmt.Errorf("failed to clear read-only mode: %w", err)
		}
	}
	if err := ci.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (ci *CandidateIndex) skip(path string, err error) {
	ci.stats.FilesSkipped++
	DebugLog("index", "skipping %s: %v", path, err)
	if ci.opts.OnSkip != nil {
		ci.opts.OnSkip(path, err)
	}
}
