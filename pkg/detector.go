package detectdupes

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// DetectorOptions configure one duplicate detection run
type DetectorOptions struct {
	Roots     []string
	Recursive bool
	// CacheFile is the SQLite cache database, empty keeps the hash cache in
	// memory. It and its lock file always live on the OS filesystem, whatever
	// afero.Fs the detector scans.
	CacheFile string
	Delete    bool
	Excludes  []string
	Algorithm string // md5 when empty
	// HashBuffer is the read buffer size used while hashing
	HashBuffer int

	OnDuplicate   func(DuplicateMatch)
	ConfirmDelete func(DuplicateMatch) bool
	OnProgress    func(ScanStatistics)
	OnWarning     func(msg string)
	OnSkip        func(path string, err error)
}

// Result is what a run produced
type Result struct {
	Stats       ScanStatistics
	Report      *Report
	Elapsed     time.Duration
	CacheLoaded int  // digests read from the cache database
	Persistent  bool // whether computed digests were stored
	Interrupted bool
}

// Detector runs the scanner over every root and feeds the files into a candidate index
type Detector struct {
	fs   afero.Fs
	opts DetectorOptions
}

// NewDetector creates a detector working on fs
func NewDetector(fs afero.Fs, opts DetectorOptions) *Detector {
	return &Detector{fs: fs, opts: opts}
}

func (d *Detector) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if d.opts.OnWarning != nil {
		d.opts.OnWarning(msg)
		return
	}
	Warnf("%s", msg)
}

// Run scans every root once. The hash cache is always flushed and closed
// before returning, also when the run was interrupted through shutdown.
// A non-nil error is fatal (a hash cache write failure or bad options); the
// result is still returned with whatever was counted up to that point.
func (d *Detector) Run(shutdown <-chan struct{}) (*Result, error) {
	defer VerboseEnter()()
	start := time.Now()

	if len(d.opts.Roots) == 0 {
		return nil, fmt.Errorf("no directories to scan")
	}

	algorithmName := d.opts.Algorithm
	if algorithmName == "" {
		algorithmName = DefaultHashAlgorithm
	}
	algorithm, err := GetHashAlgorithm(algorithmName)
	if err != nil {
		return nil, err
	}

	scanner, err := NewScanner(d.fs, ScanOptions{
		Recursive: d.opts.Recursive,
		Excludes:  d.opts.Excludes,
		SkipPaths: cacheSkipPaths(d.opts.CacheFile),
	})
	if err != nil {
		return nil, err
	}
	scanner.SetShutdown(shutdown)

	cache := NewHashCache(d.fs, algorithm, d.opts.HashBuffer)
	if err := cache.Initialize(d.opts.CacheFile); err != nil {
		d.warn("hash cache unavailable, continuing without persistence: %v", err)
	}

	result := &Result{
		Report:      NewReport(),
		CacheLoaded: cache.Loaded(),
		Persistent:  cache.Persistent(),
	}

	index := NewCandidateIndex(d.fs, cache, IndexOptions{
		Delete:        d.opts.Delete,
		ConfirmDelete: d.opts.ConfirmDelete,
		OnDuplicate: func(match DuplicateMatch) {
			result.Report.Add(match)
			if d.opts.OnDuplicate != nil {
				d.opts.OnDuplicate(match)
			}
		},
		OnSkip: d.opts.OnSkip,
	})

	runErr := d.scanRoots(scanner, index)
	if errors.Is(runErr, ErrInterrupted) {
		VerboseLog(1, "Scan interrupted, flushing hash cache")
		result.Interrupted = true
		runErr = nil
	}

	if err := cache.Close(); err != nil && runErr == nil {
		runErr = err
	}

	result.Stats = index.Statistics()
	result.Report.Stats = result.Stats
	result.Elapsed = time.Since(start)

	return result, runErr
}

func (d *Detector) scanRoots(scanner *Scanner, index *CandidateIndex) error {
	onError := func(path string, err error) {
		d.warn("%v", err)
	}

	for _, input := range d.opts.Roots {
		root, err := NormalizeRoot(input)
		if err != nil {
			d.warn("skipping %s: %v", input, err)
			continue
		}
		VerboseLog(1, "Scanning %s", root)

		err = scanner.Scan(root, func(path string) error {
			if err := index.Check(path); err != nil {
				return err
			}
			if d.opts.OnProgress != nil {
				d.opts.OnProgress(index.Statistics())
			}
			return nil
		}, onError)
		if err != nil {
			return err
		}
	}
	return nil
}
