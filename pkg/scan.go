package detectdupes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// ErrInterrupted is returned when a scan stops because of a shutdown request
var ErrInterrupted = errors.New("scan interrupted by shutdown")

// ScanOptions control which files a Scanner reports
type ScanOptions struct {
	Recursive bool
	// Excludes are doublestar patterns matched against the slash separated
	// path relative to the root and against the base name
	Excludes []string
	// SkipPaths are absolute paths that are never reported
	SkipPaths []string
}

// Scanner enumerates the regular files below a root directory
type Scanner struct {
	fs       afero.Fs
	opts     ScanOptions
	skip     map[string]bool
	shutdown <-chan struct{}

	excludes []string // opts.Excludes plus the ignore file of the current root
}

// NewScanner creates a scanner over fs
func NewScanner(fs afero.Fs, opts ScanOptions) (*Scanner, error) {
	for _, pattern := range opts.Excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}

	skip := make(map[string]bool)
	for _, p := range opts.SkipPaths {
		skip[absClean(p)] = true
	}

	return &Scanner{fs: fs, opts: opts, skip: skip}, nil
}

// SetShutdown makes Scan stop between files once ch is closed
func (s *Scanner) SetShutdown(ch <-chan struct{}) {
	s.shutdown = ch
}

// Scan calls visit for every file under root: the files of a directory
// first, in name order, then its subdirectories when recursive. Directories
// that cannot be read are passed to onError and skipped. Patterns from the
// root's ignore file are added to the excludes. An error from visit stops
// the scan and is returned.
func (s *Scanner) Scan(root string, visit func(path string) error, onError func(path string, err error)) error {
	defer VerboseEnter()()

	info, err := s.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%s doesn't exist", root)
		}
		onError(root, err)
		return nil
	}
	if !info.IsDir() {
		onError(root, fmt.Errorf("%s is not a directory", root))
		return nil
	}

	ignored, err := LoadIgnorePatterns(s.fs, root)
	if err != nil {
		onError(root, err)
	}
	s.excludes = append(append([]string(nil), s.opts.Excludes...), ignored...)

	return s.scanDir(root, root, visit, onError)
}

func (s *Scanner) scanDir(root, dir string, visit func(string) error, onError func(string, error)) error {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		onError(dir, fmt.Errorf("unable to read directory: %w", err))
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var subdirs []string
	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if s.opts.Recursive && !s.excluded(root, fullPath) {
				subdirs = append(subdirs, fullPath)
			}
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}
		if s.skip[absClean(fullPath)] || s.excluded(root, fullPath) {
			DebugLog("scan", "excluded %s", fullPath)
			continue
		}

		select {
		case <-s.shutdown:
			return ErrInterrupted
		default:
		}

		DebugLog("scan", "found %s", fullPath)
		if err := visit(fullPath); err != nil {
			return err
		}
	}

	for _, subdir := range subdirs {
		if err := s.scanDir(root, subdir, visit, onError); err != nil {
			return err
		}
	}

	return nil
}

// excluded reports whether path matches one of the exclude patterns
func (s *Scanner) excluded(root, path string) bool {
	if len(s.excludes) == 0 {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range s.excludes {
		pattern = strings.TrimSuffix(pattern, "/")
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// cacheSkipPaths lists the cache database and the files SQLite and the lock keep next to it
func cacheSkipPaths(cacheFile string) []string {
	if cacheFile == "" {
		return nil
	}
	abs := absClean(cacheFile)
	paths := []string{abs}
	for _, suffix := range storeCompanionSuffixes {
		paths = append(paths, abs+suffix)
	}
	return paths
}
