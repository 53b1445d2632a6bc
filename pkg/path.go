package detectdupes

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// foldPathCase is set where the default filesystem ignores case in names.
// Elsewhere /data/a and /data/A are different files.
var foldPathCase = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

// NormalizeRoot turns a user supplied directory ("." , "../x", "a/./b/..")
// into a clean absolute path
func NormalizeRoot(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("empty path")
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", input, err)
	}
	return filepath.Clean(abs), nil
}

// absClean returns the cleaned absolute form of path, or the cleaned path
// itself when the working directory cannot be determined
func absClean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// SamePath reports whether a and b denote the same absolute file. Case is
// ignored only on platforms whose filesystems ignore it.
func SamePath(a, b string) bool {
	return cacheKey(a) == cacheKey(b)
}

// cacheKey is the key a path is stored under in the hash cache
func cacheKey(path string) string {
	key := absClean(path)
	if foldPathCase {
		key = strings.ToLower(key)
	}
	return key
}
