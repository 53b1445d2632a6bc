package detectdupes

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// IgnoreFileName is the per-root file listing extra exclude patterns
const IgnoreFileName = ".detectdupesignore"

// LoadIgnorePatterns reads the ignore file in root. Each line holds one
// doublestar pattern; empty lines and lines starting with # are skipped.
// A missing file yields no patterns.
func LoadIgnorePatterns(fs afero.Fs, root string) ([]string, error) {
	ignorePath := filepath.Join(root, IgnoreFileName)

	file, err := fs.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !doublestar.ValidatePattern(line) {
			return nil, fmt.Errorf("invalid pattern at %s line %d: %s", ignorePath, lineNum, line)
		}
		patterns = append(patterns, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ignore file: %w", err)
	}

	DebugLog("scan", "loaded %d patterns from %s", len(patterns), ignorePath)
	return patterns, nil
}
