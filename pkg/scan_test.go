package detectdupes

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanTree(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/root/b.txt":              "b",
		"/root/a.txt":              "a",
		"/root/sub/c.txt":          "c",
		"/root/sub/deep/d.log":     "d",
		"/root/node_modules/x.js":  "x",
		"/root/photos/img.jpg":     "i",
		"/root/photos/img.jpg.tmp": "t",
	})
	return fs
}

func collect(t *testing.T, scanner *Scanner, root string) ([]string, []string) {
	t.Helper()
	var files, problems []string
	err := scanner.Scan(root, func(path string) error {
		files = append(files, path)
		return nil
	}, func(path string, err error) {
		problems = append(problems, err.Error())
	})
	require.NoError(t, err)
	return files, problems
}

func TestScannerNonRecursive(t *testing.T) {
	scanner, err := NewScanner(scanTree(t), ScanOptions{})
	require.NoError(t, err)

	files, problems := collect(t, scanner, "/root")
	assert.Equal(t, []string{"/root/a.txt", "/root/b.txt"}, files)
	assert.Empty(t, problems)
}

func TestScannerRecursiveFilesBeforeSubdirectories(t *testing.T) {
	scanner, err := NewScanner(scanTree(t), ScanOptions{Recursive: true})
	require.NoError(t, err)

	files, _ := collect(t, scanner, "/root")
	assert.Equal(t, []string{
		"/root/a.txt",
		"/root/b.txt",
		"/root/node_modules/x.js",
		"/root/photos/img.jpg",
		"/root/photos/img.jpg.tmp",
		"/root/sub/c.txt",
		"/root/sub/deep/d.log",
	}, files)
}

func TestScannerExcludes(t *testing.T) {
	scanner, err := NewScanner(scanTree(t), ScanOptions{
		Recursive: true,
		Excludes:  []string{"node_modules/", "*.tmp", "sub/**/*.log"},
	})
	require.NoError(t, err)

	files, _ := collect(t, scanner, "/root")
	assert.Equal(t, []string{
		"/root/a.txt",
		"/root/b.txt",
		"/root/photos/img.jpg",
		"/root/sub/c.txt",
	}, files)
}

func TestScannerInvalidPattern(t *testing.T) {
	_, err := NewScanner(afero.NewMemMapFs(), ScanOptions{Excludes: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestScannerSkipPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string]string{
		"/root/data.bin":         "data",
		"/root/cache.db":         "db",
		"/root/cache.db-wal":     "wal",
		"/root/cache.db-shm":     "shm",
		"/root/cache.db.lock":    "lock",
		"/root/cache.db.backup1": "kept",
	})
	scanner, err := NewScanner(fs, ScanOptions{SkipPaths: cacheSkipPaths("/root/cache.db")})
	require.NoError(t, err)

	files, _ := collect(t, scanner, "/root")
	assert.Equal(t, []string{"/root/cache.db.backup1", "/root/data.bin"}, files)
}

func TestScannerMissingRoot(t *testing.T) {
	scanner, err := NewScanner(afero.NewMemMapFs(), ScanOptions{})
	require.NoError(t, err)

	files, problems := collect(t, scanner, "/nowhere")
	assert.Empty(t, files)
	require.Len(t, problems, 1)
	assert.Equal(t, "/nowhere doesn't exist", problems[0])
}

func TestScannerRootIsFile(t *testing.T) {
	fs := scanTree(t)
	scanner, err := NewScanner(fs, ScanOptions{})
	require.NoError(t, err)

	_, problems := collect(t, scanner, "/root/a.txt")
	require.Len(t, problems, 1)
	assert.True(t, strings.Contains(problems[0], "not a directory"))
}

func TestScannerVisitErrorStopsScan(t *testing.T) {
	scanner, err := NewScanner(scanTree(t), ScanOptions{Recursive: true})
	require.NoError(t, err)

	stop := errors.New("stop")
	visited := 0
	err = scanner.Scan("/root", func(string) error {
		visited++
		return stop
	}, func(string, error) {})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestScannerShutdown(t *testing.T) {
	scanner, err := NewScanner(scanTree(t), ScanOptions{Recursive: true})
	require.NoError(t, err)

	shutdown := make(chan struct{})
	scanner.SetShutdown(shutdown)

	visited := 0
	err = scanner.Scan("/root", func(string) error {
		visited++
		if visited == 2 {
			close(shutdown)
		}
		return nil
	}, func(string, error) {})
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 2, visited)
}

func TestScannerIgnoreFile(t *testing.T) {
	fs := scanTree(t)
	writeFiles(t, fs, map[string]string{
		"/root/" + IgnoreFileName: "# build output\n\nnode_modules\n**/*.log\n",
	})
	scanner, err := NewScanner(fs, ScanOptions{Recursive: true, Excludes: []string{"*.tmp"}})
	require.NoError(t, err)

	files, problems := collect(t, scanner, "/root")
	assert.Empty(t, problems)
	assert.Equal(t, []string{
		"/root/" + IgnoreFileName,
		"/root/a.txt",
		"/root/b.txt",
		"/root/photos/img.jpg",
		"/root/sub/c.txt",
	}, files)
}
