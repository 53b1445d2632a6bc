package detectdupes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeRoot(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"/data/photos", "/data/photos"},
		{"/data/./photos/", "/data/photos"},
		{"/data/photos/../music", "/data/music"},
		{".", cwd},
		{"sub/dir/..", filepath.Join(cwd, "sub")},
	}

	for _, tt := range tests {
		got, err := NormalizeRoot(tt.input)
		if err != nil {
			t.Errorf("NormalizeRoot(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("NormalizeRoot(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}

	if _, err := NormalizeRoot(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

// withPathCaseFolding sets whether path keys ignore case for the rest of the test
func withPathCaseFolding(t *testing.T, fold bool) {
	t.Helper()
	saved := foldPathCase
	foldPathCase = fold
	t.Cleanup(func() { foldPathCase = saved })
}

func TestSamePath(t *testing.T) {
	withPathCaseFolding(t, false)

	tests := []struct {
		a, b string
		same bool
	}{
		{"/data/a.txt", "/data/a.txt", true},
		{"/data/A.TXT", "/data/a.txt", false},
		{"/data/./a.txt", "/data/sub/../a.txt", true},
		{"/data/a.txt", "/data/b.txt", false},
		{"/data/a.txt", "/other/a.txt", false},
	}

	for _, tt := range tests {
		if got := SamePath(tt.a, tt.b); got != tt.same {
			t.Errorf("SamePath(%q, %q): expected %v, got %v", tt.a, tt.b, tt.same, got)
		}
	}
}

func TestSamePathFoldedCase(t *testing.T) {
	withPathCaseFolding(t, true)

	if !SamePath("/data/A.TXT", "/data/./a.txt") {
		t.Error("Expected paths differing only by case to match when case is folded")
	}
	if SamePath("/data/a.txt", "/data/b.txt") {
		t.Error("Expected different names not to match")
	}
}

func TestCacheKey(t *testing.T) {
	withPathCaseFolding(t, false)
	if got := cacheKey("/Data/Sub/../File.TXT"); got != "/Data/File.TXT" {
		t.Errorf("Expected '/Data/File.TXT', got '%s'", got)
	}

	withPathCaseFolding(t, true)
	if got := cacheKey("/Data/Sub/../File.TXT"); got != "/data/file.txt" {
		t.Errorf("Expected '/data/file.txt', got '%s'", got)
	}
}
