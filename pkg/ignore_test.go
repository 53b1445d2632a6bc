package detectdupes

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadIgnorePatterns(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "# comment\n\n  *.iso  \nbackup/**\n"
	if err := afero.WriteFile(fs, "/root/"+IgnoreFileName, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write ignore file: %v", err)
	}

	patterns, err := LoadIgnorePatterns(fs, "/root")
	if err != nil {
		t.Fatalf("Failed to load patterns: %v", err)
	}
	if len(patterns) != 2 || patterns[0] != "*.iso" || patterns[1] != "backup/**" {
		t.Errorf("Expected [*.iso backup/**], got %v", patterns)
	}
}

func TestLoadIgnorePatternsMissingFile(t *testing.T) {
	patterns, err := LoadIgnorePatterns(afero.NewMemMapFs(), "/root")
	if err != nil {
		t.Fatalf("Expected no error for missing ignore file, got %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("Expected no patterns, got %v", patterns)
	}
}

func TestLoadIgnorePatternsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/root/"+IgnoreFileName, []byte("ok/*\n[broken\n"), 0644); err != nil {
		t.Fatalf("Failed to write ignore file: %v", err)
	}

	if _, err := LoadIgnorePatterns(fs, "/root"); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}
