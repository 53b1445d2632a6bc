package detectdupes

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "detectdupes", "config")

	// Load config (should create default)
	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	all := config.GetAllConfig()
	if all.Hash.Default != "md5" {
		t.Errorf("Expected default hash algorithm 'md5', got '%s'", all.Hash.Default)
	}
	if all.Cache.Path != "" {
		t.Errorf("Expected no cache by default, got '%s'", all.Cache.Path)
	}
	if all.Scan.Recursive {
		t.Error("Expected non-recursive scan by default")
	}
	if all.Delete.Enabled {
		t.Error("Expected list-only mode by default")
	}
	if all.Output.Format != FormatHuman {
		t.Errorf("Expected format 'human', got '%s'", all.Output.Format)
	}
	if all.Performance.HashBuffer != "2M" {
		t.Errorf("Expected hash buffer '2M', got '%s'", all.Performance.HashBuffer)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestConfigLoadExisting(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")
	content := `[cache]
path = /var/cache/detectdupes.db

[filehash]
default = sha256

[scan]
recursive = true
exclude = *.tmp, .git/**

[delete]
enabled = true
interactive = yes
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	all := config.GetAllConfig()
	if all.Cache.Path != "/var/cache/detectdupes.db" {
		t.Errorf("Expected cache path from file, got '%s'", all.Cache.Path)
	}
	if all.Hash.Default != "sha256" {
		t.Errorf("Expected 'sha256', got '%s'", all.Hash.Default)
	}
	if !all.Scan.Recursive {
		t.Error("Expected recursive scan")
	}
	if len(all.Scan.Excludes) != 2 || all.Scan.Excludes[0] != "*.tmp" || all.Scan.Excludes[1] != ".git/**" {
		t.Errorf("Expected excludes [*.tmp .git/**], got %v", all.Scan.Excludes)
	}
	if !all.Delete.Enabled || !all.Delete.Interactive {
		t.Errorf("Expected delete enabled and interactive, got %+v", all.Delete)
	}
	// sections missing from the file fall back to defaults
	if all.Output.Format != FormatHuman || all.Performance.HashBuffer != "2M" {
		t.Errorf("Expected defaults for missing sections, got %+v %+v", all.Output, all.Performance)
	}
}

func TestConfigOverrides(t *testing.T) {
	config := DefaultConfig()

	err := config.ApplyOverrides([]string{
		"default:sha1",
		"format:json",
		"level:2",
		"debug:index,cache",
		"cache:/tmp/hashes.db",
	})
	if err != nil {
		t.Fatalf("Failed to apply overrides: %v", err)
	}

	allConfig := config.GetAllConfig()
	if allConfig.Hash.Default != "sha1" {
		t.Errorf("Expected hash algorithm 'sha1' after override, got '%s'", allConfig.Hash.Default)
	}
	if allConfig.Output.Format != "json" {
		t.Errorf("Expected output format 'json' after override, got '%s'", allConfig.Output.Format)
	}
	if allConfig.Verbose.Level != 2 {
		t.Errorf("Expected verbose level 2 after override, got %d", allConfig.Verbose.Level)
	}
	if allConfig.Verbose.Debug != "index,cache" {
		t.Errorf("Expected debug flags 'index,cache' after override, got '%s'", allConfig.Verbose.Debug)
	}
	if allConfig.Cache.Path != "/tmp/hashes.db" {
		t.Errorf("Expected cache path override, got '%s'", allConfig.Cache.Path)
	}

	if err := config.ApplyOverrides([]string{"nocolon"}); err == nil {
		t.Error("Expected error for override without colon")
	}
	if err := config.ApplyOverrides([]string{"unknown:value"}); err == nil {
		t.Error("Expected error for unknown override key")
	}
}

func TestConfigSaveWithoutFile(t *testing.T) {
	if err := DefaultConfig().Save(); err == nil {
		t.Error("Expected error saving a config without a file")
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	tests := []string{
		"default:crc32",
		"format:xml",
		"color:sometimes",
		"level:7",
		"hash_buffer:lots",
	}

	for _, override := range tests {
		config := DefaultConfig()
		if err := config.ApplyOverrides([]string{override}); err != nil {
			t.Fatalf("Failed to apply %s: %v", override, err)
		}
		if err := config.Validate(); err == nil {
			t.Errorf("Expected validation error after %s", override)
		}
	}
}

func TestHashAlgorithmValidation(t *testing.T) {
	testCases := []struct {
		algorithm string
		valid     bool
	}{
		{"md5", true},
		{"sha1", true},
		{"sha256", true},
		{"sha512", true},
		{"SHA256", true},
		{"crc32", false},
		{"", false},
	}

	for _, tc := range testCases {
		err := ValidateHashAlgorithm(tc.algorithm)
		if tc.valid && err != nil {
			t.Errorf("Expected '%s' to be valid, got error: %v", tc.algorithm, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Expected '%s' to be invalid", tc.algorithm)
		}
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigPath(); got != "/tmp/xdg/detectdupes/config" {
		t.Errorf("Expected XDG path, got '%s'", got)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")
	if got := DefaultConfigPath(); got != "/home/tester/.config/detectdupes/config" {
		t.Errorf("Expected home fallback, got '%s'", got)
	}
}
