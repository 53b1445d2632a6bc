package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	detectdupes "github.com/mattkeenan/detectdupes/pkg"
)

func parseSettings(t *testing.T, args ...string) (*settings, error) {
	t.Helper()
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags(args))
	return loadSettings(cmd)
}

func TestSettingsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := parseSettings(t)
	require.NoError(t, err)
	assert.False(t, s.recursive)
	assert.False(t, s.delete)
	assert.Equal(t, "", s.cacheFile)
	assert.Equal(t, "md5", s.hashName)
	assert.Equal(t, detectdupes.FormatHuman, s.format)
	assert.Equal(t, 2*1024*1024, s.hashBuffer)

	_, err = os.Stat(filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "detectdupes", "config"))
	assert.NoError(t, err, "a default config file is written on first use")
}

func TestSettingsFlagsOverrideConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config")
	content := "[cache]\npath = /from/config.db\n\n[scan]\nrecursive = true\nexclude = *.tmp\n\n[output]\nformat = json\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	s, err := parseSettings(t, "--config", configPath)
	require.NoError(t, err)
	assert.True(t, s.recursive)
	assert.Equal(t, "/from/config.db", s.cacheFile)
	assert.Equal(t, "json", s.format)
	assert.Equal(t, []string{"*.tmp"}, s.excludes)

	s, err = parseSettings(t, "--config", configPath,
		"-r=false", "--cache", "/from/flag.db", "--format", "fdupes",
		"--exclude", "*.bak", "--hash", "sha256", "-vv", "--no-color")
	require.NoError(t, err)
	assert.False(t, s.recursive)
	assert.Equal(t, "/from/flag.db", s.cacheFile)
	assert.Equal(t, "fdupes", s.format)
	assert.Equal(t, []string{"*.tmp", "*.bak"}, s.excludes)
	assert.Equal(t, "sha256", s.hashName)
	assert.Equal(t, 2, s.verbose)
	assert.Equal(t, "never", s.color)
}

func TestSettingsInteractiveImpliesDelete(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := parseSettings(t, "-i")
	require.NoError(t, err)
	assert.True(t, s.interactive)
	assert.True(t, s.delete)
}

func TestSettingsRejectInvalidValues(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := parseSettings(t, "--hash", "crc32")
	assert.Error(t, err)

	_, err = parseSettings(t, "--format", "xml")
	assert.Error(t, err)

	_, err = parseSettings(t, "--set", "hash_buffer:none")
	assert.Error(t, err)

	_, err = parseSettings(t, "--set", "bogus")
	assert.Error(t, err)
}

func TestSettingsExplicitConfigMustLoad(t *testing.T) {
	notADir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0644))

	_, err := parseSettings(t, "--config", filepath.Join(notADir, "config"))
	assert.Error(t, err)
}

func TestRootCommandRequiresDirectory(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestPrintSummary(t *testing.T) {
	configureColor("never")

	result := &detectdupes.Result{
		Elapsed: 1500 * time.Millisecond,
		Stats: detectdupes.ScanStatistics{
			FilesChecked:   8,
			BytesChecked:   4096,
			FilesDetected:  2,
			BytesDetected:  1024,
			HashesComputed: 5,
			FilesDeleted:   2,
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, result, "md5")
	output := buf.String()

	assert.Contains(t, output, "DetectDuplicates finished after 1.5s")
	assert.Contains(t, output, "Checked a total of 8 files using 4.0 KB, calculating 5 md5 hashes.")
	assert.Contains(t, output, "Of these, 2 files [25.00%] using 1.0 KB [25.00%] were duplicates.")
	assert.Contains(t, output, "Deleted 2 files, 0 could not be deleted.")
	assert.False(t, strings.Contains(output, "Hash cache:"))
}

func TestConsoleLiveOutput(t *testing.T) {
	configureColor("never")

	var buf bytes.Buffer
	newConsole(&buf, true).duplicate(detectdupes.DuplicateMatch{Path: "/b", Canonical: "/a", Size: 3, Deleted: true})
	newConsole(&buf, false).duplicate(detectdupes.DuplicateMatch{Path: "/c", Canonical: "/a", Size: 3})

	assert.Equal(t, "/b already exists as /a [3 bytes] (deleted)\n", buf.String())
}

func TestNilSpinner(t *testing.T) {
	var s *spinner
	s.update(detectdupes.ScanStatistics{FilesChecked: 1})
	s.clear()
	s.finish()
}
