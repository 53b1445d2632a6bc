package detectdupes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
)

// Config represents the detectdupes configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// CacheConfig represents hash cache configuration
type CacheConfig struct {
	Path string // SQLite cache file; empty disables persistence
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// ScanConfig represents directory scanning configuration
type ScanConfig struct {
	Recursive bool
	Excludes  []string
}

// DeleteConfig represents the deletion policy
type DeleteConfig struct {
	Enabled     bool
	Interactive bool // ask before each deletion
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human, json, fdupes
	Color  string // auto, always, never
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=quiet, 1=basic, 2=detailed, 3=trace
	Debug string // comma-separated debug flags
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	HashBuffer string // read buffer used while hashing (default: "2M")
}

// AllConfig represents all configuration options
type AllConfig struct {
	Cache       *CacheConfig
	Hash        *HashConfig
	Scan        *ScanConfig
	Delete      *DeleteConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Performance *PerformanceConfig
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/detectdupes/config, falling
// back to ~/.config/detectdupes/config
func DefaultConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "detectdupes", "config")
}

// LoadConfig loads configuration from configPath, creating a default file if it does not exist
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		configPath: configPath,
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	} else {
		iniFile, err := ini.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg.ini = iniFile
	}

	return cfg, nil
}

// DefaultConfig returns a configuration holding only defaults, not backed by a file
func DefaultConfig() *Config {
	cfg := &Config{ini: ini.Empty()}
	cfg.setDefaults()
	return cfg
}

var configDefaults = []struct {
	section, key, value string
}{
	{"cache", "path", ""},
	{"filehash", "default", DefaultHashAlgorithm},
	{"scan", "recursive", "false"},
	{"scan", "exclude", ""},
	{"delete", "enabled", "false"},
	{"delete", "interactive", "false"},
	{"output", "format", FormatHuman},
	{"output", "color", "auto"},
	{"verbose", "level", "0"},
	{"verbose", "debug", ""},
	{"performance", "hash_buffer", "2M"},
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	for _, d := range configDefaults {
		section := c.ini.Section(d.section)
		if section.HasKey(d.key) {
			continue
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// GetCacheConfig returns the cache configuration
func (c *Config) GetCacheConfig() *CacheConfig {
	cacheConfig := &CacheConfig{}
	if c.ini.HasSection("cache") {
		section := c.ini.Section("cache")
		if section.HasKey("path") {
			cacheConfig.Path = expandHome(section.Key("path").String())
		}
	}
	return cacheConfig
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") && section.Key("default").String() != "" {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetScanConfig returns the scan configuration
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{}

	if c.ini.HasSection("scan") {
		section := c.ini.Section("scan")
		if section.HasKey("recursive") {
			if recursive, err := section.Key("recursive").Bool(); err == nil {
				scanConfig.Recursive = recursive
			}
		}
		if section.HasKey("exclude") {
			for _, pattern := range section.Key("exclude").Strings(",") {
				if pattern != "" {
					scanConfig.Excludes = append(scanConfig.Excludes, pattern)
				}
			}
		}
	}

	return scanConfig
}

// GetDeleteConfig returns the deletion policy
func (c *Config) GetDeleteConfig() *DeleteConfig {
	deleteConfig := &DeleteConfig{}

	if c.ini.HasSection("delete") {
		section := c.ini.Section("delete")
		if section.HasKey("enabled") {
			if enabled, err := section.Key("enabled").Bool(); err == nil {
				deleteConfig.Enabled = enabled
			}
		}
		if section.HasKey("interactive") {
			if interactive, err := section.Key("interactive").Bool(); err == nil {
				deleteConfig.Interactive = interactive
			}
		}
	}

	return deleteConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: FormatHuman,
		Color:  "auto",
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
		if section.HasKey("color") {
			outputConfig.Color = section.Key("color").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		HashBuffer: "2M",
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
			performanceConfig.HashBuffer = bufferSize
		}
	}

	return performanceConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Cache:       c.GetCacheConfig(),
		Hash:        c.GetHashConfig(),
		Scan:        c.GetScanConfig(),
		Delete:      c.GetDeleteConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Performance: c.GetPerformanceConfig(),
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("configuration has no file")
	}
	return c.ini.SaveTo(c.configPath)
}

// overrideKeys maps override names to their section and key
var overrideKeys = map[string][2]string{
	"cache":       {"cache", "path"},
	"default":     {"filehash", "default"},
	"recursive":   {"scan", "recursive"},
	"exclude":     {"scan", "exclude"},
	"delete":      {"delete", "enabled"},
	"interactive": {"delete", "interactive"},
	"format":      {"output", "format"},
	"color":       {"output", "color"},
	"level":       {"verbose", "level"},
	"debug":       {"verbose", "debug"},
	"hash_buffer": {"performance", "hash_buffer"},
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha256", "format:json", "level:2", "cache:/tmp/h.db"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		target, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s'", key)
		}
		c.ini.Section(target[0]).Key(target[1]).SetValue(value)
	}

	return nil
}

// Validate checks every configured value
func (c *Config) Validate() error {
	all := c.GetAllConfig()

	if err := ValidateHashAlgorithm(all.Hash.Default); err != nil {
		return err
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	if err := ValidateColorMode(all.Output.Color); err != nil {
		return err
	}
	if err := ValidateVerboseLevel(all.Verbose.Level); err != nil {
		return err
	}
	if _, err := ParseHumanSize(all.Performance.HashBuffer); err != nil {
		return fmt.Errorf("invalid hash buffer: %w", err)
	}
	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, err := GetHashAlgorithm(algorithm); err != nil {
		return fmt.Errorf("unsupported hash algorithm: %s (supported: md5, sha1, sha256, sha512)", algorithm)
	}
	return nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON, FormatFdupes:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json, fdupes)", format)
	}
}

// ValidateColorMode validates the color setting
func ValidateColorMode(mode string) error {
	switch strings.ToLower(mode) {
	case "auto", "always", "never":
		return nil
	default:
		return fmt.Errorf("unsupported color mode: %s (supported: auto, always, never)", mode)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// expandHome replaces a leading "~/" with the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
