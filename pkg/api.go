package detectdupes

// This file holds the small helpers the command line uses to set up logging

// InitDebugFlags initialises debug flags from a comma-separated list
func InitDebugFlags(flagsStr string) {
	if flagsStr != "" {
		SetDebugFlags(flagsStr)
	}
}

// ConfigureLogging applies a verbose level and debug flags in one call
func ConfigureLogging(level int, debug string) {
	SetVerboseLevel(level)
	InitDebugFlags(debug)
	if level > 0 && debug != "" {
		VerboseLog(1, "Debug flags initialised: %s", debug)
	}
}

// GetDebugEnabled returns whether a debug flag is enabled
func GetDebugEnabled(flag string) bool {
	return IsDebugEnabled(flag)
}
