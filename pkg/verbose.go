package detectdupes

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
)

var (
	globalVerboseLevel int
	debugFlags         map[string]bool

	logMu     sync.Mutex
	logOutput io.Writer = os.Stderr
)

// SetVerboseLevel sets the global verbose level
func SetVerboseLevel(level int) {
	globalVerboseLevel = level
}

// SetLogOutput redirects verbose, debug and warning output. A nil writer restores stderr.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	logOutput = w
}

func logf(prefix, format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprint(logOutput, prefix)
	fmt.Fprintf(logOutput, format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprint(logOutput, "\n")
	}
}

// VerboseEnter logs function entry at level 3+ and returns a defer function for exit logging
func VerboseEnter() func() {
	if globalVerboseLevel < 3 {
		return func() {}
	}

	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	logf("[TRACE] ", "Entering function: %s", funcName)
	return func() {
		logf("[TRACE] ", "Exiting function: %s", funcName)
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if globalVerboseLevel >= level {
		logf(fmt.Sprintf("[VERBOSE-%d] ", level), format, args...)
	}
}

// DebugLog logs a message when the named debug flag is enabled
func DebugLog(flag string, format string, args ...interface{}) {
	if IsDebugEnabled(flag) {
		logf("["+strings.ToUpper(flag)+"] ", format, args...)
	}
}

// Warnf prints a warning regardless of the verbose level
func Warnf(format string, args ...interface{}) {
	logf("Warning: ", format, args...)
}

// SetDebugFlags sets the debug flags from a comma-separated string
// Supports both simple flags ("scan,cache") and key:value format ("scan:true,cache:false")
func SetDebugFlags(flagsStr string) {
	debugFlags = make(map[string]bool)
	if flagsStr == "" {
		return
	}

	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagName := strings.ToLower(parts[0])
		flagValue := true

		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "false", "0", "no", "off":
				flagValue = false
			}
		}

		debugFlags[flagName] = flagValue
	}
}

// IsDebugEnabled returns true if the specified debug flag is enabled
func IsDebugEnabled(flag string) bool {
	if debugFlags == nil {
		return false
	}
	return debugFlags[strings.ToLower(flag)] || debugFlags["all"]
}
