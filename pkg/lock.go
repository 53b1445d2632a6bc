package detectdupes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrCacheLocked is returned when another process holds the cache lock
var ErrCacheLocked = errors.New("hash cache is locked by another process")

// cacheLock is an advisory exclusive lock on <cache>.lock
type cacheLock struct {
	path string
	file *os.File
}

// acquireCacheLock takes a non-blocking exclusive flock next to the cache
// database and records our PID in it. The cache directory is created if needed.
func acquireCacheLock(cachePath string) (*cacheLock, error) {
	lockPath := cachePath + LockSuffix

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		holder := readLockPid(file)
		file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			if holder > 0 {
				state := "running"
				if !isProcessRunning(holder) {
					state = "no longer running"
				}
				return nil, fmt.Errorf("%w: %s (PID %d, %s)", ErrCacheLocked, lockPath, holder, state)
			}
			return nil, fmt.Errorf("%w: %s", ErrCacheLocked, lockPath)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", lockPath, err)
	}

	recordLockPid(file)

	DebugLog("cache", "locked %s", lockPath)
	return &cacheLock{path: lockPath, file: file}, nil
}

// release drops the lock. The lock file itself is left in place.
func (l *cacheLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}

// recordLockPid replaces the lock file contents with our PID. The lock holds
// without it, so failures are only logged.
func recordLockPid(file *os.File) {
	if err := file.Truncate(0); err != nil {
		DebugLog("cache", "failed to truncate %s: %v", file.Name(), err)
		return
	}
	if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0); err != nil {
		DebugLog("cache", "failed to record PID in %s: %v", file.Name(), err)
	}
}

// readLockPid extracts the PID written by the lock holder, 0 if unknown
func readLockPid(file *os.File) int {
	buf := make([]byte, 32)
	n, _ := file.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}

// isProcessRunning checks if a process with the given PID is currently running
func isProcessRunning(pid int) bool {
	// kill(pid, 0) probes for existence without delivering a signal
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}

	if errno, ok := err.(syscall.Errno); ok {
		// EPERM: the process exists but belongs to someone else
		if errno == syscall.EPERM {
			return true
		}
	}

	return false
}
