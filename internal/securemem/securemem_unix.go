//go:build linux || darwin

package securemem

import "golang.org/x/sys/unix"

// lockMemory attempts to mlock the backing memory so it is never swapped.
// Failure is never fatal: the caller falls back to an unlocked buffer and
// reports IsMLocked() == false.
func lockMemory(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return unix.Mlock(b) == nil
}

// unlockMemory reverses lockMemory. Errors are ignored: there is nothing
// useful to do with an munlock failure during teardown.
func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}

// disableCoreDumpsImpl lowers RLIMIT_CORE to (0, 0). Idempotent.
func disableCoreDumpsImpl() error {
	limit := unix.Rlimit{Cur: 0, Max: 0}
	return unix.Setrlimit(unix.RLIMIT_CORE, &limit)
}
