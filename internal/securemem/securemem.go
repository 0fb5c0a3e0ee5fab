// Package securemem provides locked, zeroised, non-cloneable byte buffers
// for secret material, plus CSPRNG draws and best-effort core-dump disable.
//
// Debug rendering of a SecretBuffer never reveals its contents: %v/%s/String
// always print the literal token "SecretBuffer(***)".
package securemem

import (
	"crypto/rand"
	"io"
	"runtime"
	"sync"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

const maskedRender = "SecretBuffer(***)"

// SecretBuffer is an opaque, heap-allocated byte container. Contents are
// zeroised on destruction (via Destroy, which callers must defer); memory
// is locked best-effort on construction. Length is public via Len; contents
// are revealed only through Expose.
type SecretBuffer struct {
	mu        sync.Mutex
	data      []byte
	locked    bool
	destroyed bool
}

// New allocates a SecretBuffer, copies data into it, and attempts to lock
// the backing memory. The caller's data slice is not modified or retained.
func New(data []byte) (*SecretBuffer, error) {
	buf := make([]byte, len(data))
	copy(buf, data)

	sb := &SecretBuffer{data: buf}
	sb.locked = lockMemory(buf)
	runtime.SetFinalizer(sb, (*SecretBuffer).Destroy)
	return sb, nil
}

// Random allocates a SecretBuffer of length n filled from the OS CSPRNG.
func Random(n int) (*SecretBuffer, error) {
	if n < 0 {
		return nil, vaulterr.New(vaulterr.SecureMemory, "negative buffer length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, vaulterr.Wrap(vaulterr.SecureMemory, "csprng draw failed", err)
	}
	sb := &SecretBuffer{data: buf}
	sb.locked = lockMemory(buf)
	runtime.SetFinalizer(sb, (*SecretBuffer).Destroy)
	return sb, nil
}

// Expose returns a read-only borrow of the buffer's contents. The returned
// slice aliases internal storage and must not be retained past the
// SecretBuffer's lifetime or written to.
func (s *SecretBuffer) Expose() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	return s.data
}

// Len returns the buffer length. Safe to call after Destroy (returns 0).
func (s *SecretBuffer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// IsMLocked reports whether the backing memory was successfully locked.
// A false result is never an error condition by itself: lock failure is
// never fatal.
func (s *SecretBuffer) IsMLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy overwrites the buffer with zeroes, unlocks the memory, and
// releases it. Safe to call multiple times. Registered as a finalizer by
// New/Random, but callers should still call it explicitly (defer) as soon
// as the secret is no longer needed rather than waiting on GC.
func (s *SecretBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	zero(s.data)
	if s.locked {
		unlockMemory(s.data)
	}
	s.data = nil
	s.destroyed = true
	runtime.SetFinalizer(s, nil)
}

// String always renders the masked token, regardless of contents.
func (s *SecretBuffer) String() string {
	return maskedRender
}

// GoString satisfies fmt's %#v formatting with the same masked token.
func (s *SecretBuffer) GoString() string {
	return maskedRender
}

// zero overwrites b with zero bytes using a loop the compiler cannot prove
// dead, then pins b until the loop completes so the write is not elided.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// Zero is the exported form of zero, for callers holding raw key material
// outside a SecretBuffer (e.g. a caller-owned wrapping key slice).
func Zero(b []byte) {
	zero(b)
}
