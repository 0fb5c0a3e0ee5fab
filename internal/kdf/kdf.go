// Package kdf wraps Argon2id password-based key derivation and provides
// hardware calibration that produces three preset tiers (fast, balanced,
// maximum) targeting comfortable wall-clock latency across weak and
// strong hosts alike.
package kdf

import (
	"golang.org/x/crypto/argon2"

	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// KeyLen is the fixed Argon2id output length.
const KeyLen = 32

// MinSaltLen is the minimum accepted salt length.
const MinSaltLen = 16

// MinMemoryKiB is the minimum m_cost for any non-test use (128 MiB).
const MinMemoryKiB = 131_072

// Params is the triple (m_cost_kib, t_cost, p_cost) that parameterises
// Argon2id. Version and output length are fixed elsewhere (0x13, 32 bytes).
type Params struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
}

// Presets groups the three calibrated tiers. Invariant: Maximum.Time >=
// Balanced.Time >= Fast.Time, and every tier's MemoryKiB >= MinMemoryKiB.
type Presets struct {
	Fast     Params
	Balanced Params
	Maximum  Params
}

// Derive runs Argon2id(password, salt, params) and returns a fresh,
// securely-held 32-byte key. Salt shorter than MinSaltLen fails with
// InvalidKeyMaterial. Params of zero Time/Threads fail with KeyDerivation.
func Derive(password, salt []byte, params Params) (*securemem.SecretBuffer, error) {
	if len(salt) < MinSaltLen {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "salt shorter than 16 bytes")
	}
	if params.Time < 1 || params.Threads < 1 {
		return nil, vaulterr.New(vaulterr.KeyDerivation, "time and threads must be >= 1")
	}
	if params.MemoryKiB == 0 {
		return nil, vaulterr.New(vaulterr.KeyDerivation, "memory cost must be non-zero")
	}

	key := argon2.IDKey(password, salt, params.Time, params.MemoryKiB, params.Threads, KeyLen)
	defer securemem.Zero(key)

	sb, err := securemem.New(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyDerivation, "allocate derived key", err)
	}
	return sb, nil
}
