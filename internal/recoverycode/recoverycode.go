// Package recoverycode implements the human-copyable encoding for a
// 32-byte recovery secret: base32 (RFC 4648, no padding), grouped into
// 4-character blocks separated by hyphens, with a trailing 2-byte
// checksum so a single mistyped character is caught before the secret is
// ever fed into key derivation.
//
// Go's standard library has no CRC16 implementation, so the checksum uses
// hash/crc32's IEEE polynomial truncated to its low 16 bits. This is
// documented here rather than vendoring a CRC16 package for two checksum
// bytes.
package recoverycode

import (
	"crypto/rand"
	"encoding/base32"
	"hash/crc32"
	"io"
	"strings"

	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// SecretSize is the size of the raw recovery secret before encoding.
const SecretSize = 32

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret draws a fresh 32-byte recovery secret.
func GenerateSecret() (*securemem.SecretBuffer, error) {
	sb, err := securemem.Random(SecretSize)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "draw recovery secret", err)
	}
	return sb, nil
}

// checksum16 truncates crc32.ChecksumIEEE to its low 16 bits.
func checksum16(data []byte) uint16 {
	return uint16(crc32.ChecksumIEEE(data))
}

// Encode renders secret as a hyphen-grouped, base32, checksummed
// human-copyable recovery code.
func Encode(secret []byte) (string, error) {
	if len(secret) != SecretSize {
		return "", vaulterr.New(vaulterr.InvalidKeyMaterial, "recovery secret must be 32 bytes")
	}

	sum := checksum16(secret)
	payload := make([]byte, SecretSize+2)
	copy(payload, secret)
	payload[SecretSize] = byte(sum >> 8)
	payload[SecretSize+1] = byte(sum)

	raw := encoding.EncodeToString(payload)

	var groups []string
	for i := 0; i < len(raw); i += 4 {
		end := i + 4
		if end > len(raw) {
			end = len(raw)
		}
		groups = append(groups, raw[i:end])
	}
	return strings.Join(groups, "-"), nil
}

// Decode reverses Encode, rejecting a code whose checksum does not match
// its payload — catching transcription errors before they ever reach key
// derivation. Hyphens, whitespace and letter case in code are ignored.
func Decode(code string) (*securemem.SecretBuffer, error) {
	raw := strings.Join(strings.Fields(strings.ReplaceAll(code, "-", " ")), "")
	raw = strings.ToUpper(raw)

	payload, err := encoding.DecodeString(raw)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "decode recovery code", err)
	}
	if len(payload) != SecretSize+2 {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "recovery code has the wrong length")
	}

	secret := payload[:SecretSize]
	gotSum := uint16(payload[SecretSize])<<8 | uint16(payload[SecretSize+1])
	if checksum16(secret) != gotSum {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "recovery code checksum mismatch")
	}

	sb, err := securemem.New(secret)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "allocate recovery secret", err)
	}
	return sb, nil
}

// DeriveWrappingKey runs the recovery secret through the same Argon2id KDF
// used for password slots, binding the recovery code to a salt so a
// fixed, low-entropy-relative-to-AES-256 secret is not used as a wrapping
// key directly.
func DeriveWrappingKey(secret, salt []byte, params kdf.Params) (*securemem.SecretBuffer, error) {
	return kdf.Derive(secret, salt, params)
}

// CreateRecoverySlot derives a wrapping key from secret and salt, then
// seals master under it as a Recovery slot. Callers must persist salt
// alongside the returned slot (e.g. in VaultHeader.SlotSalts) since it is
// required again to unwrap.
func CreateRecoverySlot(master, secret, salt []byte, params kdf.Params) (slots.KeySlot, error) {
	wrapping, err := DeriveWrappingKey(secret, salt, params)
	if err != nil {
		return slots.KeySlot{}, err
	}
	defer wrapping.Destroy()

	return slots.CreateSlot(master, wrapping.Expose(), slots.Recovery)
}

// UnwrapRecoverySlot reverses CreateRecoverySlot given the same secret,
// salt, and KDF parameters.
func UnwrapRecoverySlot(slot slots.KeySlot, secret, salt []byte, params kdf.Params) (*securemem.SecretBuffer, error) {
	wrapping, err := DeriveWrappingKey(secret, salt, params)
	if err != nil {
		return nil, err
	}
	defer wrapping.Destroy()

	return slots.UnwrapSlot(slot, wrapping.Expose())
}

// randomSalt is a small helper used by tests that need a throwaway salt
// without going through the vault header's own salt bookkeeping.
func randomSalt() ([]byte, error) {
	salt := make([]byte, kdf.MinSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}
