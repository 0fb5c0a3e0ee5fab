// Package aead provides AES-256-GCM authenticated encryption with
// associated data and a self-describing wire format for sealed records:
// nonce (12 bytes) || ciphertext || tag (16 bytes), contiguously.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

const (
	// KeySize is the AES-256 key size in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the GCM authentication tag size in bytes.
	TagSize = 16
)

// SealedData holds a sealed record: a fresh nonce, the ciphertext, and the
// trailing authentication tag.
type SealedData struct {
	Nonce      [NonceSize]byte
	Ciphertext []byte
	Tag        [TagSize]byte
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encryption, "construct AES cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encryption, "construct GCM mode", err)
	}
	return gcm, nil
}

// Encrypt draws a random 12-byte nonce and seals plaintext under key with
// the given associated data.
func Encrypt(plaintext, key, aad []byte) (SealedData, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return SealedData{}, err
	}

	var sd SealedData
	if _, err := io.ReadFull(rand.Reader, sd.Nonce[:]); err != nil {
		return SealedData{}, vaulterr.Wrap(vaulterr.Encryption, "draw nonce", err)
	}

	sealed := gcm.Seal(nil, sd.Nonce[:], plaintext, aad)
	ctLen := len(sealed) - TagSize
	sd.Ciphertext = make([]byte, ctLen)
	copy(sd.Ciphertext, sealed[:ctLen])
	copy(sd.Tag[:], sealed[ctLen:])
	return sd, nil
}

// EncryptWithNonce seals plaintext under key using the caller-supplied
// nonce instead of drawing a random one. Callers take on the burden of
// never reusing a nonce under the same key; this exists for schemes such
// as indexed chunk sealing where the nonce is constructed deterministically
// from a per-session random prefix and a chunk index.
func EncryptWithNonce(plaintext, key, aad []byte, nonce [NonceSize]byte) (SealedData, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return SealedData{}, err
	}

	sd := SealedData{Nonce: nonce}
	sealed := gcm.Seal(nil, sd.Nonce[:], plaintext, aad)
	ctLen := len(sealed) - TagSize
	sd.Ciphertext = make([]byte, ctLen)
	copy(sd.Ciphertext, sealed[:ctLen])
	copy(sd.Tag[:], sealed[ctLen:])
	return sd, nil
}

// Decrypt authenticates and opens sealed under key with the given
// associated data, returning a freshly-held plaintext buffer. Any wrong
// key, altered ciphertext, altered aad, or altered nonce is caught by tag
// verification and reported uniformly as Decryption.
func Decrypt(sealed SealedData, key, aad []byte) (*securemem.SecretBuffer, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	combined := make([]byte, len(sealed.Ciphertext)+TagSize)
	copy(combined, sealed.Ciphertext)
	copy(combined[len(sealed.Ciphertext):], sealed.Tag[:])

	plaintext, err := gcm.Open(nil, sealed.Nonce[:], combined, aad)
	if err != nil {
		return nil, vaulterr.New(vaulterr.Decryption, "authentication failed")
	}
	defer securemem.Zero(plaintext)

	sb, err := securemem.New(plaintext)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encryption, "allocate plaintext buffer", err)
	}
	return sb, nil
}

// ToBytes serialises sealed as nonce || ciphertext || tag.
func (sd SealedData) ToBytes() []byte {
	out := make([]byte, NonceSize+len(sd.Ciphertext)+TagSize)
	copy(out, sd.Nonce[:])
	copy(out[NonceSize:], sd.Ciphertext)
	copy(out[NonceSize+len(sd.Ciphertext):], sd.Tag[:])
	return out
}

// FromBytes parses a wire-form sealed record produced by ToBytes.
func FromBytes(b []byte) (SealedData, error) {
	if len(b) < NonceSize+TagSize {
		return SealedData{}, vaulterr.New(vaulterr.VaultFormat, "sealed record too short")
	}
	var sd SealedData
	copy(sd.Nonce[:], b[:NonceSize])
	ctEnd := len(b) - TagSize
	sd.Ciphertext = make([]byte, ctEnd-NonceSize)
	copy(sd.Ciphertext, b[NonceSize:ctEnd])
	copy(sd.Tag[:], b[ctEnd:])
	return sd, nil
}
