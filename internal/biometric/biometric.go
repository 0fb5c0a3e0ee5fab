// Package biometric implements the opaque hardware/biometric token slot
// helper: a token is just a 32-byte secret handed back by a platform's
// biometric or secure-enclave API, used directly as a slot wrapping key.
package biometric

import (
	"crypto/rand"
	"io"

	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// TokenSize is the fixed size of a biometric/hardware token.
const TokenSize = 32

// Enroll draws a fresh 32-byte token to hand to the platform's biometric
// or secure-enclave storage API, then seals master under it as a
// Biometric slot. The caller is responsible for persisting the returned
// token wherever the platform keeps enrolled biometric secrets; the vault
// itself never stores it.
func Enroll(master []byte) (slots.KeySlot, *securemem.SecretBuffer, error) {
	token, err := securemem.Random(TokenSize)
	if err != nil {
		return slots.KeySlot{}, nil, vaulterr.Wrap(vaulterr.Biometric, "draw biometric token", err)
	}

	slot, err := slots.CreateSlot(master, token.Expose(), slots.Biometric)
	if err != nil {
		token.Destroy()
		return slots.KeySlot{}, nil, vaulterr.Wrap(vaulterr.Biometric, "seal master key under biometric token", err)
	}
	return slot, token, nil
}

// Unlock recovers the master key from slot given the token the platform's
// biometric API returned for this enrolment.
func Unlock(slot slots.KeySlot, token []byte) (*securemem.SecretBuffer, error) {
	if len(token) != TokenSize {
		return nil, vaulterr.New(vaulterr.Biometric, "token must be 32 bytes")
	}
	if slot.SlotType != slots.Biometric {
		return nil, vaulterr.New(vaulterr.Biometric, "slot is not a biometric slot")
	}

	master, err := slots.UnwrapSlot(slot, token)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Biometric, "unlock biometric slot", err)
	}
	return master, nil
}

// newToken is exposed for tests that need a token without going through
// the platform draw path described in Enroll's doc comment.
func newToken() ([]byte, error) {
	token := make([]byte, TokenSize)
	if _, err := io.ReadFull(rand.Reader, token); err != nil {
		return nil, err
	}
	return token, nil
}
