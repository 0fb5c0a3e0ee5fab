// Package slots implements the key-wrapping algebra that lets a vault's
// 32-byte master key be unlocked through several independent credentials
// (a password, a biometric token, a recovery code, a hardware key) without
// any of them ever seeing another's wrapping key.
package slots

import (
	"github.com/verrou-vault/verrou-core/internal/aead"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// SlotType tags which credential class a KeySlot was wrapped under.
type SlotType uint8

const (
	Password SlotType = iota
	Biometric
	Recovery
	HardwareSecurity
)

// canonicalByte returns the single-byte AAD encoding for t, domain-
// separating slots of different types so a wrapped_key blob copied from
// one slot into another always fails to decrypt.
func (t SlotType) canonicalByte() []byte {
	return []byte{byte(t)}
}

func (t SlotType) String() string {
	switch t {
	case Password:
		return "Password"
	case Biometric:
		return "Biometric"
	case Recovery:
		return "Recovery"
	case HardwareSecurity:
		return "HardwareSecurity"
	default:
		return "Unknown"
	}
}

// masterKeyLen is the fixed size of the vault master key.
const masterKeyLen = 32

// wrappingKeyLen is the fixed size of every slot wrapping key, regardless
// of which credential class derived it.
const wrappingKeyLen = 32

// KeySlot is a master key sealed under a single credential's wrapping key.
type KeySlot struct {
	SlotType   SlotType
	WrappedKey aead.SealedData
}

// CreateSlot seals master under wrapping, binding the ciphertext to
// slotType via AAD so it can never be reinterpreted as a different slot
// type.
func CreateSlot(master, wrapping []byte, slotType SlotType) (KeySlot, error) {
	if len(master) != masterKeyLen {
		return KeySlot{}, vaulterr.New(vaulterr.InvalidKeyMaterial, "master key must be 32 bytes")
	}
	if len(wrapping) != wrappingKeyLen {
		return KeySlot{}, vaulterr.New(vaulterr.InvalidKeyMaterial, "wrapping key must be 32 bytes")
	}

	sealed, err := aead.Encrypt(master, wrapping, slotType.canonicalByte())
	if err != nil {
		return KeySlot{}, vaulterr.Wrap(vaulterr.Encryption, "seal master key into slot", err)
	}
	return KeySlot{SlotType: slotType, WrappedKey: sealed}, nil
}

// UnwrapSlot recovers the master key from slot using wrapping. An
// incorrect wrapping key, or a slot whose SlotType has been swapped after
// sealing, both surface as Decryption — the AAD mismatch and the AEAD tag
// mismatch are indistinguishable to a caller by design.
func UnwrapSlot(slot KeySlot, wrapping []byte) (*securemem.SecretBuffer, error) {
	if len(wrapping) != wrappingKeyLen {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "wrapping key must be 32 bytes")
	}

	master, err := aead.Decrypt(slot.WrappedKey, wrapping, slot.SlotType.canonicalByte())
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Decryption, "unwrap slot", err)
	}
	if master.Len() != masterKeyLen {
		master.Destroy()
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "unwrapped key is not 32 bytes")
	}
	return master, nil
}
