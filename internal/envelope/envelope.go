// Package envelope implements the ".verrou" binary vault container: a
// magic-prefixed, length-prefixed header followed by an AEAD-sealed
// payload and random padding out to a fixed size boundary, so a passive
// observer cannot infer payload size from file size.
package envelope

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/verrou-vault/verrou-core/internal/aead"
	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// magic identifies a .verrou container.
var magic = [4]byte{'V', 'R', 'O', 'U'}

// PaddingBoundary is the size every serialised envelope is padded up to;
// a blob's total length reveals nothing about its payload size beyond
// which 64 KiB bucket it falls into.
const PaddingBoundary = 65536

const masterKeyLen = 32

// VaultHeader carries everything needed to unlock a vault except the
// credentials themselves: the KDF parameters for each preset tier, the
// wrapped master-key slots, and unlock bookkeeping.
type VaultHeader struct {
	Version          uint32
	SlotCount        uint8
	SessionParams    kdf.Params
	SensitiveParams  kdf.Params
	UnlockAttempts   uint32
	HasLastAttemptAt bool
	LastAttemptAt    int64
	TotalUnlockCount uint64
	Slots            []slots.KeySlot
	SlotSalts        [][]byte
}

// serializeParams writes a kdf.Params as three little-endian fields:
// memory (4 bytes), time (4 bytes), threads (1 byte).
func serializeParams(buf []byte, p kdf.Params) []byte {
	var tmp [9]byte
	binary.LittleEndian.PutUint32(tmp[0:4], p.MemoryKiB)
	binary.LittleEndian.PutUint32(tmp[4:8], p.Time)
	tmp[8] = p.Threads
	return append(buf, tmp[:]...)
}

func deserializeParams(data []byte) (kdf.Params, []byte, error) {
	if len(data) < 9 {
		return kdf.Params{}, nil, vaulterr.New(vaulterr.VaultFormat, "truncated kdf params")
	}
	p := kdf.Params{
		MemoryKiB: binary.LittleEndian.Uint32(data[0:4]),
		Time:      binary.LittleEndian.Uint32(data[4:8]),
		Threads:   data[8],
	}
	return p, data[9:], nil
}

// serializeHeader encodes h as little-endian fields: version u32,
// slot_count u8, the session and sensitive kdf params (memory u32, time
// u32, threads u8 each), unlock_attempts u32, a last-attempt-present flag
// u8, last_attempt_at i64, total_unlock_count u64, then for each slot its
// type u8, a u32-length-prefixed wrapped key and a u32-length-prefixed
// salt. This is the value used verbatim as the envelope's AEAD
// associated data, so any bit of it changing invalidates the payload.
func serializeHeader(h VaultHeader) []byte {
	buf := make([]byte, 0, 64)

	var fixed [4 + 1]byte
	binary.LittleEndian.PutUint32(fixed[0:4], h.Version)
	fixed[4] = h.SlotCount
	buf = append(buf, fixed[:]...)

	buf = serializeParams(buf, h.SessionParams)
	buf = serializeParams(buf, h.SensitiveParams)

	var counters [4 + 1 + 8 + 8]byte
	binary.LittleEndian.PutUint32(counters[0:4], h.UnlockAttempts)
	if h.HasLastAttemptAt {
		counters[4] = 1
	}
	binary.LittleEndian.PutUint64(counters[5:13], uint64(h.LastAttemptAt))
	binary.LittleEndian.PutUint64(counters[13:21], h.TotalUnlockCount)
	buf = append(buf, counters[:]...)

	for i, slot := range h.Slots {
		var slotHeader [1 + 4]byte
		slotHeader[0] = byte(slot.SlotType)
		wire := slot.WrappedKey.ToBytes()
		binary.LittleEndian.PutUint32(slotHeader[1:5], uint32(len(wire)))
		buf = append(buf, slotHeader[:]...)
		buf = append(buf, wire...)

		var saltHeader [4]byte
		salt := h.SlotSalts[i]
		binary.LittleEndian.PutUint32(saltHeader[:], uint32(len(salt)))
		buf = append(buf, saltHeader[:]...)
		buf = append(buf, salt...)
	}

	return buf
}

func deserializeHeader(data []byte) (VaultHeader, error) {
	var h VaultHeader

	if len(data) < 5 {
		return h, vaulterr.New(vaulterr.VaultFormat, "truncated header")
	}
	h.Version = binary.LittleEndian.Uint32(data[0:4])
	h.SlotCount = data[4]
	rest := data[5:]

	var err error
	h.SessionParams, rest, err = deserializeParams(rest)
	if err != nil {
		return VaultHeader{}, err
	}
	h.SensitiveParams, rest, err = deserializeParams(rest)
	if err != nil {
		return VaultHeader{}, err
	}

	if len(rest) < 4+1+8+8 {
		return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "truncated counters")
	}
	h.UnlockAttempts = binary.LittleEndian.Uint32(rest[0:4])
	h.HasLastAttemptAt = rest[4] == 1
	h.LastAttemptAt = int64(binary.LittleEndian.Uint64(rest[5:13]))
	h.TotalUnlockCount = binary.LittleEndian.Uint64(rest[13:21])
	rest = rest[21:]

	h.Slots = make([]slots.KeySlot, 0, h.SlotCount)
	h.SlotSalts = make([][]byte, 0, h.SlotCount)
	for i := uint8(0); i < h.SlotCount; i++ {
		if len(rest) < 5 {
			return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "truncated slot header")
		}
		slotType := slots.SlotType(rest[0])
		wireLen := binary.LittleEndian.Uint32(rest[1:5])
		rest = rest[5:]
		if uint32(len(rest)) < wireLen {
			return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "truncated slot payload")
		}
		sealed, err := aead.FromBytes(rest[:wireLen])
		if err != nil {
			return VaultHeader{}, vaulterr.Wrap(vaulterr.VaultFormat, "parse slot sealed data", err)
		}
		rest = rest[wireLen:]

		if len(rest) < 4 {
			return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "truncated slot salt header")
		}
		saltLen := binary.LittleEndian.Uint32(rest[0:4])
		rest = rest[4:]
		if uint32(len(rest)) < saltLen {
			return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "truncated slot salt")
		}
		salt := append([]byte(nil), rest[:saltLen]...)
		rest = rest[saltLen:]

		h.Slots = append(h.Slots, slots.KeySlot{SlotType: slotType, WrappedKey: sealed})
		h.SlotSalts = append(h.SlotSalts, salt)
	}

	if len(h.Slots) != int(h.SlotCount) || len(h.SlotSalts) != int(h.SlotCount) {
		return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "slot count mismatch")
	}

	return h, nil
}

// Serialize seals payload under master with the canonical header encoding
// as AEAD associated data, then pads the result with random bytes up to
// the next multiple of PaddingBoundary.
func Serialize(header VaultHeader, payload, master []byte) ([]byte, error) {
	if len(master) != masterKeyLen {
		return nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "master key must be 32 bytes")
	}

	headerBytes := serializeHeader(header)
	sealed, err := aead.Encrypt(payload, master, headerBytes)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encryption, "seal envelope payload", err)
	}
	sealedBytes := sealed.ToBytes()

	// The fixed nonce||ciphertext||tag field has no fixed width (the
	// payload length varies), and it is immediately followed by random
	// padding with no delimiter of its own. A 4-byte length prefix makes
	// the boundary between sealed bytes and padding unambiguous on read.
	unpadded := 4 + 4 + len(headerBytes) + 4 + len(sealedBytes)
	total := ((unpadded + PaddingBoundary - 1) / PaddingBoundary) * PaddingBoundary
	if total == 0 {
		total = PaddingBoundary
	}

	blob := make([]byte, total)
	offset := 0
	copy(blob[offset:], magic[:])
	offset += 4
	binary.LittleEndian.PutUint32(blob[offset:], uint32(len(headerBytes)))
	offset += 4
	copy(blob[offset:], headerBytes)
	offset += len(headerBytes)
	binary.LittleEndian.PutUint32(blob[offset:], uint32(len(sealedBytes)))
	offset += 4
	copy(blob[offset:], sealedBytes)
	offset += len(sealedBytes)

	if _, err := io.ReadFull(rand.Reader, blob[offset:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.Encryption, "fill envelope padding", err)
	}

	return blob, nil
}

// PeekHeader parses blob's magic and header without requiring the master
// key, so a caller can inspect slot types and KDF parameters to figure out
// which credential to prompt for before it can derive a wrapping key and
// call Deserialize.
func PeekHeader(blob []byte) (VaultHeader, error) {
	if len(blob) < 8 {
		return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "blob too short")
	}
	if [4]byte(blob[0:4]) != magic {
		return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "bad magic")
	}

	headerLen := binary.LittleEndian.Uint32(blob[4:8])
	if uint32(len(blob)) < 8+headerLen {
		return VaultHeader{}, vaulterr.New(vaulterr.VaultFormat, "blob shorter than declared header length")
	}
	return deserializeHeader(blob[8 : 8+headerLen])
}

// Deserialize parses blob's magic and header, then opens the sealed
// payload under master, verifying header bytes as associated data.
func Deserialize(blob, master []byte) (VaultHeader, *securemem.SecretBuffer, error) {
	if len(master) != masterKeyLen {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.InvalidKeyMaterial, "master key must be 32 bytes")
	}
	if len(blob) < 8 {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.VaultFormat, "blob too short")
	}
	if [4]byte(blob[0:4]) != magic {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.VaultFormat, "bad magic")
	}

	headerLen := binary.LittleEndian.Uint32(blob[4:8])
	if uint32(len(blob)) < 8+headerLen {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.VaultFormat, "blob shorter than declared header length")
	}
	headerBytes := blob[8 : 8+headerLen]

	header, err := deserializeHeader(headerBytes)
	if err != nil {
		return VaultHeader{}, nil, err
	}

	rest := blob[8+headerLen:]
	if len(rest) < 4 {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.VaultFormat, "blob truncated before sealed length")
	}
	sealedLen := binary.LittleEndian.Uint32(rest[0:4])
	rest = rest[4:]
	if uint32(len(rest)) < sealedLen {
		return VaultHeader{}, nil, vaulterr.New(vaulterr.VaultFormat, "blob shorter than declared sealed length")
	}

	sealed, err := aead.FromBytes(rest[:sealedLen])
	if err != nil {
		return VaultHeader{}, nil, vaulterr.Wrap(vaulterr.VaultFormat, "parse sealed payload", err)
	}

	payload, err := aead.Decrypt(sealed, master, headerBytes)
	if err != nil {
		return VaultHeader{}, nil, vaulterr.Wrap(vaulterr.Decryption, "open envelope payload", err)
	}

	return header, payload, nil
}
