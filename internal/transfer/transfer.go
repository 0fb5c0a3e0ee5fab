// Package transfer implements QR-scale offline key transfer: an X25519
// keypair per transfer, an HKDF-derived AEAD key, chunked sealing of an
// arbitrary payload, and a four-word out-of-band verification phrase.
package transfer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sort"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/verrou-vault/verrou-core/internal/aead"
	"github.com/verrou-vault/verrou-core/internal/bip39"
	"github.com/verrou-vault/verrou-core/internal/hybridkem"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
	"github.com/verrou-vault/verrou-core/internal/wordlistdata"
)

const (
	// KeySize is the size of an X25519 public or private key.
	KeySize = 32
	// transferKeyInfo domain-separates the transfer key HKDF derivation.
	transferKeyInfo = "VERROU-TRANSFER-v1"
	// DefaultMaxChunkSize is the largest plaintext slice chunk_payload
	// seals into a single chunk.
	DefaultMaxChunkSize = 1024
	// verificationWordCount is the number of BIP39 English words drawn to
	// form the out-of-band channel integrity check.
	verificationWordCount = 4
)

// Keypair is a single-use X25519 transfer keypair.
type Keypair struct {
	PublicKey  [KeySize]byte
	PrivateKey [KeySize]byte
}

// GenerateTransferKeypair draws a fresh X25519 keypair for one transfer
// session.
func GenerateTransferKeypair() (*Keypair, error) {
	var kp Keypair
	if _, err := io.ReadFull(rand.Reader, kp.PrivateKey[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "draw transfer private key", err)
	}
	hybridkem.Clamp(&kp.PrivateKey)

	pub, err := curve25519.X25519(kp.PrivateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "derive transfer public key", err)
	}
	copy(kp.PublicKey[:], pub)
	return &kp, nil
}

// DeriveTransferKey computes the X25519 shared secret between local and
// remote, then HKDF-SHA256-expands it into a 32-byte AEAD key.
func DeriveTransferKey(local Keypair, remotePublic [KeySize]byte) (*securemem.SecretBuffer, error) {
	shared, err := curve25519.X25519(local.PrivateKey[:], remotePublic[:])
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "x25519 scalar mult", err)
	}
	defer securemem.Zero(shared)

	reader := hkdf.New(sha256.New, shared, nil, []byte(transferKeyInfo))
	key := make([]byte, aead.KeySize)
	defer securemem.Zero(key)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "hkdf expand transfer key", err)
	}

	sb, err := securemem.New(key)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "allocate transfer key", err)
	}
	return sb, nil
}

// Chunk is one sealed slice of a transferred payload, tagged with its
// position in the original sequence.
type Chunk struct {
	Index  uint16
	Sealed aead.SealedData
}

// ChunkPayload slices plaintext into chunks of at most maxChunk bytes and
// seals each under key with a nonce whose trailing 2 bytes embed the
// chunk's index — the leading 10 bytes are drawn once per call and reused
// across every chunk of this payload, guaranteeing nonce uniqueness
// without needing per-chunk randomness.
func ChunkPayload(plaintext, key []byte, maxChunk int) ([]Chunk, error) {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunkSize
	}

	var sessionPrefix [10]byte
	if _, err := io.ReadFull(rand.Reader, sessionPrefix[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "draw chunk nonce prefix", err)
	}

	numChunks := (len(plaintext) + maxChunk - 1) / maxChunk
	if numChunks == 0 {
		numChunks = 1
	}
	if numChunks > 1<<16 {
		return nil, vaulterr.New(vaulterr.TransferEncryption, "payload requires more than 65536 chunks")
	}

	chunks := make([]Chunk, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		start := i * maxChunk
		end := start + maxChunk
		if end > len(plaintext) {
			end = len(plaintext)
		}

		sealed, err := sealChunk(plaintext[start:end], key, sessionPrefix, uint16(i))
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Index: uint16(i), Sealed: sealed})
	}
	return chunks, nil
}

// sealChunk seals plaintext under key with a nonce built from the
// session's random prefix and this chunk's index, rather than letting the
// AEAD layer draw a fresh random nonce per call.
func sealChunk(plaintext, key []byte, sessionPrefix [10]byte, index uint16) (aead.SealedData, error) {
	var nonce [aead.NonceSize]byte
	copy(nonce[:10], sessionPrefix[:])
	binary.BigEndian.PutUint16(nonce[10:12], index)

	sealed, err := aead.EncryptWithNonce(plaintext, key, nil, nonce)
	if err != nil {
		return aead.SealedData{}, vaulterr.Wrap(vaulterr.TransferEncryption, "seal chunk", err)
	}
	return sealed, nil
}

// AssembleChunks reassembles chunks strictly by index, requiring every
// index from 0 to the maximum observed index to be present exactly once.
func AssembleChunks(chunks []Chunk, key []byte) (*securemem.SecretBuffer, error) {
	if len(chunks) == 0 {
		return nil, vaulterr.New(vaulterr.TransferEncryption, "no chunks to assemble")
	}

	sorted := append([]Chunk(nil), chunks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i, c := range sorted {
		if int(c.Index) != i {
			return nil, vaulterr.New(vaulterr.TransferEncryption, "missing or duplicate chunk index")
		}
	}

	var out []byte
	for _, c := range sorted {
		plain, err := aead.Decrypt(c.Sealed, key, nil)
		if err != nil {
			return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "open transfer chunk", err)
		}
		out = append(out, plain.Expose()...)
		plain.Destroy()
	}
	defer securemem.Zero(out)

	sb, err := securemem.New(out)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "allocate assembled payload", err)
	}
	return sb, nil
}

// VerificationWords derives four BIP39 English words from both transfer
// public keys via HKDF, giving operators an out-of-band channel integrity
// check they can read aloud to compare.
func VerificationWords(localPublic, remotePublic [KeySize]byte) ([]string, error) {
	wl, err := bip39.Load(bip39.English)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "load english wordlist", err)
	}

	ikm := make([]byte, 0, KeySize*2)
	ikm = append(ikm, localPublic[:]...)
	ikm = append(ikm, remotePublic[:]...)

	reader := hkdf.New(sha256.New, ikm, nil, []byte("VERROU-TRANSFER-VERIFY-v1"))
	raw := make([]byte, 2*verificationWordCount)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return nil, vaulterr.Wrap(vaulterr.TransferEncryption, "hkdf expand verification words", err)
	}

	words := make([]string, verificationWordCount)
	for i := 0; i < verificationWordCount; i++ {
		idx := binary.BigEndian.Uint16(raw[i*2:i*2+2]) % wordlistdata.BIP39WordlistSize
		words[i] = wl.WordAt(int(idx))
	}
	return words, nil
}
