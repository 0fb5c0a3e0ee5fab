// Package hybridkem combines X25519 and ML-KEM-1024 so the resulting
// encapsulation is IND-CCA2 secure if either component is. The two shared
// secrets are combined with an HKDF-SHA256 domain-separated combiner
// rather than simple concatenation.
package hybridkem

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

const (
	// X25519KeySize is the size of an X25519 public or private key.
	X25519KeySize = 32
	// combinerInfo domain-separates the HKDF combiner from other uses of
	// HKDF-SHA256 elsewhere in the core.
	combinerInfo = "VERROU-HYBRID-KEM-v1"
	// SharedSecretSize is the size of the combined shared secret.
	SharedSecretSize = 32
)

// Sizes of the ML-KEM-1024 components, re-exported from circl for callers
// that need to size buffers without importing circl directly.
const (
	MLKEMPublicKeySize  = mlkem1024.PublicKeySize
	MLKEMPrivateKeySize = mlkem1024.PrivateKeySize
	MLKEMCiphertextSize = mlkem1024.CiphertextSize
)

// KeyPair holds both components of a hybrid keypair. X25519PrivateKey and
// MLKEMPrivateKey should be considered ephemeral unless the caller binds
// them to a durable identity.
type KeyPair struct {
	X25519PublicKey  [X25519KeySize]byte
	X25519PrivateKey [X25519KeySize]byte
	MLKEMPublicKey   [MLKEMPublicKeySize]byte
	MLKEMPrivateKey  [MLKEMPrivateKeySize]byte
}

// Ciphertext holds the sender's ephemeral X25519 public key and the
// ML-KEM-1024 ciphertext.
type Ciphertext struct {
	X25519SenderPublicKey [X25519KeySize]byte
	MLKEMCiphertext       [MLKEMCiphertextSize]byte
}

// GenerateKeyPair draws a fresh X25519 private key and a fresh ML-KEM-1024
// keypair.
func GenerateKeyPair() (*KeyPair, error) {
	var kp KeyPair

	if _, err := io.ReadFull(rand.Reader, kp.X25519PrivateKey[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "draw x25519 private key", err)
	}
	Clamp(&kp.X25519PrivateKey)

	pub, err := curve25519.X25519(kp.X25519PrivateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "derive x25519 public key", err)
	}
	copy(kp.X25519PublicKey[:], pub)

	mlkemPub, mlkemPriv, err := mlkem1024.GenerateKeyPair(rand.Reader)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "generate ml-kem-1024 keypair", err)
	}
	mlkemPub.Pack(kp.MLKEMPublicKey[:])
	mlkemPriv.Pack(kp.MLKEMPrivateKey[:])

	return &kp, nil
}

// Encapsulate draws an ephemeral X25519 key, computes the X25519 shared
// secret against the recipient's public key, performs ML-KEM-1024
// encapsulation against the recipient's ML-KEM public key, and combines
// both shared secrets via HKDF-SHA256.
func Encapsulate(recipientX25519Pub [X25519KeySize]byte, recipientMLKEMPub [MLKEMPublicKeySize]byte) (Ciphertext, *securemem.SecretBuffer, error) {
	var ephemeralPriv [X25519KeySize]byte
	if _, err := io.ReadFull(rand.Reader, ephemeralPriv[:]); err != nil {
		return Ciphertext{}, nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "draw ephemeral x25519 key", err)
	}
	Clamp(&ephemeralPriv)
	defer securemem.Zero(ephemeralPriv[:])

	ephemeralPub, err := curve25519.X25519(ephemeralPriv[:], curve25519.Basepoint)
	if err != nil {
		return Ciphertext{}, nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "derive ephemeral x25519 public key", err)
	}

	ss1, err := curve25519.X25519(ephemeralPriv[:], recipientX25519Pub[:])
	if err != nil {
		return Ciphertext{}, nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "x25519 scalar mult", err)
	}
	defer securemem.Zero(ss1)

	var mlkemPub mlkem1024.PublicKey
	if err := mlkemPub.Unpack(recipientMLKEMPub[:]); err != nil {
		return Ciphertext{}, nil, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "unpack ml-kem-1024 public key", err)
	}

	var ct Ciphertext
	copy(ct.X25519SenderPublicKey[:], ephemeralPub)

	ss2 := make([]byte, mlkem1024.SharedKeySize)
	mlkemPub.EncapsulateTo(ct.MLKEMCiphertext[:], ss2, nil)
	defer securemem.Zero(ss2)

	combined, err := combine(ss1, ss2)
	if err != nil {
		return Ciphertext{}, nil, err
	}
	return ct, combined, nil
}

// Decapsulate reverses Encapsulate given the recipient's private keypair.
// Per ML-KEM's implicit-rejection semantics, a wrong private key does not
// produce an error here — it produces a pseudo-random combined secret.
// Callers that need failure detection must pipe the result through an
// AEAD open (see the slots package), which fails on tag mismatch.
func Decapsulate(ct Ciphertext, kp *KeyPair) (*securemem.SecretBuffer, error) {
	ss1, err := curve25519.X25519(kp.X25519PrivateKey[:], ct.X25519SenderPublicKey[:])
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "x25519 scalar mult", err)
	}
	defer securemem.Zero(ss1)

	var mlkemPriv mlkem1024.PrivateKey
	if err := mlkemPriv.Unpack(kp.MLKEMPrivateKey[:]); err != nil {
		return nil, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "unpack ml-kem-1024 private key", err)
	}

	ss2 := make([]byte, mlkem1024.SharedKeySize)
	mlkemPriv.DecapsulateTo(ss2, ct.MLKEMCiphertext[:])
	defer securemem.Zero(ss2)

	return combine(ss1, ss2)
}

// combine derives the final 32-byte shared secret from the concatenation
// of both component shared secrets via HKDF-SHA256 with an empty salt and
// the domain-separating info string.
func combine(ss1, ss2 []byte) (*securemem.SecretBuffer, error) {
	ikm := make([]byte, len(ss1)+len(ss2))
	copy(ikm, ss1)
	copy(ikm[len(ss1):], ss2)
	defer securemem.Zero(ikm)

	reader := hkdf.New(sha256.New, ikm, nil, []byte(combinerInfo))
	out := make([]byte, SharedSecretSize)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "hkdf combine", err)
	}
	defer securemem.Zero(out)

	sb, err := securemem.New(out)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.KeyEncapsulation, "allocate combined secret", err)
	}
	return sb, nil
}

// Clamp applies the X25519 clamping operation required by RFC 7748 §5.
// Exported so other packages deriving their own X25519 keypairs (e.g.
// transfer) apply the identical bit-twiddle rather than reimplementing it.
func Clamp(priv *[X25519KeySize]byte) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}
