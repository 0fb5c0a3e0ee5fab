// Package hybridsign combines Ed25519 and ML-DSA-65 so that a signature is
// only accepted when both components verify. A forger must break both
// schemes simultaneously to produce an acceptable signature.
package hybridsign

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// context is the fixed domain-separation string passed to ML-DSA-65's
// context parameter, distinguishing this core's signatures from any other
// use of the same keys.
const context = "VERROU-HYBRID-SIG-v1"

// Sizes of the component keys and signatures, re-exported so callers can
// size buffers without importing ed25519/circl directly.
const (
	Ed25519PublicKeySize  = ed25519.PublicKeySize
	Ed25519PrivateKeySize = ed25519.PrivateKeySize
	Ed25519SignatureSize  = ed25519.SignatureSize

	MLDSAPublicKeySize  = mldsa65.PublicKeySize
	MLDSAPrivateKeySize = mldsa65.PrivateKeySize
	MLDSASignatureSize  = mldsa65.SignatureSize
)

// KeyPair holds both components of a hybrid signing keypair.
type KeyPair struct {
	Ed25519PublicKey  [Ed25519PublicKeySize]byte
	Ed25519PrivateKey [Ed25519PrivateKeySize]byte
	MLDSAPublicKey    [MLDSAPublicKeySize]byte
	MLDSAPrivateKey   [MLDSAPrivateKeySize]byte
}

// PublicKey holds only the public halves, for verification-only callers.
type PublicKey struct {
	Ed25519PublicKey [Ed25519PublicKeySize]byte
	MLDSAPublicKey   [MLDSAPublicKeySize]byte
}

// Signature holds both component signatures.
type Signature struct {
	Ed25519Signature [Ed25519SignatureSize]byte
	MLDSASignature   [MLDSASignatureSize]byte
}

// Public returns the public half of kp.
func (kp *KeyPair) Public() PublicKey {
	var pub PublicKey
	pub.Ed25519PublicKey = kp.Ed25519PublicKey
	pub.MLDSAPublicKey = kp.MLDSAPublicKey
	return pub
}

// GenerateKeyPair draws a fresh Ed25519 keypair and a fresh ML-DSA-65
// keypair.
func GenerateKeyPair() (*KeyPair, error) {
	var kp KeyPair

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Signature, "generate ed25519 keypair", err)
	}
	copy(kp.Ed25519PublicKey[:], edPub)
	copy(kp.Ed25519PrivateKey[:], edPriv)

	mldsaPub, mldsaPriv, err := mldsa65.GenerateKey(rand.Reader)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.Signature, "generate ml-dsa-65 keypair", err)
	}
	mldsaPub.Pack(kp.MLDSAPublicKey[:])
	mldsaPriv.Pack(kp.MLDSAPrivateKey[:])

	return &kp, nil
}

// Sign produces both component signatures over message. Both private keys
// must belong to the same keypair; callers verifying message integrity
// across the wire must compare Signature as a single opaque unit.
func Sign(kp *KeyPair, message []byte) (Signature, error) {
	var sig Signature

	edSig := ed25519.Sign(kp.Ed25519PrivateKey[:], message)
	copy(sig.Ed25519Signature[:], edSig)

	var mldsaPriv mldsa65.PrivateKey
	if err := mldsaPriv.Unpack(kp.MLDSAPrivateKey[:]); err != nil {
		return Signature{}, vaulterr.Wrap(vaulterr.InvalidKeyMaterial, "unpack ml-dsa-65 private key", err)
	}
	if err := mldsa65.SignTo(&mldsaPriv, message, []byte(context), false, sig.MLDSASignature[:]); err != nil {
		return Signature{}, vaulterr.Wrap(vaulterr.Signature, "ml-dsa-65 sign", err)
	}

	return sig, nil
}

// Verify reports whether sig is a valid hybrid signature over message under
// pub. Both components must verify; any single component failure (bad
// encoding, mismatched signature) results in rejection, never a partial
// accept.
func Verify(pub PublicKey, message []byte, sig Signature) bool {
	if !ed25519.Verify(pub.Ed25519PublicKey[:], message, sig.Ed25519Signature[:]) {
		return false
	}

	var mldsaPub mldsa65.PublicKey
	if err := mldsaPub.Unpack(pub.MLDSAPublicKey[:]); err != nil {
		return false
	}
	return mldsa65.Verify(&mldsaPub, message, []byte(context), sig.MLDSASignature[:])
}
