package hybridkem

import (
	"bytes"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/curve25519"
)

// TestX25519RFC7748Vector checks the raw X25519 scalar multiplication
// against the RFC 7748 §6.1 known-answer vector, independent of the
// hybrid combiner.
func TestX25519RFC7748Vector(t *testing.T) {
	alicePriv, _ := hex.DecodeString("77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a")
	alicePub, _ := hex.DecodeString("8520f0098930a754748b7ddcb43ef75a0dbf3a0d26381af4eba4a98eaa9b4e6a")
	bobPriv, _ := hex.DecodeString("5dab087e624a8a4b79e17f8b83800ee66f3bb1292618b6fd1c2f8b27ff88e0eb")
	bobPub, _ := hex.DecodeString("de9edb7d7b7dc1b4d35b61c2ece435373f8343c85b78674dadfc7e146f882b4f")
	wantShared, _ := hex.DecodeString("4a5d9d5ba4ce2de1728e3bf480350f25e07e21c947d19e3376f09b3c1e161742")

	gotAlicePub, err := curve25519.X25519(alicePriv, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("X25519(alicePriv, basepoint) error = %v", err)
	}
	if !bytes.Equal(gotAlicePub, alicePub) {
		t.Errorf("alice public = %x, want %x", gotAlicePub, alicePub)
	}

	gotBobPub, err := curve25519.X25519(bobPriv, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("X25519(bobPriv, basepoint) error = %v", err)
	}
	if !bytes.Equal(gotBobPub, bobPub) {
		t.Errorf("bob public = %x, want %x", gotBobPub, bobPub)
	}

	gotShared, err := curve25519.X25519(alicePriv, bobPub)
	if err != nil {
		t.Fatalf("X25519(alicePriv, bobPub) error = %v", err)
	}
	if !bytes.Equal(gotShared, wantShared) {
		t.Errorf("shared secret = %x, want %x", gotShared, wantShared)
	}
}

func TestEncapsulateDecapsulateRoundtrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	ct, ss1, err := Encapsulate(kp.X25519PublicKey, kp.MLKEMPublicKey)
	if err != nil {
		t.Fatalf("Encapsulate() error = %v", err)
	}
	defer ss1.Destroy()

	ss2, err := Decapsulate(ct, kp)
	if err != nil {
		t.Fatalf("Decapsulate() error = %v", err)
	}
	defer ss2.Destroy()

	if !bytes.Equal(ss1.Expose(), ss2.Expose()) {
		t.Errorf("shared secrets differ: encapsulate=%x decapsulate=%x", ss1.Expose(), ss2.Expose())
	}
	if len(ss1.Expose()) != SharedSecretSize {
		t.Errorf("shared secret length = %d, want %d", len(ss1.Expose()), SharedSecretSize)
	}
}

func TestEncapsulateProducesDistinctSecretsAndCiphertexts(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	ct1, ss1, err := Encapsulate(kp.X25519PublicKey, kp.MLKEMPublicKey)
	if err != nil {
		t.Fatalf("Encapsulate() error = %v", err)
	}
	defer ss1.Destroy()

	ct2, ss2, err := Encapsulate(kp.X25519PublicKey, kp.MLKEMPublicKey)
	if err != nil {
		t.Fatalf("Encapsulate() error = %v", err)
	}
	defer ss2.Destroy()

	if bytes.Equal(ss1.Expose(), ss2.Expose()) {
		t.Error("two independent encapsulations produced the same shared secret")
	}
	if ct1.X25519SenderPublicKey == ct2.X25519SenderPublicKey {
		t.Error("two independent encapsulations reused the same ephemeral x25519 key")
	}
	if bytes.Equal(ct1.MLKEMCiphertext[:], ct2.MLKEMCiphertext[:]) {
		t.Error("two independent encapsulations produced the same ml-kem ciphertext")
	}
}

// TestDecapsulateWrongKeyDoesNotMatch exercises ML-KEM's implicit-rejection
// behavior: decapsulating with the wrong private key does not error, it
// silently produces a different shared secret. Detecting the mismatch is
// the caller's job (an AEAD open against the wrong key fails on its tag).
func TestDecapsulateWrongKeyDoesNotMatch(t *testing.T) {
	recipient, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	imposter, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	ct, ssSender, err := Encapsulate(recipient.X25519PublicKey, recipient.MLKEMPublicKey)
	if err != nil {
		t.Fatalf("Encapsulate() error = %v", err)
	}
	defer ssSender.Destroy()

	ssImposter, err := Decapsulate(ct, imposter)
	if err != nil {
		t.Fatalf("Decapsulate() with wrong key returned an error, want silent mismatch: %v", err)
	}
	defer ssImposter.Destroy()

	if bytes.Equal(ssSender.Expose(), ssImposter.Expose()) {
		t.Error("decapsulation with the wrong keypair produced the sender's shared secret")
	}
}

func TestGenerateKeyPairSizes(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	if len(kp.MLKEMPublicKey) != MLKEMPublicKeySize {
		t.Errorf("ml-kem public key size = %d, want %d", len(kp.MLKEMPublicKey), MLKEMPublicKeySize)
	}
	if len(kp.MLKEMPrivateKey) != MLKEMPrivateKeySize {
		t.Errorf("ml-kem private key size = %d, want %d", len(kp.MLKEMPrivateKey), MLKEMPrivateKeySize)
	}
}
