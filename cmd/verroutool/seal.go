package main

import (
	"fmt"

	"github.com/verrou-vault/verrou-core/internal/aead"
)

// sealWithDerivedKey and openWithDerivedKey wrap the AEAD primitive around
// a hybrid KEM's combined shared secret, which is already exactly
// aead.KeySize bytes (hybridkem.SharedSecretSize == aead.KeySize == 32),
// so no further key derivation step is needed before sealing.

func sealWithDerivedKey(key, plaintext []byte) ([]byte, error) {
	sealed, err := aead.Encrypt(plaintext, key, nil)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}
	return sealed.ToBytes(), nil
}

func openWithDerivedKey(key, wire []byte) ([]byte, error) {
	sealed, err := aead.FromBytes(wire)
	if err != nil {
		return nil, fmt.Errorf("parse sealed payload: %w", err)
	}
	payload, err := aead.Decrypt(sealed, key, nil)
	if err != nil {
		return nil, err
	}
	defer payload.Destroy()
	return append([]byte(nil), payload.Expose()...), nil
}
