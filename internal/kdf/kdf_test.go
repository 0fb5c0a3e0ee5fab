package kdf

import (
	"bytes"
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/argon2"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex.DecodeString(%q) error = %v", s, err)
	}
	return b
}

// TestArgon2idRFC9106Vector checks the raw argon2.IDKey call against the
// published RFC 9106 §5.4 known-answer test. Derive() rejects only a zero
// memory cost and does not apply MinMemoryKiB; this test calls the
// underlying primitive directly instead of going through it.
func TestArgon2idRFC9106Vector(t *testing.T) {
	password := bytes.Repeat([]byte{0x01}, 32)
	salt := bytes.Repeat([]byte{0x02}, 16)

	got := argon2.IDKey(password, salt, 3, 32, 4, 32)
	want := mustHex(t, "0d640df58d78766c08c037a34a8b53c9d01ef0452d75b65eb52520e96b01e659")[:32]

	if !bytes.Equal(got, want) {
		t.Errorf("argon2.IDKey() = %x, want %x", got, want)
	}
}

func TestDeriveDeterministic(t *testing.T) {
	password := []byte("correct horse battery staple")
	salt := bytes.Repeat([]byte{0x07}, 16)
	params := Params{MemoryKiB: MinMemoryKiB, Time: 1, Threads: 1}

	a, err := Derive(password, salt, params)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	defer a.Destroy()

	b, err := Derive(password, salt, params)
	if err != nil {
		t.Fatalf("Derive() second call error = %v", err)
	}
	defer b.Destroy()

	if a.Len() != KeyLen {
		t.Errorf("Len() = %d, want %d", a.Len(), KeyLen)
	}
	if !bytes.Equal(a.Expose(), b.Expose()) {
		t.Errorf("Derive() not deterministic: %x != %x", a.Expose(), b.Expose())
	}
}

func TestDeriveShortSaltRejected(t *testing.T) {
	_, err := Derive([]byte("pw"), make([]byte, 15), Params{MemoryKiB: MinMemoryKiB, Time: 1, Threads: 1})
	var ve *vaulterr.Error
	if err == nil {
		t.Fatal("Derive() with 15-byte salt succeeded, want error")
	}
	if !isCode(err, vaulterr.InvalidKeyMaterial) {
		t.Errorf("Derive() error = %v, want InvalidKeyMaterial", err)
	}
	_ = ve
}

func TestDeriveZeroTimeRejected(t *testing.T) {
	_, err := Derive([]byte("pw"), make([]byte, 16), Params{MemoryKiB: MinMemoryKiB, Time: 0, Threads: 1})
	if !isCode(err, vaulterr.KeyDerivation) {
		t.Errorf("Derive() error = %v, want KeyDerivation", err)
	}
}

func TestCalibratePresetsMonotonic(t *testing.T) {
	presets, err := Calibrate()
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if presets.Fast.MemoryKiB < MinMemoryKiB || presets.Balanced.MemoryKiB < MinMemoryKiB || presets.Maximum.MemoryKiB < MinMemoryKiB {
		t.Errorf("calibrated preset below memory floor: %+v", presets)
	}
	if presets.Balanced.Time < presets.Fast.Time {
		t.Errorf("Balanced.Time %d < Fast.Time %d", presets.Balanced.Time, presets.Fast.Time)
	}
	if presets.Maximum.Time < presets.Balanced.Time {
		t.Errorf("Maximum.Time %d < Balanced.Time %d", presets.Maximum.Time, presets.Balanced.Time)
	}
}

func isCode(err error, code vaulterr.Code) bool {
	ve, ok := err.(*vaulterr.Error)
	return ok && ve.Code() == code
}
