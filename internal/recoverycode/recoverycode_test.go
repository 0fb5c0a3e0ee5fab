package recoverycode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verrou-vault/verrou-core/internal/kdf"
)

var testParams = kdf.Params{MemoryKiB: kdf.MinMemoryKiB, Time: 1, Threads: 1}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x7E}, SecretSize)

	code, err := Encode(secret)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(code, "-") {
		t.Error("Encode() result has no hyphen grouping")
	}

	decoded, err := Decode(code)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer decoded.Destroy()
	if !bytes.Equal(decoded.Expose(), secret) {
		t.Errorf("decoded secret = %x, want %x", decoded.Expose(), secret)
	}
}

func TestDecodeCaseAndHyphenInsensitive(t *testing.T) {
	secret := bytes.Repeat([]byte{0x3C}, SecretSize)
	code, err := Encode(secret)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	mangled := strings.ToLower(strings.ReplaceAll(code, "-", " "))
	decoded, err := Decode(mangled)
	if err != nil {
		t.Fatalf("Decode() of re-cased/respaced code error = %v", err)
	}
	defer decoded.Destroy()
	if !bytes.Equal(decoded.Expose(), secret) {
		t.Errorf("decoded secret = %x, want %x", decoded.Expose(), secret)
	}
}

func TestDecodeRejectsTamperedCharacter(t *testing.T) {
	secret := bytes.Repeat([]byte{0x01}, SecretSize)
	code, err := Encode(secret)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	raw := []byte(strings.ReplaceAll(code, "-", ""))
	if raw[0] == 'A' {
		raw[0] = 'B'
	} else {
		raw[0] = 'A'
	}
	if _, err := Decode(string(raw)); err == nil {
		t.Fatal("Decode() of a tampered code succeeded, want checksum error")
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	if _, err := Decode("AAAA-BBBB"); err == nil {
		t.Fatal("Decode() of a too-short code succeeded, want error")
	}
}

func TestCreateUnwrapRecoverySlotRoundtrip(t *testing.T) {
	master := bytes.Repeat([]byte{0x99}, 32)
	secretBuf, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	defer secretBuf.Destroy()
	salt, err := randomSalt()
	if err != nil {
		t.Fatalf("randomSalt() error = %v", err)
	}

	slot, err := CreateRecoverySlot(master, secretBuf.Expose(), salt, testParams)
	if err != nil {
		t.Fatalf("CreateRecoverySlot() error = %v", err)
	}

	unwrapped, err := UnwrapRecoverySlot(slot, secretBuf.Expose(), salt, testParams)
	if err != nil {
		t.Fatalf("UnwrapRecoverySlot() error = %v", err)
	}
	defer unwrapped.Destroy()
	if !bytes.Equal(unwrapped.Expose(), master) {
		t.Errorf("unwrapped master = %x, want %x", unwrapped.Expose(), master)
	}
}

func TestUnwrapRecoverySlotWrongSecretFails(t *testing.T) {
	master := bytes.Repeat([]byte{0x88}, 32)
	secretBuf, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	defer secretBuf.Destroy()
	salt, err := randomSalt()
	if err != nil {
		t.Fatalf("randomSalt() error = %v", err)
	}

	slot, err := CreateRecoverySlot(master, secretBuf.Expose(), salt, testParams)
	if err != nil {
		t.Fatalf("CreateRecoverySlot() error = %v", err)
	}

	otherBuf, err := GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret() error = %v", err)
	}
	defer otherBuf.Destroy()

	if _, err := UnwrapRecoverySlot(slot, otherBuf.Expose(), salt, testParams); err == nil {
		t.Fatal("UnwrapRecoverySlot() with wrong secret succeeded, want error")
	}
}
