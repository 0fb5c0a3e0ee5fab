package biometric

import (
	"bytes"
	"testing"

	"github.com/verrou-vault/verrou-core/internal/slots"
)

func TestEnrollUnlockRoundtrip(t *testing.T) {
	master := bytes.Repeat([]byte{0x5A}, 32)

	slot, token, err := Enroll(master)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	defer token.Destroy()
	if slot.SlotType != slots.Biometric {
		t.Errorf("slot.SlotType = %v, want Biometric", slot.SlotType)
	}
	if token.Len() != TokenSize {
		t.Errorf("len(token) = %d, want %d", token.Len(), TokenSize)
	}

	unlocked, err := Unlock(slot, token.Expose())
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	defer unlocked.Destroy()
	if !bytes.Equal(unlocked.Expose(), master) {
		t.Errorf("unlocked master = %x, want %x", unlocked.Expose(), master)
	}
}

func TestUnlockWrongTokenFails(t *testing.T) {
	master := bytes.Repeat([]byte{0x5A}, 32)
	slot, token, err := Enroll(master)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	defer token.Destroy()

	other, err := newToken()
	if err != nil {
		t.Fatalf("newToken() error = %v", err)
	}
	if _, err := Unlock(slot, other); err == nil {
		t.Fatal("Unlock() with wrong token succeeded, want error")
	}
}

func TestUnlockWrongTokenSizeFails(t *testing.T) {
	master := bytes.Repeat([]byte{0x5A}, 32)
	slot, token, err := Enroll(master)
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	defer token.Destroy()

	if _, err := Unlock(slot, token.Expose()[:16]); err == nil {
		t.Fatal("Unlock() with undersized token succeeded, want error")
	}
}

func TestUnlockRejectsNonBiometricSlot(t *testing.T) {
	master := bytes.Repeat([]byte{0x5A}, 32)
	wrapping := bytes.Repeat([]byte{0x11}, 32)
	passwordSlot, err := slots.CreateSlot(master, wrapping, slots.Password)
	if err != nil {
		t.Fatalf("CreateSlot() error = %v", err)
	}

	if _, err := Unlock(passwordSlot, wrapping); err == nil {
		t.Fatal("Unlock() on a password slot succeeded, want error")
	}
}
