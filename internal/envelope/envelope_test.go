package envelope

import (
	"bytes"
	"testing"

	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/slots"
)

func sampleHeader() VaultHeader {
	return VaultHeader{
		Version:         1,
		SlotCount:       0,
		SessionParams:   kdf.Params{MemoryKiB: 262144, Time: 3, Threads: 4},
		SensitiveParams: kdf.Params{MemoryKiB: 524288, Time: 4, Threads: 4},
	}
}

// TestEnvelopeRoundtripScenario reproduces the literal end-to-end scenario:
// a zero-slot header with the given session/sensitive KDF presets, a
// 33-byte payload, and a master key of 32 0xDD bytes. The resulting blob
// must be exactly 65536 bytes, start with the "VROU" magic, and
// deserialise back to the original payload byte-for-byte.
func TestEnvelopeRoundtripScenario(t *testing.T) {
	header := sampleHeader()
	payload := []byte("encrypted vault database contents")
	master := bytes.Repeat([]byte{0xDD}, 32)

	blob, err := Serialize(header, payload, master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	if len(blob) != PaddingBoundary {
		t.Errorf("len(blob) = %d, want %d", len(blob), PaddingBoundary)
	}
	if string(blob[0:4]) != "VROU" {
		t.Errorf("magic = %q, want %q", blob[0:4], "VROU")
	}

	gotHeader, gotPayload, err := Deserialize(blob, master)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	defer gotPayload.Destroy()

	if !bytes.Equal(gotPayload.Expose(), payload) {
		t.Errorf("Deserialize() payload = %q, want %q", gotPayload.Expose(), payload)
	}
	if gotHeader.Version != 1 || gotHeader.SlotCount != 0 {
		t.Errorf("Deserialize() header = %+v, want version=1 slot_count=0", gotHeader)
	}
	if gotHeader.SessionParams != header.SessionParams {
		t.Errorf("session params = %+v, want %+v", gotHeader.SessionParams, header.SessionParams)
	}
}

func TestEnvelopeRoundtripWithSlots(t *testing.T) {
	header := sampleHeader()
	master := bytes.Repeat([]byte{0x11}, 32)
	wrapping := bytes.Repeat([]byte{0x22}, 32)

	slot, err := slots.CreateSlot(master, wrapping, slots.Password)
	if err != nil {
		t.Fatalf("CreateSlot() error = %v", err)
	}
	header.SlotCount = 1
	header.Slots = []slots.KeySlot{slot}
	header.SlotSalts = [][]byte{[]byte("a-kdf-salt-value")}

	payload := []byte("a bigger payload than the minimal scenario, to exercise padding math")
	blob, err := Serialize(header, payload, master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if len(blob)%PaddingBoundary != 0 {
		t.Errorf("len(blob) = %d, want a multiple of %d", len(blob), PaddingBoundary)
	}

	gotHeader, gotPayload, err := Deserialize(blob, master)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}
	defer gotPayload.Destroy()

	if !bytes.Equal(gotPayload.Expose(), payload) {
		t.Errorf("payload = %q, want %q", gotPayload.Expose(), payload)
	}
	if gotHeader.SlotCount != 1 || len(gotHeader.Slots) != 1 {
		t.Fatalf("got %d slots, want 1", len(gotHeader.Slots))
	}
	unwrapped, err := slots.UnwrapSlot(gotHeader.Slots[0], wrapping)
	if err != nil {
		t.Fatalf("UnwrapSlot() on round-tripped slot error = %v", err)
	}
	defer unwrapped.Destroy()
	if !bytes.Equal(unwrapped.Expose(), master) {
		t.Errorf("unwrapped master = %x, want %x", unwrapped.Expose(), master)
	}
	if string(gotHeader.SlotSalts[0]) != "a-kdf-salt-value" {
		t.Errorf("slot salt = %q, want %q", gotHeader.SlotSalts[0], "a-kdf-salt-value")
	}
}

func TestDeserializeWrongKeyFails(t *testing.T) {
	header := sampleHeader()
	master := bytes.Repeat([]byte{0xAA}, 32)
	other := bytes.Repeat([]byte{0xBB}, 32)

	blob, err := Serialize(header, []byte("payload"), master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, _, err := Deserialize(blob, other); err == nil {
		t.Fatal("Deserialize() with wrong key succeeded, want error")
	}
}

func TestDeserializeWrongKeyLengthFails(t *testing.T) {
	header := sampleHeader()
	master := bytes.Repeat([]byte{0xAA}, 32)
	blob, err := Serialize(header, []byte("payload"), master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, _, err := Deserialize(blob, master[:16]); err == nil {
		t.Fatal("Deserialize() with a 16-byte key succeeded, want error")
	}
}

func TestDeserializeBadMagicFails(t *testing.T) {
	header := sampleHeader()
	master := bytes.Repeat([]byte{0xAA}, 32)
	blob, err := Serialize(header, []byte("payload"), master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	blob[0] = 'X'
	if _, _, err := Deserialize(blob, master); err == nil {
		t.Fatal("Deserialize() with corrupted magic succeeded, want error")
	}
}

func TestDeserializeShortBlobFails(t *testing.T) {
	master := bytes.Repeat([]byte{0xAA}, 32)
	if _, _, err := Deserialize([]byte("short"), master); err == nil {
		t.Fatal("Deserialize() on a short blob succeeded, want error")
	}
}

func TestDeserializeTamperedHeaderInvalidatesPayload(t *testing.T) {
	header := sampleHeader()
	master := bytes.Repeat([]byte{0xAA}, 32)
	blob, err := Serialize(header, []byte("payload"), master)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	// Flip a byte inside the serialised header (blob offset 9, the second
	// byte of the header's version field).
	blob[9] ^= 0xFF
	if _, _, err := Deserialize(blob, master); err == nil {
		t.Fatal("Deserialize() with a tampered header succeeded, want error")
	}
}
