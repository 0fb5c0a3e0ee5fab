package securemem

import (
	"fmt"
	"math"
	"testing"
)

func TestSecretBufferMaskedRender(t *testing.T) {
	sb, err := New([]byte("super secret value"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sb.Destroy()

	for _, rendered := range []string{
		sb.String(),
		fmt.Sprintf("%v", sb),
		fmt.Sprintf("%s", sb),
	} {
		if rendered != maskedRender {
			t.Errorf("rendered = %q, want %q", rendered, maskedRender)
		}
	}
}

func TestSecretBufferExposeRoundtrip(t *testing.T) {
	want := []byte{1, 2, 3, 4, 5}
	sb, err := New(want)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sb.Destroy()

	got := sb.Expose()
	if len(got) != len(want) {
		t.Fatalf("Expose() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSecretBufferDestroyZeroes(t *testing.T) {
	sb, err := New([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sb.Destroy()
	if sb.Len() != 0 {
		t.Errorf("Len() after Destroy = %d, want 0", sb.Len())
	}
	if exposed := sb.Expose(); exposed != nil {
		t.Errorf("Expose() after Destroy = %v, want nil", exposed)
	}
	// Double destroy must not panic.
	sb.Destroy()
}

func TestRandomLength(t *testing.T) {
	sb, err := Random(32)
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	defer sb.Destroy()
	if sb.Len() != 32 {
		t.Errorf("Len() = %d, want 32", sb.Len())
	}
}

func TestRandomEntropy(t *testing.T) {
	sb, err := Random(65536)
	if err != nil {
		t.Fatalf("Random() error = %v", err)
	}
	defer sb.Destroy()

	entropy := shannonEntropy(sb.Expose())
	if entropy <= 7.99 {
		t.Errorf("Shannon entropy = %f, want > 7.99 bits/byte", entropy)
	}
}

func shannonEntropy(data []byte) float64 {
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	n := float64(len(data))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func TestDisableCoreDumpsIdempotent(t *testing.T) {
	if err := DisableCoreDumps(); err != nil {
		t.Logf("DisableCoreDumps() best-effort error (ignored): %v", err)
	}
	if err := DisableCoreDumps(); err != nil {
		t.Logf("DisableCoreDumps() second call best-effort error (ignored): %v", err)
	}
}
