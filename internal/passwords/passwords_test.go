package passwords

import (
	"strings"
	"testing"
)

func TestGenerateRandomPasswordLength(t *testing.T) {
	cfg := CharsetConfig{Lowercase: true, Uppercase: true, Digits: true}
	sb, err := GenerateRandomPassword(20, cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPassword() error = %v", err)
	}
	defer sb.Destroy()
	if len(sb.Expose()) != 20 {
		t.Errorf("len(password) = %d, want 20", len(sb.Expose()))
	}
}

func TestGenerateRandomPasswordHonoursCharset(t *testing.T) {
	cfg := CharsetConfig{Digits: true}
	sb, err := GenerateRandomPassword(50, cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPassword() error = %v", err)
	}
	defer sb.Destroy()
	for _, c := range sb.Expose() {
		if !strings.ContainsRune(digits, rune(c)) {
			t.Errorf("password contains non-digit character %q", c)
		}
	}
}

func TestGenerateRandomPasswordExcludesAmbiguous(t *testing.T) {
	cfg := CharsetConfig{Lowercase: true, Uppercase: true, Digits: true, ExcludeAmbiguous: true}
	sb, err := GenerateRandomPassword(500, cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPassword() error = %v", err)
	}
	defer sb.Destroy()
	for _, c := range sb.Expose() {
		if strings.ContainsRune(ambiguous, rune(c)) {
			t.Errorf("password contains excluded ambiguous character %q", c)
		}
	}
}

func TestGenerateRandomPasswordRejectsEmptyCharset(t *testing.T) {
	if _, err := GenerateRandomPassword(10, CharsetConfig{}); err == nil {
		t.Error("GenerateRandomPassword() with no charset toggles succeeded, want error")
	}
}

func TestGenerateRandomPasswordRejectsNonPositiveLength(t *testing.T) {
	cfg := CharsetConfig{Lowercase: true}
	if _, err := GenerateRandomPassword(0, cfg); err == nil {
		t.Error("GenerateRandomPassword(0) succeeded, want error")
	}
}

func TestGeneratePassphraseDefaultWordCount(t *testing.T) {
	sb, err := GeneratePassphrase(0, "-", false, false)
	if err != nil {
		t.Fatalf("GeneratePassphrase() error = %v", err)
	}
	defer sb.Destroy()
	words := strings.Split(string(sb.Expose()), "-")
	if len(words) != DefaultPassphraseWordCount {
		t.Errorf("word count = %d, want %d", len(words), DefaultPassphraseWordCount)
	}
}

func TestGeneratePassphraseCapitalise(t *testing.T) {
	sb, err := GeneratePassphrase(4, "-", true, false)
	if err != nil {
		t.Fatalf("GeneratePassphrase() error = %v", err)
	}
	defer sb.Destroy()
	for _, w := range strings.Split(string(sb.Expose()), "-") {
		if w == "" {
			continue
		}
		if w[0] < 'A' || w[0] > 'Z' {
			t.Errorf("word %q not capitalised", w)
		}
	}
}

func TestGeneratePassphraseWithNumberAppendsDigit(t *testing.T) {
	sb, err := GeneratePassphrase(3, "-", false, true)
	if err != nil {
		t.Fatalf("GeneratePassphrase() error = %v", err)
	}
	defer sb.Destroy()
	parts := strings.Split(string(sb.Expose()), "-")
	if len(parts) != 4 {
		t.Fatalf("parts = %d, want 4 (3 words + trailing number)", len(parts))
	}
	last := parts[len(parts)-1]
	if len(last) != 1 || !strings.ContainsRune(digits, rune(last[0])) {
		t.Errorf("trailing segment %q is not a single digit", last)
	}
}
