// Package passwords generates high-entropy secrets for humans: charset
// passwords via rejection-sampled CSPRNG draws, and diceware-style
// passphrases drawn from the embedded EFF large wordlist.
package passwords

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
	"github.com/verrou-vault/verrou-core/internal/wordlistdata"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()-_=+[]{};:,.<>?"
	// ambiguous characters that look alike across common fonts, excluded
	// when CharsetConfig.ExcludeAmbiguous is set.
	ambiguous = "0O1lI"
)

// CharsetConfig toggles which character classes generate_random_password
// draws from.
type CharsetConfig struct {
	Lowercase        bool
	Uppercase        bool
	Digits           bool
	Symbols          bool
	ExcludeAmbiguous bool
}

// buildCharset assembles the concrete alphabet for cfg, stripping
// ambiguous characters if requested.
func buildCharset(cfg CharsetConfig) (string, error) {
	var b strings.Builder
	if cfg.Lowercase {
		b.WriteString(lowercase)
	}
	if cfg.Uppercase {
		b.WriteString(uppercase)
	}
	if cfg.Digits {
		b.WriteString(digits)
	}
	if cfg.Symbols {
		b.WriteString(symbols)
	}
	charset := b.String()
	if cfg.ExcludeAmbiguous {
		charset = strings.Map(func(r rune) rune {
			if strings.ContainsRune(ambiguous, r) {
				return -1
			}
			return r
		}, charset)
	}
	if len(charset) == 0 {
		return "", vaulterr.New(vaulterr.PasswordGeneration, "charset configuration selects no characters")
	}
	return charset, nil
}

// randomIndex draws a single uniform index in [0, n) from the CSPRNG via
// rejection sampling: a raw byte draw is rejected whenever it falls at or
// above the largest multiple of n that fits in 256, which would otherwise
// bias the low indices.
func randomIndex(n int) (int, error) {
	if n <= 0 || n > 256 {
		return 0, vaulterr.New(vaulterr.PasswordGeneration, "charset length must be in (0, 256]")
	}
	limit := byte((256 / n) * n)
	var buf [1]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, vaulterr.Wrap(vaulterr.PasswordGeneration, "read csprng byte", err)
		}
		if limit != 0 && buf[0] >= limit {
			continue
		}
		return int(buf[0]) % n, nil
	}
}

// GenerateRandomPassword draws length characters from the charset
// described by cfg, using rejection sampling to keep the distribution
// uniform regardless of charset length.
func GenerateRandomPassword(length int, cfg CharsetConfig) (*securemem.SecretBuffer, error) {
	if length <= 0 {
		return nil, vaulterr.New(vaulterr.PasswordGeneration, "length must be positive")
	}
	charset, err := buildCharset(cfg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	defer securemem.Zero(out)
	for i := range out {
		idx, err := randomIndex(len(charset))
		if err != nil {
			return nil, err
		}
		out[i] = charset[idx]
	}

	sb, err := securemem.New(out)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.PasswordGeneration, "allocate secret buffer", err)
	}
	return sb, nil
}

// DefaultPassphraseWordCount is the default number of words
// generate_passphrase draws when the caller does not specify one.
const DefaultPassphraseWordCount = 6

// effRejectionLimit is the bound at or above which a uniform 16-bit draw
// is rejected: floor(65536/7776)*7776 = 62208, matching the contract's
// "reject >= 7776*8" rule.
const effRejectionLimit = wordlistdata.EFFLargeWordlistSize * 8

// randomEFFIndex draws a single uniform index in [0, 7776) from a 16-bit
// CSPRNG draw, rejecting draws at or above effRejectionLimit.
func randomEFFIndex() (int, error) {
	var buf [2]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, vaulterr.Wrap(vaulterr.PasswordGeneration, "read csprng bytes", err)
		}
		v := int(buf[0])<<8 | int(buf[1])
		if v >= effRejectionLimit {
			continue
		}
		return v % wordlistdata.EFFLargeWordlistSize, nil
	}
}

// GeneratePassphrase draws wordCount words from the EFF large wordlist,
// joined by separator, optionally capitalising each word and appending a
// random single digit. wordCount <= 0 uses DefaultPassphraseWordCount.
func GeneratePassphrase(wordCount int, separator string, capitalise, withNumber bool) (*securemem.SecretBuffer, error) {
	if wordCount <= 0 {
		wordCount = DefaultPassphraseWordCount
	}

	words := wordlistdata.Load("eff_large")
	if len(words) != wordlistdata.EFFLargeWordlistSize {
		return nil, vaulterr.New(vaulterr.PasswordGeneration, "eff large wordlist must contain exactly 7776 entries")
	}

	chosen := make([]string, wordCount)
	for i := range chosen {
		idx, err := randomEFFIndex()
		if err != nil {
			return nil, err
		}
		word := words[idx]
		if capitalise {
			word = strings.ToUpper(word[:1]) + word[1:]
		}
		chosen[i] = word
	}

	passphrase := strings.Join(chosen, separator)
	if withNumber {
		digitIdx, err := randomIndex(len(digits))
		if err != nil {
			return nil, err
		}
		passphrase = fmt.Sprintf("%s%s%c", passphrase, separator, digits[digitIdx])
	}

	out := []byte(passphrase)
	defer securemem.Zero(out)

	sb, err := securemem.New(out)
	if err != nil {
		return nil, vaulterr.Wrap(vaulterr.PasswordGeneration, "allocate secret buffer", err)
	}
	return sb, nil
}
