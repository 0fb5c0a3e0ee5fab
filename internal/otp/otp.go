// Package otp implements RFC 4226 HOTP and RFC 6238 TOTP one-time codes,
// with constant-time validation over a ±1 time-step window.
package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// Algorithm selects the HMAC hash function backing HOTP/TOTP generation.
type Algorithm int

const (
	SHA1 Algorithm = iota
	SHA256
	SHA512
)

func (a Algorithm) newHash() (func() hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New, nil
	case SHA256:
		return sha256.New, nil
	case SHA512:
		return sha512.New, nil
	default:
		return nil, vaulterr.New(vaulterr.Otp, "unknown algorithm")
	}
}

// Digits is the length of the generated numeric code.
type Digits int

const (
	Six   Digits = 6
	Eight Digits = 8
)

var digitsMod = map[Digits]uint32{
	Six:   1_000_000,
	Eight: 100_000_000,
}

// GenerateHOTP implements RFC 4226 §5.3: an HMAC over the big-endian
// 8-byte counter, truncated per the RFC's dynamic-truncation algorithm,
// rendered as a zero-padded decimal string of exactly digits characters.
func GenerateHOTP(secret []byte, counter uint64, digits Digits, alg Algorithm) (string, error) {
	mod, ok := digitsMod[digits]
	if !ok {
		return "", vaulterr.New(vaulterr.Otp, "digits must be Six or Eight")
	}
	newHash, err := alg.newHash()
	if err != nil {
		return "", err
	}

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(newHash, secret)
	mac.Write(counterBytes[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := (uint32(sum[offset]&0x7f) << 24) |
		(uint32(sum[offset+1]) << 16) |
		(uint32(sum[offset+2]) << 8) |
		uint32(sum[offset+3])

	code := truncated % mod
	return fmt.Sprintf("%0*d", int(digits), code), nil
}

// GenerateTOTP implements RFC 6238: it is HOTP evaluated at the time
// counter floor(timeS / periodS).
func GenerateTOTP(secret []byte, timeS int64, digits Digits, periodS int64, alg Algorithm) (string, error) {
	if periodS <= 0 {
		return "", vaulterr.New(vaulterr.Otp, "period must be positive")
	}
	counter := uint64(timeS / periodS)
	return GenerateHOTP(secret, counter, digits, alg)
}

// ValidateTOTP reports whether candidate matches the TOTP code at timeS,
// timeS-periodS, or timeS+periodS (a ±1 time-step window to tolerate
// clock skew). Every candidate in the window is computed and compared,
// and the comparisons are combined without short-circuiting, so neither
// which step matched nor how many leading characters matched is
// observable from timing.
func ValidateTOTP(secret []byte, timeS int64, candidate string, digits Digits, periodS int64, alg Algorithm) (bool, error) {
	if periodS <= 0 {
		return false, vaulterr.New(vaulterr.Otp, "period must be positive")
	}

	candidateBytes := []byte(candidate)
	matched := 0

	for _, offset := range [3]int64{-1, 0, 1} {
		expected, err := GenerateTOTP(secret, timeS+offset*periodS, digits, periodS, alg)
		if err != nil {
			return false, err
		}
		matched |= constantTimeEqual([]byte(expected), candidateBytes)
	}

	return matched == 1, nil
}

// constantTimeEqual compares a and b without leaking, via timing, how many
// leading bytes match. A length mismatch returns 0 immediately, so only
// whether the lengths differ is observable.
func constantTimeEqual(a, b []byte) int {
	if len(a) != len(b) {
		return 0
	}
	return subtle.ConstantTimeCompare(a, b)
}
