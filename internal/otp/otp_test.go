package otp

import (
	"math"
	"testing"
	"time"
)

// TestGenerateHOTPRFC4226Vectors checks the RFC 4226 Appendix D test
// vectors: secret "12345678901234567890" (ASCII), SHA1, 6 digits.
func TestGenerateHOTPRFC4226Vectors(t *testing.T) {
	secret := []byte("12345678901234567890")
	want := map[uint64]string{
		0: "755224",
		1: "287082",
		9: "520489",
	}
	for counter, expected := range want {
		got, err := GenerateHOTP(secret, counter, Six, SHA1)
		if err != nil {
			t.Fatalf("GenerateHOTP(counter=%d) error = %v", counter, err)
		}
		if got != expected {
			t.Errorf("GenerateHOTP(counter=%d) = %q, want %q", counter, got, expected)
		}
	}
}

// TestGenerateTOTPRFC6238Vectors checks the RFC 6238 Appendix B test
// vectors for an 8-digit code on a 30-second period. The RFC's test
// secrets are the ASCII digits "1234567890" repeated to the hash's output
// size: 20 bytes for SHA1, 32 for SHA256 and 64 for SHA512.
func TestGenerateTOTPRFC6238Vectors(t *testing.T) {
	secretSHA1 := []byte("12345678901234567890")
	secretSHA256 := []byte("12345678901234567890123456789012")
	secretSHA512 := []byte("1234567890123456789012345678901234567890123456789012345678901234")

	cases := []struct {
		name    string
		secret  []byte
		timeS   int64
		alg     Algorithm
		want    string
	}{
		{"sha1-t59", secretSHA1, 59, SHA1, "94287082"},
		{"sha256-t59", secretSHA256, 59, SHA256, "46119246"},
		{"sha512-t59", secretSHA512, 59, SHA512, "90693936"},
		{"sha1-t20000000000", secretSHA1, 20_000_000_000, SHA1, "65353130"},
	}
	for _, tc := range cases {
		got, err := GenerateTOTP(tc.secret, tc.timeS, Eight, 30, tc.alg)
		if err != nil {
			t.Fatalf("%s: GenerateTOTP() error = %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: GenerateTOTP() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGenerateTOTPMatchesHOTPAtCounter(t *testing.T) {
	secret := []byte("12345678901234567890")
	period := int64(30)
	timeS := int64(987654321)

	totp, err := GenerateTOTP(secret, timeS, Six, period, SHA1)
	if err != nil {
		t.Fatalf("GenerateTOTP() error = %v", err)
	}
	hotp, err := GenerateHOTP(secret, uint64(timeS/period), Six, SHA1)
	if err != nil {
		t.Fatalf("GenerateHOTP() error = %v", err)
	}
	if totp != hotp {
		t.Errorf("GenerateTOTP() = %q, GenerateHOTP(t/p) = %q, want equal", totp, hotp)
	}
}

func TestValidateTOTPWindow(t *testing.T) {
	secret := []byte("12345678901234567890")
	period := int64(30)
	baseTime := int64(1_700_000_000)

	current, err := GenerateTOTP(secret, baseTime, Six, period, SHA1)
	if err != nil {
		t.Fatalf("GenerateTOTP() error = %v", err)
	}
	previous, err := GenerateTOTP(secret, baseTime-period, Six, period, SHA1)
	if err != nil {
		t.Fatalf("GenerateTOTP() error = %v", err)
	}
	tooOld, err := GenerateTOTP(secret, baseTime-2*period, Six, period, SHA1)
	if err != nil {
		t.Fatalf("GenerateTOTP() error = %v", err)
	}

	if ok, err := ValidateTOTP(secret, baseTime, current, Six, period, SHA1); err != nil || !ok {
		t.Errorf("ValidateTOTP(current) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := ValidateTOTP(secret, baseTime, previous, Six, period, SHA1); err != nil || !ok {
		t.Errorf("ValidateTOTP(previous) = %v, %v, want true, nil", ok, err)
	}
	if ok, err := ValidateTOTP(secret, baseTime, tooOld, Six, period, SHA1); err != nil || ok {
		t.Errorf("ValidateTOTP(two steps old) = %v, %v, want false, nil", ok, err)
	}
	if ok, err := ValidateTOTP(secret, baseTime, "000000", Six, period, SHA1); err != nil || ok {
		t.Errorf("ValidateTOTP(garbage) = %v, %v, want false, nil", ok, err)
	}
}

// TestValidateTOTPConstantTime collects wall-clock timing samples for a
// matching and a non-matching candidate and verifies the Welch's
// t-statistic stays below the threshold the property requires, i.e. the
// comparison does not leak how many leading characters match. This is a
// statistical property over real timings, so it is skipped under -short.
func TestValidateTOTPConstantTime(t *testing.T) {
	if testing.Short() {
		t.Skip("timing statistics are slow and can flake under load; skipped with -short")
	}

	secret := []byte("12345678901234567890")
	period := int64(30)
	baseTime := int64(1_700_000_000)

	matching, err := GenerateTOTP(secret, baseTime, Six, period, SHA1)
	if err != nil {
		t.Fatalf("GenerateTOTP() error = %v", err)
	}
	nonMatching := "000000"
	if nonMatching == matching {
		nonMatching = "111111"
	}

	const samples = 10_000
	matchTimes := make([]float64, samples)
	nonMatchTimes := make([]float64, samples)

	for i := 0; i < samples; i++ {
		start := time.Now()
		_, _ = ValidateTOTP(secret, baseTime, matching, Six, period, SHA1)
		matchTimes[i] = float64(time.Since(start).Nanoseconds())

		start = time.Now()
		_, _ = ValidateTOTP(secret, baseTime, nonMatching, Six, period, SHA1)
		nonMatchTimes[i] = float64(time.Since(start).Nanoseconds())
	}

	stat := welchT(matchTimes, nonMatchTimes)
	if math.Abs(stat) >= 4.5 {
		t.Errorf("|t| = %.3f, want < 4.5 (timing of matching vs non-matching candidates diverged)", math.Abs(stat))
	}
}

func welchT(a, b []float64) float64 {
	meanA, varA := meanVar(a)
	meanB, varB := meanVar(b)
	se := math.Sqrt(varA/float64(len(a)) + varB/float64(len(b)))
	if se == 0 {
		return 0
	}
	return (meanA - meanB) / se
}

func meanVar(xs []float64) (mean, variance float64) {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))

	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	variance = sumSq / float64(len(xs)-1)
	return mean, variance
}
