package kdf

import (
	"crypto/rand"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

// Target latencies for each preset tier.
const (
	fastTargetMS     = 250
	balancedTargetMS = 500
	maximumTargetMS  = 1500
)

// calibrationThreads is the parallelism used for every calibrated preset.
// Four lanes is a reasonable default for both laptop and desktop-class CPUs.
const calibrationThreads = 4

// baselineTime is the t_cost used for the single measurement run.
const baselineTime = 1

// Calibrate measures a short Argon2id run on the host, then scales the
// iteration count to reach three target latencies (fast ~250ms, balanced
// ~500ms, maximum ~1500ms) while holding memory at the RFC 9106-floor
// MinMemoryKiB. Every preset satisfies MemoryKiB >= MinMemoryKiB, and the
// tiers are strictly non-decreasing in Time.
func Calibrate() (Presets, error) {
	password := make([]byte, 32)
	salt := make([]byte, MinSaltLen)
	if _, err := rand.Read(password); err != nil {
		return Presets{}, vaulterr.Wrap(vaulterr.KeyDerivation, "calibration entropy draw failed", err)
	}
	if _, err := rand.Read(salt); err != nil {
		return Presets{}, vaulterr.Wrap(vaulterr.KeyDerivation, "calibration entropy draw failed", err)
	}

	start := time.Now()
	argon2.IDKey(password, salt, baselineTime, MinMemoryKiB, calibrationThreads, KeyLen)
	elapsed := time.Since(start)

	fast := scaleToTarget(elapsed, fastTargetMS)
	balanced := scaleToTarget(elapsed, balancedTargetMS)
	if balanced < fast {
		balanced = fast
	}
	maximum := scaleToTarget(elapsed, maximumTargetMS)
	if maximum < balanced {
		maximum = balanced
	}

	return Presets{
		Fast:     Params{MemoryKiB: MinMemoryKiB, Time: fast, Threads: calibrationThreads},
		Balanced: Params{MemoryKiB: MinMemoryKiB, Time: balanced, Threads: calibrationThreads},
		Maximum:  Params{MemoryKiB: MinMemoryKiB, Time: maximum, Threads: calibrationThreads},
	}, nil
}

// scaleToTarget scales baselineTime's iteration count so the derivation
// takes approximately targetMS, given that a single baseline run measured
// `elapsed`. Always returns at least 1.
func scaleToTarget(elapsed time.Duration, targetMS int64) uint32 {
	elapsedMS := elapsed.Milliseconds()
	if elapsedMS <= 0 {
		elapsedMS = 1
	}
	scaled := targetMS / elapsedMS
	if scaled < 1 {
		scaled = 1
	}
	return uint32(scaled)
}
