// Package unlockpace paces repeated unlock attempts against a vault,
// combining an in-process token-bucket limiter (so a tight retry loop
// within one run cannot hammer the KDF) with a persisted exponential
// backoff derived from VaultHeader's own attempt counters (so the pacing
// survives the CLI exiting and being re-invoked).
package unlockpace

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/verrou-vault/verrou-core/internal/envelope"
	"github.com/verrou-vault/verrou-core/internal/vaulterr"
)

const (
	// tokenInterval is how often the in-process bucket refills one token.
	tokenInterval = 500 * time.Millisecond
	// burst caps how many attempts a single process run may make back to
	// back before the in-process limiter starts blocking.
	burst = 3
	// backoffBase is the minimum cooldown enforced after the first failed
	// attempt; it doubles per additional failure up to backoffCap.
	backoffBase = 1 * time.Second
	// backoffCap is the longest cooldown the persisted backoff ever demands.
	backoffCap = 5 * time.Minute
)

// Pacer rate-limits unlock attempts for the lifetime of one process.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer constructs a Pacer with the package's fixed token-bucket rate.
func NewPacer() *Pacer {
	return &Pacer{limiter: rate.NewLimiter(rate.Every(tokenInterval), burst)}
}

// Backoff returns the minimum cooldown a header's failure history demands
// before another unlock attempt is allowed, doubling per attempt on top
// of backoffBase and saturating at backoffCap.
func Backoff(header envelope.VaultHeader) time.Duration {
	if header.UnlockAttempts == 0 {
		return 0
	}
	shift := header.UnlockAttempts - 1
	if shift > 20 {
		shift = 20 // avoid overflowing the duration multiplication
	}
	backoff := backoffBase << shift
	if backoff > backoffCap || backoff <= 0 {
		return backoffCap
	}
	return backoff
}

// Allow reports whether another unlock attempt may proceed right now,
// checking both the persisted backoff (derived from UnlockAttempts and
// LastAttemptAt) and this process's in-memory token bucket.
func (p *Pacer) Allow(header envelope.VaultHeader, now time.Time) (bool, error) {
	if header.HasLastAttemptAt {
		elapsed := now.Sub(time.Unix(header.LastAttemptAt, 0))
		if elapsed < Backoff(header) {
			return false, nil
		}
	}
	if !p.limiter.AllowN(now, 1) {
		return false, nil
	}
	return true, nil
}

// RecordAttempt updates header's bookkeeping fields after an unlock
// attempt: a success resets the failure streak; a failure increments it
// and stamps the attempt time so the next Allow call enforces backoff.
func RecordAttempt(header *envelope.VaultHeader, now time.Time, success bool) error {
	if header == nil {
		return vaulterr.New(vaulterr.VaultFormat, "nil vault header")
	}
	header.HasLastAttemptAt = true
	header.LastAttemptAt = now.Unix()
	if success {
		header.TotalUnlockCount++
		header.UnlockAttempts = 0
		return nil
	}
	header.UnlockAttempts++
	return nil
}
