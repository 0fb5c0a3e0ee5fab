// Package clihelp formats sizes, durations, and timestamps the way
// cmd/verroutool presents them to a human at a terminal — byte counts in
// IEC units, durations rounded to something readable, and timestamps as a
// relative "how long ago" string.
package clihelp

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatEnvelopeSize renders a .verrou blob's byte length using IEC binary
// units, matching how the CLI reports padded envelope sizes.
func FormatEnvelopeSize(bytes int64) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatChunkSize renders a transfer chunk size using SI decimal units,
// matching the convention QR/offline transfer instructions quote payload
// sizes in.
func FormatChunkSize(bytes int) string {
	if bytes < 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatCooldown renders an unlockpace backoff duration the way a CLI
// error message should: "try again in 4 seconds", not "try again in 4.000000s".
func FormatCooldown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	return humanize.RelTime(time.Now(), time.Now().Add(d), "", "")
}

// FormatLastAttempt renders a unix timestamp as a relative "time ago"
// string for display next to VaultHeader.LastAttemptAt.
func FormatLastAttempt(unixSeconds int64) string {
	return humanize.Time(time.Unix(unixSeconds, 0))
}

// FormatCalibrationDuration renders a KDF calibration run's measured
// wall-clock duration, rounded for human display.
func FormatCalibrationDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
