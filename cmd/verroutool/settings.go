package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/verrou-vault/verrou-core/internal/kdf"
)

// Settings holds cmd/verroutool's own preferences, persisted as YAML next
// to the vaults it manages. It never stores secrets — only the defaults
// the CLI falls back to when a flag is omitted.
type Settings struct {
	DefaultTier       string `yaml:"default_tier"`
	DefaultWordCount  int    `yaml:"default_passphrase_words"`
	DefaultSeparator  string `yaml:"default_passphrase_separator"`
	DefaultOtpDigits  int    `yaml:"default_otp_digits"`
	DefaultOtpPeriodS int64  `yaml:"default_otp_period_seconds"`
}

// defaultSettings mirrors the conservative defaults spec §4.9/§4.7 describe.
func defaultSettings() *Settings {
	return &Settings{
		DefaultTier:       "balanced",
		DefaultWordCount:  6,
		DefaultSeparator:  "-",
		DefaultOtpDigits:  6,
		DefaultOtpPeriodS: 30,
	}
}

// loadSettings reads path if it exists, overlaying values onto the
// defaults; a missing file is not an error, matching the CLI's stance that
// settings are optional polish, never a hard requirement to operate.
func loadSettings(path string) (*Settings, error) {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	return s, nil
}

// tierParams maps a named preset tier to the matching field of presets. An
// unknown tier name is an error; there is no fallback tier.
func tierParams(presets kdf.Presets, tier string) (kdf.Params, error) {
	switch tier {
	case "fast":
		return presets.Fast, nil
	case "balanced":
		return presets.Balanced, nil
	case "maximum":
		return presets.Maximum, nil
	default:
		return kdf.Params{}, fmt.Errorf("unknown tier %q (want fast, balanced, or maximum)", tier)
	}
}

// defaultSettingsPath returns the settings file the CLI reads when
// --settings isn't given: a dotfile next to the current working directory,
// matching the teacher's convention of defaulting config paths to "./*.yaml".
func defaultSettingsPath() string {
	return filepath.Join(".", ".verroutool.yaml")
}
