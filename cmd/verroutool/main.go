// Package main provides the CLI entry point for verroutool, a demo and
// operator shell around the Verrou vault crypto core. It is intentionally
// thin: every cryptographic decision lives in internal/, this package only
// parses flags, reads/writes files, and prints results.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/logging"
	"github.com/verrou-vault/verrou-core/internal/recovery"
)

// Version is set at build time via ldflags; "dev" falls back to the VCS
// revision embedded by the Go build system, same trick the teacher's
// sysinfo package uses for its own dev builds.
var Version = "dev"

func init() {
	if Version == "dev" {
		Version = devVersion()
	}
}

func devVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
			return "dev-" + setting.Value[:7]
		}
	}
	return "dev"
}

func main() {
	var logLevel, logFormat, settingsPath, metricsAddr string

	rootCmd := &cobra.Command{
		Use:     "verroutool",
		Short:   "Verrou vault crypto core — command-line operator shell",
		Version: Version,
		Long: `verroutool exercises the Verrou crypto core from a terminal:
creating and opening .verrou envelopes, generating passwords and
passphrases, provisioning and validating OTP codes, checking BIP39
mnemonics, running offline key-transfer chunking, and calibrating the
Argon2id KDF for the host it runs on.

It is a reference shell over internal/, not a full password manager:
there is no entry store, sync, or UI beyond this terminal.`,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", defaultSettingsPath(), "path to verroutool's own settings file")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "if set, expose Prometheus metrics on this address (e.g. 127.0.0.1:9090) for the lifetime of the command")

	rootCmd.AddGroup(
		&cobra.Group{ID: "vault", Title: "Vault:"},
		&cobra.Group{ID: "secrets", Title: "Secret Generation:"},
		&cobra.Group{ID: "auth", Title: "Unlock Credentials:"},
		&cobra.Group{ID: "transfer", Title: "Offline Key Transfer:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
	)

	app := &appContext{metrics: newCLIMetrics()}

	addGrouped := func(cmd *cobra.Command, group string) {
		cmd.GroupID = group
		rootCmd.AddCommand(cmd)
	}

	// nested groups with more than one leaf get a parent command the leaves
	// attach to via AddCommand, the same nesting the teacher uses for its
	// "service install/uninstall/status" and "cert ca/agent/client/info"
	// command families.
	parent := func(use, short string) *cobra.Command {
		return &cobra.Command{Use: use, Short: short}
	}

	envelopeCmd := parent("envelope", "Create, open, and inspect .verrou envelopes")
	envelopeCmd.AddCommand(envelopeCreateCmd(app), envelopeOpenCmd(app), envelopeInspectCmd(app), envelopeWizardCmd(app))
	addGrouped(envelopeCmd, "vault")

	slotCmd := parent("slot", "Manage credential slots on an existing envelope")
	slotCmd.AddCommand(slotAddCmd(app))
	addGrouped(slotCmd, "vault")

	passwordCmdParent := parent("password", "Generate random passwords")
	passwordCmdParent.AddCommand(passwordCmd(app))
	addGrouped(passwordCmdParent, "secrets")

	passphraseCmdParent := parent("passphrase", "Generate diceware-style passphrases")
	passphraseCmdParent.AddCommand(passphraseCmd(app))
	addGrouped(passphraseCmdParent, "secrets")

	mnemonicCmd := parent("mnemonic", "Validate and autocomplete BIP39 mnemonics")
	mnemonicCmd.AddCommand(mnemonicValidateCmd(app), mnemonicSuggestCmd(app))
	addGrouped(mnemonicCmd, "secrets")

	otpCmd := parent("otp", "Provision and validate TOTP/HOTP codes")
	otpCmd.AddCommand(otpProvisionCmd(app), otpValidateCmd(app))
	addGrouped(otpCmd, "auth")

	recoveryCmd := parent("recovery", "Generate and redeem human-copyable recovery codes")
	recoveryCmd.AddCommand(recoveryGenerateCmd(app), recoveryRedeemCmd(app))
	addGrouped(recoveryCmd, "auth")

	biometricCmd := parent("biometric", "Enroll and unlock with a biometric/hardware token slot")
	biometricCmd.AddCommand(biometricEnrollCmd(app), biometricUnlockCmd(app))
	addGrouped(biometricCmd, "auth")

	transferCmd := parent("transfer", "Chunk and reassemble envelopes for offline/QR key transfer")
	transferCmd.AddCommand(transferChunkCmd(app), transferAssembleCmd(app), transferKeypairCmd(app), transferVerifyCmd(app))
	addGrouped(transferCmd, "transfer")

	kemCmd := parent("kem", "Hybrid X25519 / ML-KEM-1024 keypairs and sealed encryption")
	kemCmd.AddCommand(kemKeypairCmd(app), kemEncryptCmd(app), kemDecryptCmd(app))
	addGrouped(kemCmd, "admin")

	signCmdParent := parent("sign", "Hybrid Ed25519 / ML-DSA-65 signing keypairs and signatures")
	signCmdParent.AddCommand(signKeypairCmd(app), signCmd(app))
	addGrouped(signCmdParent, "admin")

	addGrouped(calibrateCmd(app), "admin")
	addGrouped(verifyCmd(app), "admin")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.logger = logging.NewLogger(logLevel, logFormat)

		settings, err := loadSettings(settingsPath)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		app.settings = settings

		if metricsAddr != "" {
			ctx, cancel := context.WithCancel(context.Background())
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				defer recovery.RecoverWithLog(app.logger, "signal-watcher")
				<-sigCh
				cancel()
			}()
			go func() {
				defer recovery.RecoverWithLog(app.logger, "metrics-server")
				if err := serveMetrics(ctx, app.logger, metricsAddr); err != nil {
					app.logger.Error("metrics server stopped", "error", err)
				}
			}()
		}
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// appContext carries the shared, request-scoped dependencies every
// subcommand needs: a logger, the CLI's own settings, and the metrics
// registry. Passed explicitly rather than via globals so tests could
// construct an isolated appContext per case.
type appContext struct {
	logger   *slog.Logger
	settings *Settings
	metrics  *cliMetrics
}
