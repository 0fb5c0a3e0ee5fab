package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verrou-vault/verrou-core/internal/clihelp"
	"github.com/verrou-vault/verrou-core/internal/envelope"
	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
)

// readPassword reads a secret from the controlling terminal without
// echoing it, falling back to a plain line read when stdin isn't a TTY
// (piped input in scripts/tests).
func readPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("read password from stdin: %w", err)
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// createEnvelope builds a new single-password-slot envelope and writes it
// to outPath. Factored out of envelopeCreateCmd so the interactive wizard
// (wizard.go's envelopeWizardCmd) can drive the same logic after collecting
// its answers through huh instead of flags.
func createEnvelope(app *appContext, inPath, outPath, tier string, password []byte) error {
	payload := []byte{}
	if inPath != "" {
		data, err := os.ReadFile(inPath)
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		payload = data
	}

	presets, err := kdf.Calibrate()
	if err != nil {
		return fmt.Errorf("calibrate KDF: %w", err)
	}
	sessionParams, err := tierParams(presets, tier)
	if err != nil {
		return err
	}

	salt, err := securemem.Random(kdf.MinSaltLen)
	if err != nil {
		return fmt.Errorf("draw salt: %w", err)
	}
	defer salt.Destroy()

	wrapping, err := kdf.Derive(password, salt.Expose(), sessionParams)
	if err != nil {
		return fmt.Errorf("derive wrapping key: %w", err)
	}
	defer wrapping.Destroy()

	master, err := securemem.Random(32)
	if err != nil {
		return fmt.Errorf("draw master key: %w", err)
	}
	defer master.Destroy()

	slot, err := slots.CreateSlot(master.Expose(), wrapping.Expose(), slots.Password)
	if err != nil {
		return fmt.Errorf("create password slot: %w", err)
	}

	header := envelope.VaultHeader{
		Version:         1,
		SlotCount:       1,
		SessionParams:   sessionParams,
		SensitiveParams: presets.Maximum,
		Slots:           []slots.KeySlot{slot},
		SlotSalts:       [][]byte{salt.Expose()},
	}

	blob, err := envelope.Serialize(header, payload, master.Expose())
	if err != nil {
		return fmt.Errorf("serialize envelope: %w", err)
	}

	if err := os.WriteFile(outPath, blob, 0o600); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}

	app.metrics.EnvelopesCreated.Inc()
	printSuccess(fmt.Sprintf("created %s (%s)", outPath, clihelp.FormatEnvelopeSize(int64(len(blob)))))
	return nil
}

func envelopeCreateCmd(app *appContext) *cobra.Command {
	var inPath, outPath, tier string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new .verrou envelope protected by a password slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword("Vault password: ")
			if err != nil {
				return err
			}
			defer securemem.Zero(password)

			return createEnvelope(app, inPath, outPath, tier, password)
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the payload to protect (omit for an empty payload)")
	cmd.Flags().StringVar(&outPath, "out", "vault.verrou", "path to write the .verrou envelope")
	cmd.Flags().StringVar(&tier, "tier", "balanced", "Argon2id preset tier for the password slot: fast, balanced, maximum")
	return cmd
}

func envelopeOpenCmd(app *appContext) *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a .verrou envelope's first password slot and print or save the payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}

			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			slotIdx, salt, err := firstSlotOfType(header, slots.Password)
			if err != nil {
				return err
			}

			password, err := readPassword("Vault password: ")
			if err != nil {
				return err
			}
			defer securemem.Zero(password)

			wrapping, err := kdf.Derive(password, salt, header.SessionParams)
			if err != nil {
				return fmt.Errorf("derive wrapping key: %w", err)
			}
			defer wrapping.Destroy()

			master, err := slots.UnwrapSlot(header.Slots[slotIdx], wrapping.Expose())
			if err != nil {
				return fmt.Errorf("unwrap password slot (wrong password?): %w", err)
			}
			defer master.Destroy()

			_, payload, err := envelope.Deserialize(blob, master.Expose())
			if err != nil {
				return fmt.Errorf("open envelope payload: %w", err)
			}
			defer payload.Destroy()

			app.metrics.EnvelopesOpened.Inc()

			if outPath != "" {
				if err := os.WriteFile(outPath, payload.Expose(), 0o600); err != nil {
					return fmt.Errorf("write payload: %w", err)
				}
				printSuccess(fmt.Sprintf("wrote payload to %s", outPath))
				return nil
			}

			os.Stdout.Write(payload.Expose())
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "vault.verrou", "path to the .verrou envelope")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the recovered payload (default: stdout)")
	return cmd
}

func envelopeInspectCmd(app *appContext) *cobra.Command {
	var inPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print an envelope's header metadata without unlocking it",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}
			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			printHeader(fmt.Sprintf("%s — version %d", inPath, header.Version))
			fmt.Printf("size: %s\n", clihelp.FormatEnvelopeSize(int64(len(blob))))
			fmt.Printf("slots: %d\n", header.SlotCount)
			for i, slot := range header.Slots {
				fmt.Printf("  [%d] %s\n", i, slot.SlotType)
			}
			fmt.Printf("unlock attempts since last success: %d\n", header.UnlockAttempts)
			if header.HasLastAttemptAt {
				fmt.Printf("last attempt: %s\n", clihelp.FormatLastAttempt(header.LastAttemptAt))
			}
			fmt.Printf("total successful unlocks: %d\n", header.TotalUnlockCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "vault.verrou", "path to the .verrou envelope")
	return cmd
}

// firstSlotOfType locates the first slot of the given type and returns its
// index plus the matching salt, or an error if the envelope has none.
func firstSlotOfType(header envelope.VaultHeader, want slots.SlotType) (int, []byte, error) {
	for i, slot := range header.Slots {
		if slot.SlotType == want {
			return i, header.SlotSalts[i], nil
		}
	}
	return 0, nil, fmt.Errorf("envelope has no %s slot", want)
}

func slotAddCmd(app *appContext) *cobra.Command {
	var inPath, outPath, slotType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new credential slot to an existing envelope, re-wrapping the same master key",
		Long: `Unlocks an existing envelope with its password slot, then adds a new
slot of the requested type (currently "password" is supported directly;
"biometric" and "recovery" slots are added with their own dedicated
subcommands since they need type-specific enrollment material) and
re-serializes the envelope in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if slotType != "password" {
				return fmt.Errorf("slot add only supports slot-type=password; use 'biometric enroll' or 'recovery generate' for other slot types")
			}

			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}
			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			existingIdx, existingSalt, err := firstSlotOfType(header, slots.Password)
			if err != nil {
				return err
			}

			currentPassword, err := readPassword("Current vault password: ")
			if err != nil {
				return err
			}
			defer securemem.Zero(currentPassword)

			currentWrapping, err := kdf.Derive(currentPassword, existingSalt, header.SessionParams)
			if err != nil {
				return fmt.Errorf("derive current wrapping key: %w", err)
			}
			defer currentWrapping.Destroy()

			master, err := slots.UnwrapSlot(header.Slots[existingIdx], currentWrapping.Expose())
			if err != nil {
				return fmt.Errorf("unwrap current password slot: %w", err)
			}
			defer master.Destroy()

			newPassword, err := readPassword("New password for the additional slot: ")
			if err != nil {
				return err
			}
			defer securemem.Zero(newPassword)

			newSalt, err := securemem.Random(kdf.MinSaltLen)
			if err != nil {
				return fmt.Errorf("draw salt: %w", err)
			}
			defer newSalt.Destroy()

			newWrapping, err := kdf.Derive(newPassword, newSalt.Expose(), header.SessionParams)
			if err != nil {
				return fmt.Errorf("derive new wrapping key: %w", err)
			}
			defer newWrapping.Destroy()

			newSlot, err := slots.CreateSlot(master.Expose(), newWrapping.Expose(), slots.Password)
			if err != nil {
				return fmt.Errorf("create new password slot: %w", err)
			}

			header.Slots = append(header.Slots, newSlot)
			header.SlotSalts = append(header.SlotSalts, newSalt.Expose())
			header.SlotCount = uint8(len(header.Slots))

			_, oldPayload, err := envelope.Deserialize(blob, master.Expose())
			if err != nil {
				return fmt.Errorf("re-read envelope payload: %w", err)
			}
			defer oldPayload.Destroy()

			newBlob, err := envelope.Serialize(header, oldPayload.Expose(), master.Expose())
			if err != nil {
				return fmt.Errorf("re-serialize envelope: %w", err)
			}

			target := outPath
			if target == "" {
				target = inPath
			}
			if err := os.WriteFile(target, newBlob, 0o600); err != nil {
				return fmt.Errorf("write envelope: %w", err)
			}

			app.metrics.SlotsAdded.WithLabelValues(slots.Password.String()).Inc()
			printSuccess(fmt.Sprintf("added password slot; envelope now has %d slots", header.SlotCount))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "vault.verrou", "path to the .verrou envelope")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the updated envelope (default: overwrite --in)")
	cmd.Flags().StringVar(&slotType, "slot-type", "password", "slot type to add")
	return cmd
}
