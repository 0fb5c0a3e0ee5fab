package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/biometric"
	"github.com/verrou-vault/verrou-core/internal/envelope"
	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
)

// Biometric tokens in this CLI stand in for whatever a real platform's
// biometric API hands back after a successful scan (Secure Enclave,
// Android Keystore, Windows Hello) — here it is just printed as hex so a
// caller can paste it back into `biometric unlock` for testing.

func biometricEnrollCmd(app *appContext) *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Add a biometric slot to an envelope, printing the opaque enrollment token",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}
			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			pwIdx, pwSalt, err := firstSlotOfType(header, slots.Password)
			if err != nil {
				return err
			}

			password, err := readPassword("Vault password: ")
			if err != nil {
				return err
			}
			defer securemem.Zero(password)

			wrapping, err := kdf.Derive(password, pwSalt, header.SessionParams)
			if err != nil {
				return fmt.Errorf("derive wrapping key: %w", err)
			}
			defer wrapping.Destroy()

			master, err := slots.UnwrapSlot(header.Slots[pwIdx], wrapping.Expose())
			if err != nil {
				return fmt.Errorf("unwrap password slot: %w", err)
			}
			defer master.Destroy()

			slot, token, err := biometric.Enroll(master.Expose())
			if err != nil {
				return fmt.Errorf("enroll biometric slot: %w", err)
			}
			defer token.Destroy()

			header.Slots = append(header.Slots, slot)
			header.SlotSalts = append(header.SlotSalts, nil)
			header.SlotCount = uint8(len(header.Slots))

			_, payload, err := envelope.Deserialize(blob, master.Expose())
			if err != nil {
				return fmt.Errorf("re-read envelope payload: %w", err)
			}
			defer payload.Destroy()

			newBlob, err := envelope.Serialize(header, payload.Expose(), master.Expose())
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

			app.metrics.SlotsAdded.WithLabelValues(slots.Biometric.String()).Inc()
			printWarning("store this token in the platform's secure biometric store; it is not saved anywhere by verroutool")
			printSuccess(hex.EncodeToString(token.Expose()))
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "vault.verrou", "path to the .verrou envelope")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the updated envelope (default: overwrite --in)")
	return cmd
}

func biometricUnlockCmd(app *appContext) *cobra.Command {
	var inPath, outPath, tokenHex string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Open an envelope's payload using a biometric slot's enrollment token",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}
			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			bioIdx, _, err := firstSlotOfType(header, slots.Biometric)
			if err != nil {
				return err
			}

			token, err := hex.DecodeString(tokenHex)
			if err != nil {
				return fmt.Errorf("decode token: %w", err)
			}

			master, err := biometric.Unlock(header.Slots[bioIdx], token)
			if err != nil {
				return fmt.Errorf("unlock biometric slot: %w", err)
			}
			defer master.Destroy()

			_, payload, err := envelope.Deserialize(blob, master.Expose())
			if err != nil {
				return fmt.Errorf("open envelope payload: %w", err)
			}
			defer payload.Destroy()

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
	cmd.Flags().StringVar(&tokenHex, "token", "", "hex-encoded biometric enrollment token")
	cmd.MarkFlagRequired("token")
	return cmd
}
