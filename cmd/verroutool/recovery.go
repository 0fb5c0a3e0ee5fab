package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/envelope"
	"github.com/verrou-vault/verrou-core/internal/kdf"
	"github.com/verrou-vault/verrou-core/internal/recoverycode"
	"github.com/verrou-vault/verrou-core/internal/securemem"
	"github.com/verrou-vault/verrou-core/internal/slots"
)

func recoveryGenerateCmd(app *appContext) *cobra.Command {
	var inPath, outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Add a recovery-code slot to an envelope and print the human-copyable code",
		Long: `Unlocks the envelope's existing password slot, draws a fresh recovery
secret, wraps the master key under it using the envelope's sensitive
Argon2id tier, and adds a Recovery slot. The printed code is shown once —
store it offline, since it is the only record of this slot's credential.`,
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

			currentWrapping, err := kdf.Derive(password, pwSalt, header.SessionParams)
			if err != nil {
				return fmt.Errorf("derive current wrapping key: %w", err)
			}
			defer currentWrapping.Destroy()

			master, err := slots.UnwrapSlot(header.Slots[pwIdx], currentWrapping.Expose())
			if err != nil {
				return fmt.Errorf("unwrap password slot: %w", err)
			}
			defer master.Destroy()

			secret, err := recoverycode.GenerateSecret()
			if err != nil {
				return fmt.Errorf("draw recovery secret: %w", err)
			}
			defer secret.Destroy()

			recoverySalt, err := securemem.Random(kdf.MinSaltLen)
			if err != nil {
				return fmt.Errorf("draw recovery salt: %w", err)
			}
			defer recoverySalt.Destroy()

			slot, err := recoverycode.CreateRecoverySlot(master.Expose(), secret.Expose(), recoverySalt.Expose(), header.SensitiveParams)
			if err != nil {
				return fmt.Errorf("create recovery slot: %w", err)
			}

			code, err := recoverycode.Encode(secret.Expose())
			if err != nil {
				return fmt.Errorf("encode recovery code: %w", err)
			}

			header.Slots = append(header.Slots, slot)
			header.SlotSalts = append(header.SlotSalts, recoverySalt.Expose())
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

			app.metrics.SlotsAdded.WithLabelValues(slots.Recovery.String()).Inc()
			printWarning("write this code down; it will not be shown again")
			printSuccess(code)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "vault.verrou", "path to the .verrou envelope")
	cmd.Flags().StringVar(&outPath, "out", "", "path to write the updated envelope (default: overwrite --in)")
	return cmd
}

func recoveryRedeemCmd(app *appContext) *cobra.Command {
	var inPath, outPath, code string

	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Open an envelope's payload using a recovery code instead of the password",
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read envelope: %w", err)
			}
			header, err := envelope.PeekHeader(blob)
			if err != nil {
				return fmt.Errorf("parse envelope header: %w", err)
			}

			recIdx, recSalt, err := firstSlotOfType(header, slots.Recovery)
			if err != nil {
				return err
			}

			secret, err := recoverycode.Decode(code)
			if err != nil {
				app.metrics.RecoveryRedeems.Inc()
				return fmt.Errorf("decode recovery code: %w", err)
			}
			defer secret.Destroy()

			master, err := recoverycode.UnwrapRecoverySlot(header.Slots[recIdx], secret.Expose(), recSalt, header.SensitiveParams)
			app.metrics.RecoveryRedeems.Inc()
			if err != nil {
				return fmt.Errorf("unwrap recovery slot: %w", err)
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
	cmd.Flags().StringVar(&code, "code", "", "recovery code, hyphens optional")
	cmd.MarkFlagRequired("code")
	return cmd
}
