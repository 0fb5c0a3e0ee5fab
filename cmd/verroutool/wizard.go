package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/securemem"
)

// envelopeWizardCmd walks a first-time user through creating a vault with
// huh prompts instead of flags, the same interactive-setup idiom the
// teacher's own CLI offers for its mesh-agent config, scoped here to the
// three decisions vault creation actually needs: where to put the payload,
// where to write the envelope, and how much Argon2id cost to spend.
func envelopeWizardCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Interactively create a new .verrou envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			var inPath, outPath, tier, password, confirmPassword string

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Payload file to protect (leave empty for none)").
						Value(&inPath),
					huh.NewInput().
						Title("Where to write the envelope").
						Value(&outPath).
						Placeholder("vault.verrou"),
					huh.NewSelect[string]().
						Title("Argon2id cost tier").
						Options(
							huh.NewOption("fast (~250ms)", "fast"),
							huh.NewOption("balanced (~500ms)", "balanced"),
							huh.NewOption("maximum (~1.5s)", "maximum"),
						).
						Value(&tier),
					huh.NewInput().
						Title("Vault password").
						EchoMode(huh.EchoModePassword).
						Value(&password),
					huh.NewInput().
						Title("Confirm password").
						EchoMode(huh.EchoModePassword).
						Value(&confirmPassword),
				),
			)

			if err := form.Run(); err != nil {
				return fmt.Errorf("wizard cancelled: %w", err)
			}

			if outPath == "" {
				outPath = "vault.verrou"
			}
			if password != confirmPassword {
				return fmt.Errorf("passwords did not match")
			}

			pw := []byte(password)
			defer securemem.Zero(pw)

			printBanner("Creating vault")
			return createEnvelope(app, inPath, outPath, tier, pw)
		},
	}
	return cmd
}
