package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/passwords"
)

func passwordCmd(app *appContext) *cobra.Command {
	var length int
	var lower, upper, digits, symbols, excludeAmbiguous bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random, CSPRNG-drawn charset password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := passwords.CharsetConfig{
				Lowercase:        lower,
				Uppercase:        upper,
				Digits:           digits,
				Symbols:          symbols,
				ExcludeAmbiguous: excludeAmbiguous,
			}
			secret, err := passwords.GenerateRandomPassword(length, cfg)
			if err != nil {
				return fmt.Errorf("generate password: %w", err)
			}
			defer secret.Destroy()

			fmt.Println(string(secret.Expose()))
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "length", 20, "password length")
	cmd.Flags().BoolVar(&lower, "lower", true, "include lowercase letters")
	cmd.Flags().BoolVar(&upper, "upper", true, "include uppercase letters")
	cmd.Flags().BoolVar(&digits, "digits", true, "include digits")
	cmd.Flags().BoolVar(&symbols, "symbols", true, "include symbols")
	cmd.Flags().BoolVar(&excludeAmbiguous, "exclude-ambiguous", false, "exclude characters that look alike (0/O, 1/l/I)")
	return cmd
}

func passphraseCmd(app *appContext) *cobra.Command {
	var wordCount int
	var separator string
	var capitalise, withNumber bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a diceware-style passphrase from the EFF large wordlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			n := wordCount
			if n == 0 {
				n = app.settings.DefaultWordCount
			}
			sep := separator
			if sep == "" {
				sep = app.settings.DefaultSeparator
			}

			secret, err := passwords.GeneratePassphrase(n, sep, capitalise, withNumber)
			if err != nil {
				return fmt.Errorf("generate passphrase: %w", err)
			}
			defer secret.Destroy()

			fmt.Println(string(secret.Expose()))
			return nil
		},
	}

	cmd.Flags().IntVar(&wordCount, "words", 0, "number of words (0 uses the configured default)")
	cmd.Flags().StringVar(&separator, "separator", "", "word separator (empty uses the configured default)")
	cmd.Flags().BoolVar(&capitalise, "capitalise", false, "capitalise the first letter of each word")
	cmd.Flags().BoolVar(&withNumber, "with-number", false, "append a random digit")
	return cmd
}
