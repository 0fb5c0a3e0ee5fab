package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/bip39"
)

var mnemonicLanguages = map[string]bip39.Language{
	"english":             bip39.English,
	"italian":             bip39.Italian,
	"portuguese":          bip39.Portuguese,
	"french":              bip39.French,
	"spanish":             bip39.Spanish,
	"czech":               bip39.Czech,
	"japanese":            bip39.Japanese,
	"korean":              bip39.Korean,
	"chinese_simplified":  bip39.ChineseSimplified,
	"chinese_traditional": bip39.ChineseTraditional,
}

func parseLanguage(name string) (bip39.Language, error) {
	lang, ok := mnemonicLanguages[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown language %q", name)
	}
	return lang, nil
}

func mnemonicValidateCmd(app *appContext) *cobra.Command {
	var phrase, language string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a BIP39 mnemonic phrase's word membership and checksum",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLanguage(language)
			if err != nil {
				return err
			}
			words := strings.Fields(phrase)

			ok, err := bip39.ValidatePhrase(words, lang)
			if err != nil {
				return fmt.Errorf("validate phrase: %w", err)
			}
			if ok {
				printSuccess("valid mnemonic")
				return nil
			}
			return fmt.Errorf("invalid mnemonic: bad word count, unknown word, or checksum mismatch")
		},
	}

	cmd.Flags().StringVar(&phrase, "phrase", "", "space-separated mnemonic words")
	cmd.Flags().StringVar(&language, "language", "english", "wordlist language")
	cmd.MarkFlagRequired("phrase")
	return cmd
}

func mnemonicSuggestCmd(app *appContext) *cobra.Command {
	var prefix, language string
	var max int

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest completions for a word prefix in a BIP39 wordlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLanguage(language)
			if err != nil {
				return err
			}
			wl, err := bip39.Load(lang)
			if err != nil {
				return fmt.Errorf("load wordlist: %w", err)
			}

			for _, w := range wl.SuggestWords(prefix, max) {
				fmt.Println(w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "word prefix to complete")
	cmd.Flags().StringVar(&language, "language", "english", "wordlist language")
	cmd.Flags().IntVar(&max, "max", 10, "maximum number of suggestions")
	return cmd
}
