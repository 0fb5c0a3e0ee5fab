package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verrou-vault/verrou-core/internal/clihelp"
	"github.com/verrou-vault/verrou-core/internal/kdf"
)

func calibrateCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure this host and print the three Argon2id preset tiers it would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			presets, err := kdf.Calibrate()
			if err != nil {
				return fmt.Errorf("calibrate: %w", err)
			}
			elapsed := time.Since(start)

			printTier := func(name string, p kdf.Params) {
				fmt.Printf("%-9s memory=%s time=%d threads=%d\n", name, clihelp.FormatEnvelopeSize(int64(p.MemoryKiB)*1024), p.Time, p.Threads)
			}
			printTier("fast", presets.Fast)
			printTier("balanced", presets.Balanced)
			printTier("maximum", presets.Maximum)
			printInfo(fmt.Sprintf("calibration took %s", clihelp.FormatCalibrationDuration(elapsed)))
			return nil
		},
	}
	return cmd
}
