package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"farm-alerts/internal/config"
)

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long:  "Load and validate the configuration file and the threshold table it points to: format, required fields, ranges and business rules.",
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate executes the validate command logic.
func runValidate(cmd *cobra.Command, args []string) {
	configPath := GetConfigFile()

	// Load calls Validate internally
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Config validation failed: %v\n", err)
		os.Exit(1)
	}

	table, err := config.LoadThresholds(cfg.Monitor.ThresholdsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Threshold table invalid: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Config file is valid: %s\n", configPath)
	source := "built-in"
	if cfg.Monitor.ThresholdsFile != "" {
		source = cfg.Monitor.ThresholdsFile
	}
	fmt.Printf("   Thresholds: %d metrics (%s)\n", table.Len(), source)
}
