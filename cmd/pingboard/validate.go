package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/jpalmerr/pingboard"
	"github.com/jpalmerr/pingboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a Pingboard configuration file without starting the server.

This command parses the file, expands environment variables, and validates
all fields. Every problem is reported, not just the first. Entries that
would be skipped at startup are listed as warnings. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed)

Example:
  pingboard validate -c config.yaml
  pingboard validate --config /app/config/ips.json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			problems := multierr.Errors(cfgErr.Err)
			fmt.Printf("Config is invalid (%d problems):\n", len(problems))
			for _, p := range problems {
				fmt.Printf("  - %v\n", p)
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	// grids are expanded here too, so template errors surface now
	if _, err := config.BuildTargets(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	directTargets := len(cfg.Targets)
	gridTargets := 0
	for _, g := range cfg.Grids {
		gridTargets += pingboard.GridSize(g.Dimensions)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:            %d\n", cfg.Port)
	fmt.Printf("  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Printf("  Max concurrency: %d\n", cfg.MaxConcurrency)
	fmt.Printf("  Targets:         %d direct + %d from grids = %d total\n",
		directTargets, gridTargets, directTargets+gridTargets)

	if len(cfg.Warnings) > 0 {
		fmt.Printf("  Skipped:         %d\n", len(cfg.Warnings))
		for _, w := range cfg.Warnings {
			fmt.Printf("    - %s\n", w)
		}
	}

	return nil
}
