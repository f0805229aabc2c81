package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/contractgate/adapters/clock"
	"github.com/artpar/contractgate/bootstrap"
	"github.com/artpar/contractgate/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and resource definitions",
	Long: `Validate the contractgate configuration and resource definitions.

Checks:
  - Config YAML syntax is valid (when the file exists)
  - Config values are within their allowed ranges
  - Resource definitions parse and derive
  - Every resource example validates

Examples:
  contractgate validate
  contractgate validate --config /etc/contractgate/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); err != nil {
		fmt.Fprintf(out, "  - No config file, using defaults and environment\n")
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)
	fmt.Fprintf(out, "  %s Listen address: %s\n", checkMark, cfg.Server.Addr())

	source := "embedded"
	if cfg.Resources.Dir != "" {
		source = cfg.Resources.Dir
	}

	v, err := bootstrap.NewValidator(cfg.Resources.Dir, clock.Real{})
	if err != nil {
		fmt.Fprintf(out, "  %s Resources valid (%s)\n", crossMark, source)
		return fmt.Errorf("resources error: %w", err)
	}
	fmt.Fprintf(out, "  %s Resources valid (%s)\n", checkMark, source)
	fmt.Fprintf(out, "  %s Resources: %d, variants: %d\n", checkMark,
		len(v.Registry().Names()), len(v.Registry().VariantNames()))

	fmt.Fprintf(out, "\nConfiguration is valid.\n")
	return nil
}
