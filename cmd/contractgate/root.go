package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contractgate",
	Short: "Contract-first HTTP API server for the project tracker",
	Long: `contractgate serves an HTTP API whose inputs and outputs are declared
as resource contracts. Requests are validated against the contracts before
a handler runs; responses are shaped by them before they are written.

Quick start:
  contractgate serve      # Start the API server
  contractgate validate   # Check config and resource definitions
  contractgate openapi    # Print the OpenAPI document`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "contractgate.yaml", "config file path")
}
