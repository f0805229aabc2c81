package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/contractgate/bootstrap"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the contractgate API server.

The server will:
  - Load configuration from contractgate.yaml (or --config)
  - Fall back to defaults and CONTRACTGATE_* environment variables
  - Load and verify the resource definitions
  - Serve the API, /openapi.json, /docs and /metrics

Environment variables:
  CONTRACTGATE_SERVER_PORT    - Server port (default: 8080)
  CONTRACTGATE_LOG_LEVEL      - Log level: debug, info, warn, error
  CONTRACTGATE_LOG_FORMAT     - Log format: json or console
  CONTRACTGATE_RESOURCES_DIR  - Directory of resource definitions

Examples:
  contractgate serve
  contractgate serve --config /etc/contractgate/config.yaml
  contractgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload configuration on file change and SIGHUP")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Watch:      hotReload,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run(cmd.Context())
}
