package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/artpar/contractgate/bootstrap"
	"github.com/artpar/contractgate/core/openapi"
)

var (
	openapiFormat string
	openapiServer string
)

var openapiCmd = &cobra.Command{
	Use:   "openapi",
	Short: "Print the OpenAPI document",
	Long: `Print the OpenAPI 3.1 document generated from the route table and
resource definitions, without starting the server.

Examples:
  contractgate openapi > openapi.json
  contractgate openapi --format yaml --server https://api.example.com`,
	RunE: runOpenAPI,
}

func init() {
	rootCmd.AddCommand(openapiCmd)

	openapiCmd.Flags().StringVarP(&openapiFormat, "format", "f", "json", "output format: json or yaml")
	openapiCmd.Flags().StringVar(&openapiServer, "server", "", "server URL to list in the document")
}

func runOpenAPI(cmd *cobra.Command, args []string) error {
	if openapiFormat != "json" && openapiFormat != "yaml" {
		return fmt.Errorf("unknown format %q: use json or yaml", openapiFormat)
	}

	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		LogOutput:  io.Discard,
	})
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}
	if app.Holder != nil {
		defer app.Holder.Stop()
	}

	g := openapi.NewGenerator(app.Validator.Registry(), app.Channel.Routes())
	g.SetInfo(openapi.Info{
		Title:       app.Config.OpenAPI.Title,
		Description: app.Config.OpenAPI.Description,
		Version:     app.Config.OpenAPI.Version,
	})
	if openapiServer != "" {
		g.AddServer(openapiServer, "")
	}
	spec, err := g.Generate()
	if err != nil {
		return fmt.Errorf("generate openapi: %w", err)
	}

	data, err := spec.ToJSON()
	if err != nil {
		return fmt.Errorf("encode openapi: %w", err)
	}
	if openapiFormat == "yaml" {
		if data, err = toYAML(data); err != nil {
			return fmt.Errorf("encode openapi: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if openapiFormat == "json" {
		fmt.Fprintln(out)
	}
	return nil
}

// toYAML re-encodes a JSON document as block-style YAML, keeping key order.
func toYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, c := range n.Content {
		blockStyle(c)
	}
}
