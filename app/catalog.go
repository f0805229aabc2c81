// Package app is the project tracker API: its resource definitions, seed
// data, handlers and route table.
package app

import (
	"embed"

	"github.com/artpar/contractgate/core/schema"
)

//go:embed resources/*.yaml
var resources embed.FS

// Catalog parses the embedded resource definitions.
func Catalog() (schema.Catalog, error) {
	return schema.ParseFS(resources, "resources")
}
