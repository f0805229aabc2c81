package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"gopkg.in/yaml.v3"

	"github.com/artpar/contractgate/core/openapi"
	"github.com/artpar/contractgate/pkg/jsonapi"
)

func (c *Channel) mountDocs() {
	c.router.Get("/openapi.json", c.handleOpenAPI)
	c.router.Get("/openapi.yaml", c.handleOpenAPIYAML)

	c.router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	c.router.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.json"),
		httpSwagger.InstanceName(c.docs.SwagName()),
	))
}

func (c *Channel) spec(w http.ResponseWriter, r *http.Request) (*openapi.Spec, bool) {
	spec, err := c.docs.Spec(baseURL(r))
	if err != nil {
		c.logger.Error().Err(err).Msg("openapi generation failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal("Failed to generate OpenAPI document"))
		return nil, false
	}
	return spec, true
}

func (c *Channel) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec, ok := c.spec(w, r)
	if !ok {
		return
	}
	data, err := spec.ToJSON()
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(data)
}

// handleOpenAPIYAML serves the same document as YAML. JSON is valid YAML,
// so decoding into a node keeps key order.
func (c *Channel) handleOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	spec, ok := c.spec(w, r)
	if !ok {
		return
	}
	data, err := spec.ToJSONCompact()
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrFromError(err))
		return
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		jsonapi.WriteError(w, jsonapi.ErrFromError(err))
		return
	}
	clearStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrFromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(out)
}

// clearStyle drops the flow and quoting styles decoding JSON leaves on every
// node. Strings that would read back as another type stay quoted.
func clearStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle | yaml.DoubleQuotedStyle
	for _, child := range n.Content {
		clearStyle(child)
	}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
