package openapi

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestService_Spec(t *testing.T) {
	reg := testRegistry(t, testCatalog)
	svc := NewService(ServiceConfig{
		Registry: reg,
		Routes:   testRoutes,
		Info:     Info{Title: "Cached"},
		SwagName: "test-service-spec",
		Logger:   zerolog.Nop(),
	})

	first, err := svc.Spec("http://a.example")
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	second, err := svc.Spec("http://b.example")
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}

	if first.Servers[0].URL != "http://a.example" || second.Servers[0].URL != "http://b.example" {
		t.Errorf("servers = %v / %v", first.Servers, second.Servers)
	}
	if first.Components.Schemas["Item"] != second.Components.Schemas["Item"] {
		t.Error("second call should reuse the cached document")
	}

	svc.Invalidate()
	third, err := svc.Spec("")
	if err != nil {
		t.Fatalf("Spec failed: %v", err)
	}
	if third.Components.Schemas["Item"] == first.Components.Schemas["Item"] {
		t.Error("Invalidate should regenerate the document")
	}
}

func TestService_PublishesToSwag(t *testing.T) {
	reg := testRegistry(t, testCatalog)
	svc := NewService(ServiceConfig{
		Registry: reg,
		Routes:   testRoutes,
		Info:     Info{Title: "Published"},
		SwagName: "test-service-publish",
		Logger:   zerolog.Nop(),
	})

	if _, err := svc.Spec(""); err != nil {
		t.Fatalf("Spec failed: %v", err)
	}

	doc, err := ReadDoc(svc.SwagName())
	if err != nil {
		t.Fatalf("ReadDoc failed: %v", err)
	}
	if !strings.Contains(doc, `"title": "Published"`) {
		t.Errorf("doc = %.200s", doc)
	}
}

func TestRegister_UpdatesInPlace(t *testing.T) {
	first, err := Register("test-register", &Spec{OpenAPI: Version, Info: Info{Title: "one", Version: "1"}})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	second, err := Register("test-register", &Spec{OpenAPI: Version, Info: Info{Title: "two", Version: "1"}})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if first != second {
		t.Error("second Register should reuse the document")
	}
	if !strings.Contains(first.ReadDoc(), `"title": "two"`) {
		t.Errorf("doc = %s", first.ReadDoc())
	}
}
