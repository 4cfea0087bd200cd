package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-enhance/pkg/interfaces"
)

func validDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name: "performance",
			Resources: []interfaces.Resource{
				{Kind: interfaces.ResourceScript, URL: "https://cdn.example.com/perf.js"},
			},
		},
		{
			Name: "accessibility",
			Resources: []interfaces.Resource{
				{Kind: interfaces.ResourceScript, URL: "/assets/a11y.js"},
				{Kind: interfaces.ResourceStyle, URL: "/assets/a11y.css"},
			},
		},
	}
}

func TestNew_PreservesDeclaredOrder(t *testing.T) {
	cat, err := New(validDescriptors())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	names := cat.Names()
	if len(names) != 2 || names[0] != "performance" || names[1] != "accessibility" {
		t.Fatalf("unexpected order %v", names)
	}
	if cat.Len() != 2 {
		t.Fatalf("Len() = %d", cat.Len())
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	descriptors := validDescriptors()
	descriptors = append(descriptors, descriptors[0])

	if _, err := New(descriptors); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestNew_RejectsMissingResources(t *testing.T) {
	if _, err := New([]Descriptor{{Name: "empty"}}); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestNew_RejectsInvalidResource(t *testing.T) {
	cases := []interfaces.Resource{
		{Kind: "font", URL: "https://cdn.example.com/f.woff2"},
		{Kind: interfaces.ResourceScript, URL: " "},
		{Kind: interfaces.ResourceScript, URL: "relative/path.js"},
	}
	for _, res := range cases {
		_, err := New([]Descriptor{{Name: "bad", Resources: []interfaces.Resource{res}}})
		if !errors.Is(err, ErrCatalogInvalid) {
			t.Fatalf("expected ErrCatalogInvalid for %+v, got %v", res, err)
		}
	}
}

func TestLookup(t *testing.T) {
	cat, err := New(validDescriptors())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	descriptor, err := cat.Lookup("accessibility")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if descriptor.FlagName() != "accessibility" || len(descriptor.Resources) != 2 {
		t.Fatalf("Lookup() returned %+v", descriptor)
	}

	if _, err := cat.Lookup("missing"); !errors.Is(err, ErrModuleUnknown) {
		t.Fatalf("expected ErrModuleUnknown, got %v", err)
	}
}

func TestModules_ReturnsCopies(t *testing.T) {
	cat, err := New(validDescriptors())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	modules := cat.Modules()
	modules[0].Resources[0].URL = "https://tampered.example.com/x.js"

	fresh, err := cat.Lookup("performance")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if fresh.Resources[0].URL != "https://cdn.example.com/perf.js" {
		t.Fatal("expected catalog to be isolated from caller mutation")
	}
}

func TestParse_ValidPayload(t *testing.T) {
	payload := `{
		"modules": [
			{"name": "performance", "resources": [{"kind": "script", "url": "https://cdn.example.com/perf.js"}]},
			{"name": "charts", "resources": [{"kind": "style", "url": "/assets/charts.css"}]}
		]
	}`

	cat, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	names := cat.Names()
	if len(names) != 2 || names[0] != "performance" || names[1] != "charts" {
		t.Fatalf("unexpected catalog %v", names)
	}
}

func TestParse_RejectsSchemaViolations(t *testing.T) {
	cases := []string{
		`{}`,
		`{"modules": [{"name": "x"}]}`,
		`{"modules": [{"name": "x", "resources": []}]}`,
		`{"modules": [{"name": "x", "resources": [{"kind": "font", "url": "/a"}]}]}`,
		`not json`,
	}
	for _, payload := range cases {
		if _, err := Parse([]byte(payload)); !errors.Is(err, ErrCatalogInvalid) {
			t.Fatalf("expected ErrCatalogInvalid for %s, got %v", payload, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	payload := `{"modules": [{"name": "performance", "resources": [{"kind": "script", "url": "/perf.js"}]}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cat.Len() != 1 {
		t.Fatalf("Len() = %d", cat.Len())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid for missing file, got %v", err)
	}
}
