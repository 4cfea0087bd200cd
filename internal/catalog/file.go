package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// catalogSchema constrains deployment-supplied catalog files before decoding,
// so a malformed file fails fast with located issues instead of silently
// producing a short catalog.
const catalogSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": false,
	"required": ["modules"],
	"properties": {
		"modules": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"required": ["name", "resources"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"resources": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"additionalProperties": false,
							"required": ["kind", "url"],
							"properties": {
								"kind": {"enum": ["script", "style"]},
								"url": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`

type catalogFile struct {
	Modules []Descriptor `json:"modules"`
}

// Parse validates a JSON catalog payload against the embedded schema and
// builds a catalog from it.
func Parse(data []byte) (*Catalog, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCatalogInvalid, flattenSchemaError(err))
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	return New(file.Modules)
}

// LoadFile reads and parses a deployment catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogInvalid, err)
	}
	return Parse(data)
}

func compiledSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("catalog.json", bytes.NewReader([]byte(catalogSchema))); err != nil {
		return nil, err
	}
	return compiler.Compile("catalog.json")
}

func flattenSchemaError(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err.Error()
	}
	issues := []string{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			location := strings.TrimSpace(node.InstanceLocation)
			if location == "" {
				location = "#"
			}
			issues = append(issues, fmt.Sprintf("%s: %s", location, strings.TrimSpace(node.Message)))
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return strings.Join(issues, "; ")
}
