package catalogs

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBaseURL = "https://boomtrees.dev/schemas/"

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	names := []string{"blocks", "loot_tables", "biomes"}
	for _, name := range names {
		b, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(schemaBaseURL+name+".schema.json", bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
	}
	schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := c.Compile(schemaBaseURL + name + ".schema.json")
		if err != nil {
			schemasErr = fmt.Errorf("compile %s: %w", name, err)
			return
		}
		schemas[name] = s
	}
}

// Schema returns the compiled schema for one catalog file ("blocks",
// "loot_tables", "biomes").
func Schema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return nil, schemasErr
	}
	s, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("no schema %q", name)
	}
	return s, nil
}

func validateDoc(name string, raw []byte) error {
	s, err := Schema(name)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
