package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtin []byte

// Builtin returns the catalog compiled into the binary.
func Builtin() (Catalog, error) {
	return parse(builtin)
}

// Load reads an override catalog from disk; an empty path yields the builtin one.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Builtin()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	c, err := parse(b)
	if err != nil {
		return Catalog{}, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func parse(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
