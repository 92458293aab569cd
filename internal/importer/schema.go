package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogSchema is the top-level structure of a catalog import file. The
// file is YAML; JSON documents parse as well.
type CatalogSchema struct {
	DefaultUser string           `yaml:"default_user,omitempty"`
	Categories  []CategoryImport `yaml:"categories"`
	Tasks       []TaskImport     `yaml:"tasks"`
}

// CategoryImport defines a category and its hourly rate. A missing rate
// means sessions under it earn nothing and report rate_missing.
type CategoryImport struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	HourlyRate *RateValue `yaml:"hourly_rate,omitempty"`
}

// TaskImport defines a task owned by one user.
type TaskImport struct {
	ID         string `yaml:"id"`
	UserID     string `yaml:"user_id,omitempty"`
	Title      string `yaml:"title"`
	CategoryID string `yaml:"category_id,omitempty"`
}

// RateValue keeps the literal text of a rate so "150", 150 and "150.50"
// are all parsed by the money parser rather than through a float.
type RateValue struct {
	Raw string
}

func (r *RateValue) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: hourly_rate must be a scalar", n.Line)
	}
	r.Raw = n.Value
	return nil
}

func (r RateValue) MarshalYAML() (any, error) {
	return r.Raw, nil
}

// LoadCatalogSchema reads and parses a catalog import file.
func LoadCatalogSchema(path string) (*CatalogSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalogSchema(data)
}

// ParseCatalogSchema parses catalog YAML (or JSON) from memory.
func ParseCatalogSchema(data []byte) (*CatalogSchema, error) {
	var schema CatalogSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
