package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/exon-report/internal/portal"
)

//go:embed default_report.yaml
var defaultDefinition []byte

// Grouping modes of a report column.
const (
	ModeDirect = "direct"
	ModeUser   = "user"
)

// Column defines one category column of the report.
type Column struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Field    string `yaml:"field"`
	// Mode is ModeDirect (group by the field value) or ModeUser (the field
	// holds user ids resolved to their current organization).
	Mode string `yaml:"mode"`
	// After keeps only the text following this separator in each key.
	After     string `yaml:"after"`
	Translate bool   `yaml:"translate"`
}

// Definition is the ordered list of report columns.
type Definition struct {
	Columns []Column `yaml:"columns"`
}

// DefaultDefinition returns the built-in subcontractor report.
func DefaultDefinition() (*Definition, error) {
	return ParseDefinition(defaultDefinition)
}

// LoadDefinition reads a definition file; an empty path gives the default.
func LoadDefinition(path string) (*Definition, error) {
	if path == "" {
		return DefaultDefinition()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report definition: %w", err)
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes and validates a YAML definition.
func ParseDefinition(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("invalid report definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks column names, endpoints and modes. An empty mode is
// normalized to ModeDirect.
func (d *Definition) Validate() error {
	if len(d.Columns) == 0 {
		return errors.New("report definition has no columns")
	}

	seen := make(map[string]bool, len(d.Columns))
	for i := range d.Columns {
		col := &d.Columns[i]
		col.Name = strings.TrimSpace(col.Name)
		switch {
		case col.Name == "":
			return fmt.Errorf("column %d has no name", i+1)
		case seen[col.Name]:
			return fmt.Errorf("duplicate column %q", col.Name)
		case col.Field == "":
			return fmt.Errorf("column %q has no field", col.Name)
		}
		seen[col.Name] = true

		if _, ok := portal.Lookup(col.Endpoint); !ok {
			return fmt.Errorf("column %q: unknown endpoint %q", col.Name, col.Endpoint)
		}

		switch col.Mode {
		case "":
			col.Mode = ModeDirect
		case ModeDirect, ModeUser:
		default:
			return fmt.Errorf("column %q: unknown mode %q", col.Name, col.Mode)
		}
	}
	return nil
}

// ColumnNames returns the column names in order.
func (d *Definition) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}
