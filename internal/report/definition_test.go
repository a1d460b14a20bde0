package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDefinition(t *testing.T) {
	def, err := DefaultDefinition()
	if err != nil {
		t.Fatalf("DefaultDefinition() error = %v", err)
	}
	if len(def.Columns) != 7 {
		t.Fatalf("got %d columns, want 7", len(def.Columns))
	}

	tasks := def.Columns[3]
	if tasks.Endpoint != "tasks" || tasks.Mode != ModeUser || !tasks.Translate {
		t.Errorf("tasks column = %+v", tasks)
	}
	if def.Columns[0].After != " из " {
		t.Errorf("ИТД separator = %q", def.Columns[0].After)
	}
	if def.Columns[5].Mode != ModeDirect {
		t.Errorf("empty mode should normalize to %q, got %q", ModeDirect, def.Columns[5].Mode)
	}
}

func TestParseDefinition_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"Empty", "columns: []", "no columns"},
		{"NoName", "columns:\n  - endpoint: remarks\n    field: a", "no name"},
		{"NoField", "columns:\n  - name: A\n    endpoint: remarks", "no field"},
		{"Duplicate", "columns:\n  - {name: A, endpoint: remarks, field: a}\n  - {name: A, endpoint: remarks, field: b}", "duplicate"},
		{"UnknownEndpoint", "columns:\n  - {name: A, endpoint: nope, field: a}", "unknown endpoint"},
		{"UnknownMode", "columns:\n  - {name: A, endpoint: remarks, field: a, mode: magic}", "unknown mode"},
		{"UnknownKey", "columns:\n  - {name: A, endpoint: remarks, field: a, colour: red}", "invalid report definition"},
		{"NotYAML", "columns: [", "invalid report definition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseDefinition() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	content := "columns:\n  - name: Замечания\n    endpoint: remarks\n    field: authorUser.organizationName\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("LoadDefinition() error = %v", err)
	}
	if names := def.ColumnNames(); len(names) != 1 || names[0] != "Замечания" {
		t.Errorf("ColumnNames() = %v", names)
	}

	if _, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	def, err = LoadDefinition("")
	if err != nil || len(def.Columns) != 7 {
		t.Errorf("LoadDefinition(\"\") = %v, %v", def, err)
	}
}
