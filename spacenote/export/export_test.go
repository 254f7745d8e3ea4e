package export_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spacenote/spacenote/spacenote/export"
	"github.com/spacenote/spacenote/types"
)

func sampleSpace() *types.Space {
	return &types.Space{
		ID:      "tasks",
		Name:    "Team tasks",
		Members: []string{"alice", "bob"},
		Fields: []types.SpaceField{
			{Name: "title", Type: types.FieldTypeString, Required: true},
			{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "closed"}},
				Default: "open",
			},
		},
		ListFields: []string{"id", "title", "status"},
		Filters: []types.Filter{
			{
				ID:    "open",
				Title: "Open",
				Conditions: []types.FilterCondition{
					{Field: "status", Operator: types.OpEqual, Value: "open"},
				},
				Sort: []string{"-created_at"},
			},
		},
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
}

func TestExportRoundTrip(t *testing.T) {
	for _, format := range []export.Format{export.FormatJSON, export.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			space := sampleSpace()
			data, err := export.Export(space, format)
			if err != nil {
				t.Fatalf("export failed: %v", err)
			}

			def, err := export.Parse(data, format)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			got := def.Space()

			if got.ID != space.ID || got.Name != space.Name {
				t.Errorf("identity = %s/%s, want %s/%s", got.ID, got.Name, space.ID, space.Name)
			}
			if diff := cmp.Diff(space.Members, got.Members); diff != "" {
				t.Errorf("members mismatch (-want +got):\n%s", diff)
			}
			if len(got.Fields) != len(space.Fields) {
				t.Fatalf("got %d fields, want %d", len(got.Fields), len(space.Fields))
			}
			if got.Fields[1].Type != types.FieldTypeChoice || got.Fields[1].Default != "open" {
				t.Errorf("choice field lost its shape: %+v", got.Fields[1])
			}
			if len(got.Filters) != 1 || got.Filters[0].Conditions[0].Operator != types.OpEqual {
				t.Errorf("filters lost their shape: %+v", got.Filters)
			}
			if got.DefaultPageSize != 20 || got.MaxPageSize != 100 {
				t.Errorf("page sizes = %d/%d, want 20/100", got.DefaultPageSize, got.MaxPageSize)
			}
		})
	}
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		contains string
	}{
		{
			name:     "missing id",
			json:     `{"name": "x"}`,
			contains: "no id",
		},
		{
			name:     "bad field name",
			json:     `{"id": "tasks", "fields": [{"name": "Bad", "type": "string"}]}`,
			contains: "invalid field name",
		},
		{
			name:     "choice without values",
			json:     `{"id": "tasks", "fields": [{"name": "status", "type": "choice"}]}`,
			contains: "at least one value",
		},
		{
			name:     "list field referencing unknown field",
			json:     `{"id": "tasks", "list_fields": ["ghost"]}`,
			contains: `list field "ghost"`,
		},
		{
			name: "filter with illegal operator",
			json: `{"id": "tasks",
				"fields": [{"name": "done", "type": "boolean"}],
				"filters": [{"id": "f", "conditions": [{"field": "done", "operator": "contains", "value": "t"}]}]}`,
			contains: "not valid for field type",
		},
		{
			name:     "default page size above max",
			json:     `{"id": "tasks", "default_page_size": 200, "max_page_size": 100}`,
			contains: "exceeds maximum",
		},
		{
			name:     "malformed document",
			json:     `{not json`,
			contains: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := export.Parse([]byte(tt.json), export.FormatJSON)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %v, want containing %q", err, tt.contains)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]export.Format{
		"json": export.FormatJSON,
		"JSON": export.FormatJSON,
		"yaml": export.FormatYAML,
		"yml":  export.FormatYAML,
	} {
		got, err := export.ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := export.ParseFormat("xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestDefinitionSpaceFillsPageSizes(t *testing.T) {
	def, err := export.Parse([]byte(`{"id": "tasks"}`), export.FormatJSON)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	space := def.Space()
	if space.DefaultPageSize != types.DefaultPageSize || space.MaxPageSize != types.DefaultMaxPageSize {
		t.Errorf("page sizes = %d/%d, want defaults", space.DefaultPageSize, space.MaxPageSize)
	}
}
