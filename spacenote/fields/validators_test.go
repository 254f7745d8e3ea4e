package fields_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spacenote/spacenote/spacenote/fields"
	"github.com/spacenote/spacenote/types"
)

var testCtx = fields.Context{
	SpaceID: "tasks",
	Members: []string{"alice", "bob"},
}

func TestValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		field   types.SpaceField
		raw     string
		want    types.FieldValue
		wantErr bool
	}{
		{
			name:  "string value is trimmed",
			field: types.SpaceField{Name: "title", Type: types.FieldTypeString},
			raw:   "  hello  ",
			want:  "hello",
		},
		{
			name:  "empty string yields nil",
			field: types.SpaceField{Name: "title", Type: types.FieldTypeString},
			raw:   "",
			want:  nil,
		},
		{
			name:  "whitespace only string yields nil",
			field: types.SpaceField{Name: "title", Type: types.FieldTypeString},
			raw:   "   ",
			want:  nil,
		},
		{
			name:  "markdown behaves like string",
			field: types.SpaceField{Name: "body", Type: types.FieldTypeMarkdown},
			raw:   "# heading",
			want:  "# heading",
		},
		{
			name:  "boolean true",
			field: types.SpaceField{Name: "done", Type: types.FieldTypeBoolean},
			raw:   "true",
			want:  true,
		},
		{
			name:  "boolean false",
			field: types.SpaceField{Name: "done", Type: types.FieldTypeBoolean},
			raw:   "false",
			want:  false,
		},
		{
			name:    "boolean rejects other tokens",
			field:   types.SpaceField{Name: "done", Type: types.FieldTypeBoolean},
			raw:     "yes",
			wantErr: true,
		},
		{
			name:    "boolean rejects empty input",
			field:   types.SpaceField{Name: "done", Type: types.FieldTypeBoolean},
			raw:     "",
			wantErr: true,
		},
		{
			name: "choice accepts listed value",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "closed"}},
			},
			raw:  "open",
			want: "open",
		},
		{
			name: "choice rejects unlisted value",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "closed"}},
			},
			raw:     "pending",
			wantErr: true,
		},
		{
			name:  "tags split on comma and trim",
			field: types.SpaceField{Name: "labels", Type: types.FieldTypeTags},
			raw:   " urgent , backend ,, urgent ",
			want:  []string{"urgent", "backend", "urgent"},
		},
		{
			name:  "tags of only separators yield nil",
			field: types.SpaceField{Name: "labels", Type: types.FieldTypeTags},
			raw:   " , , ",
			want:  nil,
		},
		{
			name:  "user accepts a member",
			field: types.SpaceField{Name: "assignee", Type: types.FieldTypeUser},
			raw:   "alice",
			want:  "alice",
		},
		{
			name:    "user rejects a non-member",
			field:   types.SpaceField{Name: "assignee", Type: types.FieldTypeUser},
			raw:     "mallory",
			wantErr: true,
		},
		{
			name:  "user passes the current user token through",
			field: types.SpaceField{Name: "assignee", Type: types.FieldTypeUser},
			raw:   "@me",
			want:  "@me",
		},
		{
			name:  "datetime passes through trimmed",
			field: types.SpaceField{Name: "due", Type: types.FieldTypeDatetime},
			raw:   " 2026-01-15T10:00:00Z ",
			want:  "2026-01-15T10:00:00Z",
		},
		{
			name:  "int parses to int64",
			field: types.SpaceField{Name: "priority", Type: types.FieldTypeInt},
			raw:   "42",
			want:  int64(42),
		},
		{
			name:    "int rejects garbage",
			field:   types.SpaceField{Name: "priority", Type: types.FieldTypeInt},
			raw:     "forty-two",
			wantErr: true,
		},
		{
			name: "int enforces minimum",
			field: types.SpaceField{
				Name: "priority", Type: types.FieldTypeInt,
				Options: map[types.FieldOption]any{types.OptionMin: int64(1)},
			},
			raw:     "0",
			wantErr: true,
		},
		{
			name: "int enforces maximum",
			field: types.SpaceField{
				Name: "priority", Type: types.FieldTypeInt,
				Options: map[types.FieldOption]any{types.OptionMax: int64(5)},
			},
			raw:     "6",
			wantErr: true,
		},
		{
			name:  "float parses to float64",
			field: types.SpaceField{Name: "estimate", Type: types.FieldTypeFloat},
			raw:   "2.5",
			want:  2.5,
		},
		{
			name: "float enforces range",
			field: types.SpaceField{
				Name: "estimate", Type: types.FieldTypeFloat,
				Options: map[types.FieldOption]any{types.OptionMin: 0.0, types.OptionMax: 10.0},
			},
			raw:     "10.5",
			wantErr: true,
		},
		{
			name:  "image parses attachment id",
			field: types.SpaceField{Name: "screenshot", Type: types.FieldTypeImage},
			raw:   "7",
			want:  int64(7),
		},
		{
			name:    "image rejects non-numeric id",
			field:   types.SpaceField{Name: "screenshot", Type: types.FieldTypeImage},
			raw:     "latest",
			wantErr: true,
		},
		{
			name:  "image passes the last upload token through",
			field: types.SpaceField{Name: "screenshot", Type: types.FieldTypeImage},
			raw:   "@last",
			want:  "@last",
		},
		{
			name:    "unknown field type fails",
			field:   types.SpaceField{Name: "x", Type: types.FieldType("geo")},
			raw:     "1,2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fields.ValidateValue(tt.field, tt.raw, testCtx)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got value %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		field   types.SpaceField
		wantErr bool
	}{
		{
			name: "choice with values and matching default",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "closed"}},
				Default: "open",
			},
		},
		{
			name:    "choice without values",
			field:   types.SpaceField{Name: "status", Type: types.FieldTypeChoice},
			wantErr: true,
		},
		{
			name: "choice with duplicate values",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "open"}},
			},
			wantErr: true,
		},
		{
			name: "choice with blank value",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "  "}},
			},
			wantErr: true,
		},
		{
			name: "choice default not in values",
			field: types.SpaceField{
				Name: "status", Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{types.OptionValues: []string{"open", "closed"}},
				Default: "pending",
			},
			wantErr: true,
		},
		{
			name:    "boolean default must be bool",
			field:   types.SpaceField{Name: "done", Type: types.FieldTypeBoolean, Default: "true"},
			wantErr: true,
		},
		{
			name:  "user default may be the current user token",
			field: types.SpaceField{Name: "assignee", Type: types.FieldTypeUser, Default: "@me"},
		},
		{
			name: "int min greater than max",
			field: types.SpaceField{
				Name: "priority", Type: types.FieldTypeInt,
				Options: map[types.FieldOption]any{types.OptionMin: int64(5), types.OptionMax: int64(1)},
			},
			wantErr: true,
		},
		{
			name: "float range in order",
			field: types.SpaceField{
				Name: "estimate", Type: types.FieldTypeFloat,
				Options: map[types.FieldOption]any{types.OptionMin: 0.0, types.OptionMax: 10.0},
			},
		},
		{
			name:  "image default may be the last upload token",
			field: types.SpaceField{Name: "screenshot", Type: types.FieldTypeImage, Default: "@last"},
		},
		{
			name:    "image default rejects arbitrary strings",
			field:   types.SpaceField{Name: "screenshot", Type: types.FieldTypeImage, Default: "newest"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fields.ValidateConfiguration(tt.field)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfiguration() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNewField(t *testing.T) {
	space := &types.Space{
		ID:     "tasks",
		Fields: []types.SpaceField{{Name: "title", Type: types.FieldTypeString}},
	}

	tests := []struct {
		name    string
		field   types.SpaceField
		wantErr string
	}{
		{
			name:  "valid field",
			field: types.SpaceField{Name: "body", Type: types.FieldTypeMarkdown},
		},
		{
			name:    "uppercase name rejected",
			field:   types.SpaceField{Name: "Body", Type: types.FieldTypeMarkdown},
			wantErr: "invalid field name",
		},
		{
			name:    "leading digit rejected",
			field:   types.SpaceField{Name: "1st", Type: types.FieldTypeMarkdown},
			wantErr: "invalid field name",
		},
		{
			name:    "builtin name rejected",
			field:   types.SpaceField{Name: "created_at", Type: types.FieldTypeDatetime},
			wantErr: "reserved",
		},
		{
			name:    "duplicate name rejected",
			field:   types.SpaceField{Name: "title", Type: types.FieldTypeString},
			wantErr: "already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fields.ValidateNewField(space, tt.field)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
