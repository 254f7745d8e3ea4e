// Package export serializes space definitions to portable JSON or YAML
// documents and imports them back, validating the schema on the way in.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spacenote/spacenote/spacenote/fields"
	"github.com/spacenote/spacenote/spacenote/query"
	"github.com/spacenote/spacenote/types"
)

// Format selects the wire encoding of an exported space definition.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name, case-insensitively, with "yml" as a
// YAML alias.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", types.ErrValidation, name)
}

// Definition is the portable shape of a space: everything but its notes,
// comments and attachments.
type Definition struct {
	ID                 string             `json:"id" yaml:"id"`
	Name               string             `json:"name" yaml:"name"`
	Members            []string           `json:"members" yaml:"members"`
	Fields             []types.SpaceField `json:"fields" yaml:"fields"`
	ListFields         []string           `json:"list_fields,omitempty" yaml:"list_fields,omitempty"`
	HiddenCreateFields []string           `json:"hidden_create_fields,omitempty" yaml:"hidden_create_fields,omitempty"`
	Filters            []types.Filter     `json:"filters,omitempty" yaml:"filters,omitempty"`
	DefaultPageSize    int                `json:"default_page_size,omitempty" yaml:"default_page_size,omitempty"`
	MaxPageSize        int                `json:"max_page_size,omitempty" yaml:"max_page_size,omitempty"`
}

// Export renders a space definition in the requested format.
func Export(space *types.Space, format Format) ([]byte, error) {
	def := Definition{
		ID:                 space.ID,
		Name:               space.Name,
		Members:            space.Members,
		Fields:             space.Fields,
		ListFields:         space.ListFields,
		HiddenCreateFields: space.HiddenCreateFields,
		Filters:            space.Filters,
		DefaultPageSize:    space.DefaultPageSize,
		MaxPageSize:        space.MaxPageSize,
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(def, "", "  ")
	case FormatYAML:
		return yaml.Marshal(def)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", types.ErrValidation, format)
}

// Parse decodes an exported definition and validates it: field
// configurations, filter references, and page sizes all get the same
// checks a live space would.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &def)
	case FormatYAML:
		err = yaml.Unmarshal(data, &def)
	default:
		err = fmt.Errorf("%w: unknown export format %q", types.ErrValidation, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse space definition: %w", err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks an imported definition the way live configuration
// changes are checked, so an import cannot smuggle in a schema the
// editing operations would have rejected.
func Validate(def *Definition) error {
	if def.ID == "" {
		return fmt.Errorf("%w: space definition has no id", types.ErrConfig)
	}

	space := &types.Space{
		ID:              def.ID,
		Name:            def.Name,
		Members:         def.Members,
		DefaultPageSize: def.DefaultPageSize,
		MaxPageSize:     def.MaxPageSize,
	}
	if space.DefaultPageSize == 0 {
		space.DefaultPageSize = types.DefaultPageSize
	}
	if space.MaxPageSize == 0 {
		space.MaxPageSize = types.DefaultMaxPageSize
	}
	if space.DefaultPageSize > space.MaxPageSize {
		return fmt.Errorf("%w: default page size %d exceeds maximum %d", types.ErrConfig, space.DefaultPageSize, space.MaxPageSize)
	}

	// Fields validate one at a time against the growing schema, as if
	// each had been added through AddField.
	for _, field := range def.Fields {
		if err := fields.ValidateNewField(space, field); err != nil {
			return err
		}
		space.Fields = append(space.Fields, field)
	}

	for _, name := range def.ListFields {
		if !types.IsBuiltinField(name) && space.GetField(name) == nil {
			return fmt.Errorf("%w: list field %q does not exist in space", types.ErrConfig, name)
		}
	}
	for _, name := range def.HiddenCreateFields {
		if space.GetField(name) == nil {
			return fmt.Errorf("%w: hidden create field %q does not exist in space", types.ErrConfig, name)
		}
	}

	for _, filter := range def.Filters {
		if errs := query.ValidateFilter(space, filter); len(errs) > 0 {
			return fmt.Errorf("filter %q: %w", filter.ID, joinErrors(errs))
		}
		space.Filters = append(space.Filters, filter)
	}
	return nil
}

// Space materializes the validated definition, filling page-size
// defaults.
func (d *Definition) Space() *types.Space {
	space := &types.Space{
		ID:                 d.ID,
		Name:               d.Name,
		Members:            d.Members,
		Fields:             d.Fields,
		ListFields:         d.ListFields,
		HiddenCreateFields: d.HiddenCreateFields,
		Filters:            d.Filters,
		DefaultPageSize:    d.DefaultPageSize,
		MaxPageSize:        d.MaxPageSize,
	}
	if space.DefaultPageSize == 0 {
		space.DefaultPageSize = types.DefaultPageSize
	}
	if space.MaxPageSize == 0 {
		space.MaxPageSize = types.DefaultMaxPageSize
	}
	return space
}

func joinErrors(errs []error) error {
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return fmt.Errorf("%w: %s", types.ErrConfig, strings.Join(messages, "; "))
}
