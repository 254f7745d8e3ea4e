package types

// Space is an isolated namespace owning its own schema, members, notes,
// comments and attachments. The field list order matters: it is the UI
// display order and the order in which note fields are validated.
type Space struct {
	ID      string       `json:"id" yaml:"id"` // globally unique slug, e.g. "our-tasks"
	Name    string       `json:"name" yaml:"name"`
	Members []string     `json:"members" yaml:"members"`
	Fields  []SpaceField `json:"fields" yaml:"fields"`
	// ListFields are the default note list columns; filters may override.
	ListFields []string `json:"list_fields,omitempty" yaml:"list_fields,omitempty"`
	// HiddenCreateFields are hidden in the create form and filled from
	// their defaults instead.
	HiddenCreateFields []string `json:"hidden_create_fields,omitempty" yaml:"hidden_create_fields,omitempty"`
	Filters            []Filter `json:"filters,omitempty" yaml:"filters,omitempty"`
	DefaultPageSize    int      `json:"default_page_size" yaml:"default_page_size"`
	MaxPageSize        int      `json:"max_page_size" yaml:"max_page_size"`
}

// Default page size settings for new spaces.
const (
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100
)

// GetField returns the field definition by name, or nil if absent.
func (s *Space) GetField(name string) *SpaceField {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// GetFilter returns the filter definition by id, or nil if absent.
func (s *Space) GetFilter(id string) *Filter {
	for i := range s.Filters {
		if s.Filters[i].ID == id {
			return &s.Filters[i]
		}
	}
	return nil
}

// HasMember reports whether userID is a member of the space.
func (s *Space) HasMember(userID string) bool {
	for _, m := range s.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ClampPageSize bounds a requested page size to [1, MaxPageSize], falling
// back to the space default when the request is zero or negative.
func (s *Space) ClampPageSize(requested int) int {
	if requested <= 0 {
		return s.DefaultPageSize
	}
	if s.MaxPageSize > 0 && requested > s.MaxPageSize {
		return s.MaxPageSize
	}
	return requested
}
