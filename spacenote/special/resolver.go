// Package special resolves reserved placeholder tokens ("@me", "@last")
// into concrete values using the space's membership and attachment state.
package special

import (
	"context"
	"fmt"

	"github.com/spacenote/spacenote/types"
)

// AttachmentSource provides the unassigned-attachment view "@last"
// resolution needs. The attachment service implements it.
type AttachmentSource interface {
	// ListUnassigned returns the space's unassigned attachments, newest
	// first.
	ListUnassigned(ctx context.Context, spaceID string) ([]types.Attachment, error)
}

// Resolver resolves special values against live space state.
type Resolver struct {
	attachments AttachmentSource
}

// NewResolver creates a resolver backed by the given attachment source.
func NewResolver(attachments AttachmentSource) *Resolver {
	return &Resolver{attachments: attachments}
}

// ResolveValue resolves value if it is a special token, returning it
// unchanged otherwise. Token use on an incompatible field type is an
// error: configuration validation should have prevented it.
func (r *Resolver) ResolveValue(ctx context.Context, value string, field *types.SpaceField, space *types.Space, currentUser *types.User) (types.FieldValue, error) {
	switch types.SpecialValue(value) {
	case types.SpecialCurrentUser:
		return r.resolveCurrentUser(field, space, currentUser)
	case types.SpecialLast:
		return r.resolveLast(ctx, field, space)
	}
	return value, nil
}

// resolveCurrentUser handles "@me": nil when there is no authenticated
// user or the user is not a space member.
func (r *Resolver) resolveCurrentUser(field *types.SpaceField, space *types.Space, currentUser *types.User) (types.FieldValue, error) {
	if field.Type != types.FieldTypeUser {
		return nil, fmt.Errorf("%w: %q is only valid for user fields, not %s field %q", types.ErrSpecialValue, types.SpecialCurrentUser, field.Type, field.Name)
	}
	if currentUser == nil {
		return nil, nil
	}
	if !space.HasMember(currentUser.ID) {
		return nil, nil
	}
	return currentUser.ID, nil
}

// resolveLast handles "@last": the id of the most recently uploaded
// unassigned image attachment, nil when none exist.
func (r *Resolver) resolveLast(ctx context.Context, field *types.SpaceField, space *types.Space) (types.FieldValue, error) {
	if field.Type != types.FieldTypeImage {
		return nil, fmt.Errorf("%w: %q is only valid for image fields, not %s field %q", types.ErrSpecialValue, types.SpecialLast, field.Type, field.Name)
	}
	unassigned, err := r.attachments.ListUnassigned(ctx, space.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving %q for field %q: %w", types.SpecialLast, field.Name, err)
	}
	for _, att := range unassigned {
		if att.Category() == types.CategoryImages {
			return att.ID, nil
		}
	}
	return nil, nil
}

// ResolveFieldDefault resolves a field's default, handling special
// tokens; plain defaults pass through untouched.
func (r *Resolver) ResolveFieldDefault(ctx context.Context, field *types.SpaceField, space *types.Space, currentUser *types.User) (types.FieldValue, error) {
	if field.Default == nil {
		return nil, nil
	}
	if s, ok := field.Default.(string); ok && types.IsSpecialValue(s) {
		return r.ResolveValue(ctx, s, field, space, currentUser)
	}
	return field.Default, nil
}

// ResolveFieldValues resolves special tokens remaining in a validated
// field map, returning a map with the same key set.
func (r *Resolver) ResolveFieldValues(ctx context.Context, space *types.Space, validated map[string]types.FieldValue, currentUser *types.User) (map[string]types.FieldValue, error) {
	resolved := make(map[string]types.FieldValue, len(validated))
	for i := range space.Fields {
		field := &space.Fields[i]
		value := validated[field.Name]
		if s, ok := value.(string); ok && types.IsSpecialValue(s) {
			rv, err := r.ResolveValue(ctx, s, field, space, currentUser)
			if err != nil {
				return nil, err
			}
			resolved[field.Name] = rv
			continue
		}
		resolved[field.Name] = value
	}
	return resolved, nil
}
