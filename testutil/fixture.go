// Package testutil provides shared fixtures for service and query tests:
// a space exercising every field type and an application wired over the
// in-memory store.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/spacenote/spacenote/spacenote"
	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

// TestSpaceID is the id of the fixture space.
const TestSpaceID = "tasks"

// TestSpace returns a space whose schema covers every field type. Tests
// mutate their copy freely.
func TestSpace() *types.Space {
	return &types.Space{
		ID:      TestSpaceID,
		Name:    "Team tasks",
		Members: []string{"alice", "bob"},
		Fields: []types.SpaceField{
			{Name: "title", Type: types.FieldTypeString, Required: true},
			{Name: "body", Type: types.FieldTypeMarkdown},
			{Name: "done", Type: types.FieldTypeBoolean, Default: false},
			{
				Name: "status",
				Type: types.FieldTypeChoice,
				Options: map[types.FieldOption]any{
					types.OptionValues: []string{"open", "in-progress", "closed"},
				},
				Default: "open",
			},
			{Name: "labels", Type: types.FieldTypeTags},
			{Name: "assignee", Type: types.FieldTypeUser, Default: "@me"},
			{Name: "due", Type: types.FieldTypeDatetime},
			{
				Name: "priority",
				Type: types.FieldTypeInt,
				Options: map[types.FieldOption]any{
					types.OptionMin: int64(1),
					types.OptionMax: int64(5),
				},
			},
			{Name: "estimate", Type: types.FieldTypeFloat},
			{Name: "screenshot", Type: types.FieldTypeImage},
		},
		ListFields:      []string{"id", "title", "status", "assignee"},
		DefaultPageSize: types.DefaultPageSize,
		MaxPageSize:     types.DefaultMaxPageSize,
	}
}

// NewTestApp starts an application over a fresh in-memory store with the
// fixture space and its members created.
func NewTestApp(t *testing.T) *spacenote.App {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := spacenote.New(store.NewMemory(), logger)
	if err := app.Start(ctx); err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	for _, username := range []string{"alice", "bob"} {
		if _, err := app.Users.CreateUser(ctx, username, "secret"); err != nil {
			t.Fatalf("failed to create user %q: %v", username, err)
		}
	}

	fixture := TestSpace()
	space, err := app.Spaces.CreateSpace(ctx, fixture.ID, fixture.Name, fixture.Members)
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}
	for _, field := range fixture.Fields {
		if err := app.Spaces.AddField(ctx, space.ID, field); err != nil {
			t.Fatalf("failed to add field %q: %v", field.Name, err)
		}
	}
	if err := app.Spaces.UpdateListFields(ctx, space.ID, fixture.ListFields); err != nil {
		t.Fatalf("failed to set list fields: %v", err)
	}
	return app
}

// MustUser fetches a fixture user.
func MustUser(t *testing.T, app *spacenote.App, id string) *types.User {
	t.Helper()
	user, err := app.Users.GetUser(id)
	if err != nil {
		t.Fatalf("failed to get user %q: %v", id, err)
	}
	return user
}
