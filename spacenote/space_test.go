package spacenote_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spacenote/spacenote/testutil"
	"github.com/spacenote/spacenote/types"
)

func TestCreateSpace(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	space, err := app.Spaces.CreateSpace(ctx, "wiki", "Team wiki", []string{"alice"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if space.DefaultPageSize != types.DefaultPageSize || space.MaxPageSize != types.DefaultMaxPageSize {
		t.Errorf("page sizes = %d/%d, want defaults", space.DefaultPageSize, space.MaxPageSize)
	}

	if _, err := app.Spaces.CreateSpace(ctx, "wiki", "Again", nil); err == nil {
		t.Error("duplicate space id should fail")
	}
	if _, err := app.Spaces.CreateSpace(ctx, "Bad Slug", "x", nil); !errors.Is(err, types.ErrConfig) {
		t.Errorf("invalid slug error = %v, want config error", err)
	}
}

func TestAddFieldRejectsDuplicate(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	err := app.Spaces.AddField(ctx, testutil.TestSpaceID, types.SpaceField{
		Name: "title", Type: types.FieldTypeString,
	})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate field error = %v", err)
	}
}

func TestFilterLifecycle(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	filter := types.Filter{
		ID:    "open-tasks",
		Title: "Open tasks",
		Conditions: []types.FilterCondition{
			{Field: "status", Operator: types.OpEqual, Value: "open"},
		},
		Sort: []string{"-created_at"},
	}
	if err := app.Spaces.AddFilter(ctx, testutil.TestSpaceID, filter); err != nil {
		t.Fatalf("add filter failed: %v", err)
	}

	space, _ := app.Spaces.GetSpace(testutil.TestSpaceID)
	if space.GetFilter("open-tasks") == nil {
		t.Fatal("filter not visible after add")
	}

	// Same id again is rejected.
	if err := app.Spaces.AddFilter(ctx, testutil.TestSpaceID, filter); err == nil {
		t.Error("duplicate filter id should fail")
	}

	// Updating keeps the id and replaces the definition.
	filter.Conditions = append(filter.Conditions, types.FilterCondition{
		Field: "assignee", Operator: types.OpEqual, Value: "@me",
	})
	if err := app.Spaces.UpdateFilter(ctx, testutil.TestSpaceID, filter); err != nil {
		t.Fatalf("update filter failed: %v", err)
	}
	space, _ = app.Spaces.GetSpace(testutil.TestSpaceID)
	if got := space.GetFilter("open-tasks"); len(got.Conditions) != 2 {
		t.Errorf("updated filter has %d conditions, want 2", len(got.Conditions))
	}

	if err := app.Spaces.DeleteFilter(ctx, testutil.TestSpaceID, "open-tasks"); err != nil {
		t.Fatalf("delete filter failed: %v", err)
	}
	space, _ = app.Spaces.GetSpace(testutil.TestSpaceID)
	if space.GetFilter("open-tasks") != nil {
		t.Error("filter still visible after delete")
	}
	if err := app.Spaces.DeleteFilter(ctx, testutil.TestSpaceID, "open-tasks"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second delete = %v, want not found", err)
	}
}

func TestAddFilterReportsAllProblems(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	bad := types.Filter{
		ID: "bad",
		Conditions: []types.FilterCondition{
			{Field: "ghost", Operator: types.OpEqual, Value: "x"},
			{Field: "done", Operator: types.OpContains, Value: "t"},
		},
		Sort: []string{"nope"},
	}
	err := app.Spaces.AddFilter(ctx, testutil.TestSpaceID, bad)
	if err == nil {
		t.Fatal("invalid filter should fail")
	}
	// All three problems are joined into one error.
	for _, fragment := range []string{"ghost", "not valid for field type", "nope"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("joined error should mention %q, got %v", fragment, err)
		}
	}
}

func TestUpdateFilterUnknownID(t *testing.T) {
	app := testutil.NewTestApp(t)

	err := app.Spaces.UpdateFilter(context.Background(), testutil.TestSpaceID, types.Filter{ID: "ghost"})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestUpdatePageSizes(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	if err := app.Spaces.UpdatePageSizes(ctx, testutil.TestSpaceID, 10, 50); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	space, _ := app.Spaces.GetSpace(testutil.TestSpaceID)
	if space.DefaultPageSize != 10 || space.MaxPageSize != 50 {
		t.Errorf("page sizes = %d/%d, want 10/50", space.DefaultPageSize, space.MaxPageSize)
	}

	if err := app.Spaces.UpdatePageSizes(ctx, testutil.TestSpaceID, 60, 50); !errors.Is(err, types.ErrConfig) {
		t.Errorf("default above max = %v, want config error", err)
	}
}

func TestDeleteSpaceDropsCollections(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()
	alice := testutil.MustUser(t, app, "alice")

	note, err := app.Notes.CreateNoteFromRaw(ctx, testutil.TestSpaceID, alice, map[string]string{"title": "doomed"})
	if err != nil {
		t.Fatalf("create note failed: %v", err)
	}

	if err := app.Spaces.DeleteSpace(ctx, testutil.TestSpaceID); err != nil {
		t.Fatalf("delete space failed: %v", err)
	}
	if _, err := app.Spaces.GetSpace(testutil.TestSpaceID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("space lookup = %v, want not found", err)
	}
	if _, err := app.Notes.GetNote(ctx, testutil.TestSpaceID, note.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("note lookup after space delete = %v, want not found", err)
	}
}

func TestUpdateListFieldsValidatesReferences(t *testing.T) {
	app := testutil.NewTestApp(t)
	ctx := context.Background()

	if err := app.Spaces.UpdateListFields(ctx, testutil.TestSpaceID, []string{"id", "title"}); err != nil {
		t.Fatalf("valid list fields failed: %v", err)
	}
	if err := app.Spaces.UpdateListFields(ctx, testutil.TestSpaceID, []string{"ghost"}); !errors.Is(err, types.ErrConfig) {
		t.Errorf("unknown list field = %v, want config error", err)
	}
}
