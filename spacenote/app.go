package spacenote

import (
	"context"
	"log/slog"

	"github.com/spacenote/spacenote/spacenote/special"
	"github.com/spacenote/spacenote/spacenote/store"
)

// App wires the services over a single store. It is the embedding
// surface: construct one App per process and share it freely.
type App struct {
	Store       store.Store
	Spaces      *SpaceService
	Users       *UserService
	Notes       *NoteService
	Comments    *CommentService
	Attachments *AttachmentService

	logger *slog.Logger
}

// New assembles an App over st. Call Start before use.
func New(st store.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	spaces := NewSpaceService(st)
	users := NewUserService(st)
	attachments := NewAttachmentService(st, spaces)
	resolver := special.NewResolver(attachments)
	notes := NewNoteService(st, spaces, resolver, logger)
	comments := NewCommentService(st, spaces, notes)

	return &App{
		Store:       st,
		Spaces:      spaces,
		Users:       users,
		Notes:       notes,
		Comments:    comments,
		Attachments: attachments,
		logger:      logger,
	}
}

// Start warms the caches and registers the per-space collections.
func (a *App) Start(ctx context.Context) error {
	if err := a.Users.Start(ctx); err != nil {
		return err
	}
	if err := a.Spaces.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("application started",
		"spaces", len(a.Spaces.ListSpaces()),
		"users", len(a.Users.ListUsers()))
	return nil
}

// Close releases the underlying store.
func (a *App) Close() error {
	return a.Store.Close()
}
