// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/ngotes/internal/model"
)

// NoteRepository provides owner-scoped access to notes.
type NoteRepository interface {
	// List returns the owner's notes in display order, owner field cleared.
	List(ctx context.Context, owner string, page model.Page) ([]model.Note, error)

	// Create stores n and assigns n.ID.
	Create(ctx context.Context, n *model.Note) error

	// Update applies patch to the owner's note id; reports whether a note matched.
	Update(ctx context.Context, owner, id string, patch model.NotePatch) (bool, error)

	// Delete removes the owner's note id; reports whether a note was removed.
	Delete(ctx context.Context, owner, id string) (bool, error)
}

// Session is a NoteRepository bound to one acquired store connection.
type Session interface {
	NoteRepository
	// Close releases the connection.
	Close(ctx context.Context) error
}

// Connector acquires one Session per handler invocation.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}
