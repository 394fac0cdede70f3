// Package service contains the note application service.
package service

import (
	"context"
	"fmt"

	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
	"github.com/and161185/ngotes/internal/repository"
)

// NoteService defines the owner-scoped note operations.
type NoteService interface {
	// List returns the owner's notes in display order.
	List(ctx context.Context, owner string, page model.Page) ([]model.Note, error)
	// Create stores a new note stamped with at.
	Create(ctx context.Context, owner string, in model.NoteInput, at int64) (model.Note, error)
	// Update applies the supplied fields and stamps lastModified with at.
	Update(ctx context.Context, owner, id string, in model.NoteInput, at int64) (bool, error)
	// Delete removes a note.
	Delete(ctx context.Context, owner, id string) (bool, error)
}

type NoteServiceImpl struct {
	repo repository.NoteRepository
}

// NewNoteService constructs NoteService over a repository.
func NewNoteService(repo repository.NoteRepository) *NoteServiceImpl {
	return &NoteServiceImpl{repo: repo}
}

// List validates the page window and delegates to the repository.
func (s *NoteServiceImpl) List(ctx context.Context, owner string, page model.Page) ([]model.Note, error) {
	if owner == "" {
		return nil, errEmptyOwner
	}
	if page.Offset < 0 || page.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must be non-negative", errs.ErrValidation)
	}
	return s.repo.List(ctx, owner, page)
}

// Create validates input and stores a note with created == lastModified == at.
// Validation rules:
// - title supplied and non-empty
// - content defaults to "", pinned to false
func (s *NoteServiceImpl) Create(ctx context.Context, owner string, in model.NoteInput, at int64) (model.Note, error) {
	if owner == "" {
		return model.Note{}, errEmptyOwner
	}
	if in.Title == nil {
		return model.Note{}, fmt.Errorf(`%w: note "title" not specified`, errs.ErrValidation)
	}
	if *in.Title == "" {
		return model.Note{}, errEmptyTitle
	}

	n := model.Note{
		Owner:        owner,
		Title:        *in.Title,
		Created:      at,
		LastModified: at,
	}
	if in.Content != nil {
		n.Content = *in.Content
	}
	if in.Pinned != nil {
		n.Pinned = *in.Pinned
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return model.Note{}, err
	}
	return n, nil
}

// Update requires at least one of title, content or pinned.
func (s *NoteServiceImpl) Update(ctx context.Context, owner, id string, in model.NoteInput, at int64) (bool, error) {
	if owner == "" {
		return false, errEmptyOwner
	}
	if id == "" {
		return false, errNoID
	}
	if in.Empty() {
		return false, fmt.Errorf(`%w: at least specify one of "title", "content" or "pinned" to update`, errs.ErrValidation)
	}
	if in.Title != nil && *in.Title == "" {
		return false, errEmptyTitle
	}
	return s.repo.Update(ctx, owner, id, model.NotePatch{
		Title:        in.Title,
		Content:      in.Content,
		Pinned:       in.Pinned,
		LastModified: at,
	})
}

// Delete removes the owner's note.
func (s *NoteServiceImpl) Delete(ctx context.Context, owner, id string) (bool, error) {
	if owner == "" {
		return false, errEmptyOwner
	}
	if id == "" {
		return false, errNoID
	}
	return s.repo.Delete(ctx, owner, id)
}

var (
	errEmptyOwner = fmt.Errorf("%w: empty caller", errs.ErrUnauthorized)
	errNoID       = fmt.Errorf("%w: note id not specified", errs.ErrValidation)
	errEmptyTitle = fmt.Errorf(`%w: note "title" must not be empty`, errs.ErrValidation)
)
