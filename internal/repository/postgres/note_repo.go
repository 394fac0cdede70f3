package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
)

// NoteRepo implements NoteRepository using PostgreSQL.
type NoteRepo struct{ q Querier }

// NewNoteRepo constructs a note repository over q.
func NewNoteRepo(q Querier) *NoteRepo { return &NoteRepo{q: q} }

// List returns the owner's notes ordered pinned first, then most recently modified.
func (r *NoteRepo) List(ctx context.Context, owner string, page model.Page) ([]model.Note, error) {
	q := `
SELECT id, title, content, pinned, created, last_modified
FROM notes
WHERE owner=$1
ORDER BY pinned DESC, last_modified DESC, id ASC
OFFSET $2`
	args := []any{owner, page.Offset}
	// LIMIT is omitted for 0: zero means no limit here.
	if page.Limit > 0 {
		q += ` LIMIT $3`
		args = append(args, page.Limit)
	}

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err = rows.Scan(&n.ID, &n.Title, &n.Content, &n.Pinned, &n.Created, &n.LastModified); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Create inserts a note under a fresh random id.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	const ins = `
INSERT INTO notes (id, owner, title, content, pinned, created, last_modified)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.q.Exec(ctx, ins, id.String(), n.Owner, n.Title, n.Content, n.Pinned, n.Created, n.LastModified); err != nil {
		return err
	}
	n.ID = id.String()
	return nil
}

// Update sets the supplied fields; NULL parameters keep the stored value.
func (r *NoteRepo) Update(ctx context.Context, owner, id string, patch model.NotePatch) (bool, error) {
	noteID, err := parseID(id)
	if err != nil {
		return false, err
	}
	const upd = `
UPDATE notes
SET title=COALESCE($3, title), content=COALESCE($4, content), pinned=COALESCE($5, pinned), last_modified=$6
WHERE id=$1 AND owner=$2`
	tag, err := r.q.Exec(ctx, upd, noteID, owner, patch.Title, patch.Content, patch.Pinned, patch.LastModified)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the owner's note.
func (r *NoteRepo) Delete(ctx context.Context, owner, id string) (bool, error) {
	noteID, err := parseID(id)
	if err != nil {
		return false, err
	}
	const del = `DELETE FROM notes WHERE id=$1 AND owner=$2`
	tag, err := r.q.Exec(ctx, del, noteID, owner)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func parseID(id string) (string, error) {
	u, err := uuid.FromString(id)
	if err != nil {
		return "", fmt.Errorf("%w: invalid note id", errs.ErrValidation)
	}
	return u.String(), nil
}
