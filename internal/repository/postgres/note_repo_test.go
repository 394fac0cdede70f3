package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
)

const (
	listSQL   = `SELECT id, title, content, pinned, created, last_modified FROM notes WHERE owner=\$1 ORDER BY pinned DESC, last_modified DESC, id ASC OFFSET \$2`
	insertSQL = `INSERT INTO notes \(id, owner, title, content, pinned, created, last_modified\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)`
	updateSQL = `UPDATE notes SET title=COALESCE\(\$3, title\), content=COALESCE\(\$4, content\), pinned=COALESCE\(\$5, pinned\), last_modified=\$6 WHERE id=\$1 AND owner=\$2`
	deleteSQL = `DELETE FROM notes WHERE id=\$1 AND owner=\$2`
)

var noteCols = []string{"id", "title", "content", "pinned", "created", "last_modified"}

func newRepo(t *testing.T) (*NoteRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return NewNoteRepo(mock), mock
}

func TestNoteRepo_List_Unbounded(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()

	mock.ExpectQuery(listSQL + `$`).
		WithArgs("owner-1", 0).
		WillReturnRows(pgxmock.NewRows(noteCols).
			AddRow("id-1", "pinned", "", true, int64(1), int64(5)).
			AddRow("id-2", "recent", "body", false, int64(2), int64(9)))

	out, err := r.List(context.Background(), "owner-1", model.Page{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "id-1", out[0].ID)
	require.True(t, out[0].Pinned)
	require.Equal(t, "body", out[1].Content)
	require.Equal(t, int64(9), out[1].LastModified)
	for _, n := range out {
		require.Empty(t, n.Owner)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_List_WithLimit(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()

	mock.ExpectQuery(listSQL+` LIMIT \$3`).
		WithArgs("owner-1", 2, 3).
		WillReturnRows(pgxmock.NewRows(noteCols))

	out, err := r.List(context.Background(), "owner-1", model.Page{Offset: 2, Limit: 3})
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_List_Errors(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	ctx := context.Background()

	mock.ExpectQuery(listSQL).WithArgs("o", 0).WillReturnError(errors.New("q-fail"))
	_, err := r.List(ctx, "o", model.Page{})
	require.Error(t, err)

	rows := pgxmock.NewRows(noteCols).
		AddRow("id-1", "t", "", false, int64(1), int64(1)).
		RowError(0, errors.New("row0"))
	mock.ExpectQuery(listSQL).WithArgs("o", 0).WillReturnRows(rows)
	_, err = r.List(ctx, "o", model.Page{})
	require.Error(t, err)
}

func TestNoteRepo_Create_AssignsID(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()

	mock.ExpectExec(insertSQL).
		WithArgs(pgxmock.AnyArg(), "owner-1", "A", "B", false, int64(100), int64(100)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n := &model.Note{Owner: "owner-1", Title: "A", Content: "B", Created: 100, LastModified: 100}
	require.NoError(t, r.Create(context.Background(), n))
	_, err := uuid.FromString(n.ID)
	require.NoError(t, err, "id must be a uuid")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Create_ExecErr(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()

	mock.ExpectExec(insertSQL).WillReturnError(errors.New("insert-fail"))

	n := &model.Note{Owner: "o", Title: "A"}
	require.Error(t, r.Create(context.Background(), n))
	require.Empty(t, n.ID)
}

func TestNoteRepo_Update(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4()).String()

	title := "new title"
	pinned := true
	patch := model.NotePatch{Title: &title, Pinned: &pinned, LastModified: 200}

	mock.ExpectExec(updateSQL).
		WithArgs(id, "owner-1", patch.Title, patch.Content, patch.Pinned, int64(200)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := r.Update(ctx, "owner-1", id, patch)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(updateSQL).
		WithArgs(id, "owner-2", patch.Title, patch.Content, patch.Pinned, int64(200)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	ok, err = r.Update(ctx, "owner-2", id, patch)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Update_InvalidIDSkipsDB(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()

	_, err := r.Update(context.Background(), "o", "not-a-uuid", model.NotePatch{LastModified: 1})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepo_Update_ExecErr(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	id := uuid.Must(uuid.NewV4()).String()

	mock.ExpectExec(updateSQL).WillReturnError(errors.New("upd-fail"))
	_, err := r.Update(context.Background(), "o", id, model.NotePatch{LastModified: 1})
	require.Error(t, err)
}

func TestNoteRepo_Delete(t *testing.T) {
	r, mock := newRepo(t)
	defer mock.Close()
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4()).String()

	mock.ExpectExec(deleteSQL).WithArgs(id, "owner-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	ok, err := r.Delete(ctx, "owner-1", id)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectExec(deleteSQL).WithArgs(id, "owner-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	ok, err = r.Delete(ctx, "owner-1", id)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = r.Delete(ctx, "owner-1", "bad-id")
	require.ErrorIs(t, err, errs.ErrValidation)

	mock.ExpectExec(deleteSQL).WithArgs(id, "owner-1").WillReturnError(errors.New("del-fail"))
	_, err = r.Delete(ctx, "owner-1", id)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_CloseReleases(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	released := 0
	s := NewSession(mock, func(context.Context) error {
		released++
		return nil
	})
	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 1, released)
}
