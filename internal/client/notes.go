// Package client implements the notes frontend: the API transport and the view-model
// that keeps the signed-in user's notes in sync with the server.
package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/ngotes/internal/api"
	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/identity"
	"github.com/and161185/ngotes/internal/model"
)

// Entry form messages.
const (
	MsgInvalidEmail    = "Invalid email address"
	MsgInvalidPassword = "Password must be between 6-24 characters"
	MsgSignedUp        = "A verification link has been sent to your email, open it up to activate your account"
	MsgConfirming      = "Checking user confirmation token …"
)

var (
	// ErrNotSavable is returned when the note text is empty or starts with a space.
	ErrNotSavable = fmt.Errorf("%w: note must start with a non-space character", errs.ErrValidation)
	// ErrInvalidEntry is returned when the entry form fails validation.
	ErrInvalidEntry = fmt.Errorf("%w: invalid credentials format", errs.ErrValidation)
)

var tokenFragmentRe = regexp.MustCompile(`(confirmation|recovery)_token=([^&]+)`)

// Authenticator is the identity provider as seen by the view-model.
type Authenticator interface {
	Init() (*identity.User, error)
	Login(ctx context.Context, email, password string, remember bool) (*identity.User, error)
	Signup(ctx context.Context, email, password string) (*identity.User, error)
	Confirm(ctx context.Context, token string, remember bool) (*identity.User, error)
	Logout(ctx context.Context) error
}

// NotesAPI is the notes handler as seen by the view-model.
type NotesAPI interface {
	List(ctx context.Context, page model.Page) (api.Envelope, error)
	Create(ctx context.Context, in model.NoteInput) (api.Envelope, error)
	Update(ctx context.Context, id string, in model.NoteInput) (api.Envelope, error)
	Delete(ctx context.Context, id string) (api.Envelope, error)
}

// EntryForm is the login/signup form.
type EntryForm struct {
	Email    string
	Password string
	Remember bool
	Message  string
}

// EditModal is open while NoteID is set.
type EditModal struct {
	NoteID  string
	Text    string
	Changed bool
	Message string

	opened string
}

// DeleteModal is open while NoteID is set.
type DeleteModal struct {
	NoteID  string
	Title   string
	Message string
}

// State is a copy of the view-model.
type State struct {
	Email    string
	Notes    []model.Note // nil until the first fetch
	Fetching bool
	Entry    EntryForm
	Draft    string
	Edit     EditModal
	Delete   DeleteModal
}

// SignedIn reports whether a user is signed in.
func (s State) SignedIn() bool { return s.Email != "" }

// Notes is the view-model. Methods are safe for concurrent use; network calls
// run without holding the state lock.
type Notes struct {
	auth Authenticator
	api  NotesAPI
	log  *zap.Logger

	mu     sync.Mutex
	st     State
	subs   map[int]func(State)
	nextID int
}

// New constructs the view-model.
func New(auth Authenticator, notesAPI NotesAPI, log *zap.Logger) *Notes {
	return &Notes{auth: auth, api: notesAPI, log: log, subs: make(map[int]func(State))}
}

// Snapshot returns a copy of the current state.
func (n *Notes) Snapshot() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func unregisters it.
func (n *Notes) Subscribe(fn func(State)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// update applies fn under the lock and notifies subscribers outside it.
func (n *Notes) update(fn func(*State)) {
	n.mu.Lock()
	fn(&n.st)
	snap := n.snapshotLocked()
	subs := make([]func(State), 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	for _, s := range subs {
		s(snap)
	}
}

func (n *Notes) snapshotLocked() State {
	s := n.st
	if s.Notes != nil {
		s.Notes = append([]model.Note(nil), s.Notes...)
	}
	return s
}

// Init restores the remembered user, or confirms a signup when fragment
// carries a confirmation token, and then fetches the notes.
func (n *Notes) Init(ctx context.Context, fragment string) error {
	fragment = strings.TrimLeft(fragment, "#/")

	user, err := n.auth.Init()
	if err != nil {
		n.log.Warn("restore session", zap.Error(err))
	}

	if m := tokenFragmentRe.FindStringSubmatch(fragment); m != nil {
		if m[1] != "confirmation" {
			return nil
		}
		var remember bool
		n.update(func(s *State) {
			s.Entry.Message = MsgConfirming
			remember = s.Entry.Remember
		})
		u, err := n.auth.Confirm(ctx, m[2], remember)
		if err != nil {
			n.update(func(s *State) { s.Entry.Message = messageOf(err) })
			return err
		}
		n.signedIn(u.Email)
		return n.FetchNotes(ctx)
	}

	if user == nil || user.Email == "" {
		return nil
	}
	n.signedIn(user.Email)
	return n.FetchNotes(ctx)
}

// SetEntry fills the entry form.
func (n *Notes) SetEntry(email, password string, remember bool) {
	n.update(func(s *State) {
		s.Entry.Email, s.Entry.Password, s.Entry.Remember = email, password, remember
	})
}

// Validate checks the entry form and sets its message on failure.
func (n *Notes) Validate() bool {
	ok := true
	n.update(func(s *State) {
		switch {
		case !ValidEmail(s.Entry.Email):
			s.Entry.Message = MsgInvalidEmail
			ok = false
		case !ValidPassword(s.Entry.Password):
			s.Entry.Message = MsgInvalidPassword
			ok = false
		}
	})
	return ok
}

// Login signs in with the entry form credentials and fetches the notes.
func (n *Notes) Login(ctx context.Context) error {
	if !n.Validate() {
		return ErrInvalidEntry
	}
	e := n.Snapshot().Entry

	u, err := n.auth.Login(ctx, e.Email, e.Password, e.Remember)
	if err != nil {
		n.log.Info("login rejected", zap.Error(err))
		n.update(func(s *State) { s.Entry.Message = messageOf(err) })
		return err
	}
	n.signedIn(u.Email)
	return n.FetchNotes(ctx)
}

// Signup registers the entry form credentials.
func (n *Notes) Signup(ctx context.Context) error {
	if !n.Validate() {
		return ErrInvalidEntry
	}
	e := n.Snapshot().Entry

	if _, err := n.auth.Signup(ctx, e.Email, e.Password); err != nil {
		n.log.Info("signup rejected", zap.Error(err))
		n.update(func(s *State) { s.Entry.Message = messageOf(err) })
		return err
	}
	n.update(func(s *State) { s.Entry.Message = MsgSignedUp })
	return nil
}

// Logout signs out and forgets the notes.
func (n *Notes) Logout(ctx context.Context) error {
	if err := n.auth.Logout(ctx); err != nil {
		n.log.Warn("logout", zap.Error(err))
		return err
	}
	n.update(func(s *State) {
		s.Email = ""
		s.Notes = nil
		s.Edit = EditModal{}
		s.Delete = DeleteModal{}
	})
	return nil
}

func (n *Notes) signedIn(email string) {
	n.update(func(s *State) {
		s.Email = email
		s.Entry.Password = ""
		s.Entry.Message = ""
	})
}

// FetchNotes replaces the cached notes with the server's list.
func (n *Notes) FetchNotes(ctx context.Context) error {
	n.update(func(s *State) { s.Fetching = true })
	defer n.update(func(s *State) { s.Fetching = false })

	env, err := n.api.List(ctx, model.Page{})
	if err != nil {
		n.log.Error("fetch notes", zap.Error(err))
		return err
	}
	notes := env.Notes()
	if notes == nil {
		notes = []model.Note{}
	}
	model.SortNotes(notes)
	n.update(func(s *State) { s.Notes = notes })
	return nil
}

// SetDraft replaces the new-note draft.
func (n *Notes) SetDraft(text string) {
	n.update(func(s *State) { s.Draft = text })
}

// CreateNote submits the draft as a new note and returns it as cached.
func (n *Notes) CreateNote(ctx context.Context) (model.Note, error) {
	draft := n.Snapshot().Draft
	if !Savable(draft) {
		return model.Note{}, ErrNotSavable
	}
	title, content := SplitNote(draft)

	env, err := n.api.Create(ctx, model.NoteInput{Title: &title, Content: &content})
	if err != nil {
		n.log.Error("create note", zap.Error(err))
		return model.Note{}, err
	}
	note := model.Note{
		ID:           env.InsertedID,
		Title:        title,
		Content:      content,
		Created:      env.Timestamp,
		LastModified: env.Timestamp,
	}
	n.update(func(s *State) {
		s.Draft = ""
		s.Notes = append(s.Notes, note)
		model.SortNotes(s.Notes)
	})
	return note, nil
}

// OpenEdit opens the edit modal for a cached note.
func (n *Notes) OpenEdit(id string) error {
	var err error
	n.update(func(s *State) {
		i := indexOf(s.Notes, id)
		if i < 0 {
			err = notFound(id)
			return
		}
		text := JoinNote(s.Notes[i].Title, s.Notes[i].Content)
		s.Edit = EditModal{NoteID: id, Text: text, opened: text}
	})
	return err
}

// SetEditValue replaces the edit modal text.
func (n *Notes) SetEditValue(text string) {
	n.update(func(s *State) {
		if s.Edit.NoteID == "" {
			return
		}
		s.Edit.Text = text
		s.Edit.Changed = text != s.Edit.opened
	})
}

// CloseEdit discards the edit modal.
func (n *Notes) CloseEdit() {
	n.update(func(s *State) { s.Edit = EditModal{} })
}

// SaveEdit submits the edit modal. Unchanged title and content close the
// modal without a request.
func (n *Notes) SaveEdit(ctx context.Context) error {
	var (
		id, text string
		cur      model.Note
		found    bool
	)
	n.mu.Lock()
	id, text = n.st.Edit.NoteID, n.st.Edit.Text
	if i := indexOf(n.st.Notes, id); i >= 0 {
		cur, found = n.st.Notes[i], true
	}
	n.mu.Unlock()

	if id == "" || !found {
		return notFound(id)
	}
	if !Savable(text) {
		return ErrNotSavable
	}
	title, content := SplitNote(text)
	if title == cur.Title && content == cur.Content {
		n.CloseEdit()
		return nil
	}

	env, err := n.api.Update(ctx, id, model.NoteInput{Title: &title, Content: &content})
	if err != nil {
		n.log.Error("update note", zap.String("id", id), zap.Error(err))
		n.update(func(s *State) {
			if s.Edit.NoteID == id {
				s.Edit.Message = messageOf(err)
			}
		})
		return err
	}
	n.update(func(s *State) {
		if s.Edit.NoteID == id {
			s.Edit = EditModal{}
		}
		if i := indexOf(s.Notes, id); i >= 0 {
			s.Notes[i].Title = title
			s.Notes[i].Content = content
			s.Notes[i].LastModified = env.Timestamp
			model.SortNotes(s.Notes)
		}
	})
	return nil
}

// TogglePin flips the pinned flag of a cached note.
func (n *Notes) TogglePin(ctx context.Context, id string) error {
	n.mu.Lock()
	i := indexOf(n.st.Notes, id)
	var pinned bool
	if i >= 0 {
		pinned = !n.st.Notes[i].Pinned
	}
	n.mu.Unlock()
	if i < 0 {
		return notFound(id)
	}

	env, err := n.api.Update(ctx, id, model.NoteInput{Pinned: &pinned})
	if err != nil {
		n.log.Error("pin note", zap.String("id", id), zap.Error(err))
		return err
	}
	n.update(func(s *State) {
		if i := indexOf(s.Notes, id); i >= 0 {
			s.Notes[i].Pinned = pinned
			s.Notes[i].LastModified = env.Timestamp
			model.SortNotes(s.Notes)
		}
	})
	return nil
}

// OpenDelete opens the delete confirmation for a cached note.
func (n *Notes) OpenDelete(id string) error {
	var err error
	n.update(func(s *State) {
		i := indexOf(s.Notes, id)
		if i < 0 {
			err = notFound(id)
			return
		}
		s.Delete = DeleteModal{NoteID: id, Title: s.Notes[i].Title}
	})
	return err
}

// CancelDelete closes the delete confirmation.
func (n *Notes) CancelDelete() {
	n.update(func(s *State) { s.Delete = DeleteModal{} })
}

// DeleteNote deletes the note awaiting confirmation.
func (n *Notes) DeleteNote(ctx context.Context) error {
	id := n.Snapshot().Delete.NoteID
	if id == "" {
		return notFound(id)
	}

	if _, err := n.api.Delete(ctx, id); err != nil {
		n.log.Error("delete note", zap.String("id", id), zap.Error(err))
		n.update(func(s *State) {
			if s.Delete.NoteID == id {
				s.Delete.Message = messageOf(err)
			}
		})
		return err
	}
	n.update(func(s *State) {
		if s.Delete.NoteID == id {
			s.Delete = DeleteModal{}
		}
		if i := indexOf(s.Notes, id); i >= 0 {
			s.Notes = append(s.Notes[:i:i], s.Notes[i+1:]...)
		}
		if s.Edit.NoteID == id {
			s.Edit = EditModal{}
		}
	})
	return nil
}

// AskBeforeUnload reports whether leaving now would lose typed text.
func (n *Notes) AskBeforeUnload() bool {
	s := n.Snapshot()
	return Savable(s.Draft) || (s.Edit.NoteID != "" && s.Edit.Changed)
}

func indexOf(notes []model.Note, id string) int {
	if id == "" {
		return -1
	}
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return fmt.Errorf("note %q: %w", id, errs.ErrNotFound)
}

// messageOf extracts the user-facing message from provider and API errors.
func messageOf(err error) string {
	var ie *identity.Error
	if errors.As(err, &ie) {
		return ie.Message()
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
