// Package api defines the JSON wire contract shared by the notes handler and its clients.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/and161185/ngotes/internal/model"
)

// Envelope status flags.
const (
	StatusFailure = 0
	StatusSuccess = 1
)

// Envelope wraps every response of the notes handler.
type Envelope struct {
	Status     int    `json:"status"`
	UserID     string `json:"user_id,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	Message    string `json:"message,omitempty"`
	InsertedID string `json:"inserted_id,omitempty"`
	UpdatedID  string `json:"updated_id,omitempty"`
	DeletedID  string `json:"deleted_id,omitempty"`
	// Data is set for listings only; an empty listing encodes as [].
	Data *[]model.Note `json:"data,omitempty"`
}

// OK reports whether the envelope carries a success status.
func (e Envelope) OK() bool { return e.Status == StatusSuccess }

// Notes returns the listing payload, or nil when there is none.
func (e Envelope) Notes() []model.Note {
	if e.Data == nil {
		return nil
	}
	return *e.Data
}

// NoteBody is the request body of create and update calls.
// Absent and null fields decode to nil.
type NoteBody struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Pinned  *Bool   `json:"pinned,omitempty"`
}

// Input converts the body into a presence-aware domain input.
func (b NoteBody) Input() model.NoteInput {
	in := model.NoteInput{Title: b.Title, Content: b.Content}
	if b.Pinned != nil {
		v := bool(*b.Pinned)
		in.Pinned = &v
	}
	return in
}

// BodyFromInput is the inverse of NoteBody.Input.
func BodyFromInput(in model.NoteInput) NoteBody {
	b := NoteBody{Title: in.Title, Content: in.Content}
	if in.Pinned != nil {
		v := Bool(*in.Pinned)
		b.Pinned = &v
	}
	return b
}

// Bool is a boolean that also accepts the string and numeric spellings
// understood by strconv.ParseBool ("true", "1", "false", "0", ...).
type Bool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw string
	switch {
	case len(data) > 0 && data[0] == '"':
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	default:
		raw = string(data)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean %s", data)
	}
	*b = Bool(v)
	return nil
}
