// Package model defines domain entities used by services, repositories and the client.
package model

// Note is a single stored note. Owner is the caller identity that created it;
// it is a filter key only and never leaves the server.
type Note struct {
	ID           string `json:"id"`
	Owner        string `json:"-"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	Pinned       bool   `json:"pinned"`
	Created      int64  `json:"created"`      // seconds since epoch
	LastModified int64  `json:"lastModified"` // seconds since epoch, >= Created
}

// NoteInput carries the fields supplied by a create or update request.
// A nil field was not supplied.
type NoteInput struct {
	Title   *string
	Content *string
	Pinned  *bool
}

// Empty reports whether no field was supplied.
func (in NoteInput) Empty() bool {
	return in.Title == nil && in.Content == nil && in.Pinned == nil
}

// NotePatch is a validated update: supplied fields plus the modification time.
type NotePatch struct {
	Title        *string
	Content      *string
	Pinned       *bool
	LastModified int64
}

// Apply copies supplied fields onto n and refreshes LastModified.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	n.LastModified = p.LastModified
}

// Page selects a window of a note listing. Limit 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}
