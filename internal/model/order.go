package model

import (
	"cmp"
	"slices"
)

// CompareNotes orders pinned notes first, then the most recently modified,
// then by id so that the order is total.
func CompareNotes(a, b Note) int {
	if a.Pinned != b.Pinned {
		if a.Pinned {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.LastModified, a.LastModified); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortNotes sorts notes in display order in place.
// It matches the ordering of a fresh listing from every note store.
func SortNotes(notes []Note) {
	slices.SortStableFunc(notes, CompareNotes)
}

// PageNotes returns the window of already ordered notes selected by p.
func PageNotes(notes []Note, p Page) []Note {
	if p.Offset >= len(notes) {
		return []Note{}
	}
	notes = notes[p.Offset:]
	if p.Limit > 0 && p.Limit < len(notes) {
		notes = notes[:p.Limit]
	}
	return notes
}
