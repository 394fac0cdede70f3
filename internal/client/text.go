package client

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailRe = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailRe.MatchString(strings.ToLower(email))
}

// ValidPassword reports whether the password is 6 to 24 characters long.
func ValidPassword(password string) bool {
	n := utf8.RuneCountInString(password)
	return n >= 6 && n <= 24
}

// Savable reports whether text can become a note: non-empty, first character not a space.
func Savable(text string) bool {
	r, size := utf8.DecodeRuneInString(text)
	return size > 0 && !unicode.IsSpace(r)
}

// SplitNote splits editor text at the first newline into title and content.
func SplitNote(text string) (title, content string) {
	title, content, _ = strings.Cut(text, "\n")
	return title, content
}

// JoinNote is the inverse of SplitNote.
func JoinNote(title, content string) string {
	if content == "" {
		return title
	}
	return title + "\n" + content
}

// Truncate shortens s to fewer than max characters at a word boundary and appends " …".
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 1 {
		return " …"
	}
	cut := string(runes[:max-1])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + " …"
}
