package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/ngotes/internal/api"
	"github.com/and161185/ngotes/internal/model"
)

// TokenSource yields the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// APIError is a failure envelope returned by the notes handler.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notes api: %d %s", e.StatusCode, e.Message)
}

// API is the HTTP transport for the notes handler.
type API struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

// NewAPI constructs a transport for the handler mounted at base
// (for example https://example.netlify.app/.netlify/functions).
func NewAPI(base string, tokens TokenSource, hc *http.Client) *API {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &API{base: strings.TrimRight(base, "/"), http: hc, tokens: tokens}
}

// List fetches the caller's notes.
func (a *API) List(ctx context.Context, page model.Page) (api.Envelope, error) {
	q := url.Values{}
	if page.Offset > 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	path := "/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return a.do(ctx, http.MethodGet, path, nil)
}

// Create submits a new note.
func (a *API) Create(ctx context.Context, in model.NoteInput) (api.Envelope, error) {
	body := api.BodyFromInput(in)
	return a.do(ctx, http.MethodPost, "/notes", &body)
}

// Update patches the note id with the supplied fields.
func (a *API) Update(ctx context.Context, id string, in model.NoteInput) (api.Envelope, error) {
	body := api.BodyFromInput(in)
	return a.do(ctx, http.MethodPatch, "/notes/"+url.PathEscape(id), &body)
}

// Delete removes the note id.
func (a *API) Delete(ctx context.Context, id string) (api.Envelope, error) {
	return a.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil)
}

func (a *API) do(ctx context.Context, method, path string, body *api.NoteBody) (api.Envelope, error) {
	tok, err := a.tokens.Token(ctx)
	if err != nil {
		return api.Envelope{}, err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return api.Envelope{}, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return api.Envelope{}, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return api.Envelope{}, fmt.Errorf("notes api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env api.Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&env); err != nil {
		return api.Envelope{}, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if !env.OK() {
		return env, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}
