// Package identity is a client for a GoTrue-compatible identity provider.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ngotes/internal/errs"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = fmt.Errorf("no session: %w", errs.ErrUnauthorized)

const refreshLeeway = 30 * time.Second

// Token is the provider token response with an absolute expiry.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// User is the signed-in account.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Token       Token      `json:"token"`
}

// Error is a rejection reported by the identity provider.
type Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`
	Msg         string `json:"msg,omitempty"`
}

// Message returns the provider's human-readable explanation.
func (e *Error) Message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Msg != "" {
		return e.Msg
	}
	return http.StatusText(e.StatusCode)
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: %d %s", e.StatusCode, e.Message())
}

// Store persists the remembered user between runs.
type Store interface {
	Load() (*User, error)
	Save(u *User) error
	Clear() error
}

// Client talks to the identity provider and keeps the current user.
type Client struct {
	base  string
	http  *http.Client
	store Store
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	user     *User
	remember bool
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithClock overrides the clock used for token expiry.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New constructs a client for the provider rooted at base.
func New(base string, store Store, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(base, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Init restores a remembered user from the store.
func (c *Client) Init() (*User, error) {
	u, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
	c.remember = u != nil
	return copyUser(u), nil
}

// CurrentUser returns the signed-in user or nil.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyUser(c.user)
}

// Login exchanges credentials for a token and loads the user.
func (c *Client) Login(ctx context.Context, email, password string, remember bool) (*User, error) {
	form := url.Values{"username": {email}, "password": {password}}
	tok, err := c.grant(ctx, "password", form)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, tok, remember)
}

// Signup registers a new account. The provider sends a confirmation link.
func (c *Client) Signup(ctx context.Context, email, password string) (*User, error) {
	var u User
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/signup", "", jsonBody(body), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Confirm verifies a signup token and signs the user in.
func (c *Client) Confirm(ctx context.Context, token string, remember bool) (*User, error) {
	var tok Token
	body := map[string]string{"type": "signup", "token": token}
	if err := c.do(ctx, http.MethodPost, "/verify", "", jsonBody(body), &tok); err != nil {
		return nil, err
	}
	return c.establish(ctx, tok, remember)
}

// Logout revokes the token on the provider and forgets the user locally.
// Provider failures are logged and do not keep the user signed in.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	u := c.user
	c.user, c.remember = nil, false
	c.mu.Unlock()

	if u != nil {
		if err := c.do(ctx, http.MethodPost, "/logout", u.Token.AccessToken, nil, nil); err != nil {
			c.log.Warn("identity logout", zap.Error(err))
		}
	}
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Token returns a valid access token, refreshing it when it is about to expire.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	u := copyUser(c.user)
	remember := c.remember
	c.mu.Unlock()

	if u == nil {
		return "", ErrNoSession
	}
	if u.Token.ExpiresAt == 0 || c.now().Add(refreshLeeway).Unix() < u.Token.ExpiresAt {
		return u.Token.AccessToken, nil
	}
	if u.Token.RefreshToken == "" {
		return "", ErrNoSession
	}

	tok, err := c.grant(ctx, "refresh_token", url.Values{"refresh_token": {u.Token.RefreshToken}})
	if err != nil {
		return "", err
	}
	u.Token = c.stamp(tok)

	c.mu.Lock()
	if c.user != nil && c.user.ID == u.ID {
		c.user = u
	}
	c.mu.Unlock()

	if remember {
		if err := c.store.Save(u); err != nil {
			c.log.Warn("save refreshed session", zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

func (c *Client) grant(ctx context.Context, grantType string, form url.Values) (Token, error) {
	var tok Token
	path := "/token?grant_type=" + url.QueryEscape(grantType)
	body := &reqBody{r: strings.NewReader(form.Encode()), contentType: "application/x-www-form-urlencoded"}
	if err := c.do(ctx, http.MethodPost, path, "", body, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// establish stamps the token expiry, loads the user and makes it current.
func (c *Client) establish(ctx context.Context, tok Token, remember bool) (*User, error) {
	if tok.AccessToken == "" {
		return nil, errors.New("identity: empty access token")
	}
	tok = c.stamp(tok)

	var u User
	if err := c.do(ctx, http.MethodGet, "/user", tok.AccessToken, nil, &u); err != nil {
		return nil, err
	}
	u.Token = tok

	c.mu.Lock()
	c.user = &u
	c.remember = remember
	c.mu.Unlock()

	if remember {
		if err := c.store.Save(&u); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
	}
	return copyUser(&u), nil
}

func (c *Client) stamp(tok Token) Token {
	if tok.ExpiresIn > 0 {
		tok.ExpiresAt = c.now().Add(time.Duration(tok.ExpiresIn) * time.Second).Unix()
	}
	return tok
}

type reqBody struct {
	r           io.Reader
	contentType string
}

func jsonBody(v any) *reqBody {
	b, _ := json.Marshal(v)
	return &reqBody{r: bytes.NewReader(b), contentType: "application/json"}
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body *reqBody, out any) error {
	var rd io.Reader
	if body != nil {
		rd = body.r
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identity %s %s: read: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		e := &Error{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(raw, e)
		return e
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity %s %s: decode: %w", method, path, err)
	}
	return nil
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
