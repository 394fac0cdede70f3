// Package httpserver exposes the notes handler over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/and161185/ngotes/internal/api"
	"github.com/and161185/ngotes/internal/auth"
	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
	"github.com/and161185/ngotes/internal/repository"
	"github.com/and161185/ngotes/internal/service"
)

const (
	msgNoToken      = "No authorization token provided"
	msgBadToken     = "Invalid authorization token"
	msgConnect      = "note store unavailable"
	msgFailed       = "note operation failed"
	msgInternal     = "internal error"
	msgInserted     = "Note inserted successfully"
	msgUpdated      = "Note updated successfully"
	msgNotUpdated   = "No notes are updated"
	msgDeleted      = "Note deleted successfully"
	msgNotDeleted   = "No notes are deleted"
	maxBodyBytes    = 1 << 20
	closeTimeout    = 5 * time.Second
	allowedMethods  = "GET, POST, PUT, PATCH, DELETE"
	allowedHeaders  = "Content-Type, Authorization"
	contentTypeJSON = "application/json"
)

// TokenVerifier resolves a bearer token into the caller identity.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Server wires the note store into HTTP handlers.
type Server struct {
	conn     repository.Connector
	verifier TokenVerifier
	log      *zap.Logger
	now      func() time.Time
}

// Option configures Server.
type Option func(*Server)

// WithClock overrides the invocation clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New constructs a Server with injected dependencies.
func New(conn repository.Connector, verifier TokenVerifier, log *zap.Logger, opts ...Option) *Server {
	s := &Server{conn: conn, verifier: verifier, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the full HTTP surface with notes routes mounted under base.
func (s *Server) Handler(base string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	}).Methods(http.MethodGet)

	notes := r
	if base = strings.TrimRight(base, "/"); base != "" {
		notes = r.PathPrefix(base).Subrouter()
	}
	notes.HandleFunc("/notes", s.handleNotes)
	notes.HandleFunc("/notes/{id}", s.handleNotes)

	r.NotFoundHandler = http.HandlerFunc(s.notFound)

	return Recover(s.log, s.now)(Logging(s.log)(CORS(r)))
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	env := api.Envelope{Timestamp: s.now().Unix()}

	token, err := auth.BearerToken(r)
	if err != nil {
		env.Message = msgNoToken
		writeEnvelope(w, s.log, http.StatusUnauthorized, env)
		return
	}
	caller, err := s.verifier.Verify(token)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		env.Message = msgBadToken
		writeEnvelope(w, s.log, http.StatusUnauthorized, env)
		return
	}
	env.UserID = caller
	ctx := auth.WithCaller(r.Context(), caller)

	sess, err := s.conn.Connect(ctx)
	if err != nil {
		s.log.Error("store connect", zap.Error(err))
		env.Message = msgConnect
		writeEnvelope(w, s.log, http.StatusBadRequest, env)
		return
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := sess.Close(cctx); err != nil {
			s.log.Warn("store close", zap.Error(err))
		}
	}()

	code, err := s.dispatch(ctx, service.NewNoteService(sess), r, caller, &env)
	if err != nil {
		code, env.Message = s.mapError(r, err)
	}
	writeEnvelope(w, s.log, code, env)
}

func (s *Server) dispatch(ctx context.Context, svc service.NoteService, r *http.Request, caller string, env *api.Envelope) (int, error) {
	id := mux.Vars(r)["id"]

	switch r.Method {
	case http.MethodGet:
		page, err := parsePage(r)
		if err != nil {
			return 0, err
		}
		notes, err := svc.List(ctx, caller, page)
		if err != nil {
			return 0, err
		}
		if notes == nil {
			notes = []model.Note{}
		}
		env.Data = &notes
		return http.StatusOK, nil

	case http.MethodPost:
		body, err := decodeBody(r)
		if err != nil {
			return 0, err
		}
		n, err := svc.Create(ctx, caller, body.Input(), env.Timestamp)
		if err != nil {
			return 0, err
		}
		env.Message = msgInserted
		env.InsertedID = n.ID
		return http.StatusCreated, nil

	case http.MethodPut, http.MethodPatch:
		body, err := decodeBody(r)
		if err != nil {
			return 0, err
		}
		ok, err := svc.Update(ctx, caller, id, body.Input(), env.Timestamp)
		if err != nil {
			return 0, err
		}
		env.Message = msgNotUpdated
		if ok {
			env.Message = msgUpdated
			env.UpdatedID = id
		}
		return http.StatusOK, nil

	case http.MethodDelete:
		ok, err := svc.Delete(ctx, caller, id)
		if err != nil {
			return 0, err
		}
		env.Message = msgNotDeleted
		if ok {
			env.Message = msgDeleted
			env.DeletedID = id
		}
		return http.StatusOK, nil
	}

	return 0, fmt.Errorf("%w: %s", errs.ErrUnsupported, r.Method)
}

// mapError converts a domain error into a status code and a client-facing message.
func (s *Server) mapError(r *http.Request, err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": ")
	case errors.Is(err, errs.ErrUnsupported):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, msgBadToken
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "note not found"
	}
	s.log.Error("note operation",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	return http.StatusBadRequest, msgFailed
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, s.log, http.StatusNotFound, api.Envelope{
		Timestamp: s.now().Unix(),
		Message:   "not found",
	})
}

func parsePage(r *http.Request) (model.Page, error) {
	q := r.URL.Query()
	offset, err := parseNonNegative(q.Get("offset"))
	if err != nil {
		return model.Page{}, fmt.Errorf(`%w: "offset" must be a non-negative integer`, errs.ErrValidation)
	}
	limit, err := parseNonNegative(q.Get("limit"))
	if err != nil {
		return model.Page{}, fmt.Errorf(`%w: "limit" must be a non-negative integer`, errs.ErrValidation)
	}
	return model.Page{Offset: offset, Limit: limit}, nil
}

func parseNonNegative(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative")
	}
	return n, nil
}

// decodeBody reads the request body as JSON regardless of its content type.
// An empty body decodes to an empty object.
func decodeBody(r *http.Request) (api.NoteBody, error) {
	var body api.NoteBody
	if r.Body == nil {
		return body, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return body, fmt.Errorf("%w: unreadable request body", errs.ErrValidation)
	}
	if len(raw) > maxBodyBytes {
		return body, fmt.Errorf("%w: request body too large", errs.ErrValidation)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return body, nil
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, fmt.Errorf("%w: malformed request body", errs.ErrValidation)
	}
	return body, nil
}

// writeEnvelope sets the status flag from code and writes env as JSON.
func writeEnvelope(w http.ResponseWriter, log *zap.Logger, code int, env api.Envelope) {
	env.Status = api.StatusFailure
	if code < http.StatusBadRequest {
		env.Status = api.StatusSuccess
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Warn("write envelope", zap.Error(err))
	}
}
