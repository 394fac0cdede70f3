// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/ngotes/internal/repository"
)

// Querier is the minimal pgx surface used by repositories. It is implemented by
// *pgx.Conn, *pgxpool.Conn, *pgxpool.Pool and the pgxmock interfaces.
type Querier interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SELECT and returns a rows iterator.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connector opens one session per invocation, either by dialing a fresh
// connection or by acquiring one from a pool.
type Connector struct {
	dsn  string
	pool *pgxpool.Pool
}

// NewDialConnector returns a connector that dials dsn for every session.
func NewDialConnector(dsn string) *Connector { return &Connector{dsn: dsn} }

// NewPoolConnector returns a connector that acquires sessions from pool.
func NewPoolConnector(pool *pgxpool.Pool) *Connector { return &Connector{pool: pool} }

// Connect acquires a connection and binds a note repository to it.
func (c *Connector) Connect(ctx context.Context) (repository.Session, error) {
	if c.pool != nil {
		conn, err := c.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return NewSession(conn, func(context.Context) error {
			conn.Release()
			return nil
		}), nil
	}
	conn, err := pgx.Connect(ctx, c.dsn)
	if err != nil {
		return nil, err
	}
	return NewSession(conn, conn.Close), nil
}

// Session is a NoteRepo bound to a releasable connection.
type Session struct {
	*NoteRepo
	release func(context.Context) error
}

// NewSession binds a repository over q; release is called by Close.
func NewSession(q Querier, release func(context.Context) error) *Session {
	return &Session{NoteRepo: NewNoteRepo(q), release: release}
}

// Close releases the underlying connection.
func (s *Session) Close(ctx context.Context) error { return s.release(ctx) }
