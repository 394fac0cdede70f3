// Package mongodb contains the MongoDB document-store implementation of repository interfaces.
package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/and161185/ngotes/internal/repository"
)

// Collection holds the notes documents.
const Collection = "notes"

// Connector opens one session per invocation. With a URI it connects and
// disconnects a client per session; with a shared client sessions are views over it.
type Connector struct {
	uri    string
	db     string
	client *mongo.Client
}

// NewDialConnector returns a connector that connects to uri for every session.
func NewDialConnector(uri, db string) *Connector { return &Connector{uri: uri, db: db} }

// NewClientConnector returns a connector over a long-lived client.
func NewClientConnector(client *mongo.Client, db string) *Connector {
	return &Connector{client: client, db: db}
}

// Connect acquires a client and binds a note repository to the notes collection.
func (c *Connector) Connect(ctx context.Context) (repository.Session, error) {
	if c.client != nil {
		coll := c.client.Database(c.db).Collection(Collection)
		return NewSession(coll, func(context.Context) error { return nil }), nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return nil, err
	}
	coll := client.Database(c.db).Collection(Collection)
	return NewSession(coll, client.Disconnect), nil
}

// Session is a NoteRepo bound to a releasable client.
type Session struct {
	*NoteRepo
	release func(context.Context) error
}

// NewSession binds a repository over coll; release is called by Close.
func NewSession(coll *mongo.Collection, release func(context.Context) error) *Session {
	return &Session{NoteRepo: NewNoteRepo(coll), release: release}
}

// Close releases the client.
func (s *Session) Close(ctx context.Context) error { return s.release(ctx) }

// EnsureIndexes creates the index backing owner-scoped ordered listings.
func EnsureIndexes(ctx context.Context, uri, db string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(ctx) }()

	_, err = client.Database(db).Collection(Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uid", Value: 1}, {Key: "pin", Value: -1}, {Key: "lastModified", Value: -1}},
	})
	return err
}
