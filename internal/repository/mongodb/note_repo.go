package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/and161185/ngotes/internal/errs"
	"github.com/and161185/ngotes/internal/model"
)

// noteDoc is the stored document shape.
type noteDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Owner        string             `bson:"uid,omitempty"`
	Title        string             `bson:"title"`
	Content      string             `bson:"content"`
	Pinned       bool               `bson:"pin"`
	Created      int64              `bson:"created"`
	LastModified int64              `bson:"lastModified"`
}

func (d noteDoc) toModel() model.Note {
	return model.Note{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Content:      d.Content,
		Pinned:       d.Pinned,
		Created:      d.Created,
		LastModified: d.LastModified,
	}
}

// NoteRepo implements NoteRepository over a MongoDB collection.
type NoteRepo struct{ coll *mongo.Collection }

// NewNoteRepo constructs a note repository over coll.
func NewNoteRepo(coll *mongo.Collection) *NoteRepo { return &NoteRepo{coll: coll} }

// List returns the owner's notes ordered pinned first, then most recently modified.
func (r *NoteRepo) List(ctx context.Context, owner string, page model.Page) ([]model.Note, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "pin", Value: -1}, {Key: "lastModified", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "uid", Value: 0}}).
		SetSkip(int64(page.Offset))
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}

	cur, err := r.coll.Find(ctx, bson.D{{Key: "uid", Value: owner}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	out := []model.Note{}
	for cur.Next(ctx) {
		var d noteDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

// Create inserts a note under a fresh ObjectID.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	d := noteDoc{
		ID:           primitive.NewObjectID(),
		Owner:        n.Owner,
		Title:        n.Title,
		Content:      n.Content,
		Pinned:       n.Pinned,
		Created:      n.Created,
		LastModified: n.LastModified,
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return err
	}
	n.ID = d.ID.Hex()
	return nil
}

// Update sets the supplied fields and lastModified.
func (r *NoteRepo) Update(ctx context.Context, owner, id string, patch model.NotePatch) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	set := bson.D{{Key: "lastModified", Value: patch.LastModified}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Pinned != nil {
		set = append(set, bson.E{Key: "pin", Value: *patch.Pinned})
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}, {Key: "uid", Value: owner}},
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes the owner's note.
func (r *NoteRepo) Delete(ctx context.Context, owner, id string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}, {Key: "uid", Value: owner}})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid note id", errs.ErrValidation)
	}
	return oid, nil
}
