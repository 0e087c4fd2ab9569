// Package mongo stores journal entries in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/auri-app/auri/pkg/journal"
)

// Defaults used by Open.
const (
	DefaultDatabase   = "auri"
	CollectionEntries = "entries"
	connectTimeout    = 10 * time.Second
)

// document is the BSON shape of an entry. IDs are stored as strings so the
// collection stays readable from the mongo shell.
type document struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Text      string    `bson:"text"`
	Analysis  string    `bson:"analysis,omitempty"`
	Emotions  []string  `bson:"emotions,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(e journal.Entry) document {
	return document{
		ID:        e.ID.String(),
		UserID:    e.UserID,
		Text:      e.Text,
		Analysis:  e.Analysis,
		Emotions:  e.Emotions,
		CreatedAt: e.CreatedAt,
	}
}

func (d document) entry() (journal.Entry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("decode entry id %q: %w", d.ID, err)
	}
	return journal.Entry{
		ID:        id,
		UserID:    d.UserID,
		Text:      d.Text,
		Analysis:  d.Analysis,
		Emotions:  d.Emotions,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

// Store is a journal.Store backed by a MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ journal.Store = (*Store)(nil)

// Open connects to uri, pings the server and ensures the
// (user_id, created_at) index exists. An empty database uses DefaultDatabase.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo: missing connection URI")
	}
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{client: client, coll: client.Database(database).Collection(CollectionEntries)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, e journal.Entry) (journal.Entry, error) {
	e, err := journal.Prepare(e)
	if err != nil {
		return journal.Entry{}, err
	}
	if _, err := s.coll.InsertOne(ctx, toDocument(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.Entry{}, journal.ErrExists
		}
		return journal.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return e, nil
}

// listQuery builds the filter and find options for List.
func listQuery(userID string, opts journal.ListOptions) (bson.D, *options.FindOptions) {
	filter := bson.D{{Key: "user_id", Value: userID}}
	if !opts.Since.IsZero() {
		filter = append(filter, bson.E{Key: "created_at", Value: bson.D{{Key: "$gte", Value: opts.Since}}})
	}
	find := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	return filter, find
}

func (s *Store) List(ctx context.Context, userID string, opts journal.ListOptions) ([]journal.Entry, error) {
	filter, find := listQuery(userID, opts)
	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, fmt.Errorf("find entries: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	out := make([]journal.Entry, 0, len(docs))
	for _, d := range docs {
		e, err := d.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, userID string, id uuid.UUID) (journal.Entry, error) {
	var d document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}, {Key: "user_id", Value: userID}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return journal.Entry{}, journal.ErrNotFound
	}
	if err != nil {
		return journal.Entry{}, fmt.Errorf("find entry: %w", err)
	}
	return d.entry()
}

func (s *Store) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}, {Key: "user_id", Value: userID}})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
