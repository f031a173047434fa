package archive

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores records in a MongoDB collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongo connects to uri and targets database/collection. The connection
// is verified with a short ping so misconfiguration surfaces at startup.
func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("archive: mongo uri cannot be empty")
	}
	if database == "" {
		database = "evoseek"
	}
	if collection == "" {
		collection = "content"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("archive: connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("archive: ping mongo: %w", err)
	}
	return &Mongo{client: client, collection: client.Database(database).Collection(collection)}, nil
}

func (m *Mongo) Configured() bool { return m != nil && m.collection != nil }

func (m *Mongo) Save(ctx context.Context, rec *Record) error {
	stamp(rec)
	if _, err := m.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("archive: insert record: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
