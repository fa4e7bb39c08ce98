package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore keeps one document per collection in the "snapshots" collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type snapshotDoc struct {
	Name      string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// NewMongoStore wraps a connected client
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("snapshots"),
	}
}

func (s *MongoStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	var doc snapshotDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{Version: doc.Version, Data: []byte(doc.Data)}, nil
}

func (s *MongoStore) Replace(ctx context.Context, name string, expected int64, data []byte) (int64, error) {
	doc := snapshotDoc{
		Name:      name,
		Version:   expected + 1,
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}

	if expected == 0 {
		if _, err := s.collection.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return 0, ErrVersionConflict
			}
			return 0, err
		}
		return doc.Version, nil
	}

	res, err := s.collection.ReplaceOne(ctx, bson.M{"_id": name, "version": expected}, doc)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, ErrVersionConflict
	}
	return doc.Version, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
