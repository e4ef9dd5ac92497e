// Package mongodb persists the console's documents in MongoDB.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/speakhq/speakadmin/core"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger core.Logger
}

// NewStore connects to uri, verifies the connection and ensures indexes.
func NewStore(uri, dbName string, logger core.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongodb: connect failed")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "mongodb: ping failed")
	}

	s := &Store{client: client, db: client.Database(dbName), logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		logger.Warn("mongodb: ensure indexes failed", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		{core.CollectionUsers, bson.D{{Key: "email", Value: 1}}, true},
		{core.CollectionUsers, bson.D{{Key: "role", Value: 1}}, false},
		{core.CollectionCounsellors, bson.D{{Key: "personalInfo.email", Value: 1}}, true},
		{core.CollectionCounsellors, bson.D{{Key: "createdAt", Value: -1}}, false},
		{core.CollectionNotifications, bson.D{{Key: "timestamp", Value: -1}}, false},
		{core.CollectionPosts, bson.D{{Key: "moderationStatus", Value: 1}, {Key: "createdAt", Value: -1}}, false},
		{core.CollectionMessages, bson.D{{Key: "moderationStatus", Value: 1}, {Key: "createdAt", Value: -1}}, false},
		{core.CollectionCategories, bson.D{{Key: "order", Value: 1}}, false},
		{core.CollectionIdentities, bson.D{{Key: "email", Value: 1}}, true},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return errors.Wrapf(err, "create index on %s", i.col)
		}
	}
	return nil
}

// CheckCollections verifies every required collection can be queried and
// warns when documents were written to the misspelled counsellor collection.
func (s *Store) CheckCollections(ctx context.Context) error {
	for _, name := range core.RequiredCollections {
		if _, err := s.col(name).EstimatedDocumentCount(ctx); err != nil {
			return errors.Wrapf(err, "collection %q is not reachable", name)
		}
	}
	n, err := s.col(core.DriftedCollectionCounsellors).CountDocuments(ctx, bson.D{})
	if err != nil {
		return errors.Wrapf(err, "collection %q is not reachable", core.DriftedCollectionCounsellors)
	}
	if n > 0 {
		s.logger.Warn("counsellor documents found in the wrong collection", map[string]interface{}{
			"collection": core.DriftedCollectionCounsellors,
			"canonical":  core.CollectionCounsellors,
			"count":      n,
		})
	}
	return nil
}

// withTransaction runs fn atomically.
func (s *Store) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}
