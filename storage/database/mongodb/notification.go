package mongodb

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/notification"
)

type notificationRepository struct {
	*Store
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(s *Store) notification.Repository {
	return &notificationRepository{Store: s}
}

func (repo *notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := insertOne(ctx, repo.col(core.CollectionNotifications), n); err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (repo *notificationRepository) Recent(ctx context.Context, limit int) ([]notification.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	return findMany[notification.Notification](ctx, repo.col(core.CollectionNotifications), bson.D{}, opts)
}

func (repo *notificationRepository) FindByID(ctx context.Context, id string) (notification.Notification, error) {
	return findOne[notification.Notification](ctx, repo.col(core.CollectionNotifications), byID(id))
}

func (repo *notificationRepository) MarkRead(ctx context.Context, id string) error {
	return updateFields(ctx, repo.col(core.CollectionNotifications), id, bson.D{{Key: "read", Value: true}})
}

func (repo *notificationRepository) MarkAllRead(ctx context.Context, ids []string) error {
	col := repo.col(core.CollectionNotifications)
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return wrapError(repo.withTransaction(ctx, func(ctx context.Context) error {
		n, err := col.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if int(n) != len(ids) {
			return core.ErrNotFound // aborts the transaction
		}
		_, err = col.UpdateMany(ctx, filter, bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
		return err
	}))
}

// Watch tails the collection's change stream.
func (repo *notificationRepository) Watch(ctx context.Context) (<-chan struct{}, error) {
	stream, err := repo.col(core.CollectionNotifications).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, wrapError(err)
	}
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			repo.logger.Error("notification change stream stopped", err)
		}
	}()
	return ch, nil
}
