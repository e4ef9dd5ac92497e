package mongodb

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/speakhq/speakadmin/core/moderation"
)

type moderationRepository struct {
	*Store
}

var _ moderation.Repository = (*moderationRepository)(nil) // interface compliance check

func NewModerationRepository(s *Store) moderation.Repository {
	return &moderationRepository{Store: s}
}

// statusPattern matches a stored status the way moderation.NormalizeStatus reads it.
func statusPattern(s moderation.Status) bson.Regex {
	return bson.Regex{Pattern: `^\s*` + regexp.QuoteMeta(string(s)) + `\s*$`, Options: "i"}
}

// statusFilter selects documents whose normalized status is s; anything that is
// not one of the other statuses counts as pending.
func statusFilter(s moderation.Status) bson.D {
	if s != moderation.StatusPending {
		return bson.D{{Key: "moderationStatus", Value: statusPattern(s)}}
	}
	return bson.D{{Key: "moderationStatus", Value: bson.D{{Key: "$nin", Value: bson.A{
		statusPattern(moderation.StatusFlagged),
		statusPattern(moderation.StatusApproved),
		statusPattern(moderation.StatusRejected),
	}}}}}
}

func lt(at time.Time) bson.D {
	return bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: at}}}}
}

// afterFilter selects documents of type t sorting after c, mirroring moderation.Cursor.Admits.
func afterFilter(t moderation.Type, c moderation.Cursor) bson.D {
	switch {
	case t < c.Type:
		return lt(c.CreatedAt)
	case t > c.Type:
		return bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lte", Value: c.CreatedAt}}}}
	}
	return bson.D{{Key: "$or", Value: bson.A{
		lt(c.CreatedAt),
		bson.D{{Key: "createdAt", Value: c.CreatedAt}, {Key: "_id", Value: bson.D{{Key: "$gt", Value: c.ID}}}},
	}}}
}

func queryFilter(t moderation.Type, q moderation.Query) bson.D {
	conds := bson.A{}
	if q.Status != "" {
		conds = append(conds, statusFilter(q.Status))
	}
	if !q.Before.IsZero() {
		conds = append(conds, lt(q.Before))
	}
	if q.After != nil {
		conds = append(conds, afterFilter(t, *q.After))
	}
	if len(conds) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: conds}}
}

func (repo *moderationRepository) Query(ctx context.Context, t moderation.Type, q moderation.Query) ([]moderation.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return findMany[moderation.Document](ctx, repo.col(t.Collection()), queryFilter(t, q), opts)
}

func (repo *moderationRepository) FindByID(ctx context.Context, t moderation.Type, id string) (moderation.Document, error) {
	return findOne[moderation.Document](ctx, repo.col(t.Collection()), byID(id))
}

func (repo *moderationRepository) SetDecision(ctx context.Context, t moderation.Type, id string, d moderation.Decision) error {
	set := bson.D{
		{Key: "moderationStatus", Value: string(d.Status)},
		{Key: "moderationNote", Value: d.Note},
		{Key: "moderatedAt", Value: d.At},
	}
	if d.Hide {
		set = append(set, bson.E{Key: "isHidden", Value: true})
	}
	return updateFields(ctx, repo.col(t.Collection()), id, set)
}

func (repo *moderationRepository) Delete(ctx context.Context, t moderation.Type, id string) error {
	return deleteByID(ctx, repo.col(t.Collection()), id)
}

func (repo *moderationRepository) Count(ctx context.Context, t moderation.Type, status moderation.Status) (int, error) {
	n, err := repo.col(t.Collection()).CountDocuments(ctx, queryFilter(t, moderation.Query{Status: status}))
	return int(n), wrapError(err)
}
