package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
)

type counsellorRepository struct {
	*Store
}

var _ counsellor.Repository = (*counsellorRepository)(nil) // interface compliance check

func NewCounsellorRepository(s *Store) counsellor.Repository {
	return &counsellorRepository{Store: s}
}

func normalized(list []counsellor.Counsellor) []counsellor.Counsellor {
	for i := range list {
		list[i].Normalize()
	}
	return list
}

func (repo *counsellorRepository) FindByID(ctx context.Context, id string) (counsellor.Counsellor, error) {
	c, err := findOne[counsellor.Counsellor](ctx, repo.col(core.CollectionCounsellors), byID(id))
	if err != nil {
		return counsellor.Counsellor{}, err
	}
	c.Normalize()
	return c, nil
}

// FindByEmail matches case-insensitively; older records were stored unnormalized.
func (repo *counsellorRepository) FindByEmail(ctx context.Context, email string) (counsellor.Counsellor, error) {
	rx := bson.Regex{Pattern: "^" + regexp.QuoteMeta(email) + "$", Options: "i"}
	c, err := findOne[counsellor.Counsellor](ctx, repo.col(core.CollectionCounsellors), bson.D{{Key: "personalInfo.email", Value: rx}})
	if err != nil {
		return counsellor.Counsellor{}, err
	}
	c.Normalize()
	return c, nil
}

// Query filters after normalization since stored statuses drift in case and
// may be missing altogether.
func (repo *counsellorRepository) Query(ctx context.Context, filter counsellor.Filter) ([]counsellor.Counsellor, error) {
	all, err := findMany[counsellor.Counsellor](ctx, repo.col(core.CollectionCounsellors), bson.D{}, newestFirst())
	if err != nil {
		return nil, err
	}
	list := make([]counsellor.Counsellor, 0, len(all))
	for _, c := range normalized(all) {
		if filter.Match(c) {
			list = append(list, c)
		}
	}
	return list, nil
}

func (repo *counsellorRepository) Create(ctx context.Context, c counsellor.Counsellor) (counsellor.Counsellor, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := insertOne(ctx, repo.col(core.CollectionCounsellors), c); err != nil {
		return counsellor.Counsellor{}, err
	}
	return c, nil
}

func (repo *counsellorRepository) Replace(ctx context.Context, oldID string, c counsellor.Counsellor) error {
	return repo.rekey(ctx, repo.col(core.CollectionCounsellors), oldID, c.ID, c)
}

func (repo *counsellorRepository) UpdateStatus(ctx context.Context, id string, status counsellor.Status, isVerified bool, updatedAt time.Time) error {
	return updateFields(ctx, repo.col(core.CollectionCounsellors), id, bson.D{
		{Key: "status", Value: status},
		{Key: "isVerified", Value: isVerified},
		{Key: "updatedAt", Value: updatedAt},
	})
}

func (repo *counsellorRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.col(core.CollectionCounsellors), id)
}
