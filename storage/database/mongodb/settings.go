package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/settings"
)

type settingsRepository struct {
	*Store
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(s *Store) settings.Repository {
	return &settingsRepository{Store: s}
}

// Load decodes over dst; fields missing from the stored document keep dst's values.
func (repo *settingsRepository) Load(ctx context.Context, dst *settings.Settings) error {
	res := repo.col(core.CollectionSystem).FindOne(ctx, bson.D{{Key: "_id", Value: core.SettingsDocumentID}})
	return wrapError(res.Decode(dst))
}

func (repo *settingsRepository) Save(ctx context.Context, s settings.Settings) error {
	return replaceByID(ctx, repo.col(core.CollectionSystem), core.SettingsDocumentID, s)
}
