package inmemdb

import (
	"context"
	"encoding/json"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/settings"
)

type settingsRepository struct {
	db *settingsTable
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db.settings}
}

func (repo *settingsRepository) Load(_ context.Context, dst *settings.Settings) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.doc == nil {
		return core.ErrNotFound
	}
	return json.Unmarshal(repo.db.doc, dst)
}

func (repo *settingsRepository) Save(_ context.Context, s settings.Settings) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return err
	}
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.doc = doc
	return nil
}

// PutRawSettings stores a raw JSON settings document, possibly missing fields.
func (db *DB) PutRawSettings(doc []byte) {
	db.settings.Lock()
	defer db.settings.Unlock()
	db.settings.doc = append([]byte(nil), doc...)
}
