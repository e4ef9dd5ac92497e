package inmemdb

import (
	"context"
	"sort"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/moderation"
)

type moderationRepository struct {
	db map[moderation.Type]*contentTable
}

var _ moderation.Repository = (*moderationRepository)(nil) // interface compliance check

func NewModerationRepository(db *DB) moderation.Repository {
	return &moderationRepository{db: db.content}
}

func (repo *moderationRepository) table(t moderation.Type) (*contentTable, error) {
	tbl, ok := repo.db[t]
	if !ok {
		return nil, core.NewInvalidArgument("Invalid content type %q.", t)
	}
	return tbl, nil
}

func (repo *moderationRepository) Query(_ context.Context, t moderation.Type, q moderation.Query) ([]moderation.Document, error) {
	tbl, err := repo.table(t)
	if err != nil {
		return nil, err
	}
	tbl.RLock()
	defer tbl.RUnlock()

	docs := make([]moderation.Document, 0, len(tbl.table))
	for _, doc := range tbl.table {
		if q.Match(t, *doc) {
			docs = append(docs, *doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (repo *moderationRepository) FindByID(_ context.Context, t moderation.Type, id string) (moderation.Document, error) {
	tbl, err := repo.table(t)
	if err != nil {
		return moderation.Document{}, err
	}
	tbl.RLock()
	defer tbl.RUnlock()

	if doc, ok := tbl.table[id]; ok {
		return *doc, nil
	}
	return moderation.Document{}, core.ErrNotFound
}

func (repo *moderationRepository) SetDecision(_ context.Context, t moderation.Type, id string, d moderation.Decision) error {
	tbl, err := repo.table(t)
	if err != nil {
		return err
	}
	tbl.Lock()
	defer tbl.Unlock()

	doc, ok := tbl.table[id]
	if !ok {
		return core.ErrNotFound
	}
	at := d.At
	doc.ModerationStatus = string(d.Status)
	doc.ModerationNote = d.Note
	doc.ModeratedAt = &at
	if d.Hide {
		doc.IsHidden = true
	}
	return nil
}

func (repo *moderationRepository) Delete(_ context.Context, t moderation.Type, id string) error {
	tbl, err := repo.table(t)
	if err != nil {
		return err
	}
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[id]; !ok {
		return core.ErrNotFound
	}
	delete(tbl.table, id)
	return nil
}

func (repo *moderationRepository) Count(_ context.Context, t moderation.Type, status moderation.Status) (int, error) {
	tbl, err := repo.table(t)
	if err != nil {
		return 0, err
	}
	tbl.RLock()
	defer tbl.RUnlock()

	q := moderation.Query{Status: status}
	n := 0
	for _, doc := range tbl.table {
		if q.Match(t, *doc) {
			n++
		}
	}
	return n, nil
}

// PutContent stores a raw post or chat message, as the mobile clients would.
func (db *DB) PutContent(t moderation.Type, doc moderation.Document) moderation.Document {
	tbl := db.content[t]
	tbl.Lock()
	defer tbl.Unlock()
	if doc.ID == "" {
		doc.ID = newID()
	}
	tbl.table[doc.ID] = &doc
	return doc
}
