package inmemdb

import (
	"context"
	"sort"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

// notify wakes every watcher without blocking. Callers hold the write lock.
func (repo *notificationRepository) notify() {
	for ch := range repo.db.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (repo *notificationRepository) Create(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if n.ID == "" {
		n.ID = newID()
	}
	if _, ok := repo.db.table[n.ID]; ok {
		return notification.Notification{}, core.ErrDuplicate
	}
	repo.db.seq++
	repo.db.table[n.ID] = &notificationRow{seq: repo.db.seq, Notification: n}
	repo.notify()
	return n, nil
}

func (repo *notificationRepository) Recent(_ context.Context, limit int) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]*notificationRow, 0, len(repo.db.table))
	for _, r := range repo.db.table {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.After(rows[j].Timestamp)
		}
		return rows[i].seq > rows[j].seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.Notification)
	}
	return items, nil
}

func (repo *notificationRepository) FindByID(_ context.Context, id string) (notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.table[id]; ok {
		return r.Notification, nil
	}
	return notification.Notification{}, core.ErrNotFound
}

func (repo *notificationRepository) MarkRead(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	r, ok := repo.db.table[id]
	if !ok {
		return core.ErrNotFound
	}
	r.Read = true
	repo.notify()
	return nil
}

func (repo *notificationRepository) MarkAllRead(_ context.Context, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		if _, ok := repo.db.table[id]; !ok {
			return core.ErrNotFound
		}
	}
	for _, id := range ids {
		repo.db.table[id].Read = true
	}
	repo.notify()
	return nil
}

func (repo *notificationRepository) Watch(ctx context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	repo.db.Lock()
	repo.db.watchers[ch] = struct{}{}
	repo.db.Unlock()

	go func() {
		<-ctx.Done()
		repo.db.Lock()
		delete(repo.db.watchers, ch)
		repo.db.Unlock()
		close(ch)
	}()
	return ch, nil
}
