// Package inmemdb is a process-local document store used for development and tests.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/moderation"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/user"
	"github.com/speakhq/speakadmin/services/identity"
)

type (
	DB struct {
		user         *userTable
		counsellor   *counsellorTable
		notification *notificationTable
		content      map[moderation.Type]*contentTable
		settings     *settingsTable
		category     *categoryTable
		identity     *identityTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	counsellorTable struct {
		sync.RWMutex
		table map[string]*counsellor.Counsellor
	}

	notificationRow struct {
		seq int
		notification.Notification
	}

	notificationTable struct {
		sync.RWMutex
		seq      int
		table    map[string]*notificationRow
		watchers map[chan struct{}]struct{}
	}

	contentTable struct {
		sync.RWMutex
		table map[string]*moderation.Document
	}

	settingsTable struct {
		sync.RWMutex
		doc []byte // JSON, nil when nothing is stored
	}

	categoryTable struct {
		sync.RWMutex
		table map[string]*category.Category
	}

	identityTable struct {
		sync.RWMutex
		table map[string]*identity.Identity
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		counsellor:   &counsellorTable{table: make(map[string]*counsellor.Counsellor)},
		notification: &notificationTable{table: make(map[string]*notificationRow), watchers: make(map[chan struct{}]struct{})},
		content: map[moderation.Type]*contentTable{
			moderation.TypePost: {table: make(map[string]*moderation.Document)},
			moderation.TypeChat: {table: make(map[string]*moderation.Document)},
		},
		settings: &settingsTable{},
		category: &categoryTable{table: make(map[string]*category.Category)},
		identity: &identityTable{table: make(map[string]*identity.Identity)},
	}
}

func newID() string {
	return uuid.NewString()
}
