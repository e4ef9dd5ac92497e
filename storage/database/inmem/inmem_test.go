package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/storage/database/storetest"
)

func TestUserRepository(t *testing.T) {
	storetest.UserRepository(t, NewUserRepository(Open()))
}

func TestCounsellorRepository(t *testing.T) {
	storetest.CounsellorRepository(t, NewCounsellorRepository(Open()))
}

func TestNotificationRepository(t *testing.T) {
	storetest.NotificationRepository(t, NewNotificationRepository(Open()))
}

func TestCategoryRepository(t *testing.T) {
	storetest.CategoryRepository(t, NewCategoryRepository(Open()))
}

func TestIdentityRepository(t *testing.T) {
	storetest.IdentityRepository(t, NewIdentityRepository(Open()))
}

func TestModerationRepository(t *testing.T) {
	db := Open()
	storetest.ModerationRepository(t, NewModerationRepository(db), db.PutContent)
}

func TestSettingsRepository(t *testing.T) {
	storetest.SettingsRepository(t, NewSettingsRepository(Open()))
}

func TestNotificationWatch(t *testing.T) {
	repo := NewNotificationRepository(Open())
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := repo.Watch(ctx)
	require.NoError(t, err)

	n, err := repo.Create(context.Background(), notification.Notification{Title: "a", Timestamp: time.Now().UTC()})
	require.NoError(t, err)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal after create")
	}

	t.Run("all-or-nothing mark read", func(t *testing.T) {
		require.Error(t, repo.MarkAllRead(context.Background(), []string{n.ID, "lol"}))
		got, err := repo.FindByID(context.Background(), n.ID)
		require.NoError(t, err)
		assert.False(t, got.Read)
	})

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}
