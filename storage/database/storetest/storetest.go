// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/moderation"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/settings"
	"github.com/speakhq/speakadmin/core/user"
	"github.com/speakhq/speakadmin/services/identity"
)

// stamp is a timestamp every backend round-trips exactly.
func stamp(d time.Duration) time.Time {
	return time.Now().Add(d).UTC().Truncate(time.Millisecond)
}

func UserRepository(t *testing.T, repo user.Repository) {
	ctx := context.Background()

	older, err := repo.Create(ctx, user.User{Email: "ama@speak.test", Name: "Ama", Role: core.RoleAdmin, CreatedAt: stamp(-time.Hour), UpdatedAt: stamp(-time.Hour)})
	require.NoError(t, err)
	require.NotEmpty(t, older.UID)
	newer, err := repo.Create(ctx, user.User{Email: "esi@speak.test", Name: "Esi", Role: core.RoleUser, Disabled: true, CreatedAt: stamp(0), UpdatedAt: stamp(0)})
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, user.User{Email: "ama@speak.test", CreatedAt: stamp(0)})
		assert.ErrorIs(t, err, core.ErrDuplicate)
	})

	t.Run("find", func(t *testing.T) {
		got, err := repo.FindByID(ctx, older.UID)
		require.NoError(t, err)
		assert.Equal(t, older, got)
		got, err = repo.FindByEmail(ctx, "esi@speak.test")
		require.NoError(t, err)
		assert.Equal(t, newer, got)
		_, err = repo.FindByID(ctx, "lol")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("query", func(t *testing.T) {
		yes := true
		tests := []struct {
			name   string
			filter user.QueryFilter
			want   []user.User
		}{
			{name: "all newest first", want: []user.User{newer, older}},
			{name: "role", filter: user.QueryFilter{Role: core.RoleAdmin}, want: []user.User{older}},
			{name: "disabled", filter: user.QueryFilter{Disabled: &yes}, want: []user.User{newer}},
			{name: "search", filter: user.QueryFilter{Search: "AMA"}, want: []user.User{older}},
			{name: "none", filter: user.QueryFilter{Search: "lol"}, want: []user.User{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.Query(ctx, tt.filter)
				require.NoError(t, err)
				assert.ElementsMatch(t, tt.want, got)
				if len(tt.want) > 1 {
					assert.Equal(t, tt.want, got)
				}
			})
		}
	})

	t.Run("upsert merges", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, user.User{UID: older.UID, Email: older.Email, Role: core.RoleSuperadmin, UpdatedAt: stamp(0)}))
		got, err := repo.FindByID(ctx, older.UID)
		require.NoError(t, err)
		assert.Equal(t, core.RoleSuperadmin, got.Role)
		assert.Equal(t, "Ama", got.Name)
		assert.Equal(t, older.CreatedAt, got.CreatedAt)

		holders, err := repo.FindByRole(ctx, core.RoleSuperadmin)
		require.NoError(t, err)
		require.Len(t, holders, 1)
		assert.Equal(t, older.UID, holders[0].UID)
	})

	t.Run("replace rekeys", func(t *testing.T) {
		moved := newer
		moved.UID = "identity-esi"
		require.NoError(t, repo.Replace(ctx, newer.UID, moved))
		_, err := repo.FindByID(ctx, newer.UID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		got, err := repo.FindByEmail(ctx, "esi@speak.test")
		require.NoError(t, err)
		assert.Equal(t, moved.UID, got.UID)
		newer = got
	})

	t.Run("set disabled and delete", func(t *testing.T) {
		require.NoError(t, repo.SetDisabled(ctx, newer.UID, false, stamp(0)))
		got, err := repo.FindByID(ctx, newer.UID)
		require.NoError(t, err)
		assert.False(t, got.Disabled)

		require.NoError(t, repo.Delete(ctx, newer.UID))
		assert.ErrorIs(t, repo.Delete(ctx, newer.UID), core.ErrNotFound)
	})
}

func CounsellorRepository(t *testing.T, repo counsellor.Repository) {
	ctx := context.Background()

	invited, err := repo.Create(ctx, counsellor.Counsellor{
		PersonalInfo: counsellor.PersonalInfo{FullName: "Yaw Mensah", Email: "yaw@speak.test"},
		Status:       counsellor.StatusInvited,
		CreatedAt:    stamp(-time.Hour),
		UpdatedAt:    stamp(-time.Hour),
	})
	require.NoError(t, err)
	legacy, err := repo.Create(ctx, counsellor.Counsellor{
		PersonalInfo: counsellor.PersonalInfo{FullName: "Abena Owusu", Email: "abena@speak.test"},
		IsVerified:   true,
		CreatedAt:    stamp(0),
		UpdatedAt:    stamp(0),
	})
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := repo.Create(ctx, counsellor.Counsellor{PersonalInfo: counsellor.PersonalInfo{Email: "yaw@speak.test"}, CreatedAt: stamp(0)})
		assert.ErrorIs(t, err, core.ErrDuplicate)
	})

	t.Run("status is normalized on read", func(t *testing.T) {
		got, err := repo.FindByID(ctx, legacy.ID)
		require.NoError(t, err)
		assert.Equal(t, counsellor.StatusVerified, got.Status)
	})

	t.Run("query", func(t *testing.T) {
		all, err := repo.Query(ctx, counsellor.Filter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, legacy.ID, all[0].ID)

		found, err := repo.Query(ctx, counsellor.Filter{Status: counsellor.StatusInvited})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, invited.ID, found[0].ID)

		found, err = repo.Query(ctx, counsellor.Filter{Search: "owusu"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, legacy.ID, found[0].ID)
	})

	t.Run("update status", func(t *testing.T) {
		at := stamp(0)
		require.NoError(t, repo.UpdateStatus(ctx, invited.ID, counsellor.StatusPending, false, at))
		got, err := repo.FindByEmail(ctx, "yaw@speak.test")
		require.NoError(t, err)
		assert.Equal(t, counsellor.StatusPending, got.Status)
		assert.Equal(t, at, got.UpdatedAt)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, "lol", counsellor.StatusPending, false, at), core.ErrNotFound)
	})

	t.Run("replace and delete", func(t *testing.T) {
		moved := invited
		moved.ID = "identity-yaw"
		moved.Status = counsellor.StatusPending
		require.NoError(t, repo.Replace(ctx, invited.ID, moved))
		_, err := repo.FindByID(ctx, invited.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, moved.ID))
		assert.ErrorIs(t, repo.Delete(ctx, moved.ID), core.ErrNotFound)
	})
}

func NotificationRepository(t *testing.T, repo notification.Repository) {
	ctx := context.Background()
	create := func(title string, at time.Time) notification.Notification {
		n, err := repo.Create(ctx, notification.Notification{Type: notification.TypeGeneral, Title: title, Message: title, Link: "/notifications", Timestamp: at})
		require.NoError(t, err)
		return n
	}
	a := create("a", stamp(-2*time.Minute))
	b := create("b", stamp(-time.Minute))
	c := create("c", stamp(0))

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []notification.Notification{c, b}, recent)

	require.NoError(t, repo.MarkRead(ctx, a.ID))
	got, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.ErrorIs(t, repo.MarkRead(ctx, "lol"), core.ErrNotFound)
}

func CategoryRepository(t *testing.T, repo category.Repository) {
	ctx := context.Background()
	second, err := repo.Create(ctx, category.Category{Name: "Grief", Order: 2, IsActive: true})
	require.NoError(t, err)
	first, err := repo.Create(ctx, category.Category{Name: "Anxiety", Order: 1, IsActive: true})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []category.Category{first, second}, list)

	second.Order = 0
	require.NoError(t, repo.Update(ctx, second))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []category.Category{second, first}, list)

	assert.ErrorIs(t, repo.Update(ctx, category.Category{ID: "lol", Name: "x"}), core.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), core.ErrNotFound)
}

func SettingsRepository(t *testing.T, repo settings.Repository) {
	ctx := context.Background()
	var s settings.Settings
	assert.ErrorIs(t, repo.Load(ctx, &s), core.ErrNotFound)

	want := settings.Defaults()
	want.MaxPostLength = 250
	want.UpdatedAt = stamp(0)
	want.UpdatedBy = "ama@speak.test"
	require.NoError(t, repo.Save(ctx, want))

	got := settings.Settings{}
	require.NoError(t, repo.Load(ctx, &got))
	assert.Equal(t, want, got)
}

func IdentityRepository(t *testing.T, repo identity.Repository) {
	ctx := context.Background()
	id, err := repo.Create(ctx, identity.Identity{Email: "ama@speak.test", PasswordHash: []byte("h1"), CreatedAt: stamp(0), UpdatedAt: stamp(0)})
	require.NoError(t, err)
	require.NotEmpty(t, id.ID)

	_, err = repo.Create(ctx, identity.Identity{Email: "ama@speak.test", PasswordHash: []byte("h2")})
	assert.ErrorIs(t, err, core.ErrDuplicate)

	at := stamp(time.Minute)
	require.NoError(t, repo.UpdatePassword(ctx, id.ID, []byte("h3"), at))
	require.NoError(t, repo.SetLastLogin(ctx, id.ID, at))
	got, err := repo.FindByEmail(ctx, "ama@speak.test")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)
	assert.Equal(t, []byte("h3"), got.PasswordHash)
	assert.Equal(t, at, got.UpdatedAt)
	assert.Equal(t, at, got.LastLogin)

	_, err = repo.FindByEmail(ctx, "lol@speak.test")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "lol", nil, at), core.ErrNotFound)
}

// PutContent stores a raw post or chat the way the mobile clients write them.
type PutContent func(t moderation.Type, doc moderation.Document) moderation.Document

func ModerationRepository(t *testing.T, repo moderation.Repository, put PutContent) {
	ctx := context.Background()
	same := stamp(-time.Minute)
	a := put(moderation.TypePost, moderation.Document{ID: "a", Content: "a", CreatedAt: same, ModerationStatus: "Approved"})
	b := put(moderation.TypePost, moderation.Document{ID: "b", Content: "b", CreatedAt: same})
	c := put(moderation.TypePost, moderation.Document{ID: "c", Content: "c", CreatedAt: stamp(-time.Hour), ModerationStatus: " FLAGGED "})

	ids := func(docs []moderation.Document) []string {
		out := make([]string, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.ID)
		}
		return out
	}

	tests := []struct {
		name string
		q    moderation.Query
		want []string
	}{
		{name: "newest first, ties by id", want: []string{a.ID, b.ID, c.ID}},
		{name: "approved folds case", q: moderation.Query{Status: moderation.StatusApproved}, want: []string{a.ID}},
		{name: "flagged folds case and space", q: moderation.Query{Status: moderation.StatusFlagged}, want: []string{c.ID}},
		{name: "pending excludes folded statuses", q: moderation.Query{Status: moderation.StatusPending}, want: []string{b.ID}},
		{name: "after a tied item", q: moderation.Query{After: &moderation.Cursor{CreatedAt: same, Type: moderation.TypePost, ID: a.ID}}, want: []string{b.ID, c.ID}},
		{name: "after the same instant of a type sorting before", q: moderation.Query{After: &moderation.Cursor{CreatedAt: same, Type: moderation.TypeChat, ID: "z"}}, want: []string{a.ID, b.ID, c.ID}},
		{name: "before is exclusive", q: moderation.Query{Before: same}, want: []string{c.ID}},
		{name: "limit", q: moderation.Query{Limit: 1}, want: []string{a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := repo.Query(ctx, moderation.TypePost, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}

	n, err := repo.Count(ctx, moderation.TypePost, moderation.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.SetDecision(ctx, moderation.TypePost, b.ID, moderation.Decision{Status: moderation.StatusRejected, Note: "spam", At: stamp(0), Hide: true}))
	got, err := repo.FindByID(ctx, moderation.TypePost, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "rejected", got.ModerationStatus)
	assert.True(t, got.IsHidden)

	require.NoError(t, repo.Delete(ctx, moderation.TypePost, c.ID))
	assert.ErrorIs(t, repo.Delete(ctx, moderation.TypePost, c.ID), core.ErrNotFound)
}
