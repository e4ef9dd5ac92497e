package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/moderation"
	testutil "github.com/speakhq/speakadmin/tests"
)

func TestService_Dashboard(t *testing.T) {
	a, _ := testutil.NewApp(t)
	st := a.Stores
	now := time.Now()

	testutil.CreateUser(t, st.Users, "Root", testutil.SuperadminEmail, core.RoleSuperadmin, false)
	testutil.CreateUser(t, st.Users, "Ama Admin", "ama@speak.test", core.RoleAdmin, false)
	testutil.CreateUser(t, st.Users, "Kofi Admin", "kofi@speak.test", core.RoleAdmin, true)
	testutil.CreateUser(t, st.Users, "Esi Observer", "esi@speak.test", core.RoleUser, false)

	testutil.CreateCounsellor(t, st.Counsellors, "Invited One", "invited@speak.test", counsellor.StatusInvited)
	testutil.CreateCounsellor(t, st.Counsellors, "Verified One", "verified@speak.test", counsellor.StatusVerified)
	var pending []counsellor.Counsellor
	for i := 0; i < 7; i++ {
		c := testutil.CreateCounsellor(t, st.Counsellors, fmt.Sprintf("Pending %d", i), fmt.Sprintf("pending%d@speak.test", i),
			counsellor.StatusPending, now.Add(time.Duration(i)*time.Minute))
		pending = append(pending, c)
	}

	testutil.CreateNotification(t, st.Notifications, "read", true, now.Add(-time.Minute))
	testutil.CreateNotification(t, st.Notifications, "unread", false, now)

	a.MemDB.PutContent(moderation.TypePost, moderation.Document{Content: "flag me", ModerationStatus: "flagged", CreatedAt: now})
	a.MemDB.PutContent(moderation.TypeChat, moderation.Document{Text: "no status", CreatedAt: now})
	a.MemDB.PutContent(moderation.TypeChat, moderation.Document{Text: "fine", ModerationStatus: "approved", CreatedAt: now})

	d, err := a.AnalyticsSvc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, d.TotalUsers)
	assert.Equal(t, map[string]int{core.RoleSuperadmin: 1, core.RoleAdmin: 2, core.RoleUser: 1}, d.UsersByRole)
	assert.Equal(t, counsellor.Stats{Total: 9, Invited: 1, Pending: 7, Verified: 1, ActiveThisMonth: 8}, d.Counsellors)
	assert.Equal(t, 2, d.ModerationQueue)
	assert.Equal(t, 1, d.UnreadNotifications)
	assert.False(t, d.GeneratedAt.IsZero())

	require.Len(t, d.PendingVerifications, 5)
	assert.Equal(t, pending[6].ID, d.PendingVerifications[0].ID, "newest first")
	for _, c := range d.PendingVerifications {
		assert.Equal(t, counsellor.StatusPending, c.Status)
	}
}
