package counsellor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/services/events"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
	"github.com/speakhq/speakadmin/tests"
)

func setup(t *testing.T) (*counsellor.Service, counsellor.Repository, notification.Repository) {
	db := inmemdb.Open()
	repo := inmemdb.NewCounsellorRepository(db)
	notifs := inmemdb.NewNotificationRepository(db)
	broker := events.NewBroker()
	logger := logsvc.NewNopLogger()
	svc := counsellor.NewService(repo, notification.NewPublisher(notifs, broker, logger), broker, nil, logger)
	return svc, repo, notifs
}

func countNotifications(t *testing.T, repo notification.Repository) int {
	items, err := repo.Recent(context.Background(), 100)
	require.NoError(t, err)
	return len(items)
}

func TestService_SetStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifs := setup(t)
	c := testutil.CreateCounsellor(t, repo, "Amina Diallo", "amina@speak.test", counsellor.StatusInvited)

	tests := []struct {
		name          string
		id            string
		status        counsellor.Status
		wantErr       core.ErrorKind
		wantPrevious  counsellor.Status
		wantVerified  bool
		wantNotifDiff int
	}{
		{name: "missing id", status: counsellor.StatusVerified, wantErr: core.KindInvalidArgument},
		{name: "invalid status", id: c.ID, status: "lol", wantErr: core.KindInvalidArgument},
		{name: "unknown counsellor", id: "lol", status: counsellor.StatusVerified, wantErr: core.KindNotFound},
		{name: "invited to verified", id: c.ID, status: counsellor.StatusVerified, wantPrevious: counsellor.StatusInvited, wantVerified: true},
		{name: "verified to pending notifies", id: c.ID, status: counsellor.StatusPending, wantPrevious: counsellor.StatusVerified, wantNotifDiff: 1},
		{name: "pending to pending notifies again", id: c.ID, status: "pending", wantPrevious: counsellor.StatusPending, wantNotifDiff: 1},
		{name: "pending to verified", id: c.ID, status: counsellor.StatusVerified, wantPrevious: counsellor.StatusPending, wantVerified: true},
		{name: "verified to rejected", id: c.ID, status: counsellor.StatusRejected, wantPrevious: counsellor.StatusVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := countNotifications(t, notifs)
			tr, err := svc.SetStatus(ctx, tt.id, tt.status)
			if tt.wantErr != core.KindUnknown {
				assert.Equal(t, tt.wantErr, core.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrevious, tr.Previous)
			assert.Equal(t, tt.wantVerified, tr.Counsellor.IsVerified)

			stored, err := repo.FindByID(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, tr.Counsellor.Status, stored.Status)
			assert.Equal(t, stored.Status == counsellor.StatusVerified, stored.IsVerified)

			assert.Equal(t, before+tt.wantNotifDiff, countNotifications(t, notifs))
			if tt.wantNotifDiff > 0 {
				n, err := notifs.FindByID(ctx, tr.NotificationID)
				require.NoError(t, err)
				assert.Equal(t, notification.TypePendingVerification, n.Type)
				assert.Equal(t, "/counsellors/"+c.ID, n.Link)
				assert.False(t, n.Read)
			} else {
				assert.Empty(t, tr.NotificationID)
			}
		})
	}
}

type failingNotifier struct{}

func (failingNotifier) PendingVerification(context.Context, string, string) (string, error) {
	return "", core.NewStoreError(errors.New("feed offline"), "Failed to create notification")
}

func TestService_CompleteProfileReportsNotificationFailure(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewCounsellorRepository(inmemdb.Open())
	svc := counsellor.NewService(repo, failingNotifier{}, nil, nil, logsvc.NewNopLogger())
	testutil.CreateCounsellor(t, repo, "Kofi", "kofi@speak.test", counsellor.StatusInvited)

	session := core.Session{UserID: "identity-2", Email: "kofi@speak.test", Role: core.RoleCounsellor}
	tr, err := svc.CompleteProfile(ctx, session, counsellor.ProfileInput{FullName: "Kofi Boateng", PhoneNumber: "1", Occupation: "Coach"})
	require.NoError(t, err)
	assert.Empty(t, tr.NotificationID)
	assert.Contains(t, tr.Message, "The review notification could not be created: Failed to create notification")

	stored, err := repo.FindByID(ctx, "identity-2")
	require.NoError(t, err)
	assert.Equal(t, counsellor.StatusPending, stored.Status)
}

func TestService_CompleteProfile(t *testing.T) {
	ctx := context.Background()
	svc, repo, notifs := setup(t)
	createdAt := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	invited := testutil.CreateCounsellor(t, repo, "Amina", "amina@speak.test", counsellor.StatusInvited, createdAt)

	input := counsellor.ProfileInput{
		FullName:    " Amina Diallo ",
		PhoneNumber: "+221 77 000 00 00",
		Address:     &counsellor.Address{City: "Dakar", Country: "Senegal"},
		Occupation:  "Psychologist",
		Bio:         "Ten years of practice.",
	}

	t.Run("signed out", func(t *testing.T) {
		_, err := svc.CompleteProfile(ctx, core.Session{}, input)
		assert.Equal(t, core.KindForbidden, core.KindOf(err))
	})

	t.Run("rekeys the invited record", func(t *testing.T) {
		session := core.Session{UserID: "identity-1", Email: "Amina@Speak.test", Role: core.RoleCounsellor}
		tr, err := svc.CompleteProfile(ctx, session, input)
		require.NoError(t, err)
		assert.Equal(t, counsellor.StatusInvited, tr.Previous)
		assert.NotEmpty(t, tr.NotificationID)

		_, err = repo.FindByID(ctx, invited.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		stored, err := repo.FindByID(ctx, "identity-1")
		require.NoError(t, err)
		assert.Equal(t, counsellor.StatusPending, stored.Status)
		assert.False(t, stored.IsVerified)
		assert.Equal(t, "Amina Diallo", stored.PersonalInfo.FullName)
		assert.Equal(t, "amina@speak.test", stored.PersonalInfo.Email)
		assert.Equal(t, "Dakar", stored.PersonalInfo.Address.City)
		assert.True(t, createdAt.Equal(stored.CreatedAt))
		assert.Equal(t, 1, countNotifications(t, notifs))
	})

	t.Run("resubmission keeps a single record", func(t *testing.T) {
		session := core.Session{UserID: "identity-1", Email: "amina@speak.test", Role: core.RoleCounsellor}
		_, err := svc.CompleteProfile(ctx, session, counsellor.ProfileInput{FullName: "Amina D.", PhoneNumber: "1", Occupation: "Coach"})
		require.NoError(t, err)

		list, err := svc.List(ctx, counsellor.Filter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Amina D.", list[0].PersonalInfo.FullName)
		assert.Equal(t, "Ten years of practice.", list[0].ProfessionalInfo.Bio)
		assert.Equal(t, 2, countNotifications(t, notifs))
	})
}

func TestService_DeleteAndStats(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := setup(t)
	c1 := testutil.CreateCounsellor(t, repo, "One", "one@speak.test", counsellor.StatusVerified)
	testutil.CreateCounsellor(t, repo, "Two", "two@speak.test", counsellor.StatusPending)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Verified)
	assert.Equal(t, 1, stats.Pending)

	require.NoError(t, svc.Delete(ctx, c1.ID))
	assert.Equal(t, core.KindNotFound, core.KindOf(svc.Delete(ctx, c1.ID)))

	list, err := svc.List(ctx, counsellor.Filter{Status: "verified"})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.List(ctx, counsellor.Filter{Status: "lol"})
	assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
}
