package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/user"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
	"github.com/speakhq/speakadmin/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewService(repo, testutil.NewConfig(), nil, logsvc.NewNopLogger()), repo
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	now := time.Now()
	root := testutil.CreateUser(t, repo, "Root", testutil.SuperadminEmail, core.RoleSuperadmin, false, now.Add(-3*time.Hour))
	admin := testutil.CreateUser(t, repo, "Ops Admin", "ops@speak.test", core.RoleAdmin, false, now.Add(-2*time.Hour))
	obs := testutil.CreateUser(t, repo, "Observer", "obs@speak.test", core.RoleUser, true, now.Add(-time.Hour))
	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name   string
		filter user.QueryFilter
		want   []user.User
	}{
		{name: "all, newest first", want: []user.User{obs, admin, root}},
		{name: "role", filter: user.QueryFilter{Role: " ADMIN "}, want: []user.User{admin}},
		{name: "disabled", filter: user.QueryFilter{Disabled: bPtr(true)}, want: []user.User{obs}},
		{name: "enabled", filter: user.QueryFilter{Disabled: bPtr(false)}, want: []user.User{admin, root}},
		{name: "search", filter: user.QueryFilter{Search: "OPS"}, want: []user.User{admin}},
		{name: "no match", filter: user.QueryFilter{Search: "lol"}, want: []user.User{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
			if len(tt.want) > 1 {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	root := testutil.CreateUser(t, repo, "Root", testutil.SuperadminEmail, core.RoleSuperadmin, false)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@speak.test", core.RoleAdmin, false)
	other := testutil.CreateUser(t, repo, "Other admin", "other@speak.test", core.RoleAdmin, false)
	obs := testutil.CreateUser(t, repo, "Observer", "obs@speak.test", core.RoleUser, false)

	rootSession := root.Session()
	adminSession := admin.Session()
	obsSession := obs.Session()

	tests := []struct {
		name    string
		session core.Session
		uid     string
		wantErr core.ErrorKind
	}{
		{name: "superadmin by admin", session: adminSession, uid: root.UID, wantErr: core.KindForbidden},
		{name: "superadmin by itself", session: rootSession, uid: root.UID, wantErr: core.KindForbidden},
		{name: "own account", session: adminSession, uid: admin.UID, wantErr: core.KindForbidden},
		{name: "higher role", session: obsSession, uid: admin.UID, wantErr: core.KindForbidden},
		{name: "unknown", session: adminSession, uid: "lol", wantErr: core.KindNotFound},
		{name: "peer admin", session: adminSession, uid: other.UID},
		{name: "observer by superadmin", session: rootSession, uid: obs.UID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := repo.Query(ctx, user.QueryFilter{})
			require.NoError(t, err)

			err = svc.Delete(ctx, tt.session, tt.uid)
			after, qerr := repo.Query(ctx, user.QueryFilter{})
			require.NoError(t, qerr)

			if tt.wantErr != core.KindUnknown {
				assert.Equal(t, tt.wantErr, core.KindOf(err))
				assert.Equal(t, before, after, "store must be unchanged")
				return
			}
			require.NoError(t, err)
			assert.Len(t, after, len(before)-1)
		})
	}

	_, err := repo.FindByID(ctx, root.UID)
	assert.NoError(t, err, "superadmin must survive")
}

func TestService_SuperadminEmailIsProtected(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@speak.test", core.RoleAdmin, false)
	// the designated email is protected even when its record lost the role
	legacy := testutil.CreateUser(t, repo, "Legacy root", testutil.SuperadminEmail, core.RoleUser, false)

	assert.Equal(t, core.KindForbidden, core.KindOf(svc.Delete(ctx, admin.Session(), legacy.UID)))
	_, err := svc.SetDisabled(ctx, admin.Session(), legacy.UID, true)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}

func TestService_SetDisabledAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@speak.test", core.RoleAdmin, false)
	obs := testutil.CreateUser(t, repo, "Observer", "obs@speak.test", core.RoleUser, false)

	usr, err := svc.SetDisabled(ctx, admin.Session(), obs.UID, true)
	require.NoError(t, err)
	assert.True(t, usr.Disabled)

	_, err = svc.SetDisabled(ctx, admin.Session(), admin.UID, true)
	assert.Equal(t, core.KindForbidden, core.KindOf(err))

	usr, err = svc.Update(ctx, admin.Session(), obs.UID, user.UpdateUser{Name: " Obi ", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, "Obi", usr.Name)
	assert.Equal(t, core.RoleAdmin, usr.Role)

	_, err = svc.Update(ctx, usr.Session(), admin.UID, user.UpdateUser{Role: core.RoleSuperadmin})
	assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))

	// renaming yourself is allowed, changing your own role is not
	_, err = svc.Update(ctx, admin.Session(), admin.UID, user.UpdateUser{Name: "Chief"})
	assert.NoError(t, err)
	_, err = svc.Update(ctx, admin.Session(), admin.UID, user.UpdateUser{Role: core.RoleUser})
	assert.Equal(t, core.KindForbidden, core.KindOf(err))
}

func TestService_BootstrapSuperadmin(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)

	tests := []struct {
		name    string
		uid     string
		email   string
		wantErr core.ErrorKind
	}{
		{name: "missing args", wantErr: core.KindInvalidArgument},
		{name: "not the designated email", uid: "id-1", email: "ops@speak.test", wantErr: core.KindForbidden},
		{name: "designated email", uid: "id-1", email: " ROOT@speak.test "},
		{name: "idempotent", uid: "id-1", email: testutil.SuperadminEmail},
		{name: "other holder", uid: "id-2", email: testutil.SuperadminEmail, wantErr: core.KindAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.BootstrapSuperadmin(ctx, tt.uid, tt.email)
			if tt.wantErr != core.KindUnknown {
				assert.Equal(t, tt.wantErr, core.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			usr, err := repo.FindByID(ctx, "id-1")
			require.NoError(t, err)
			assert.Equal(t, core.RoleSuperadmin, usr.Role)
		})
	}
}

func TestService_Activate(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	invited := testutil.CreateUser(t, repo, "Obs", "obs@speak.test", core.RoleUser, false)

	usr, err := svc.Activate(ctx, "OBS@speak.test", "identity-9")
	require.NoError(t, err)
	assert.Equal(t, "identity-9", usr.UID)

	_, err = repo.FindByID(ctx, invited.UID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	stored, err := repo.FindByID(ctx, "identity-9")
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, stored.Role)
	assert.Equal(t, invited.CreatedAt, stored.CreatedAt)

	_, err = svc.Activate(ctx, "lol@speak.test", "identity-10")
	assert.Equal(t, core.KindNotFound, core.KindOf(err))
}
