package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/speakhq/speakadmin/apps/api/echo"
	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/core/moderation"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/settings"
	testutil "github.com/speakhq/speakadmin/tests"
)

func Test_notificationApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)
	now := time.Now()
	old := testutil.CreateNotification(t, h.app.Stores.Notifications, "old", true, now.Add(-time.Hour))
	n1 := testutil.CreateNotification(t, h.app.Stores.Notifications, "first", false, now.Add(-time.Minute))
	n2 := testutil.CreateNotification(t, h.app.Stores.Notifications, "second", false, now)

	h.run(t, []httpTest{
		{name: "auth required", path: "/v1/notifications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "snapshot", path: "/v1/notifications", token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, notification.Snapshot{Items: []notification.Notification{n2, n1, old}, Unread: 2}),
		},
		{name: "mark unknown", method: http.MethodPost, path: "/v1/notifications/lol/read", token: s.observerToken, wantCode: http.StatusNotFound},
		{
			name: "mark read", method: http.MethodPost, path: "/v1/notifications/" + n1.ID + "/read", token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Notification marked as read."}),
		},
		{
			name: "mark read again", method: http.MethodPost, path: "/v1/notifications/" + n1.ID + "/read", token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Notification marked as read."}),
		},
		{name: "mark all without ids", method: http.MethodPost, path: "/v1/notifications/read-all", body: []byte(`{"ids":[]}`), token: s.observerToken, wantCode: http.StatusBadRequest},
		{
			name: "mark all with an unknown id", method: http.MethodPost, path: "/v1/notifications/read-all",
			body: marchallObj(t, echoapi.MarkAllReadRequest{IDs: []string{n2.ID, "lol"}}), token: s.observerToken, wantCode: http.StatusNotFound,
		},
		{
			name: "open", method: http.MethodPost, path: "/v1/notifications/" + n2.ID + "/open", token: s.observerToken, wantCode: http.StatusOK,
			wantData: []byte(`{"success":true,"link":"/notifications"}`),
		},
	})

	snap, err := h.app.Feed.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Unread)
}

func Test_moderationApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)
	now := time.Now().UTC().Truncate(time.Second)
	post := h.app.MemDB.PutContent(moderation.TypePost, moderation.Document{Content: "flagged post", UserName: "Ama", ModerationStatus: "flagged", CreatedAt: now.Add(-time.Minute)})
	chat := h.app.MemDB.PutContent(moderation.TypeChat, moderation.Document{Text: "a chat", SenderName: "Kofi", CreatedAt: now})

	postItem := moderation.Normalize(moderation.TypePost, post)
	chatItem := moderation.Normalize(moderation.TypeChat, chat)

	h.run(t, []httpTest{
		{name: "auth required", path: "/v1/moderation", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "queue", path: "/v1/moderation", token: s.observerToken, wantCode: http.StatusOK, wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{chatItem, postItem}})},
		{name: "flagged", path: "/v1/moderation?status=flagged", token: s.observerToken, wantCode: http.StatusOK, wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{postItem}})},
		{name: "messages", path: "/v1/moderation?type=messages", token: s.observerToken, wantCode: http.StatusOK, wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{chatItem}})},
		{
			name: "paged", path: "/v1/moderation?limit=2", token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{chatItem, postItem}, Next: moderation.CursorOf(postItem).String()}),
		},
		{
			name: "before", path: "/v1/moderation?" + url.Values{"before": {now.Format(time.RFC3339)}}.Encode(), token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{postItem}}),
		},
		{
			name: "after", path: "/v1/moderation?" + url.Values{"after": {moderation.CursorOf(chatItem).String()}}.Encode(), token: s.observerToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, moderation.Page{Items: []moderation.ContentItem{postItem}}),
		},
		{name: "bad cursor", path: "/v1/moderation?after=lol", token: s.observerToken, wantCode: http.StatusBadRequest},
		{name: "bad limit", path: "/v1/moderation?limit=lol", token: s.observerToken, wantCode: http.StatusBadRequest},
		{name: "bad type", path: "/v1/moderation/video/" + post.ID, token: s.observerToken, wantCode: http.StatusBadRequest},
		{name: "retrieve", path: "/v1/moderation/post/" + post.ID, token: s.observerToken, wantCode: http.StatusOK, wantData: marchallObj(t, postItem)},
		{name: "observer cannot approve", method: http.MethodPost, path: "/v1/moderation/post/" + post.ID + "/approve", token: s.observerToken, wantCode: http.StatusForbidden},
		{
			name: "approve", method: http.MethodPost, path: "/v1/moderation/post/" + post.ID + "/approve", token: s.adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Content has been approved."}),
		},
		{
			name: "reject", method: http.MethodPost, path: "/v1/moderation/chat/" + chat.ID + "/reject", body: marchallObj(t, echoapi.DecisionRequest{Note: "abusive"}),
			token: s.adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, core.Result{Success: true, Message: "Content has been rejected and hidden."}),
		},
		{name: "delete unconfirmed", method: http.MethodDelete, path: "/v1/moderation/post/" + post.ID, token: s.adminToken, wantCode: http.StatusBadRequest},
		{
			name: "delete", method: http.MethodDelete, path: "/v1/moderation/post/" + post.ID + "?confirm=true", token: s.adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Content has been permanently deleted."}),
		},
		{name: "deleted", path: "/v1/moderation/post/" + post.ID, token: s.observerToken, wantCode: http.StatusNotFound},
	})

	item, err := h.app.ModerationSvc.Get(context.Background(), moderation.Ref{Type: moderation.TypeChat, ID: chat.ID})
	require.NoError(t, err)
	assert.Equal(t, moderation.StatusRejected, item.Status)
	assert.Equal(t, "abusive", item.ModerationNote)
	assert.True(t, item.IsHidden)
}

type settingsResponse struct {
	Success  bool              `json:"success"`
	Message  string            `json:"message"`
	Settings settings.Settings `json:"settings"`
}

func Test_settingsApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)
	h.app.MemDB.PutRawSettings([]byte(`{"maintenanceMode":true}`))

	want := settings.Defaults()
	want.MaintenanceMode = true

	h.run(t, []httpTest{
		{name: "admin required", path: "/v1/settings", token: s.observerToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "merged over defaults", path: "/v1/settings", token: s.adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, want)},
		{
			name: "invalid", method: http.MethodPut, path: "/v1/settings", body: []byte(`{"notificationFrequency":"weekly"}`), token: s.adminToken,
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("partial save keeps other fields", func(t *testing.T) {
		rec := h.do(newAuthRequest(http.MethodPut, "/v1/settings", s.adminToken, []byte(`{"maxPostLength":500}`)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp settingsResponse
		unmarshal(t, rec, &resp)
		assert.True(t, resp.Success)
		assert.Equal(t, "Settings saved.", resp.Message)
		assert.Equal(t, 500, resp.Settings.MaxPostLength)
		assert.True(t, resp.Settings.MaintenanceMode)
		assert.Equal(t, s.admin.Email, resp.Settings.UpdatedBy)
	})

	t.Run("reset does not persist", func(t *testing.T) {
		rec := h.do(newAuthRequest(http.MethodPost, "/v1/settings/reset", s.adminToken))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp settingsResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, settings.Defaults(), resp.Settings)

		loaded, err := h.app.SettingsSvc.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 500, loaded.MaxPostLength)
	})
}

func Test_categoryApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)

	rec := h.do(newAuthRequest(http.MethodPost, "/v1/categories", s.adminToken, []byte(`{"name":"Anxiety","order":1}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created category.Category
	unmarshal(t, rec, &created)
	assert.Equal(t, category.DefaultIcon, created.Icon)
	assert.True(t, created.IsActive)

	created.Description = "Worry"
	h.run(t, []httpTest{
		{name: "observer cannot create", method: http.MethodPost, path: "/v1/categories", body: []byte(`{"name":"Grief"}`), token: s.observerToken, wantCode: http.StatusForbidden},
		{name: "missing name", method: http.MethodPost, path: "/v1/categories", body: []byte(`{"name":" "}`), token: s.adminToken, wantCode: http.StatusBadRequest},
		{
			name: "bad color", method: http.MethodPost, path: "/v1/categories", body: []byte(`{"name":"Grief","color":"blue"}`), token: s.adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Message: "color: must be a hex color like #6B73FF", Errors: map[string]string{"color": "must be a hex color like #6B73FF"}}),
		},
		{name: "list", path: "/v1/categories", token: s.observerToken, wantCode: http.StatusOK, wantData: marchallObj(t, []category.Category{{
			ID: created.ID, Name: "Anxiety", Icon: category.DefaultIcon, Color: category.DefaultColor, Order: 1, IsActive: true,
		}})},
		{name: "update", method: http.MethodPut, path: "/v1/categories/" + created.ID, body: marchallObj(t, created), token: s.adminToken, wantCode: http.StatusOK, wantData: marchallObj(t, created)},
		{name: "update unknown", method: http.MethodPut, path: "/v1/categories/lol", body: marchallObj(t, created), token: s.adminToken, wantCode: http.StatusNotFound},
		{
			name: "delete", method: http.MethodDelete, path: "/v1/categories/" + created.ID, token: s.adminToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Category deleted."}),
		},
		{name: "list empty", path: "/v1/categories", token: s.observerToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})
}

func Test_dashboardApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)

	h.run(t, []httpTest{
		{name: "auth required", path: "/v1/dashboard", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "counsellors are not members", path: "/v1/dashboard", token: s.counsellorToken, wantCode: http.StatusForbidden},
	})

	rec := h.do(newAuthRequest(http.MethodGet, "/v1/dashboard", s.observerToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d struct {
		TotalUsers  int            `json:"totalUsers"`
		UsersByRole map[string]int `json:"usersByRole"`
	}
	unmarshal(t, rec, &d)
	assert.Equal(t, 3, d.TotalUsers)
	assert.Equal(t, map[string]int{core.RoleSuperadmin: 1, core.RoleAdmin: 1, core.RoleUser: 1}, d.UsersByRole)
}

func Test_diagnosticsApi(t *testing.T) {
	h := setup(t)

	h.run(t, []httpTest{
		{name: "home", path: "/", wantCode: http.StatusOK},
		{
			name: "missing email", path: "/api/test-email", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, core.Result{Message: "Missing email parameter"}),
		},
		{
			name: "sent", path: "/api/test-email?email=ops@speak.test", wantCode: http.StatusOK,
			wantData: marchallObj(t, core.Result{Success: true, Message: "Test email sent to ops@speak.test."}),
		},
	})
	require.Len(t, h.mail.Sent(), 1)
	assert.Equal(t, "Email Configuration Test - Speak Admin", h.mail.Sent()[0].Subject)

	rec := h.do(newRequest(http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `speakadmin_http_requests_total{method="GET",path="/api/test-email",status="200"} 1`))
}

func Test_liveApi(t *testing.T) {
	h := setup(t)
	s := seedStaff(t, h)
	n := testutil.CreateNotification(t, h.app.Stores.Notifications, "first", false, time.Now())

	h.run(t, []httpTest{
		{name: "token required", path: "/v1/live", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "members only", path: "/v1/live?token=" + s.counsellorToken, wantCode: http.StatusForbidden},
	})

	srv := httptest.NewServer(h.server)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/live?token=" + url.QueryEscape(s.observerToken)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	read := func() echoapi.LiveMessage {
		t.Helper()
		var msg echoapi.LiveMessage
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	require.Equal(t, "notifications", first.Type)
	require.NotNil(t, first.Data)
	assert.Equal(t, 1, first.Data.Unread)

	rec := h.do(newAuthRequest(http.MethodPost, "/v1/notifications/"+n.ID+"/read", s.observerToken))
	require.Equal(t, http.StatusOK, rec.Code)

	var gotSnapshot, gotInvalidation bool
	for !(gotSnapshot && gotInvalidation) {
		msg := read()
		switch msg.Type {
		case "notifications":
			require.NotNil(t, msg.Data)
			assert.Equal(t, 0, msg.Data.Unread)
			gotSnapshot = true
		case "invalidate":
			assert.Equal(t, []string{core.ViewNotifications}, msg.Views)
			gotInvalidation = true
		default:
			t.Fatalf("unexpected message type %q", msg.Type)
		}
	}
}
