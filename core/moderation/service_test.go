package moderation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/moderation"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
)

func setup(t *testing.T) (*moderation.Service, *inmemdb.DB) {
	db := inmemdb.Open()
	return moderation.NewService(inmemdb.NewModerationRepository(db), nil, nil, logsvc.NewNopLogger()), db
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	base := time.Now().Add(-time.Hour).UTC()
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	p1 := db.PutContent(moderation.TypePost, moderation.Document{Content: "first post", UserName: "Ama", CreatedAt: at(1)})
	m1 := db.PutContent(moderation.TypeChat, moderation.Document{Text: "a chat", SenderName: "Kofi", CreatedAt: at(2), ModerationStatus: "flagged"})
	p2 := db.PutContent(moderation.TypePost, moderation.Document{Content: "second post", UserName: "Kofi", CreatedAt: at(3), ModerationStatus: "approved"})
	m2 := db.PutContent(moderation.TypeChat, moderation.Document{Message: "another chat", SenderName: "Ama", CreatedAt: at(4)})

	ids := func(page moderation.Page) []string {
		out := make([]string, 0, len(page.Items))
		for _, it := range page.Items {
			out = append(out, it.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   moderation.Filter
		want     []string
		wantNext bool
	}{
		{name: "merged newest first", want: []string{m2.ID, p2.ID, m1.ID, p1.ID}},
		{name: "posts only", filter: moderation.Filter{Type: "post"}, want: []string{p2.ID, p1.ID}},
		{name: "pending includes missing status", filter: moderation.Filter{Status: "pending"}, want: []string{m2.ID, p1.ID}},
		{name: "flagged", filter: moderation.Filter{Status: "flagged"}, want: []string{m1.ID}},
		{name: "search content or user", filter: moderation.Filter{Search: "kofi"}, want: []string{p2.ID, m1.ID}},
		{name: "first page", filter: moderation.Filter{Limit: 2}, want: []string{m2.ID, p2.ID}, wantNext: true},
		{name: "second page", filter: moderation.Filter{Limit: 2, After: moderation.CursorOf(moderation.ContentItem{ID: p2.ID, Type: moderation.TypePost, CreatedAt: at(3)}).String()}, want: []string{m1.ID, p1.ID}, wantNext: true},
		{name: "before", filter: moderation.Filter{Limit: 2, Before: at(3)}, want: []string{m1.ID, p1.ID}, wantNext: true},
		{name: "past the end", filter: moderation.Filter{Limit: 2, Before: at(1)}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page))
			assert.Equal(t, tt.wantNext, page.Next != "")
		})
	}

	_, err := svc.List(ctx, moderation.Filter{Status: "lol"})
	assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
	_, err = svc.List(ctx, moderation.Filter{After: "yesterday"})
	assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))

	n, err := svc.AwaitingReview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestService_ListPagingKeepsTies(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	same := time.Now().Add(-time.Hour).UTC()

	want := map[string]bool{}
	for _, doc := range []struct {
		t   moderation.Type
		doc moderation.Document
	}{
		{moderation.TypePost, moderation.Document{Content: "post", CreatedAt: same}},
		{moderation.TypeChat, moderation.Document{Text: "chat", CreatedAt: same}},
		{moderation.TypePost, moderation.Document{Content: "another post", CreatedAt: same}},
		{moderation.TypeChat, moderation.Document{Text: "older chat", CreatedAt: same.Add(-time.Minute)}},
	} {
		want[db.PutContent(doc.t, doc.doc).ID] = true
	}

	seen := map[string]bool{}
	filter := moderation.Filter{Limit: 1}
	for pages := 0; pages <= len(want); pages++ {
		page, err := svc.List(ctx, filter)
		require.NoError(t, err)
		for _, it := range page.Items {
			assert.False(t, seen[it.ID], "item %s returned twice", it.ID)
			seen[it.ID] = true
		}
		if page.Next == "" {
			break
		}
		filter.After = page.Next
	}
	assert.Equal(t, want, seen)
}

func TestService_Decisions(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	post := db.PutContent(moderation.TypePost, moderation.Document{Content: "post", CreatedAt: time.Now().UTC()})
	chat := db.PutContent(moderation.TypeChat, moderation.Document{Text: "chat", CreatedAt: time.Now().UTC()})
	postRef := moderation.Ref{Type: moderation.TypePost, ID: post.ID}
	chatRef := moderation.Ref{Type: "message", ID: chat.ID}

	t.Run("approve with default note", func(t *testing.T) {
		_, err := svc.Approve(ctx, postRef, " ")
		require.NoError(t, err)
		item, err := svc.Get(ctx, postRef)
		require.NoError(t, err)
		assert.Equal(t, moderation.StatusApproved, item.Status)
		assert.Equal(t, "Content approved by admin", item.ModerationNote)
		assert.NotNil(t, item.ModeratedAt)
		assert.False(t, item.IsHidden)
	})

	t.Run("reject hides", func(t *testing.T) {
		res, err := svc.Reject(ctx, chatRef, "spam")
		require.NoError(t, err)
		assert.Equal(t, "Content has been rejected and hidden.", res.Message)
		item, err := svc.Get(ctx, chatRef)
		require.NoError(t, err)
		assert.Equal(t, moderation.StatusRejected, item.Status)
		assert.Equal(t, "spam", item.ModerationNote)
		assert.True(t, item.IsHidden)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := svc.Approve(ctx, moderation.Ref{Type: moderation.TypePost, ID: "lol"}, "")
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
		_, err = svc.Approve(ctx, moderation.Ref{Type: "video", ID: post.ID}, "")
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		_, err := svc.Delete(ctx, postRef, false)
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
		_, err = svc.Get(ctx, postRef)
		require.NoError(t, err)

		_, err = svc.Delete(ctx, postRef, true)
		require.NoError(t, err)
		_, err = svc.Get(ctx, postRef)
		assert.Equal(t, core.KindNotFound, core.KindOf(err))
	})
}
