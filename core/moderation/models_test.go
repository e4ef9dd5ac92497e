package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    Type
		doc  Document
		want ContentItem
	}{
		{
			name: "post with author fields",
			t:    TypePost,
			doc:  Document{ID: "p1", Text: "hello", AuthorID: "u1", AuthorName: "Ama", CreatedAt: at},
			want: ContentItem{ID: "p1", Type: TypePost, Content: "hello", UserID: "u1", UserName: "Ama", CreatedAt: at, Status: StatusPending, FlaggedBy: []string{}},
		},
		{
			name: "chat with sender fields",
			t:    TypeChat,
			doc:  Document{ID: "m1", Message: "hi", SenderID: "u2", ModerationStatus: "flagged", FlaggedBy: []string{"u3"}, CreatedAt: at},
			want: ContentItem{ID: "m1", Type: TypeChat, Content: "hi", UserID: "u2", UserName: "Unknown", CreatedAt: at, Status: StatusFlagged, FlaggedBy: []string{"u3"}},
		},
		{
			name: "content wins over text",
			t:    TypePost,
			doc:  Document{ID: "p2", Content: "c", Text: "t", UserID: "u4", UserName: "Kofi", ModerationStatus: "APPROVED", CreatedAt: at},
			want: ContentItem{ID: "p2", Type: TypePost, Content: "c", UserID: "u4", UserName: "Kofi", CreatedAt: at, Status: StatusApproved, FlaggedBy: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.t, tt.doc))
		})
	}
}

func TestParseType(t *testing.T) {
	for raw, want := range map[string]Type{"post": TypePost, "Posts": TypePost, "chat": TypeChat, "messages": TypeChat} {
		got, err := ParseType(raw)
		assert.NoError(t, err)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseType("video")
	assert.Error(t, err)
}

func TestQuery_Match(t *testing.T) {
	now := time.Now()
	doc := Document{ID: "b", CreatedAt: now}
	assert.True(t, Query{Status: StatusPending}.Match(TypePost, doc), "missing status is pending")
	assert.False(t, Query{Status: StatusFlagged}.Match(TypePost, doc))
	assert.True(t, Query{Status: StatusApproved}.Match(TypePost, Document{ModerationStatus: " Approved ", CreatedAt: now}))
	assert.True(t, Query{Before: now.Add(time.Second)}.Match(TypePost, doc))
	assert.False(t, Query{Before: now}.Match(TypePost, doc), "before is exclusive")
	assert.False(t, Query{After: &Cursor{CreatedAt: now, Type: TypePost, ID: "b"}}.Match(TypePost, doc), "after is exclusive")
}

func TestCursor_Admits(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := Cursor{CreatedAt: at, Type: TypeChat, ID: "m"}
	tests := []struct {
		name string
		t    Type
		at   time.Time
		id   string
		want bool
	}{
		{name: "older", t: TypeChat, at: at.Add(-time.Second), id: "a", want: true},
		{name: "newer", t: TypePost, at: at.Add(time.Second), id: "z"},
		{name: "same instant, later id", t: TypeChat, at: at, id: "n", want: true},
		{name: "same instant, earlier id", t: TypeChat, at: at, id: "l"},
		{name: "same item", t: TypeChat, at: at, id: "m"},
		{name: "same instant, type sorting after", t: TypePost, at: at, id: "a", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Admits(tt.t, tt.at, tt.id))
		})
	}
}

func TestParseCursor(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC), Type: TypePost, ID: "p~1"}
	got, err := ParseCursor(c.String())
	assert.NoError(t, err)
	assert.Equal(t, c, got)

	for _, raw := range []string{"", "2024-05-01T10:00:00Z", "2024-05-01T10:00:00Z~video~p1", "yesterday~post~p1", "2024-05-01T10:00:00Z~post~"} {
		_, err := ParseCursor(raw)
		assert.Error(t, err, raw)
	}
}
