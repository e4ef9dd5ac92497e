package moderation

import (
	"strings"
	"time"

	"github.com/speakhq/speakadmin/core"
)

type (
	Type   string
	Status string
)

const (
	TypePost Type = "post"
	TypeChat Type = "chat"

	StatusFlagged  Status = "flagged"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"

	DefaultPageSize = 10

	defaultApproveNote = "Content approved by admin"
	defaultRejectNote  = "Content rejected by admin"
	unknownUser        = "Unknown"
)

var Types = []Type{TypePost, TypeChat}

func ParseType(raw string) (Type, error) {
	switch t := Type(core.CleanString(raw, true /* lower */)); t {
	case TypePost, TypeChat:
		return t, nil
	case "posts":
		return TypePost, nil
	case "message", "messages":
		return TypeChat, nil
	}
	return "", core.NewInvalidArgument("Invalid content type %q.", raw)
}

// Collection is the document store collection holding items of type t.
func (t Type) Collection() string {
	if t == TypeChat {
		return core.CollectionMessages
	}
	return core.CollectionPosts
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(core.CleanString(raw, true /* lower */)); s {
	case StatusFlagged, StatusPending, StatusApproved, StatusRejected:
		return s, nil
	}
	return "", core.NewInvalidArgument("Invalid moderation status %q.", raw)
}

// Document is a raw post or chat message. Both shapes share the collection
// fields they were written with over time.
type Document struct {
	ID               string     `bson:"_id"`
	Content          string     `bson:"content,omitempty"`
	Text             string     `bson:"text,omitempty"`
	Message          string     `bson:"message,omitempty"`
	UserID           string     `bson:"userId,omitempty"`
	AuthorID         string     `bson:"authorId,omitempty"`
	SenderID         string     `bson:"senderId,omitempty"`
	UserName         string     `bson:"userName,omitempty"`
	AuthorName       string     `bson:"authorName,omitempty"`
	SenderName       string     `bson:"senderName,omitempty"`
	CreatedAt        time.Time  `bson:"createdAt"`
	ModerationStatus string     `bson:"moderationStatus,omitempty"`
	ModerationNote   string     `bson:"moderationNote,omitempty"`
	ModeratedAt      *time.Time `bson:"moderatedAt,omitempty"`
	FlaggedBy        []string   `bson:"flaggedBy,omitempty"`
	FlagReason       string     `bson:"flagReason,omitempty"`
	IsHidden         bool       `bson:"isHidden,omitempty"`
}

// ContentItem is the single shape the console moderates.
type ContentItem struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	Content        string     `json:"content"`
	UserID         string     `json:"userId"`
	UserName       string     `json:"userName"`
	CreatedAt      time.Time  `json:"createdAt"`
	Status         Status     `json:"moderationStatus"`
	FlaggedBy      []string   `json:"flaggedBy"`
	FlagReason     string     `json:"flagReason,omitempty"`
	ModerationNote string     `json:"moderationNote,omitempty"`
	ModeratedAt    *time.Time `json:"moderatedAt,omitempty"`
	IsHidden       bool       `json:"isHidden"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// NormalizeStatus maps a stored status to the canonical one; missing means pending.
func NormalizeStatus(raw string) Status {
	if s, err := ParseStatus(raw); err == nil {
		return s
	}
	return StatusPending
}

func Normalize(t Type, doc Document) ContentItem {
	item := ContentItem{
		ID:             doc.ID,
		Type:           t,
		CreatedAt:      doc.CreatedAt,
		Status:         NormalizeStatus(doc.ModerationStatus),
		FlaggedBy:      doc.FlaggedBy,
		FlagReason:     doc.FlagReason,
		ModerationNote: doc.ModerationNote,
		ModeratedAt:    doc.ModeratedAt,
		IsHidden:       doc.IsHidden,
	}
	if item.FlaggedBy == nil {
		item.FlaggedBy = []string{}
	}
	switch t {
	case TypeChat:
		item.Content = firstNonEmpty(doc.Content, doc.Text, doc.Message)
		item.UserID = firstNonEmpty(doc.UserID, doc.SenderID)
		item.UserName = firstNonEmpty(doc.UserName, doc.SenderName, unknownUser)
	default:
		item.Content = firstNonEmpty(doc.Content, doc.Text)
		item.UserID = firstNonEmpty(doc.UserID, doc.AuthorID)
		item.UserName = firstNonEmpty(doc.UserName, doc.AuthorName, unknownUser)
	}
	return item
}

// Ref identifies one moderation target.
type Ref struct {
	Type Type
	ID   string
}

// Cursor is the position of the last item of a page. Items sort by CreatedAt
// descending, then by Type and ID ascending, so every item has one position.
type Cursor struct {
	CreatedAt time.Time
	Type      Type
	ID        string
}

// CursorOf returns the position of item.
func CursorOf(item ContentItem) Cursor {
	return Cursor{CreatedAt: item.CreatedAt, Type: item.Type, ID: item.ID}
}

const cursorSep = "~"

// String encodes c for the `after` query parameter.
func (c Cursor) String() string {
	return c.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSep + string(c.Type) + cursorSep + c.ID
}

func ParseCursor(raw string) (Cursor, error) {
	parts := strings.SplitN(raw, cursorSep, 3)
	if len(parts) != 3 || parts[2] == "" {
		return Cursor{}, core.NewInvalidArgument("Invalid page cursor %q.", raw)
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, core.NewInvalidArgument("Invalid page cursor %q.", raw)
	}
	t, err := ParseType(parts[1])
	if err != nil {
		return Cursor{}, core.NewInvalidArgument("Invalid page cursor %q.", raw)
	}
	return Cursor{CreatedAt: at.UTC(), Type: t, ID: parts[2]}, nil
}

// Admits reports whether an item of type t sorts strictly after c.
func (c Cursor) Admits(t Type, createdAt time.Time, id string) bool {
	switch {
	case createdAt.Before(c.CreatedAt):
		return true
	case !createdAt.Equal(c.CreatedAt):
		return false
	case t != c.Type:
		return t > c.Type
	}
	return id > c.ID
}

// Less orders items newest first with Type and ID breaking ties.
func Less(a, b ContentItem) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.ID < b.ID
}

// Query is what a store needs to fetch one page of one collection. Stores sort
// by CreatedAt descending, then ID ascending.
type Query struct {
	Status Status    // canonical; pending also matches documents without a status
	Before time.Time // exclusive upper bound on CreatedAt, zero = none
	After  *Cursor   // only items sorting after this position
	Limit  int
}

// Match reports whether doc of type t belongs to q regardless of the limit.
func (q Query) Match(t Type, doc Document) bool {
	if q.Status != "" && NormalizeStatus(doc.ModerationStatus) != q.Status {
		return false
	}
	if !q.Before.IsZero() && !doc.CreatedAt.Before(q.Before) {
		return false
	}
	return q.After == nil || q.After.Admits(t, doc.CreatedAt, doc.ID)
}

type Filter struct {
	Status Status    `query:"status"`
	Type   Type      `query:"type"` // empty = posts and chats
	Search string    `query:"search"`
	Before time.Time `query:"before"`
	After  string    `query:"after"` // Page.Next of the previous page
	Limit  int       `query:"limit"`

	cursor *Cursor
}

func (f *Filter) Clean() error {
	f.Search = core.CleanString(f.Search)
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = DefaultPageSize
	}
	if f.Status != "" {
		s, err := ParseStatus(string(f.Status))
		if err != nil {
			return err
		}
		f.Status = s
	}
	if f.Type != "" {
		t, err := ParseType(string(f.Type))
		if err != nil {
			return err
		}
		f.Type = t
	}
	if f.After = core.CleanString(f.After); f.After != "" {
		c, err := ParseCursor(f.After)
		if err != nil {
			return err
		}
		f.cursor = &c
	}
	return nil
}

func (f Filter) matchSearch(item ContentItem) bool {
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(item.Content), q) || strings.Contains(strings.ToLower(item.UserName), q)
}

// Page is one page of the merged moderation queue, newest first.
type Page struct {
	Items []ContentItem `json:"items"`
	// Next is the `after` value of the following page, empty when exhausted.
	Next string `json:"next,omitempty"`
}

// Decision is what approve and reject write.
type Decision struct {
	Status Status
	Note   string
	At     time.Time
	Hide   bool
}
