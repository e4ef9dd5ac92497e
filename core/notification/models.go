package notification

import "time"

type Type string

const (
	TypePendingVerification Type = "counsellor_pending_verification"
	TypeCounsellorInvited   Type = "new_counsellor_invited"
	TypeChatRequest         Type = "chat_request"
	TypeGeneral             Type = "general"
)

// WindowSize bounds the feed to the most recent notifications.
const WindowSize = 10

type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	Type      Type      `json:"type" bson:"type"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Link      string    `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool      `json:"read" bson:"read"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"` // UTC
}

// Snapshot is the feed as a console user sees it. Unread only counts the window.
type Snapshot struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

func NewSnapshot(items []Notification) Snapshot {
	if items == nil {
		items = []Notification{}
	}
	snap := Snapshot{Items: items}
	for _, n := range items {
		if !n.Read {
			snap.Unread++
		}
	}
	return snap
}
