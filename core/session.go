package core

import "context"

// Roles of console users.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleUser       = "user" // observer
	RoleCounsellor = "counsellor"
)

// Session is the authenticated identity behind a request. It is always passed
// explicitly; nothing reads the current user from ambient state.
type Session struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
}

func (s Session) IsZero() bool { return s.UserID == "" }

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin || s.Role == RoleSuperadmin
}

func (s Session) IsSuperadmin() bool { return s.Role == RoleSuperadmin }

// Logger is any structured-ish logger the services can report to.
// expected args: error, map[string]interface{}, Session
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Result is the {success, message} shape every console action reports.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Views that must re-fetch after a mutation.
const (
	ViewCounsellors   = "counsellors"
	ViewDashboard     = "dashboard"
	ViewUsers         = "users"
	ViewNotifications = "notifications"
	ViewModeration    = "moderation"
	ViewSettings      = "settings"
	ViewCategories    = "categories"
	ViewInvite        = "invite"
)

// Invalidation tells listeners which views are stale.
type Invalidation struct {
	Views []string `json:"views"`
}

// Invalidator fans out view invalidations, within the process or across instances.
type Invalidator interface {
	Invalidate(ctx context.Context, views ...string) error
	Subscribe(ctx context.Context) (<-chan Invalidation, error)
}
