package user

import (
	"strings"
	"time"

	"github.com/speakhq/speakadmin/core"
)

var (
	// MemberRoles can be granted through an invitation.
	MemberRoles = []string{core.RoleAdmin, core.RoleUser}

	rolePriorities = map[string]int{
		core.RoleSuperadmin: 30,
		core.RoleAdmin:      20,
		core.RoleUser:       10,
	}

	Roles = []Role{
		{Name: "Observer", Value: core.RoleUser},
		{Name: "Admin", Value: core.RoleAdmin},
		{Name: "Superadmin", Value: core.RoleSuperadmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsMemberRole(role string) bool {
	return role == core.RoleAdmin || role == core.RoleUser
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is a console account. Its UID matches the identity id once the account is activated.
type User struct {
	UID       string    `json:"uid" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Role      string    `json:"role" bson:"role"`
	Disabled  bool      `json:"disabled" bson:"disabled"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"` // UTC
}

func (u User) Session() core.Session {
	return core.Session{UserID: u.UID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// UpdateUser defines what an admin may change on an existing User.
type UpdateUser struct {
	Name string `json:"name"`
	Role string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (uu *UpdateUser) Clean() {
	uu.Name = core.CleanString(uu.Name)
	uu.Role = core.CleanString(uu.Role, true /* lower */)
}

type QueryFilter struct {
	Search   string `query:"search"` // case-insensitive match on name or email
	Role     string `query:"role"`
	Disabled *bool  `query:"disabled"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Disabled == nil
}

// Match reports whether u satisfies qf; used by stores that filter in memory.
func (qf QueryFilter) Match(u User) bool {
	if qf.Role != "" && u.Role != qf.Role {
		return false
	}
	if qf.Disabled != nil && u.Disabled != *qf.Disabled {
		return false
	}
	if qf.Search == "" {
		return true
	}
	q := strings.ToLower(qf.Search)
	return strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q)
}
