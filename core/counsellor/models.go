package counsellor

import (
	"strings"
	"time"

	"github.com/speakhq/speakadmin/core"
)

type Status string

const (
	StatusInvited  Status = "Invited"
	StatusPending  Status = "Pending"
	StatusVerified Status = "Verified"
	StatusRejected Status = "Rejected"
)

var Statuses = []Status{StatusInvited, StatusPending, StatusVerified, StatusRejected}

// ParseStatus accepts any casing of a known status.
func ParseStatus(raw string) (Status, error) {
	for _, s := range Statuses {
		if strings.EqualFold(string(s), strings.TrimSpace(raw)) {
			return s, nil
		}
	}
	return "", core.NewInvalidArgument("invalid counsellor status %q", raw)
}

// NormalizeStatus resolves the canonical status of a stored record.
// Records that predate the status field only carry isVerified.
func NormalizeStatus(raw string, isVerified bool) Status {
	if s, err := ParseStatus(raw); err == nil {
		return s
	}
	if isVerified {
		return StatusVerified
	}
	return StatusPending
}

type (
	Address struct {
		Street  string `json:"street,omitempty" bson:"street,omitempty"`
		City    string `json:"city,omitempty" bson:"city,omitempty"`
		State   string `json:"state,omitempty" bson:"state,omitempty"`
		Country string `json:"country,omitempty" bson:"country,omitempty"`
	}

	PersonalInfo struct {
		FullName    string   `json:"fullName" bson:"fullName"`
		Email       string   `json:"email" bson:"email"`
		PhoneNumber string   `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
		ProfilePic  string   `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
		Address     *Address `json:"address,omitempty" bson:"address,omitempty"`
	}

	ProfessionalInfo struct {
		Occupation     string `json:"occupation,omitempty" bson:"occupation,omitempty"`
		Experience     string `json:"experience,omitempty" bson:"experience,omitempty"`
		Education      string `json:"education,omitempty" bson:"education,omitempty"`
		Specialization string `json:"specialization,omitempty" bson:"specialization,omitempty"`
		Bio            string `json:"bio,omitempty" bson:"bio,omitempty"`
	}

	Counsellor struct {
		ID               string           `json:"id" bson:"_id"`
		PersonalInfo     PersonalInfo     `json:"personalInfo" bson:"personalInfo"`
		ProfessionalInfo ProfessionalInfo `json:"professionalInfo" bson:"professionalInfo"`
		Status           Status           `json:"status" bson:"status,omitempty"`
		IsVerified       bool             `json:"isVerified" bson:"isVerified"`
		CreatedAt        time.Time        `json:"createdAt" bson:"createdAt"` // UTC
		UpdatedAt        time.Time        `json:"updatedAt" bson:"updatedAt"` // UTC
	}
)

// Normalize must be called on every record read from a store.
func (c *Counsellor) Normalize() {
	c.Status = NormalizeStatus(string(c.Status), c.IsVerified)
	c.PersonalInfo.Email = core.CleanString(c.PersonalInfo.Email, true /* lower */)
}

func (c Counsellor) DisplayName() string {
	if name := core.CleanString(c.PersonalInfo.FullName); name != "" {
		return name
	}
	return c.PersonalInfo.Email
}

// setStatus keeps IsVerified in sync with Status.
func (c *Counsellor) setStatus(s Status, now time.Time) {
	c.Status = s
	c.IsVerified = s == StatusVerified
	c.UpdatedAt = now
}

type Filter struct {
	Status Status `query:"status"`
	Search string `query:"search"` // case-insensitive match on full name or email
}

func (f *Filter) Clean() error {
	f.Search = core.CleanString(f.Search)
	if f.Status == "" {
		return nil
	}
	s, err := ParseStatus(string(f.Status))
	if err != nil {
		return err
	}
	f.Status = s
	return nil
}

// Match reports whether c satisfies f; used by stores that filter in memory.
func (f Filter) Match(c Counsellor) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(c.PersonalInfo.FullName), q) ||
		strings.Contains(strings.ToLower(c.PersonalInfo.Email), q)
}

// ProfileInput is what a counsellor submits to complete an invited profile.
type ProfileInput struct {
	FullName       string   `json:"fullName" validate:"required"`
	PhoneNumber    string   `json:"phoneNumber" validate:"required"`
	ProfilePic     string   `json:"profilePic" validate:"omitempty,url"`
	Address        *Address `json:"address" validate:"required"`
	Occupation     string   `json:"occupation" validate:"required"`
	Experience     string   `json:"experience"`
	Education      string   `json:"education"`
	Specialization string   `json:"specialization"`
	Bio            string   `json:"bio"`
}

func (in *ProfileInput) Clean() {
	in.FullName = core.CleanString(in.FullName)
	in.PhoneNumber = core.CleanString(in.PhoneNumber)
	in.ProfilePic = core.CleanString(in.ProfilePic)
	in.Occupation = core.CleanString(in.Occupation)
	in.Experience = core.CleanString(in.Experience)
	in.Education = core.CleanString(in.Education)
	in.Specialization = core.CleanString(in.Specialization)
	in.Bio = core.CleanString(in.Bio)
}

type Stats struct {
	Total           int `json:"total"`
	Invited         int `json:"invited"`
	Pending         int `json:"pending"`
	Verified        int `json:"verified"`
	Rejected        int `json:"rejected"`
	ActiveThisMonth int `json:"activeThisMonth"`
}

// ComputeStats counts records per status. A counsellor is active this month when it
// was updated within the last month and is either pending or verified.
func ComputeStats(records []Counsellor, now time.Time) Stats {
	monthAgo := now.AddDate(0, -1, 0)
	st := Stats{Total: len(records)}
	for _, c := range records {
		switch c.Status {
		case StatusInvited:
			st.Invited++
		case StatusPending:
			st.Pending++
		case StatusVerified:
			st.Verified++
		case StatusRejected:
			st.Rejected++
		}
		if (c.Status == StatusPending || c.Status == StatusVerified) && c.UpdatedAt.After(monthAgo) {
			st.ActiveThisMonth++
		}
	}
	return st
}
