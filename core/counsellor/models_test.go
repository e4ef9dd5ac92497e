package counsellor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		isVerified bool
		want       Status
	}{
		{name: "canonical", raw: "Invited", want: StatusInvited},
		{name: "any casing", raw: "verified", want: StatusVerified},
		{name: "legacy verified", raw: "", isVerified: true, want: StatusVerified},
		{name: "legacy unverified", raw: "", want: StatusPending},
		{name: "unknown", raw: "lol", want: StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw, tt.isVerified))
		})
	}
}

func TestCounsellor_setStatus(t *testing.T) {
	now := time.Now().UTC()
	for _, s := range Statuses {
		t.Run(string(s), func(t *testing.T) {
			c := Counsellor{IsVerified: true}
			c.setStatus(s, now)
			assert.Equal(t, s, c.Status)
			assert.Equal(t, s == StatusVerified, c.IsVerified)
			assert.Equal(t, now, c.UpdatedAt)
		})
	}
}

func TestComputeStats(t *testing.T) {
	now := time.Now().UTC()
	old := now.AddDate(0, -2, 0)
	records := []Counsellor{
		{Status: StatusInvited, UpdatedAt: now},
		{Status: StatusPending, UpdatedAt: now},
		{Status: StatusPending, UpdatedAt: old},
		{Status: StatusVerified, UpdatedAt: now},
		{Status: StatusRejected, UpdatedAt: now},
	}
	assert.Equal(t, Stats{Total: 5, Invited: 1, Pending: 2, Verified: 1, Rejected: 1, ActiveThisMonth: 2}, ComputeStats(records, now))
	assert.Equal(t, Stats{}, ComputeStats(nil, now))
}

func TestFilter_Match(t *testing.T) {
	c := Counsellor{Status: StatusPending, PersonalInfo: PersonalInfo{FullName: "Amina Diallo", Email: "amina@speak.test"}}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "empty", want: true},
		{name: "status", filter: Filter{Status: StatusPending}, want: true},
		{name: "other status", filter: Filter{Status: StatusVerified}},
		{name: "name", filter: Filter{Search: "DIALLO"}, want: true},
		{name: "email", filter: Filter{Search: "amina@"}, want: true},
		{name: "no match", filter: Filter{Search: "zed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(c))
		})
	}
}
