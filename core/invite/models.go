package invite

import (
	"github.com/speakhq/speakadmin/core"
)

// Kind is the account type carried by a set-password link.
type Kind string

const (
	KindAdmin     Kind = "admin"
	KindUser      Kind = "user"
	KindCounselor Kind = "counselor"
)

func ParseKind(raw string) (Kind, error) {
	switch k := Kind(core.CleanString(raw, true /* lower */)); k {
	case KindAdmin, KindUser, KindCounselor:
		return k, nil
	case "counsellor":
		return KindCounselor, nil
	}
	return "", core.NewInvalidArgument("Invalid invitation type %q.", raw)
}

func (k Kind) Label() string {
	switch k {
	case KindAdmin:
		return "Admin"
	case KindUser:
		return "User"
	default:
		return "Counselor"
	}
}

type (
	NewMemberInvite struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
		Role  string `json:"role" validate:"required,oneof=admin user"`
	}

	NewCounsellorInvite struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}

	ResendRequest struct {
		Email string `json:"email" validate:"required,email"`
		Type  string `json:"type" validate:"required"`
	}

	// Result reports both steps of an invitation separately: the record may be
	// created while the mail step failed, in which case the link is surfaced so
	// it can be relayed by hand or the mail step retried on its own.
	Result struct {
		RecordCreated  bool   `json:"recordCreated"`
		MailSent       bool   `json:"mailSent"`
		RecordID       string `json:"recordId,omitempty"`
		SetPasswordURL string `json:"setPasswordUrl,omitempty"`
		Message        string `json:"message"`
		MailError      string `json:"mailError,omitempty"`
		MailErr        error  `json:"-"`

		// NotificationError is set when the feed entry for the invite could not be written.
		NotificationError string `json:"notificationError,omitempty"`
	}

	// InvitationData feeds the invitation email templates.
	InvitationData struct {
		Name           string
		RoleLabel      string
		SetPasswordURL string
	}
)

func (in *NewMemberInvite) Clean() {
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Name = core.CleanString(in.Name)
	in.Role = core.CleanString(in.Role, true /* lower */)
}

func (in *NewCounsellorInvite) Clean() {
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Name = core.CleanString(in.Name)
}

func (in *ResendRequest) Clean() {
	in.Email = core.CleanString(in.Email, true /* lower */)
	in.Type = core.CleanString(in.Type, true /* lower */)
}
