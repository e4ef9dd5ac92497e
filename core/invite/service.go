package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/user"
)

const tempPassBytes = 6 // 12 hex characters

type (
	// Notifier creates the feed entry for a freshly invited counsellor.
	Notifier interface {
		CounsellorInvited(ctx context.Context, counsellorID, name, email string) (string, error)
	}

	Deps struct {
		Users       user.Repository
		Counsellors counsellor.Repository
		Notifier    Notifier
		Mail        core.EmailService
		Validate    *validator.Validate
		Invalidator core.Invalidator
		Metrics     core.Recorder
		Logger      core.Logger
	}

	Service struct {
		Deps
		conf *core.Config
	}
)

func NewService(conf *core.Config, deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = core.NopRecorder{}
	}
	return &Service{Deps: deps, conf: conf}
}

// NewTempPass returns a random 12 character hex credential.
func NewTempPass() (string, error) {
	b := make([]byte, tempPassBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generating temporary credential")
	}
	return hex.EncodeToString(b), nil
}

// SetPasswordURL builds the link that carries the invitation.
func SetPasswordURL(baseURL, email, tempPass string, kind Kind) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("tempPass", tempPass)
	q.Set("type", string(kind))
	return baseURL + "/set-initial-password?" + q.Encode()
}

func (svc *Service) validEmail(email string) bool {
	if svc.Validate != nil {
		return svc.Validate.Var(email, "required,email") == nil
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func (svc *Service) InviteAdminOrUser(ctx context.Context, in NewMemberInvite) (Result, error) {
	in.Clean()
	if in.Email == "" || in.Name == "" || in.Role == "" {
		return Result{}, core.NewInvalidArgument("Missing required fields for admin/user invitation.")
	}
	if !user.IsMemberRole(in.Role) {
		return Result{}, core.NewInvalidArgument("Invalid role %q: must be one of admin, user.", in.Role)
	}
	if !svc.validEmail(in.Email) {
		return Result{}, core.NewInvalidArgument("Invalid email address %q.", in.Email)
	}
	kind := Kind(in.Role)

	dupErr := core.NewAlreadyExists("A user with email %s already exists.", in.Email)
	if _, err := svc.Users.FindByEmail(ctx, in.Email); err == nil {
		svc.Metrics.Invite(string(kind), "duplicate")
		return Result{}, dupErr
	} else if !errors.Is(err, core.ErrNotFound) {
		svc.Metrics.Invite(string(kind), "error")
		return Result{}, core.NewStoreError(err, "Failed to invite admin/user")
	}

	now := core.NowFunc()
	usr, err := svc.Users.Create(ctx, user.User{
		Email:     in.Email,
		Name:      in.Name,
		Role:      in.Role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			svc.Metrics.Invite(string(kind), "duplicate")
			return Result{}, dupErr
		}
		svc.Metrics.Invite(string(kind), "error")
		return Result{}, core.NewStoreError(err, "Failed to invite admin/user")
	}
	svc.invalidate(ctx, core.ViewUsers, core.ViewInvite, core.ViewDashboard)

	res := Result{RecordCreated: true, RecordID: usr.UID}
	svc.deliver(ctx, &res, kind, in.Name, in.Email)
	res.Message = fmt.Sprintf("%s '%s' invited successfully.", kind.Label(), in.Name) + res.Message
	return res, nil
}

func (svc *Service) InviteCounselor(ctx context.Context, in NewCounsellorInvite) (Result, error) {
	in.Clean()
	if in.Email == "" || in.Name == "" {
		return Result{}, core.NewInvalidArgument("Missing required fields for counselor invitation.")
	}
	if !svc.validEmail(in.Email) {
		return Result{}, core.NewInvalidArgument("Invalid email address %q.", in.Email)
	}
	kind := KindCounselor

	dupErr := core.NewAlreadyExists("A counselor with email %s already exists or has been invited.", in.Email)
	if _, err := svc.Counsellors.FindByEmail(ctx, in.Email); err == nil {
		svc.Metrics.Invite(string(kind), "duplicate")
		return Result{}, dupErr
	} else if !errors.Is(err, core.ErrNotFound) {
		svc.Metrics.Invite(string(kind), "error")
		return Result{}, core.NewStoreError(err, "Failed to invite counselor")
	}

	now := core.NowFunc()
	c, err := svc.Counsellors.Create(ctx, counsellor.Counsellor{
		PersonalInfo: counsellor.PersonalInfo{FullName: in.Name, Email: in.Email},
		Status:       counsellor.StatusInvited,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			svc.Metrics.Invite(string(kind), "duplicate")
			return Result{}, dupErr
		}
		svc.Metrics.Invite(string(kind), "error")
		return Result{}, core.NewStoreError(err, "Failed to invite counselor")
	}

	res := Result{RecordCreated: true, RecordID: c.ID}
	if _, err := svc.Notifier.CounsellorInvited(ctx, c.ID, in.Name, in.Email); err != nil {
		svc.Logger.Error("creating counsellor invited notification", errors.Wrap(err, c.ID))
		res.NotificationError = core.MessageOf(err)
	}
	svc.invalidate(ctx, core.ViewCounsellors, core.ViewInvite, core.ViewDashboard)

	svc.deliver(ctx, &res, kind, in.Name, in.Email)
	res.Message = fmt.Sprintf("Counselor '%s' invited successfully. They will appear in the counselor list as 'Invited'.", in.Name) + res.Message
	if res.NotificationError != "" {
		res.Message += " The invite notification could not be created: " + res.NotificationError
	}
	return res, nil
}

// ResendInvitation retries the mail step for an existing invitation with a fresh link.
func (svc *Service) ResendInvitation(ctx context.Context, email string, kind Kind) (Result, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return Result{}, core.NewInvalidArgument("Email is required.")
	}

	var id, name string
	switch kind {
	case KindAdmin, KindUser:
		usr, err := svc.Users.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return Result{}, core.NewNotFound("No invited user with email %s.", email)
			}
			return Result{}, core.NewStoreError(err, "Failed to load invitation")
		}
		id, name, kind = usr.UID, usr.Name, Kind(usr.Role)
		if !user.IsMemberRole(usr.Role) {
			return Result{}, core.NewConflict("User %s cannot be re-invited.", email)
		}
	case KindCounselor:
		c, err := svc.Counsellors.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return Result{}, core.NewNotFound("No invited counselor with email %s.", email)
			}
			return Result{}, core.NewStoreError(err, "Failed to load invitation")
		}
		if c.Status != counsellor.StatusInvited {
			return Result{}, core.NewConflict("Counselor %s has already accepted the invitation.", email)
		}
		id, name = c.ID, c.DisplayName()
	default:
		return Result{}, core.NewInvalidArgument("Invalid invitation type %q.", kind)
	}

	res := Result{RecordID: id}
	svc.deliver(ctx, &res, kind, name, email)
	if res.MailSent {
		res.Message = "Invitation resent." + res.Message
	} else {
		res.Message = "Invitation could not be resent." + res.Message
	}
	return res, nil
}

// deliver runs the mail step and records its outcome on res.
func (svc *Service) deliver(ctx context.Context, res *Result, kind Kind, name, email string) {
	tempPass, err := NewTempPass()
	if err != nil {
		res.MailErr = core.NewMailError(err, "Failed to generate invitation link")
		res.MailError = core.MessageOf(res.MailErr)
		res.Message = " " + res.MailError
		svc.Metrics.Invite(string(kind), "mail_failed")
		return
	}
	link := SetPasswordURL(svc.conf.AppBaseURL, email, tempPass, kind)

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: email}},
		Subject:      fmt.Sprintf("You're invited to join %s", svc.conf.AppName),
		TemplateName: core.TemplateInvitation,
		TemplateData: InvitationData{Name: name, RoleLabel: kind.Label(), SetPasswordURL: link},
	}
	if err := svc.Mail.Send(ctx, msg); err != nil {
		if core.KindOf(err) != core.KindMailError {
			err = core.NewMailError(err, "Failed to send invitation email")
		}
		svc.Logger.Warn("sending invitation email", err, map[string]interface{}{"email": email, "kind": kind})
		res.MailErr = err
		res.MailError = core.MessageOf(err)
		res.SetPasswordURL = link
		res.Message = fmt.Sprintf(" The invitation email could not be sent (%s). Share this link manually: %s", res.MailError, link)
		svc.Metrics.Invite(string(kind), "mail_failed")
		return
	}
	res.MailSent = true
	res.Message = fmt.Sprintf(" An invitation email has been sent to %s.", email)
	svc.Metrics.Invite(string(kind), "sent")
}

func (svc *Service) invalidate(ctx context.Context, views ...string) {
	if svc.Invalidator == nil {
		return
	}
	if err := svc.Invalidator.Invalidate(ctx, views...); err != nil {
		svc.Logger.Warn("invalidating views", err)
	}
}
