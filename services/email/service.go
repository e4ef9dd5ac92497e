package emailsvc

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

const (
	BackendSMTP     = "smtp"
	BackendSendgrid = "sendgrid"
	BackendConsole  = "console"
	BackendDisabled = "disabled"

	notConfiguredMsg = "Email service is not properly configured. Email not sent."
)

// ErrNotConfigured is returned by the disabled backend.
var ErrNotConfigured = errors.New("email transport not configured")

// New selects the transport named by conf.Email.Backend. When no backend is
// named, SMTP is used if it is configured, then SendGrid if a key is set, then the
// console in debug, and nothing otherwise.
func New(conf *core.Config, logger core.Logger, metrics core.Recorder) (core.EmailService, error) {
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	backend := conf.Email.Backend
	if backend == "" {
		switch {
		case conf.EmailConfigured():
			backend = BackendSMTP
		case conf.Email.SendgridAPIKey != "":
			backend = BackendSendgrid
		case conf.Debug:
			backend = BackendConsole
		default:
			backend = BackendDisabled
		}
	}

	var svc core.EmailService
	switch backend {
	case BackendSMTP:
		if !conf.EmailConfigured() {
			logger.Warn("smtp backend selected without EMAIL_HOST, EMAIL_USER and EMAIL_PASS; email disabled")
			svc = disabledService{}
			break
		}
		svc = NewSMTPService(conf, logger)
	case BackendSendgrid:
		svc = NewSendgridService(conf, logger)
	case BackendConsole:
		svc = NewConsoleService(conf, logger)
	case BackendDisabled:
		svc = disabledService{}
	default:
		return nil, errors.Errorf("unknown email backend %q", backend)
	}
	return &meteredService{next: svc, metrics: metrics}, nil
}

type disabledService struct{}

func (disabledService) Send(context.Context, *core.EmailMessage) error {
	return &core.Error{Kind: core.KindMailError, Message: notConfiguredMsg, Err: ErrNotConfigured}
}

// NewDisabledService never sends anything.
func NewDisabledService() core.EmailService { return disabledService{} }

type meteredService struct {
	next    core.EmailService
	metrics core.Recorder
}

func (svc *meteredService) Send(ctx context.Context, msg *core.EmailMessage) error {
	err := svc.next.Send(ctx, msg)
	if err != nil {
		svc.metrics.MailSent("failed")
		return err
	}
	svc.metrics.MailSent("sent")
	return nil
}

// prepare renders msg and checks there is something to send.
func prepare(conf *core.Config, msg *core.EmailMessage) error {
	if err := msg.Render(conf); err != nil {
		return core.NewMailError(err, "Failed to render email")
	}
	if !msg.HasRecipients() {
		return core.NewInvalidArgument("Email has no recipients.")
	}
	if !msg.HasContent() {
		return core.NewInvalidArgument("Email has no content.")
	}
	return nil
}

func subjectPrefix(conf *core.Config) string {
	return "[" + conf.AppName + "] "
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// TestConfiguration sends the configuration test email to `to` and reports the
// outcome as a result rather than an error.
func TestConfiguration(ctx context.Context, svc core.EmailService, conf *core.Config, to string) core.Result {
	to = core.CleanString(to, true /* lower */)
	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: to}},
		Subject:      "Email Configuration Test - Speak Admin",
		TemplateName: core.TemplateTestEmail,
		TemplateData: map[string]interface{}{"To": to},
	}
	if err := svc.Send(ctx, msg); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return core.Result{Success: false, Message: notConfiguredMsg}
		}
		return core.Result{Success: false, Message: "Failed to send test email: " + core.MessageOf(err)}
	}
	return core.Result{Success: true, Message: fmt.Sprintf("Test email sent to %s.", to)}
}
