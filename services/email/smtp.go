package emailsvc

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"github.com/speakhq/speakadmin/core"
)

// smtpService sends through the configured SMTP relay (Gmail by default).
type smtpService struct {
	conf   *core.Config
	logger core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	return &smtpService{conf: conf, logger: logger}
}

// implicitTLSPort is the SMTPS port, where TLS starts before any SMTP exchange.
const implicitTLSPort = 465

// clientOptions dials TLS directly on the SMTPS port and upgrades with STARTTLS elsewhere.
func clientOptions(conf core.EmailConfig) []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(conf.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(conf.User),
		gomail.WithPassword(conf.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	}
	if usesImplicitTLS(conf) {
		opts = append(opts, gomail.WithSSL())
	}
	return opts
}

func usesImplicitTLS(conf core.EmailConfig) bool {
	return conf.Port == implicitTLSPort
}

func (svc *smtpService) client() (*gomail.Client, error) {
	return gomail.NewClient(svc.conf.Email.Host, clientOptions(svc.conf.Email)...)
}

func (svc *smtpService) message(msg core.EmailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	from := svc.conf.DefaultFromEmail()
	if err := m.FromFormat(from.Name, from.Address); err != nil {
		return nil, err
	}
	for _, to := range msg.To {
		if err := m.AddToFormat(to.Name, to.Address); err != nil {
			return nil, err
		}
	}
	for _, cc := range msg.Cc {
		if err := m.AddCcFormat(cc.Name, cc.Address); err != nil {
			return nil, err
		}
	}
	for _, bcc := range msg.Bcc {
		if err := m.AddBccFormat(bcc.Name, bcc.Address); err != nil {
			return nil, err
		}
	}
	m.Subject(subjectPrefix(svc.conf) + msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.TextContent)
	if msg.HTMLContent != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLContent)
	}
	return m, nil
}

func (svc *smtpService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := prepare(svc.conf, msg); err != nil {
		return err
	}
	m, err := svc.message(*msg)
	if err != nil {
		return core.NewInvalidArgument("Invalid email address: %v", err)
	}
	c, err := svc.client()
	if err != nil {
		return core.NewMailError(err, "Failed to configure SMTP client")
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		svc.logger.Error("sending email over smtp", err, map[string]interface{}{"to": joinAddresses(msg.To)})
		return core.NewMailError(err, "Failed to send email")
	}
	return nil
}
