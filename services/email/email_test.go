package emailsvc_test

import (
	"context"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakhq/speakadmin/core"
	emailsvc "github.com/speakhq/speakadmin/services/email"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	testutil "github.com/speakhq/speakadmin/tests"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		conf    func(*core.Config)
		wantErr bool
		wantOK  bool
	}{
		{name: "console", conf: func(c *core.Config) { c.Email.Backend = emailsvc.BackendConsole }, wantOK: true},
		{name: "disabled", conf: func(c *core.Config) { c.Email.Backend = emailsvc.BackendDisabled }},
		{name: "smtp without credentials", conf: func(c *core.Config) { c.Email.Backend = emailsvc.BackendSMTP }},
		{name: "auto in debug", conf: func(c *core.Config) { c.Email.Backend = ""; c.Debug = true }, wantOK: true},
		{name: "auto outside debug", conf: func(c *core.Config) { c.Email.Backend = ""; c.Debug = false }},
		{name: "unknown", conf: func(c *core.Config) { c.Email.Backend = "pigeon" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testutil.NewConfig()
			tt.conf(conf)
			svc, err := emailsvc.New(conf, logsvc.NewNopLogger(), nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			res := emailsvc.TestConfiguration(ctx, svc, conf, "Ops@Speak.Test")
			assert.Equal(t, tt.wantOK, res.Success, res.Message)
			if tt.wantOK {
				assert.Equal(t, "Test email sent to ops@speak.test.", res.Message)
			} else {
				assert.Equal(t, "Email service is not properly configured. Email not sent.", res.Message)
			}
		})
	}
}

func TestConsoleService(t *testing.T) {
	ctx := context.Background()
	conf := testutil.NewConfig()
	svc := emailsvc.NewConsoleServiceMock(conf)

	t.Run("records rendered messages", func(t *testing.T) {
		res := emailsvc.TestConfiguration(ctx, svc, conf, "ops@speak.test")
		require.True(t, res.Success, res.Message)

		sent := svc.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "ops@speak.test", sent[0].To[0].Address)
		assert.True(t, strings.Contains(sent[0].TextContent, "ops@speak.test"))
		assert.NotEmpty(t, sent[0].HTMLContent)
	})

	t.Run("rejects messages without recipients", func(t *testing.T) {
		err := svc.Send(ctx, &core.EmailMessage{Subject: "Hi", BodyStr: "body"})
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
	})

	t.Run("rejects empty messages", func(t *testing.T) {
		err := svc.Send(ctx, &core.EmailMessage{To: []mail.Address{{Address: "a@speak.test"}}, Subject: "Hi"})
		assert.Equal(t, core.KindInvalidArgument, core.KindOf(err))
	})

	t.Run("respects cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := svc.Send(cctx, &core.EmailMessage{To: []mail.Address{{Address: "a@speak.test"}}, BodyStr: "body"})
		assert.Equal(t, core.KindMailError, core.KindOf(err))
	})

	assert.Len(t, svc.Sent(), 1)
}
