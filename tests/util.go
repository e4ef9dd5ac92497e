package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/speakhq/speakadmin/apps/app"
	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/user"
	emailsvc "github.com/speakhq/speakadmin/services/email"
	logsvc "github.com/speakhq/speakadmin/services/logger"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
)

const (
	SuperadminEmail = "root@speak.test"
	Password        = "Hard2Gu3ss!pw"
)

// NewConfig returns a TEST config backed by the memory store.
func NewConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "Speak Admin",
		Build:           "test",
		SecretKey:       "test-secret-key",
		SuperadminEmail: SuperadminEmail,
		AppBaseURL:      "http://console.speak.test",
		Server: core.ServerConfig{
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Store: core.StoreConfig{Driver: app.DriverMemory},
		Email: core.EmailConfig{Backend: "console", From: `"Speak Admin" <noreply@speak.test>`},
	}
}

// NewApp builds the whole application on a fresh memory store and a recording mailer.
func NewApp(t *testing.T, opts ...app.Option) (*app.App, *emailsvc.ConsoleService) {
	conf := NewConfig()
	mail := emailsvc.NewConsoleServiceMock(conf)
	opts = append([]app.Option{app.WithMemDB(inmemdb.Open()), app.WithMail(mail)}, opts...)
	a, err := app.New(conf, logsvc.NewNopLogger(), opts...)
	if err != nil {
		t.Fatalf("NewApp() failed: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, mail
}

func CreateUser(t *testing.T, repo user.Repository, name, email, role string, disabled bool, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.Create(context.Background(), user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		Disabled:  disabled,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCounsellor(t *testing.T, repo counsellor.Repository, name, email string, status counsellor.Status, createdAt ...time.Time) counsellor.Counsellor {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.Create(context.Background(), counsellor.Counsellor{
		PersonalInfo: counsellor.PersonalInfo{FullName: name, Email: email},
		Status:       status,
		IsVerified:   status == counsellor.StatusVerified,
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCounsellor() failed: %v", err)
	}
	return c
}

func CreateNotification(t *testing.T, repo notification.Repository, title string, read bool, at time.Time) notification.Notification {
	n, err := repo.Create(context.Background(), notification.Notification{
		Type:      notification.TypeGeneral,
		Title:     title,
		Message:   title,
		Link:      "/notifications",
		Read:      read,
		Timestamp: at.UTC(),
	})
	if err != nil {
		t.Fatalf("CreateNotification() failed: %v", err)
	}
	return n
}
