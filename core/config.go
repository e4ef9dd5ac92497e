package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	StoreConfig struct {
		Driver        string // mongo | memory
		MongoURI      string
		MongoDatabase string
	}

	EventsConfig struct {
		RedisURL string
		Channel  string
	}

	EmailConfig struct {
		Backend        string // smtp | sendgrid | console | disabled; empty = auto
		Host           string
		Port           int
		User           string
		Password       string
		From           string
		SendgridAPIKey string
	}

	// Config is assembled once at startup and passed to whatever needs it.
	Config struct {
		Env             string
		Debug           bool
		TestMode        bool
		AppName         string
		Build           string
		SecretKey       string
		SuperadminEmail string
		AppBaseURL      string
		RollbarToken    string
		WorkDir         string

		Server ServerConfig
		Store  StoreConfig
		Events EventsConfig
		Email  EmailConfig
	}
)

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Speak Admin")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "q7r!vd2-k9m$x0@e4hz+8wa&n1c6(pt)jy5#gsl3uf")
	v.SetDefault("appBaseURL", "http://localhost:3000")
	v.SetDefault("httpAddr", ":8000")
	v.SetDefault("debugAddr", ":4000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("storeDriver", "mongo")
	v.SetDefault("mongodbURI", "mongodb://localhost:27017")
	v.SetDefault("mongodbDatabase", "speak")
	v.SetDefault("eventsChannel", "speakadmin:invalidate")
	v.SetDefault("emailPort", 587)
	v.SetDefault("emailFrom", `"Speak Admin" <noreply@example.com>`)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	case "QA", "PROD":
		v.SetDefault("debug", false)
	}

	workDir, _ := os.Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// the platform's variable names are fixed, so bind them explicitly instead of using a prefix
	bindings := map[string]string{
		"debug":           "DEBUG",
		"build":           "BUILD",
		"secretKey":       "SECRET_KEY",
		"superadminEmail": "SUPERADMIN_EMAIL",
		"appBaseURL":      "APP_BASE_URL",
		"rollbarToken":    "ROLLBAR_TOKEN",
		"httpAddr":        "HTTP_ADDR",
		"debugAddr":       "DEBUG_ADDR",
		"storeDriver":     "STORE_DRIVER",
		"mongodbURI":      "MONGODB_URI",
		"mongodbDatabase": "MONGODB_DATABASE",
		"redisURL":        "REDIS_URL",
		"emailBackend":    "EMAIL_BACKEND",
		"emailHost":       "EMAIL_HOST",
		"emailPort":       "EMAIL_PORT",
		"emailUser":       "EMAIL_USER",
		"emailPass":       "EMAIL_PASS",
		"emailFrom":       "EMAIL_FROM",
		"sendgridAPIKey":  "SENDGRID_API_KEY",
	}
	for key, envVar := range bindings {
		_ = v.BindEnv(key, envVar)
	}

	return &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		Build:           v.GetString("build"),
		SecretKey:       v.GetString("secretKey"),
		SuperadminEmail: CleanString(v.GetString("superadminEmail"), true /* lower */),
		AppBaseURL:      strings.TrimRight(v.GetString("appBaseURL"), "/"),
		RollbarToken:    v.GetString("rollbarToken"),
		WorkDir:         workDir,
		Server: ServerConfig{
			Address:            v.GetString("httpAddr"),
			DebugHost:          v.GetString("debugAddr"),
			ShutdownTimeout:    v.GetDuration("shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(v.GetString("storeDriver")),
			MongoURI:      v.GetString("mongodbURI"),
			MongoDatabase: v.GetString("mongodbDatabase"),
		},
		Events: EventsConfig{
			RedisURL: v.GetString("redisURL"),
			Channel:  v.GetString("eventsChannel"),
		},
		Email: EmailConfig{
			Backend:        strings.ToLower(v.GetString("emailBackend")),
			Host:           v.GetString("emailHost"),
			Port:           v.GetInt("emailPort"),
			User:           v.GetString("emailUser"),
			Password:       v.GetString("emailPass"),
			From:           v.GetString("emailFrom"),
			SendgridAPIKey: v.GetString("sendgridAPIKey"),
		},
	}
}

// EmailConfigured reports whether the SMTP transport has everything it needs.
func (c *Config) EmailConfigured() bool {
	return c.Email.Host != "" && c.Email.User != "" && c.Email.Password != ""
}

// DefaultFromEmail parses Email.From, falling back to a bare noreply address.
func (c *Config) DefaultFromEmail() *mail.Address {
	if addr, err := mail.ParseAddress(c.Email.From); err == nil {
		return addr
	}
	return &mail.Address{Name: c.AppName, Address: "noreply@example.com"}
}

// IsSuperadminEmail reports whether email designates the protected superadmin account.
func (c *Config) IsSuperadminEmail(email string) bool {
	return c.SuperadminEmail != "" && CleanString(email, true /* lower */) == c.SuperadminEmail
}
