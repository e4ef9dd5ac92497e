package settings

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

// Settings is the singleton system/settings document.
type Settings struct {
	// user registration
	UserRegistrationEnabled  bool `json:"userRegistrationEnabled" bson:"userRegistrationEnabled"`
	RequireEmailVerification bool `json:"requireEmailVerification" bson:"requireEmailVerification"`
	AllowSocialLogin         bool `json:"allowSocialLogin" bson:"allowSocialLogin"`

	// counsellors
	CounselorApplicationsOpen     bool `json:"counselorApplicationsOpen" bson:"counselorApplicationsOpen"`
	CounselorVerificationRequired bool `json:"counselorVerificationRequired" bson:"counselorVerificationRequired"`
	MaxChatsPerCounselor          int  `json:"maxChatsPerCounselor" bson:"maxChatsPerCounselor" validate:"min=1,max=100"`
	AutoAssignmentEnabled         bool `json:"autoAssignmentEnabled" bson:"autoAssignmentEnabled"`

	// content
	AllowImageUploads   bool `json:"allowImageUploads" bson:"allowImageUploads"`
	AllowVoiceMessages  bool `json:"allowVoiceMessages" bson:"allowVoiceMessages"`
	MaxPostLength       int  `json:"maxPostLength" bson:"maxPostLength" validate:"min=1,max=100000"`
	ModerationEnabled   bool `json:"moderationEnabled" bson:"moderationEnabled"`
	AutoModerateContent bool `json:"autoModerateContent" bson:"autoModerateContent"`

	// notifications
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled" bson:"emailNotificationsEnabled"`
	PushNotificationsEnabled  bool   `json:"pushNotificationsEnabled" bson:"pushNotificationsEnabled"`
	NotificationFrequency     string `json:"notificationFrequency" bson:"notificationFrequency" validate:"oneof=immediate hourly daily"`

	// system messages
	WelcomeMessage            string `json:"welcomeMessage" bson:"welcomeMessage"`
	SystemAnnouncementEnabled bool   `json:"systemAnnouncementEnabled" bson:"systemAnnouncementEnabled"`
	SystemAnnouncement        string `json:"systemAnnouncement" bson:"systemAnnouncement"`

	// privacy & terms
	PrivacyPolicyURL  string `json:"privacyPolicyUrl" bson:"privacyPolicyUrl" validate:"omitempty,url"`
	TermsOfServiceURL string `json:"termsOfServiceUrl" bson:"termsOfServiceUrl" validate:"omitempty,url"`

	// advanced
	MaintenanceMode bool `json:"maintenanceMode" bson:"maintenanceMode"`
	DebugMode       bool `json:"debugMode" bson:"debugMode"`
	APIRateLimit    int  `json:"apiRateLimit" bson:"apiRateLimit" validate:"min=1"`

	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
}

// Defaults backfill every field a stored document lacks.
func Defaults() Settings {
	return Settings{
		UserRegistrationEnabled:  true,
		RequireEmailVerification: true,
		AllowSocialLogin:         true,

		CounselorApplicationsOpen:     true,
		CounselorVerificationRequired: true,
		MaxChatsPerCounselor:          10,
		AutoAssignmentEnabled:         true,

		AllowImageUploads:   true,
		AllowVoiceMessages:  true,
		MaxPostLength:       1000,
		ModerationEnabled:   true,
		AutoModerateContent: false,

		EmailNotificationsEnabled: true,
		PushNotificationsEnabled:  true,
		NotificationFrequency:     "immediate",

		WelcomeMessage:            "Welcome to Talk! We're here to support you.",
		SystemAnnouncementEnabled: false,
		SystemAnnouncement:        "",

		PrivacyPolicyURL:  "",
		TermsOfServiceURL: "",

		MaintenanceMode: false,
		DebugMode:       false,
		APIRateLimit:    100,
	}
}

type (
	Repository interface {
		// Load decodes the stored document over dst, leaving absent fields as they are.
		// It returns core.ErrNotFound when nothing is stored.
		Load(ctx context.Context, dst *Settings) error
		// Save overwrites the whole document.
		Save(ctx context.Context, s Settings) error
	}

	Service struct {
		repo        Repository
		validate    *validator.Validate
		invalidator core.Invalidator
		logger      core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, invalidator core.Invalidator, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, invalidator: invalidator, logger: logger}
}

// Load returns the stored settings merged over the defaults.
func (svc *Service) Load(ctx context.Context) (Settings, error) {
	s := Defaults()
	if err := svc.repo.Load(ctx, &s); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Defaults(), nil
		}
		return Settings{}, core.NewStoreError(err, "Failed to load settings")
	}
	return s, nil
}

// Save rewrites the whole settings document.
func (svc *Service) Save(ctx context.Context, session core.Session, s Settings) (Settings, error) {
	s.NotificationFrequency = core.CleanString(s.NotificationFrequency, true /* lower */)
	s.PrivacyPolicyURL = core.CleanString(s.PrivacyPolicyURL)
	s.TermsOfServiceURL = core.CleanString(s.TermsOfServiceURL)
	if svc.validate != nil {
		if err := svc.validate.Struct(s); err != nil {
			return Settings{}, err
		}
	}
	s.UpdatedAt = core.NowFunc()
	s.UpdatedBy = session.Email
	if err := svc.repo.Save(ctx, s); err != nil {
		return Settings{}, core.NewStoreError(err, "Failed to save settings")
	}
	if svc.invalidator != nil {
		if err := svc.invalidator.Invalidate(ctx, core.ViewSettings); err != nil {
			svc.logger.Warn("invalidating settings view", err)
		}
	}
	return s, nil
}

// ResetToDefaults does not write anything; the defaults only persist once saved.
func (svc *Service) ResetToDefaults() Settings {
	return Defaults()
}
