package counsellor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

type (
	Repository interface {
		FindByID(ctx context.Context, id string) (Counsellor, error)
		FindByEmail(ctx context.Context, email string) (Counsellor, error)
		// Query applies the filter and orders results by CreatedAt descending.
		Query(ctx context.Context, filter Filter) ([]Counsellor, error)
		// Create assigns the ID and fails with core.ErrDuplicate if the email is taken.
		Create(ctx context.Context, c Counsellor) (Counsellor, error)
		// Replace upserts c under c.ID and, in the same write, removes the document
		// stored under oldID when it differs.
		Replace(ctx context.Context, oldID string, c Counsellor) error
		UpdateStatus(ctx context.Context, id string, status Status, isVerified bool, updatedAt time.Time) error
		Delete(ctx context.Context, id string) error
	}

	// Notifier creates the feed entry for a counsellor awaiting review.
	Notifier interface {
		PendingVerification(ctx context.Context, counsellorID, name string) (string, error)
	}

	// Transition is the outcome of a status change.
	Transition struct {
		Counsellor     Counsellor `json:"counsellor"`
		Previous       Status     `json:"previous"`
		NotificationID string     `json:"notificationId,omitempty"`
		Message        string     `json:"message"`
	}

	Service struct {
		repo        Repository
		notifier    Notifier
		invalidator core.Invalidator
		metrics     core.Recorder
		logger      core.Logger
	}
)

func NewService(repo Repository, notifier Notifier, invalidator core.Invalidator, metrics core.Recorder, logger core.Logger) *Service {
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return &Service{
		repo:        repo,
		notifier:    notifier,
		invalidator: invalidator,
		metrics:     metrics,
		logger:      logger,
	}
}

func notFound(id string) error {
	return core.NewNotFound("Counsellor %q not found in collection %q.", id, core.CollectionCounsellors)
}

// SetStatus moves a counsellor to any status, including the one it already has.
// Moving to Pending always creates a pending-verification notification.
func (svc *Service) SetStatus(ctx context.Context, id string, status Status) (Transition, error) {
	id = core.CleanString(id)
	if id == "" {
		return Transition{}, core.NewInvalidArgument("Counsellor id is required.")
	}
	status, err := ParseStatus(string(status))
	if err != nil {
		return Transition{}, err
	}

	c, err := svc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Transition{}, notFound(id)
		}
		return Transition{}, core.NewStoreError(err, "Failed to load counsellor")
	}

	tr := Transition{Previous: c.Status}
	c.setStatus(status, core.NowFunc())
	if err := svc.repo.UpdateStatus(ctx, id, c.Status, c.IsVerified, c.UpdatedAt); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Transition{}, notFound(id)
		}
		return Transition{}, core.NewStoreError(err, "Failed to update counsellor status")
	}
	svc.metrics.CounsellorTransition(string(status))

	tr.Counsellor = c
	tr.Message = fmt.Sprintf("Counsellor status successfully updated to %s.", status)
	if status == StatusPending {
		notifID, err := svc.notifier.PendingVerification(ctx, c.ID, c.DisplayName())
		if err != nil {
			svc.logger.Error("creating pending verification notification", errors.Wrap(err, c.ID))
			tr.Message += " The review notification could not be created: " + core.MessageOf(err)
		}
		tr.NotificationID = notifID
	}

	svc.invalidate(ctx, core.ViewCounsellors, core.ViewDashboard)
	return tr, nil
}

// CompleteProfile turns the invited record of the session's email into a pending
// profile keyed by the session's identity id.
func (svc *Service) CompleteProfile(ctx context.Context, session core.Session, in ProfileInput) (Transition, error) {
	if session.IsZero() || session.Email == "" {
		return Transition{}, core.NewForbidden("You must be signed in to complete a profile.")
	}
	in.Clean()

	email := core.CleanString(session.Email, true /* lower */)
	now := core.NowFunc()
	var (
		oldID string
		tr    Transition
		c     = Counsellor{CreatedAt: now}
	)

	invited, err := svc.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		c = invited
		oldID = invited.ID
		tr.Previous = invited.Status
	case errors.Is(err, core.ErrNotFound):
	default:
		return Transition{}, core.NewStoreError(err, "Failed to look up invitation")
	}

	c.ID = session.UserID
	c.PersonalInfo.FullName = in.FullName
	c.PersonalInfo.Email = email
	c.PersonalInfo.PhoneNumber = in.PhoneNumber
	if in.ProfilePic != "" {
		c.PersonalInfo.ProfilePic = in.ProfilePic
	}
	c.PersonalInfo.Address = in.Address
	c.ProfessionalInfo.Occupation = in.Occupation
	mergeIfSet(&c.ProfessionalInfo.Experience, in.Experience)
	mergeIfSet(&c.ProfessionalInfo.Education, in.Education)
	mergeIfSet(&c.ProfessionalInfo.Specialization, in.Specialization)
	mergeIfSet(&c.ProfessionalInfo.Bio, in.Bio)
	c.setStatus(StatusPending, now)

	if err := svc.repo.Replace(ctx, oldID, c); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return Transition{}, core.NewAlreadyExists("A counselor with email %s already exists.", email)
		}
		return Transition{}, core.NewStoreError(err, "Failed to save counsellor profile")
	}
	svc.metrics.CounsellorTransition(string(StatusPending))

	tr.Counsellor = c
	tr.Message = "Profile submitted. An administrator will review it shortly."
	notifID, err := svc.notifier.PendingVerification(ctx, c.ID, c.DisplayName())
	if err != nil {
		svc.logger.Error("creating pending verification notification", errors.Wrap(err, c.ID), session)
		tr.Message += " The review notification could not be created: " + core.MessageOf(err)
	}
	tr.NotificationID = notifID

	svc.invalidate(ctx, core.ViewCounsellors, core.ViewDashboard)
	return tr, nil
}

func mergeIfSet(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func (svc *Service) Get(ctx context.Context, id string) (Counsellor, error) {
	id = core.CleanString(id)
	if id == "" {
		return Counsellor{}, core.NewInvalidArgument("Counsellor id is required.")
	}
	c, err := svc.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Counsellor{}, notFound(id)
		}
		return Counsellor{}, core.NewStoreError(err, "Failed to load counsellor")
	}
	return c, nil
}

func (svc *Service) List(ctx context.Context, filter Filter) ([]Counsellor, error) {
	if err := filter.Clean(); err != nil {
		return nil, err
	}
	list, err := svc.repo.Query(ctx, filter)
	if err != nil {
		return nil, core.NewStoreError(err, "Failed to fetch counsellors")
	}
	return list, nil
}

// Delete is the only way a counsellor record is removed.
func (svc *Service) Delete(ctx context.Context, id string) error {
	id = core.CleanString(id)
	if id == "" {
		return core.NewInvalidArgument("Counsellor id is required.")
	}
	if err := svc.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return notFound(id)
		}
		return core.NewStoreError(err, "Failed to delete counsellor")
	}
	svc.invalidate(ctx, core.ViewCounsellors, core.ViewDashboard)
	return nil
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	list, err := svc.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(list, core.NowFunc()), nil
}

func (svc *Service) invalidate(ctx context.Context, views ...string) {
	if svc.invalidator == nil {
		return
	}
	if err := svc.invalidator.Invalidate(ctx, views...); err != nil {
		svc.logger.Warn("invalidating views", err, map[string]interface{}{"views": views})
	}
}
