package notification

import (
	"context"
	"fmt"

	"github.com/speakhq/speakadmin/core"
)

// Publisher inserts derived notifications on behalf of other services.
type Publisher struct {
	repo        Repository
	invalidator core.Invalidator
	logger      core.Logger
}

func NewPublisher(repo Repository, invalidator core.Invalidator, logger core.Logger) *Publisher {
	return &Publisher{repo: repo, invalidator: invalidator, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, n Notification) (Notification, error) {
	n.Read = false
	n.Timestamp = core.NowFunc()
	created, err := p.repo.Create(ctx, n)
	if err != nil {
		return Notification{}, core.NewStoreError(err, "Failed to create notification")
	}
	if p.invalidator != nil {
		if err := p.invalidator.Invalidate(ctx, core.ViewNotifications); err != nil {
			p.logger.Warn("invalidating notifications view", err)
		}
	}
	return created, nil
}

func (p *Publisher) PendingVerification(ctx context.Context, counsellorID, name string) (string, error) {
	n, err := p.Publish(ctx, Notification{
		Type:    TypePendingVerification,
		Title:   "Counsellor Pending Verification",
		Message: fmt.Sprintf("%s has completed their profile and is awaiting verification.", name),
		Link:    "/counsellors/" + counsellorID,
	})
	return n.ID, err
}

func (p *Publisher) CounsellorInvited(ctx context.Context, counsellorID, name, email string) (string, error) {
	n, err := p.Publish(ctx, Notification{
		Type:    TypeCounsellorInvited,
		Title:   "New Counsellor Invited",
		Message: fmt.Sprintf("%s (%s) has been invited to join as a counsellor.", name, email),
		Link:    "/counsellors/" + counsellorID,
	})
	return n.ID, err
}
