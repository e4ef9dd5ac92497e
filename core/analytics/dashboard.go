package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/user"
)

// pendingPreview caps how many counsellors awaiting verification the dashboard lists.
const pendingPreview = 5

type (
	Users interface {
		List(ctx context.Context, filter user.QueryFilter) ([]user.User, error)
	}
	Counsellors interface {
		List(ctx context.Context, filter counsellor.Filter) ([]counsellor.Counsellor, error)
	}
	Moderation interface {
		AwaitingReview(ctx context.Context) (int, error)
	}
	Notifications interface {
		Snapshot(ctx context.Context) (notification.Snapshot, error)
	}

	Dashboard struct {
		TotalUsers           int                     `json:"totalUsers"`
		UsersByRole          map[string]int          `json:"usersByRole"`
		Counsellors          counsellor.Stats        `json:"counsellors"`
		PendingVerifications []counsellor.Counsellor `json:"pendingVerifications"`
		ModerationQueue      int                     `json:"moderationQueue"`
		UnreadNotifications  int                     `json:"unreadNotifications"`
		GeneratedAt          time.Time               `json:"generatedAt"`
	}

	Service struct {
		users         Users
		counsellors   Counsellors
		moderation    Moderation
		notifications Notifications
	}
)

func NewService(users Users, counsellors Counsellors, moderation Moderation, notifications Notifications) *Service {
	return &Service{users: users, counsellors: counsellors, moderation: moderation, notifications: notifications}
}

// Dashboard fetches every aggregate concurrently and fails if any fetch fails.
func (svc *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		users       []user.User
		counsellors []counsellor.Counsellor
		queue       int
		snap        notification.Snapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = svc.users.List(gctx, user.QueryFilter{})
		return err
	})
	g.Go(func() (err error) {
		counsellors, err = svc.counsellors.List(gctx, counsellor.Filter{})
		return err
	})
	g.Go(func() (err error) {
		queue, err = svc.moderation.AwaitingReview(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap, err = svc.notifications.Snapshot(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	now := core.NowFunc()
	d := Dashboard{
		TotalUsers:           len(users),
		UsersByRole:          make(map[string]int, 3),
		Counsellors:          counsellor.ComputeStats(counsellors, now),
		PendingVerifications: make([]counsellor.Counsellor, 0, pendingPreview),
		ModerationQueue:      queue,
		UnreadNotifications:  snap.Unread,
		GeneratedAt:          now,
	}
	for _, u := range users {
		d.UsersByRole[u.Role]++
	}
	// counsellors come newest first
	for _, c := range counsellors {
		if c.Status != counsellor.StatusPending {
			continue
		}
		d.PendingVerifications = append(d.PendingVerifications, c)
		if len(d.PendingVerifications) == pendingPreview {
			break
		}
	}
	return d, nil
}
