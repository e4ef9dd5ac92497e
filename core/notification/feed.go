package notification

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/speakhq/speakadmin/core"
)

type (
	Repository interface {
		Create(ctx context.Context, n Notification) (Notification, error)
		// Recent returns at most limit notifications, newest first.
		Recent(ctx context.Context, limit int) ([]Notification, error)
		FindByID(ctx context.Context, id string) (Notification, error)
		MarkRead(ctx context.Context, id string) error
		// MarkAllRead sets read=true on every id or on none of them.
		MarkAllRead(ctx context.Context, ids []string) error
		// Watch signals after every write to the collection until ctx is done.
		Watch(ctx context.Context) (<-chan struct{}, error)
	}

	Feed struct {
		repo        Repository
		invalidator core.Invalidator
		logger      core.Logger
	}
)

func NewFeed(repo Repository, invalidator core.Invalidator, logger core.Logger) *Feed {
	return &Feed{repo: repo, invalidator: invalidator, logger: logger}
}

func (f *Feed) Snapshot(ctx context.Context) (Snapshot, error) {
	items, err := f.repo.Recent(ctx, WindowSize)
	if err != nil {
		return Snapshot{}, core.NewStoreError(err, "Failed to fetch notifications")
	}
	return NewSnapshot(items), nil
}

// Subscribe emits the current snapshot, then a fresh one after every change.
// The channel is closed when ctx is done or the watch breaks.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	changes, err := f.repo.Watch(ctx)
	if err != nil {
		return nil, core.NewStoreError(err, "Failed to watch notifications")
	}
	first, err := f.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- first
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				snap, err := f.Snapshot(ctx)
				if err != nil {
					if ctx.Err() == nil {
						f.logger.Error("refreshing notification snapshot", err)
					}
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// MarkRead is idempotent; an already read notification is not written again.
func (f *Feed) MarkRead(ctx context.Context, id string) (core.Result, error) {
	id = core.CleanString(id)
	if id == "" {
		return core.Result{}, core.NewInvalidArgument("Notification ID not provided.")
	}
	n, err := f.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Result{}, core.NewNotFound("Notification %q not found.", id)
		}
		return core.Result{}, core.NewStoreError(err, "Failed to mark notification as read")
	}
	if !n.Read {
		if err := f.repo.MarkRead(ctx, id); err != nil {
			return core.Result{}, core.NewStoreError(err, "Failed to mark notification as read")
		}
		f.invalidate(ctx)
	}
	return core.Result{Success: true, Message: "Notification marked as read."}, nil
}

func (f *Feed) MarkAllRead(ctx context.Context, ids []string) (core.Result, error) {
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = core.CleanString(id); id != "" && !seen[id] {
			seen[id] = true
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return core.Result{}, core.NewInvalidArgument("No notification IDs provided to mark as read.")
	}
	if err := f.repo.MarkAllRead(ctx, cleaned); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Result{}, core.NewNotFound("Failed to mark all notifications as read: %v", err)
		}
		return core.Result{}, core.NewStoreError(err, "Failed to mark all notifications as read")
	}
	f.invalidate(ctx)
	return core.Result{Success: true, Message: fmt.Sprintf("%d notifications marked as read.", len(cleaned))}, nil
}

// Open marks the notification read and returns where the console should navigate.
// The link is returned whatever the outcome of the read mark.
func (f *Feed) Open(ctx context.Context, id string) (string, error) {
	n, err := f.repo.FindByID(ctx, core.CleanString(id))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.NewNotFound("Notification %q not found.", id)
		}
		return "", core.NewStoreError(err, "Failed to open notification")
	}
	if !n.Read {
		if err := f.repo.MarkRead(ctx, n.ID); err != nil {
			f.logger.Warn("marking opened notification as read", errors.Wrap(err, n.ID))
		} else {
			f.invalidate(ctx)
		}
	}
	return n.Link, nil
}

func (f *Feed) invalidate(ctx context.Context) {
	if f.invalidator == nil {
		return
	}
	if err := f.invalidator.Invalidate(ctx, core.ViewNotifications); err != nil {
		f.logger.Warn("invalidating notifications view", err)
	}
}
