package moderation

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/speakhq/speakadmin/core"
)

type (
	Repository interface {
		// Query returns documents of type t matching q, newest first.
		Query(ctx context.Context, t Type, q Query) ([]Document, error)
		FindByID(ctx context.Context, t Type, id string) (Document, error)
		SetDecision(ctx context.Context, t Type, id string, d Decision) error
		Delete(ctx context.Context, t Type, id string) error
		Count(ctx context.Context, t Type, status Status) (int, error)
	}

	Service struct {
		repo        Repository
		invalidator core.Invalidator
		metrics     core.Recorder
		logger      core.Logger
	}
)

func NewService(repo Repository, invalidator core.Invalidator, metrics core.Recorder, logger core.Logger) *Service {
	if metrics == nil {
		metrics = core.NopRecorder{}
	}
	return &Service{repo: repo, invalidator: invalidator, metrics: metrics, logger: logger}
}

// List merges posts and chats into one page ordered by CreatedAt descending.
func (svc *Service) List(ctx context.Context, filter Filter) (Page, error) {
	if err := filter.Clean(); err != nil {
		return Page{}, err
	}
	types := Types
	if filter.Type != "" {
		types = []Type{filter.Type}
	}

	q := Query{Status: filter.Status, Before: filter.Before, After: filter.cursor, Limit: filter.Limit}
	results := make([][]Document, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			docs, err := svc.repo.Query(gctx, t, q)
			if err != nil {
				return errors.Wrapf(err, "querying %s", t.Collection())
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Page{}, core.NewStoreError(err, "Failed to fetch content")
	}

	merged := make([]ContentItem, 0, filter.Limit*len(types))
	for i, t := range types {
		for _, doc := range results[i] {
			merged = append(merged, Normalize(t, doc))
		}
	}
	sort.Slice(merged, func(i, j int) bool { return Less(merged[i], merged[j]) })

	page := Page{Items: []ContentItem{}}
	if len(merged) > filter.Limit {
		merged = merged[:filter.Limit]
	}
	if len(merged) == filter.Limit {
		page.Next = CursorOf(merged[len(merged)-1]).String()
	}
	for _, item := range merged {
		if filter.matchSearch(item) {
			page.Items = append(page.Items, item)
		}
	}
	return page, nil
}

// AwaitingReview counts flagged and pending items across both collections.
func (svc *Service) AwaitingReview(ctx context.Context) (int, error) {
	var total int
	for _, t := range Types {
		for _, st := range []Status{StatusFlagged, StatusPending} {
			n, err := svc.repo.Count(ctx, t, st)
			if err != nil {
				return 0, core.NewStoreError(err, "Failed to count content awaiting review")
			}
			total += n
		}
	}
	return total, nil
}

func (svc *Service) Get(ctx context.Context, ref Ref) (ContentItem, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return ContentItem{}, err
	}
	doc, err := svc.repo.FindByID(ctx, ref.Type, ref.ID)
	if err != nil {
		return ContentItem{}, svc.lookupErr(err, ref)
	}
	return Normalize(ref.Type, doc), nil
}

func (svc *Service) Approve(ctx context.Context, ref Ref, note string) (core.Result, error) {
	return svc.decide(ctx, ref, Decision{Status: StatusApproved, Note: firstNonEmpty(core.CleanString(note), defaultApproveNote)})
}

// Reject also hides the item from the platform.
func (svc *Service) Reject(ctx context.Context, ref Ref, note string) (core.Result, error) {
	return svc.decide(ctx, ref, Decision{Status: StatusRejected, Note: firstNonEmpty(core.CleanString(note), defaultRejectNote), Hide: true})
}

func (svc *Service) decide(ctx context.Context, ref Ref, d Decision) (core.Result, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return core.Result{}, err
	}
	d.At = core.NowFunc()
	if err := svc.repo.SetDecision(ctx, ref.Type, ref.ID, d); err != nil {
		return core.Result{}, svc.lookupErr(err, ref)
	}
	svc.metrics.ModerationAction(string(d.Status))
	svc.invalidate(ctx)

	msg := "Content has been approved."
	if d.Status == StatusRejected {
		msg = "Content has been rejected and hidden."
	}
	return core.Result{Success: true, Message: msg}, nil
}

// Delete permanently removes the item. It refuses unless confirmed is set.
func (svc *Service) Delete(ctx context.Context, ref Ref, confirmed bool) (core.Result, error) {
	ref, err := cleanRef(ref)
	if err != nil {
		return core.Result{}, err
	}
	if !confirmed {
		return core.Result{}, core.NewInvalidArgument("Deleting content is permanent and must be explicitly confirmed.")
	}
	if err := svc.repo.Delete(ctx, ref.Type, ref.ID); err != nil {
		return core.Result{}, svc.lookupErr(err, ref)
	}
	svc.metrics.ModerationAction("deleted")
	svc.invalidate(ctx)
	return core.Result{Success: true, Message: "Content has been permanently deleted."}, nil
}

func cleanRef(ref Ref) (Ref, error) {
	t, err := ParseType(string(ref.Type))
	if err != nil {
		return Ref{}, err
	}
	ref.Type = t
	if ref.ID = core.CleanString(ref.ID); ref.ID == "" {
		return Ref{}, core.NewInvalidArgument("Content id is required.")
	}
	return ref, nil
}

func (svc *Service) lookupErr(err error, ref Ref) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.NewNotFound("Content %q not found in collection %q.", ref.ID, ref.Type.Collection())
	}
	return core.NewStoreError(err, "Failed to update content")
}

func (svc *Service) invalidate(ctx context.Context) {
	if svc.invalidator == nil {
		return
	}
	if err := svc.invalidator.Invalidate(ctx, core.ViewModeration, core.ViewDashboard); err != nil {
		svc.logger.Warn("invalidating views", err)
	}
}
