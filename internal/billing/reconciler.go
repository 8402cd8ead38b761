package billing

import (
	"context"
	"errors"

	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"github.com/suteetoe/rfitrack/pkg/metrics"
	"go.uber.org/zap"
)

// Outcome describes what happened to a billing event
type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeSkippedStale       Outcome = "skipped_stale"
	OutcomeDroppedUnknownUser Outcome = "dropped_unknown_user"
	OutcomeIgnored            Outcome = "ignored"
	OutcomeFailed             Outcome = "failed"
)

// ProfileStore is the profile persistence the reconciler writes through
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpdateSubscription(ctx context.Context, userID string, f store.SubscriptionFields) error
}

// Reconciler mirrors billing events onto profile subscription fields
type Reconciler struct {
	profiles     ProfileStore
	enforceOrder bool
}

// NewReconciler creates a Reconciler. With enforceOrder, events older than the
// last applied one are skipped; otherwise arrival order wins.
func NewReconciler(profiles ProfileStore, enforceOrder bool) *Reconciler {
	return &Reconciler{profiles: profiles, enforceOrder: enforceOrder}
}

// Apply returns p with ev's subscription state written over it. It overwrites
// absolute values only, so applying the same event twice equals applying it once.
func Apply(p model.Profile, ev Event) model.Profile {
	plan := parsePlan(ev.Plan)

	var status model.SubscriptionStatus
	switch ev.Type {
	case EventCheckoutCompleted:
		status = model.SubscriptionActive
		if plan == nil {
			starter := model.TierStarter
			plan = &starter
		}
	case EventSubscriptionUpdated:
		status = mapBillingStatus(ev.BillingStatus)
	case EventSubscriptionDeleted:
		status = model.SubscriptionCanceled
		plan = nil
	case EventPaymentFailed:
		status = model.SubscriptionPastDue
		plan = nil
	default:
		return p
	}

	p.SubscriptionStatus = &status
	if plan != nil {
		p.SubscriptionTier = plan
	}
	if p.SubscriptionTier == nil {
		starter := model.TierStarter
		p.SubscriptionTier = &starter
	}

	if status == model.SubscriptionTrialing {
		if ev.TrialEnd != nil {
			end := *ev.TrialEnd
			p.TrialEndsAt = &end
		}
	} else {
		p.TrialEndsAt = nil
	}

	if !ev.CreatedAt.IsZero() && (p.SubscriptionEventAt == nil || ev.CreatedAt.After(*p.SubscriptionEventAt)) {
		at := ev.CreatedAt
		p.SubscriptionEventAt = &at
	}
	return p
}

func mapBillingStatus(s string) model.SubscriptionStatus {
	switch model.SubscriptionStatus(s) {
	case model.SubscriptionActive:
		return model.SubscriptionActive
	case model.SubscriptionTrialing:
		return model.SubscriptionTrialing
	case model.SubscriptionPastDue:
		return model.SubscriptionPastDue
	}
	return model.SubscriptionCanceled
}

// parsePlan treats empty and unknown plan names as absent
func parsePlan(plan string) *model.SubscriptionTier {
	tier := model.SubscriptionTier(plan)
	if !tier.Valid() {
		return nil
	}
	return &tier
}

// Handle applies one verified event to its owner's profile. Events that
// cannot be tied to a profile are dropped with a warning and no error.
func (r *Reconciler) Handle(ctx context.Context, ev Event) (Outcome, error) {
	log := logger.FromContext(ctx).With(
		zap.String("event_id", ev.ID),
		zap.String("event_type", string(ev.Type)),
		zap.String("user_id", ev.UserID),
	)

	outcome, err := r.handle(ctx, ev, log)
	metrics.RecordBillingEvent(string(ev.Type), string(outcome))
	return outcome, err
}

func (r *Reconciler) handle(ctx context.Context, ev Event, log *zap.Logger) (Outcome, error) {
	if ev.UserID == "" {
		log.Warn("Billing event has no user reference, dropping")
		return OutcomeDroppedUnknownUser, nil
	}

	profile, err := r.profiles.GetProfile(ctx, ev.UserID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("Billing event references unknown user, dropping")
		return OutcomeDroppedUnknownUser, nil
	}
	if err != nil {
		log.Error("Failed to load profile for billing event", zap.Error(err))
		return OutcomeFailed, err
	}

	if r.enforceOrder && profile.SubscriptionEventAt != nil && ev.CreatedAt.Before(*profile.SubscriptionEventAt) {
		log.Info("Skipping stale billing event",
			zap.Time("event_created", ev.CreatedAt),
			zap.Time("last_applied", *profile.SubscriptionEventAt))
		return OutcomeSkippedStale, nil
	}

	next := Apply(*profile, ev)
	err = r.profiles.UpdateSubscription(ctx, ev.UserID, store.SubscriptionFields{
		Status:      next.SubscriptionStatus,
		Tier:        next.SubscriptionTier,
		TrialEndsAt: next.TrialEndsAt,
		EventAt:     next.SubscriptionEventAt,
	})
	if err != nil {
		log.Error("Failed to update subscription", zap.Error(err))
		return OutcomeFailed, err
	}

	log.Info("Subscription updated",
		zap.String("status", string(*next.SubscriptionStatus)),
		zap.String("tier", string(*next.SubscriptionTier)))
	return OutcomeApplied, nil
}
