// Package engagement implements the at-most-one-relationship toggle shared by
// likes and subscriptions: present deletes, absent creates.
package engagement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// Toggler flips like and subscription relationships. The store's uniqueness
// constraints are the authoritative guard against concurrent duplicate
// toggles; the engine only sequences insert-if-absent then delete.
type Toggler struct {
	likes   repositories.LikeRepository
	targets repositories.TargetChecker
	subs    repositories.SubscriptionRepository
	users   repositories.UserRepository

	now func() time.Time
}

// NewToggler constructs a Toggler over the engagement repositories.
func NewToggler(likes repositories.LikeRepository, targets repositories.TargetChecker, subs repositories.SubscriptionRepository, users repositories.UserRepository) *Toggler {
	return &Toggler{
		likes:   likes,
		targets: targets,
		subs:    subs,
		users:   users,
		now:     time.Now,
	}
}

// WithNowFunc overrides the time source for tests.
func (t *Toggler) WithNowFunc(now func() time.Time) {
	t.now = now
}

// ToggleLike flips the actor's like on the target. It returns true when the
// like now exists and false when it was removed. The target id is validated
// before any store access, and the target must exist.
func (t *Toggler) ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (bool, error) {
	if !target.Kind.Valid() {
		return false, fault.InvalidArgument("unsupported like target kind")
	}
	if _, err := uuid.Parse(target.ID); err != nil {
		return false, fault.InvalidArgument("malformed target id")
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return false, fault.InvalidArgument("malformed actor id")
	}

	exists, err := t.targets.TargetExists(ctx, target)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fault.NotFound(string(target.Kind) + " not found")
	}

	like := models.Like{
		ID:        uuid.NewString(),
		LikedBy:   actorID,
		Target:    target,
		CreatedAt: t.now().UTC(),
	}

	inserted, err := t.likes.InsertIfAbsent(ctx, like)
	if err != nil {
		// A conflict means another toggle for the same pair landed first;
		// treat the relationship as already active and remove it below.
		if !fault.IsKind(err, fault.KindConflict) {
			return false, err
		}
		inserted = false
	}
	if inserted {
		return true, nil
	}

	removed, err := t.likes.Remove(ctx, actorID, target)
	if err != nil {
		return false, err
	}
	if !removed {
		// The row vanished between the failed insert and the delete; a
		// concurrent toggle already removed it. Membership is now absent,
		// which is what this toggle reports.
		logging.FromContext(ctx).Warn("like toggle raced with concurrent removal",
			"actor", actorID, "targetKind", string(target.Kind), "target", target.ID)
	}

	return false, nil
}

// ToggleSubscription flips the subscriber's membership on the channel. It
// returns true when the subscription now exists. Subscribing to yourself is
// rejected.
func (t *Toggler) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if _, err := uuid.Parse(channelID); err != nil {
		return false, fault.InvalidArgument("malformed channel id")
	}
	if _, err := uuid.Parse(subscriberID); err != nil {
		return false, fault.InvalidArgument("malformed subscriber id")
	}
	if subscriberID == channelID {
		return false, fault.InvalidArgument("cannot subscribe to your own channel")
	}

	if _, err := t.users.FindByID(ctx, channelID); err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return false, fault.NotFound("channel not found")
		}
		return false, err
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    t.now().UTC(),
	}

	inserted, err := t.subs.InsertIfAbsent(ctx, sub)
	if err != nil {
		if !fault.IsKind(err, fault.KindConflict) {
			return false, err
		}
		inserted = false
	}
	if inserted {
		return true, nil
	}

	removed, err := t.subs.Remove(ctx, subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if !removed {
		logging.FromContext(ctx).Warn("subscription toggle raced with concurrent removal",
			"subscriber", subscriberID, "channel", channelID)
	}

	return false, nil
}
