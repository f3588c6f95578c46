// Package reports builds read-only derived views by joining the base
// collections: channel profiles, dashboard stats and channel video listings.
package reports

import (
	"context"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// ChannelProfile is a user's public profile enriched with subscriber counts
// and the viewer's own subscription status.
type ChannelProfile struct {
	User              models.User
	SubscribersCount  int64
	SubscribedToCount int64
	IsSubscribed      bool
}

// ChannelStats summarises a channel for its owner's dashboard.
type ChannelStats struct {
	TotalVideos       int64
	TotalViews        int64
	SubscribersCount  int64
	SubscribedToCount int64
	TotalLikes        int64
}

// Reporter merges per-collection queries into the derived views the API
// serves. All methods are read-only.
type Reporter struct {
	users  repositories.UserRepository
	videos repositories.VideoRepository
	likes  repositories.LikeRepository
	subs   repositories.SubscriptionRepository
}

// NewReporter constructs a Reporter over the read repositories.
func NewReporter(users repositories.UserRepository, videos repositories.VideoRepository, likes repositories.LikeRepository, subs repositories.SubscriptionRepository) *Reporter {
	return &Reporter{users: users, videos: videos, likes: likes, subs: subs}
}

// Profile resolves a channel by username and decorates it with subscription
// counts. viewerID may be empty for unauthenticated viewers, in which case
// IsSubscribed is always false.
func (r *Reporter) Profile(ctx context.Context, username, viewerID string) (ChannelProfile, error) {
	user, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if fault.IsKind(err, fault.KindNotFound) {
			return ChannelProfile{}, fault.NotFound("channel not found")
		}
		return ChannelProfile{}, err
	}

	subscribers, err := r.subs.CountSubscribers(ctx, user.ID)
	if err != nil {
		return ChannelProfile{}, err
	}

	subscribedTo, err := r.subs.CountSubscribedTo(ctx, user.ID)
	if err != nil {
		return ChannelProfile{}, err
	}

	isSubscribed := false
	if viewerID != "" && viewerID != user.ID {
		isSubscribed, err = r.subs.IsSubscribed(ctx, viewerID, user.ID)
		if err != nil {
			return ChannelProfile{}, err
		}
	}

	return ChannelProfile{
		User:              user.PublicProfile(),
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
	}, nil
}

// Stats aggregates the owner's dashboard numbers.
func (r *Reporter) Stats(ctx context.Context, channelID string) (ChannelStats, error) {
	totalVideos, totalViews, err := r.videos.OwnerTotals(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}

	subscribers, err := r.subs.CountSubscribers(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}

	subscribedTo, err := r.subs.CountSubscribedTo(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}

	totalLikes, err := r.likes.CountReceivedByOwner(ctx, channelID)
	if err != nil {
		return ChannelStats{}, err
	}

	return ChannelStats{
		TotalVideos:       totalVideos,
		TotalViews:        totalViews,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		TotalLikes:        totalLikes,
	}, nil
}

// ChannelVideos lists every video the channel owns. The default order is
// creation time descending; a caller-provided sort takes precedence.
func (r *Reporter) ChannelVideos(ctx context.Context, channelID string, sort repositories.VideoSort) ([]models.Video, error) {
	return r.videos.ListByOwner(ctx, channelID, sort)
}
