package handlers

import (
	"context"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/reports"
)

// TokenManager issues, rotates and revokes authentication token pairs.
type TokenManager interface {
	Issue(ctx context.Context, user models.User) (models.TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// RelationshipToggler flips likes and subscriptions.
type RelationshipToggler interface {
	ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// StatsReporter builds the derived channel views.
type StatsReporter interface {
	Profile(ctx context.Context, username, viewerID string) (reports.ChannelProfile, error)
	Stats(ctx context.Context, channelID string) (reports.ChannelStats, error)
	ChannelVideos(ctx context.Context, channelID string, sort repositories.VideoSort) ([]models.Video, error)
}
