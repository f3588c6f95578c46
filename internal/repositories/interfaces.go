package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.Video, error)
}

// VideoSort names the caller-controlled ordering of video listings.
type VideoSort struct {
	Field     string
	Ascending bool
}

// ListVideosParams filters and pages the public video listing.
type ListVideosParams struct {
	OwnerID    string
	TitleQuery string
	Sort       VideoSort
	Page       int
	Limit      int
}

// VideoRepository defines the data access contract for videos, including the
// cascading delete that keeps dependent collections consistent.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, params ListVideosParams) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, sort VideoSort) ([]models.Video, error)
	OwnerTotals(ctx context.Context, ownerID string) (totalVideos, totalViews int64, err error)
	Delete(ctx context.Context, id string) error
}

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
}

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	Delete(ctx context.Context, id string) error
}

// LikeRepository provides the atomic membership operations the toggle engine
// builds on, plus the aggregate counts the reporter reads.
type LikeRepository interface {
	InsertIfAbsent(ctx context.Context, like models.Like) (bool, error)
	Remove(ctx context.Context, likedBy string, target models.LikeTarget) (bool, error)
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
	CountReceivedByOwner(ctx context.Context, ownerID string) (int64, error)
	ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// SubscriptionRepository mirrors LikeRepository for the subscriber graph.
type SubscriptionRepository interface {
	InsertIfAbsent(ctx context.Context, sub models.Subscription) (bool, error)
	Remove(ctx context.Context, subscriberID, channelID string) (bool, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.User, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.User, error)
}

// TargetChecker verifies that a like target exists before a toggle proceeds.
type TargetChecker interface {
	TargetExists(ctx context.Context, target models.LikeTarget) (bool, error)
}
