package handlers

import (
	"net/http"
	"time"

	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     repositories.UserRepository
	Videos    repositories.VideoRepository
	Comments  repositories.CommentRepository
	Tweets    repositories.TweetRepository
	Playlists repositories.PlaylistRepository
	Likes     repositories.LikeRepository
	Subs      repositories.SubscriptionRepository

	Tokens  TokenManager
	Toggler RelationshipToggler
	Reports StatsReporter
	Media   storage.MediaHost
	Limiter RateLimiter

	// Authenticate rejects requests without a valid access token, Optional
	// attaches the identity when one is present and lets the rest through.
	Authenticate func(http.Handler) http.Handler
	Optional     func(http.Handler) http.Handler

	NowFunc func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{Users: deps.Users, Tokens: deps.Tokens, Limiter: deps.Limiter, NowFunc: deps.NowFunc}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Likes: deps.Likes, Media: deps.Media, NowFunc: deps.NowFunc}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, Users: deps.Users, NowFunc: deps.NowFunc}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, NowFunc: deps.NowFunc}
	likes := LikeHandler{Toggler: deps.Toggler, Likes: deps.Likes}
	subs := SubscriptionHandler{Toggler: deps.Toggler, Subs: deps.Subs}
	channels := ChannelHandler{Reports: deps.Reports}
	uploads := UploadHandler{Media: deps.Media}

	guarded := deps.Authenticate
	if guarded == nil {
		guarded = passthrough
	}
	optional := deps.Optional
	if optional == nil {
		optional = passthrough
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh", users.Refresh)
	mux.Handle("POST /api/v1/users/logout", guarded(http.HandlerFunc(users.Logout)))
	mux.Handle("GET /api/v1/users/me", guarded(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("PATCH /api/v1/users/me", guarded(http.HandlerFunc(users.UpdateAccount)))
	mux.Handle("POST /api/v1/users/change-password", guarded(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("GET /api/v1/users/history", guarded(http.HandlerFunc(users.WatchHistory)))

	mux.Handle("GET /api/v1/videos", optional(http.HandlerFunc(videos.List)))
	mux.Handle("POST /api/v1/videos", guarded(http.HandlerFunc(videos.Publish)))
	mux.Handle("GET /api/v1/videos/{videoID}", optional(http.HandlerFunc(videos.Get)))
	mux.Handle("PATCH /api/v1/videos/{videoID}", guarded(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{videoID}", guarded(http.HandlerFunc(videos.Delete)))
	mux.Handle("PATCH /api/v1/videos/{videoID}/toggle-publish", guarded(http.HandlerFunc(videos.TogglePublish)))

	mux.HandleFunc("GET /api/v1/comments/video/{videoID}", comments.ListByVideo)
	mux.Handle("POST /api/v1/comments/video/{videoID}", guarded(http.HandlerFunc(comments.Add)))
	mux.Handle("PATCH /api/v1/comments/{commentID}", guarded(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/{commentID}", guarded(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/tweets", guarded(http.HandlerFunc(tweets.Create)))
	mux.HandleFunc("GET /api/v1/tweets/user/{userID}", tweets.ListByUser)
	mux.Handle("PATCH /api/v1/tweets/{tweetID}", guarded(http.HandlerFunc(tweets.Update)))
	mux.Handle("DELETE /api/v1/tweets/{tweetID}", guarded(http.HandlerFunc(tweets.Delete)))

	mux.Handle("POST /api/v1/playlists", guarded(http.HandlerFunc(playlists.Create)))
	mux.HandleFunc("GET /api/v1/playlists/{playlistID}", playlists.Get)
	mux.HandleFunc("GET /api/v1/playlists/user/{userID}", playlists.ListByUser)
	mux.Handle("PATCH /api/v1/playlists/{playlistID}", guarded(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlists/{playlistID}", guarded(http.HandlerFunc(playlists.Delete)))
	mux.Handle("POST /api/v1/playlists/{playlistID}/videos/{videoID}", guarded(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{playlistID}/videos/{videoID}", guarded(http.HandlerFunc(playlists.RemoveVideo)))

	mux.Handle("POST /api/v1/likes/toggle/video/{videoID}", guarded(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/toggle/comment/{commentID}", guarded(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("POST /api/v1/likes/toggle/tweet/{tweetID}", guarded(http.HandlerFunc(likes.ToggleTweet)))
	mux.Handle("GET /api/v1/likes/videos", guarded(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("POST /api/v1/subscriptions/toggle/{channelID}", guarded(http.HandlerFunc(subs.Toggle)))
	mux.HandleFunc("GET /api/v1/subscriptions/channel/{channelID}", subs.Subscribers)
	mux.Handle("GET /api/v1/subscriptions/me", guarded(http.HandlerFunc(subs.SubscribedChannels)))

	mux.Handle("GET /api/v1/channels/{username}", optional(http.HandlerFunc(channels.Profile)))
	mux.Handle("GET /api/v1/dashboard/stats", guarded(http.HandlerFunc(channels.Stats)))
	mux.Handle("GET /api/v1/dashboard/videos", guarded(http.HandlerFunc(channels.Videos)))

	mux.Handle("POST /api/v1/uploads", guarded(http.HandlerFunc(uploads.Upload)))
}

func passthrough(next http.Handler) http.Handler {
	return next
}
