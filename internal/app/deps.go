package app

import (
	"context"
	"fmt"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/engagement"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/reports"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	tweets := repositories.NewPostgresTweetRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subs := repositories.NewPostgresSubscriptionRepository(pool)

	tokens := auth.NewTokenService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		users,
	)

	var media storage.MediaHost
	if cfg.ObjectStore.Bucket != "" {
		host, err := storage.NewS3MediaHost(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure object store: %w", err)
		}
		media = host
	}

	limiter := middleware.NewIPRateLimiter(
		cfg.AuthRateLimit.Requests,
		cfg.AuthRateLimit.Window,
		cfg.AuthRateLimit.Burst,
		cfg.AuthRateLimit.TTL,
	)

	return handlers.Dependencies{
		Users:     users,
		Videos:    videos,
		Comments:  comments,
		Tweets:    tweets,
		Playlists: playlists,
		Likes:     likes,
		Subs:      subs,

		Tokens:  tokens,
		Toggler: engagement.NewToggler(likes, likes, subs, users),
		Reports: reports.NewReporter(users, videos, likes, subs),
		Media:   media,
		Limiter: limiter,

		Authenticate: middleware.Authenticate(tokens, users),
		Optional:     middleware.Optional(tokens, users),
	}, nil
}
