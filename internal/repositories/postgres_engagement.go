package repositories

import (
	"context"
	"fmt"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// InsertIfAbsent creates the like unless the (actor, kind, target) triple
// already exists. The unique constraint arbitrates concurrent toggles; a
// losing insert simply reports the relationship as already present.
func (r *PostgresLikeRepository) InsertIfAbsent(ctx context.Context, like models.Like) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, target_kind, target_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (liked_by, target_kind, target_id) DO NOTHING
    `, like.ID, like.LikedBy, string(like.Target.Kind), like.Target.ID, like.CreatedAt)
	if err != nil {
		return false, translate("insert like", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Remove deletes the like and reports whether a row existed.
func (r *PostgresLikeRepository) Remove(ctx context.Context, likedBy string, target models.LikeTarget) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1 AND target_kind = $2 AND target_id = $3
    `, likedBy, string(target.Kind), target.ID)
	if err != nil {
		return false, translate("delete like", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountForTarget counts likes pointing at a single entity.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM likes
        WHERE target_kind = $1 AND target_id = $2
    `, string(target.Kind), target.ID)
	if err := row.Scan(&count); err != nil {
		return 0, translate("count target likes", err)
	}

	return count, nil
}

// CountReceivedByOwner totals the likes received across a channel's videos,
// comments and tweets.
func (r *PostgresLikeRepository) CountReceivedByOwner(ctx context.Context, ownerID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM likes l
        WHERE (l.target_kind = 'video' AND l.target_id IN (SELECT id FROM videos WHERE owner_id = $1))
           OR (l.target_kind = 'comment' AND l.target_id IN (SELECT id FROM comments WHERE owner_id = $1))
           OR (l.target_kind = 'tweet' AND l.target_id IN (SELECT id FROM tweets WHERE owner_id = $1))
    `, ownerID)
	if err := row.Scan(&count); err != nil {
		return 0, translate("count owner likes", err)
	}

	return count, nil
}

// ListLikedVideos returns the videos a user has liked, most recently liked first.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.duration_secs, v.views, v.video_file_url, v.thumbnail_url, v.is_published, v.created_at, v.updated_at
        FROM likes l
        JOIN videos v ON v.id = l.target_id
        WHERE l.liked_by = $1 AND l.target_kind = 'video'
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, translate("query liked videos", err)
	}
	defer rows.Close()

	return collectVideos(rows, "liked videos")
}

// TargetExists checks the table matching the like kind for the target row.
func (r *PostgresLikeRepository) TargetExists(ctx context.Context, target models.LikeTarget) (bool, error) {
	var table string
	switch target.Kind {
	case models.LikeKindVideo:
		table = "videos"
	case models.LikeKindComment:
		table = "comments"
	case models.LikeKindTweet:
		table = "tweets"
	default:
		return false, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table), target.ID)
	if err := row.Scan(&exists); err != nil {
		return false, translate("check like target", err)
	}

	return exists, nil
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// the subscriber graph, one row per (subscriber, channel) pair.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// InsertIfAbsent creates the subscription unless the pair already exists.
func (r *PostgresSubscriptionRepository) InsertIfAbsent(ctx context.Context, sub models.Subscription) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		return false, translate("insert subscription", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Remove deletes the subscription and reports whether a row existed.
func (r *PostgresSubscriptionRepository) Remove(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, translate("delete subscription", err)
	}

	return tag.RowsAffected() == 1, nil
}

// IsSubscribed reports whether the pair exists.
func (r *PostgresSubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	row := conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM subscriptions
            WHERE subscriber_id = $1 AND channel_id = $2
        )
    `, subscriberID, channelID)
	if err := row.Scan(&exists); err != nil {
		return false, translate("check subscription", err)
	}

	return exists, nil
}

// CountSubscribers counts users subscribed to the channel.
func (r *PostgresSubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscribedTo counts channels the user is subscribed to.
func (r *PostgresSubscriptionRepository) CountSubscribedTo(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *PostgresSubscriptionRepository) count(ctx context.Context, query, arg string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, query, arg).Scan(&count); err != nil {
		return 0, translate("count subscriptions", err)
	}

	return count, nil
}

const joinedUserColumns = `u.id, u.username, u.email, u.full_name, u.password_hash, u.avatar_url, u.cover_image_url, u.refresh_token, u.created_at, u.updated_at`

// ListSubscribers returns the channel's subscribers, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.User, error) {
	return r.listUsers(ctx, `
        SELECT `+joinedUserColumns+`
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels the user subscribes to, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.User, error) {
	return r.listUsers(ctx, `
        SELECT `+joinedUserColumns+`
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listUsers(ctx context.Context, query, arg string) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, translate("query subscription users", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription user: %w", err)
		}
		users = append(users, user.PublicProfile())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscription users: %w", err)
	}

	return users, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ TargetChecker = (*PostgresLikeRepository)(nil)
var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
