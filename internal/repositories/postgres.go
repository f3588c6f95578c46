package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
)

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

const videoColumns = `id, owner_id, title, description, duration_secs, views, video_file_url, thumbnail_url, is_published, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password, user.AvatarURL, user.CoverImageURL, user.RefreshToken, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return translate("insert user", err)
	}

	return nil
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUsername fetches a user by their lowercased username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `WHERE username = $1`, strings.ToLower(strings.TrimSpace(username)))
}

// FindByLogin fetches a user by username or email, whichever matches.
func (r *PostgresUserRepository) FindByLogin(ctx context.Context, usernameOrEmail string) (models.User, error) {
	login := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	return r.findOne(ctx, `WHERE username = $1 OR email = $1`, login)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)

	user, err := scanUser(row)
	if err != nil {
		return models.User{}, translate("select user", err)
	}
	return user, nil
}

// Update modifies an existing user's profile fields and password hash.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, full_name = $3, password_hash = $4, avatar_url = $5, cover_image_url = $6, updated_at = $7
        WHERE id = $1
    `, user.ID, user.Email, user.FullName, user.Password, user.AvatarURL, user.CoverImageURL, user.UpdatedAt)
	if err != nil {
		return translate("update user", err)
	}

	if tag.RowsAffected() == 0 {
		return fault.NotFound("update user: record not found")
	}

	return nil
}

// SetRefreshToken replaces the refresh token stored on the user record,
// invalidating whatever token was there before.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, refreshToken string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token = $2, updated_at = $3
        WHERE id = $1
    `, userID, refreshToken, time.Now().UTC())
	if err != nil {
		return translate("set refresh token", err)
	}

	if tag.RowsAffected() == 0 {
		return fault.NotFound("set refresh token: user not found")
	}

	return nil
}

// RecordWatch upserts a watch-history entry, bumping the timestamp so the
// video moves to the front of the history.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, time.Now().UTC())
	if err != nil {
		return translate("record watch", err)
	}

	return nil
}

// WatchHistory returns the user's watched videos, most recently watched first.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.duration_secs, v.views, v.video_file_url, v.thumbnail_url, v.is_published, v.created_at, v.updated_at
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, translate("query watch history", err)
	}
	defer rows.Close()

	return collectVideos(rows, "watch history")
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, duration_secs, views, video_file_url, thumbnail_url, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.DurationSecs, video.Views, video.VideoFileURL, video.ThumbnailURL, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return translate("insert video", err)
	}

	return nil
}

// FindByID fetches a video by its identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)

	video, err := scanVideo(row)
	if err != nil {
		return models.Video{}, translate("select video", err)
	}
	return video, nil
}

// Update modifies a video's editable fields.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, is_published = $5, updated_at = $6
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.IsPublished, video.UpdatedAt)
	if err != nil {
		return translate("update video", err)
	}

	if tag.RowsAffected() == 0 {
		return fault.NotFound("update video: record not found")
	}

	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return translate("increment views", err)
	}

	if tag.RowsAffected() == 0 {
		return fault.NotFound("increment views: video not found")
	}

	return nil
}

// videoSortColumns whitelists caller-controlled sort fields.
var videoSortColumns = map[string]string{
	"created_at": "created_at",
	"views":      "views",
	"duration":   "duration_secs",
	"title":      "title",
}

func orderClause(sort VideoSort) (string, error) {
	column := "created_at"
	direction := "DESC"
	if sort.Field != "" {
		mapped, ok := videoSortColumns[sort.Field]
		if !ok {
			return "", fault.InvalidArgument(fmt.Sprintf("unsupported sort field %q", sort.Field))
		}
		column = mapped
		if sort.Ascending {
			direction = "ASC"
		}
	}
	return fmt.Sprintf("ORDER BY %s %s", column, direction), nil
}

// List returns published videos matching the params, newest first unless the
// caller picked a sort.
func (r *PostgresVideoRepository) List(ctx context.Context, params ListVideosParams) ([]models.Video, error) {
	order, err := orderClause(params.Sort)
	if err != nil {
		return nil, err
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}

	where := []string{"is_published"}
	args := []any{}
	if params.OwnerID != "" {
		args = append(args, params.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if params.TitleQuery != "" {
		args = append(args, "%"+params.TitleQuery+"%")
		where = append(where, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	args = append(args, params.Limit, (params.Page-1)*params.Limit)
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE %s %s LIMIT $%d OFFSET $%d`,
		videoColumns, strings.Join(where, " AND "), order, len(args)-1, len(args))

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, translate("query videos", err)
	}
	defer rows.Close()

	return collectVideos(rows, "videos")
}

// ListByOwner returns every video owned by the channel, published or not.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, sort VideoSort) ([]models.Video, error) {
	order, err := orderClause(sort)
	if err != nil {
		return nil, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+videoColumns+` FROM videos WHERE owner_id = $1 `+order, ownerID)
	if err != nil {
		return nil, translate("query owner videos", err)
	}
	defer rows.Close()

	return collectVideos(rows, "owner videos")
}

// OwnerTotals sums the channel's video count and cumulative views.
func (r *PostgresVideoRepository) OwnerTotals(ctx context.Context, ownerID string) (int64, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var totalVideos, totalViews int64
	row := conn.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(SUM(views), 0)
        FROM videos
        WHERE owner_id = $1
    `, ownerID)
	if err := row.Scan(&totalVideos, &totalViews); err != nil {
		return 0, 0, translate("owner totals", err)
	}

	return totalVideos, totalViews, nil
}

// Delete removes the video and every dependent record in one transaction:
// likes on the video, comments and their likes, playlist memberships, and
// watch-history entries.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin video delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	statements := []struct {
		op    string
		query string
	}{
		{"delete comment likes", `
            DELETE FROM likes
            WHERE target_kind = 'comment'
              AND target_id IN (SELECT id FROM comments WHERE video_id = $1)`},
		{"delete video likes", `DELETE FROM likes WHERE target_kind = 'video' AND target_id = $1`},
		{"delete comments", `DELETE FROM comments WHERE video_id = $1`},
		{"delete playlist memberships", `DELETE FROM playlist_videos WHERE video_id = $1`},
		{"delete watch history", `DELETE FROM watch_history WHERE video_id = $1`},
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt.query, id); err != nil {
			return translate(stmt.op, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return translate("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFound("delete video: record not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit video delete: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Password,
		&user.AvatarURL, &user.CoverImageURL, &user.RefreshToken, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func scanVideo(row rowScanner) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.DurationSecs,
		&video.Views, &video.VideoFileURL, &video.ThumbnailURL, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt)
	return video, err
}

func collectVideos(rows pgx.Rows, op string) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}

	return videos, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ VideoRepository = (*PostgresVideoRepository)(nil)
