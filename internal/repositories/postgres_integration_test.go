package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, playlist_videos, playlists, subscriptions, likes, tweets, comments, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "Test " + username,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, published bool) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  "about " + title,
		DurationSecs: 120,
		VideoFileURL: "https://media.example.com/" + title + ".mp4",
		ThumbnailURL: "https://media.example.com/" + title + ".jpg",
		IsPublished:  published,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func TestPostgresUserRepository_CreateFindAndLogin(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("expected conflict on duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if byUsername.ID != user.ID {
		t.Fatalf("unexpected user: %+v", byUsername)
	}

	byEmail, err := repo.FindByLogin(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by login (email): %v", err)
	}
	if byEmail.ID != user.ID {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	if _, err := repo.FindByLogin(ctx, "nobody"); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, "new-token"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	refreshed, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if refreshed.RefreshToken != "new-token" {
		t.Fatalf("expected refresh token to persist, got %q", refreshed.RefreshToken)
	}
}

func TestPostgresVideoRepository_ListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, users, "creator")
	other := createTestUser(t, users, "other")

	createTestVideo(t, videos, owner.ID, "go-tutorial", true)
	createTestVideo(t, videos, owner.ID, "go-advanced", true)
	createTestVideo(t, videos, owner.ID, "draft", false)
	createTestVideo(t, videos, other.ID, "unrelated", true)

	listed, err := videos.List(ctx, ListVideosParams{OwnerID: owner.ID, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 published videos for owner, got %d", len(listed))
	}

	byTitle, err := videos.List(ctx, ListVideosParams{TitleQuery: "tutorial", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list by title: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "go-tutorial" {
		t.Fatalf("unexpected title search result: %+v", byTitle)
	}

	_, err = videos.List(ctx, ListVideosParams{Sort: VideoSort{Field: "password_hash"}, Page: 1, Limit: 10})
	if !fault.IsKind(err, fault.KindInvalidArgument) {
		t.Fatalf("expected invalid argument for unknown sort field, got %v", err)
	}

	drafts, err := videos.ListByOwner(ctx, owner.ID, VideoSort{Field: "created_at"})
	if err != nil {
		t.Fatalf("list by owner including drafts: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("owner listing should include drafts, got %d", len(drafts))
	}
}

func TestPostgresLikeRepository_InsertIfAbsentIsAtomic(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)

	actor := createTestUser(t, users, "actor")
	owner := createTestUser(t, users, "owner")
	video := createTestVideo(t, videos, owner.ID, "likeable", true)

	target := models.LikeTarget{Kind: models.LikeKindVideo, ID: video.ID}

	first := models.Like{ID: uuid.NewString(), LikedBy: actor.ID, Target: target, CreatedAt: time.Now().UTC()}
	inserted, err := likes.InsertIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should report a new row")
	}

	second := models.Like{ID: uuid.NewString(), LikedBy: actor.ID, Target: target, CreatedAt: time.Now().UTC()}
	inserted, err = likes.InsertIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatal("second insert for the same pair must be a no-op")
	}

	count, err := likes.CountForTarget(ctx, target)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one like, got %d", count)
	}

	removed, err := likes.Remove(ctx, actor.ID, target)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("remove should report the row deleted")
	}

	removed, err = likes.Remove(ctx, actor.ID, target)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Fatal("second remove must report nothing deleted")
	}
}

func TestPostgresLikeRepository_TargetExists(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)

	owner := createTestUser(t, users, "owner")
	video := createTestVideo(t, videos, owner.ID, "real", true)

	exists, err := likes.TargetExists(ctx, models.LikeTarget{Kind: models.LikeKindVideo, ID: video.ID})
	if err != nil {
		t.Fatalf("target exists: %v", err)
	}
	if !exists {
		t.Fatal("expected existing video target")
	}

	exists, err = likes.TargetExists(ctx, models.LikeTarget{Kind: models.LikeKindComment, ID: uuid.NewString()})
	if err != nil {
		t.Fatalf("missing target: %v", err)
	}
	if exists {
		t.Fatal("expected missing comment target")
	}
}

func TestPostgresSubscriptionRepository_Constraints(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	subs := NewPostgresSubscriptionRepository(testPool)

	subscriber := createTestUser(t, users, "subscriber")
	channel := createTestUser(t, users, "channel")

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    channel.ID,
		CreatedAt:    time.Now().UTC(),
	}
	inserted, err := subs.InsertIfAbsent(ctx, sub)
	if err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should create the subscription")
	}

	dup := sub
	dup.ID = uuid.NewString()
	inserted, err = subs.InsertIfAbsent(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate pair must not insert a second row")
	}

	// The schema forbids subscribing to yourself.
	self := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriber.ID,
		ChannelID:    subscriber.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := subs.InsertIfAbsent(ctx, self); err == nil {
		t.Fatal("expected self subscription to violate the schema")
	}

	count, err := subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count subscribers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one subscriber, got %d", count)
	}

	subscribed, err := subs.IsSubscribed(ctx, subscriber.ID, channel.ID)
	if err != nil {
		t.Fatalf("is subscribed: %v", err)
	}
	if !subscribed {
		t.Fatal("expected subscriber to be subscribed")
	}

	channels, err := subs.ListSubscribedChannels(ctx, subscriber.ID)
	if err != nil {
		t.Fatalf("list subscribed channels: %v", err)
	}
	if len(channels) != 1 || channels[0].ID != channel.ID {
		t.Fatalf("unexpected channels: %+v", channels)
	}
	if channels[0].Password != "" || channels[0].RefreshToken != "" {
		t.Fatal("channel listings must not leak credential material")
	}
}

func TestPostgresVideoRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	comments := NewPostgresCommentRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)
	playlists := NewPostgresPlaylistRepository(testPool)

	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")
	video := createTestVideo(t, videos, owner.ID, "doomed", true)

	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		OwnerID:   viewer.ID,
		Content:   "nice",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}

	videoTarget := models.LikeTarget{Kind: models.LikeKindVideo, ID: video.ID}
	commentTarget := models.LikeTarget{Kind: models.LikeKindComment, ID: comment.ID}
	for _, target := range []models.LikeTarget{videoTarget, commentTarget} {
		like := models.Like{ID: uuid.NewString(), LikedBy: viewer.ID, Target: target, CreatedAt: time.Now().UTC()}
		if _, err := likes.InsertIfAbsent(ctx, like); err != nil {
			t.Fatalf("insert like: %v", err)
		}
	}

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   viewer.ID,
		Name:      "watch later",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	if err := playlists.AddVideo(ctx, playlist.ID, video.ID); err != nil {
		t.Fatalf("add video to playlist: %v", err)
	}

	if err := users.RecordWatch(ctx, viewer.ID, video.ID); err != nil {
		t.Fatalf("record watch: %v", err)
	}

	if err := videos.Delete(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}

	if _, err := videos.FindByID(ctx, video.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected video to be gone, got %v", err)
	}
	if _, err := comments.FindByID(ctx, comment.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected comment to cascade, got %v", err)
	}

	for _, target := range []models.LikeTarget{videoTarget, commentTarget} {
		count, err := likes.CountForTarget(ctx, target)
		if err != nil {
			t.Fatalf("count likes: %v", err)
		}
		if count != 0 {
			t.Fatalf("expected likes on %s to cascade, got %d", target.Kind, count)
		}
	}

	refreshed, err := playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(refreshed.VideoIDs) != 0 {
		t.Fatalf("expected playlist membership to cascade, got %v", refreshed.VideoIDs)
	}

	history, err := users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected watch history to cascade, got %d entries", len(history))
	}

	if err := videos.Delete(ctx, video.ID); !fault.IsKind(err, fault.KindNotFound) {
		t.Fatalf("expected not found deleting twice, got %v", err)
	}
}

func TestPostgresUserRepository_WatchHistoryUpsert(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	owner := createTestUser(t, users, "owner")
	viewer := createTestUser(t, users, "viewer")
	first := createTestVideo(t, videos, owner.ID, "first", true)
	second := createTestVideo(t, videos, owner.ID, "second", true)

	if err := users.RecordWatch(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("record first watch: %v", err)
	}
	if err := users.RecordWatch(ctx, viewer.ID, second.ID); err != nil {
		t.Fatalf("record second watch: %v", err)
	}
	// Rewatching bumps the entry instead of duplicating it.
	if err := users.RecordWatch(ctx, viewer.ID, first.ID); err != nil {
		t.Fatalf("record rewatch: %v", err)
	}

	history, err := users.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected two history entries, got %d", len(history))
	}
	if history[0].ID != first.ID {
		t.Fatalf("expected the rewatched video first, got %+v", history[0])
	}
}

func TestPostgresCommentRepository_Pagination(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	comments := NewPostgresCommentRepository(testPool)

	owner := createTestUser(t, users, "owner")
	video := createTestVideo(t, videos, owner.ID, "commented", true)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		comment := models.Comment{
			ID:        uuid.NewString(),
			VideoID:   video.ID,
			OwnerID:   owner.ID,
			Content:   fmt.Sprintf("comment %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := comments.Create(ctx, comment); err != nil {
			t.Fatalf("create comment %d: %v", i, err)
		}
	}

	page1, err := comments.ListByVideo(ctx, video.ID, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 2 || page1[0].Content != "comment 4" {
		t.Fatalf("unexpected first page: %+v", page1)
	}

	page3, err := comments.ListByVideo(ctx, video.ID, 3, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 || page3[0].Content != "comment 0" {
		t.Fatalf("unexpected last page: %+v", page3)
	}
}
