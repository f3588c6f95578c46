package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/reports"
	"github.com/videotube/backend/internal/repositories"
)

type scriptedToggler struct {
	active     bool
	err        error
	lastTarget models.LikeTarget
	lastActor  string
}

func (s *scriptedToggler) ToggleLike(_ context.Context, actorID string, target models.LikeTarget) (bool, error) {
	s.lastActor = actorID
	s.lastTarget = target
	return s.active, s.err
}

func (s *scriptedToggler) ToggleSubscription(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.lastActor = subscriberID
	return s.active, s.err
}

func TestLikeHandlerToggleVideo(t *testing.T) {
	toggler := &scriptedToggler{active: true}
	handler := LikeHandler{Toggler: toggler, Likes: countingLikeStore{}}

	actor := models.User{ID: uuid.NewString()}
	videoID := uuid.NewString()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/video/"+videoID, nil)
	req.SetPathValue("videoID", videoID)
	req = req.WithContext(auth.WithIdentity(req.Context(), actor))
	rec := httptest.NewRecorder()

	handler.ToggleVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp toggleResponse
	decodeEnvelope(t, rec.Body, &resp)
	if !resp.IsActive {
		t.Fatal("expected the toggle to report active")
	}

	want := models.LikeTarget{Kind: models.LikeKindVideo, ID: videoID}
	if toggler.lastTarget != want || toggler.lastActor != actor.ID {
		t.Fatalf("toggler called with %+v by %s", toggler.lastTarget, toggler.lastActor)
	}
}

func TestLikeHandlerToggleRequiresAuth(t *testing.T) {
	handler := LikeHandler{Toggler: &scriptedToggler{}, Likes: countingLikeStore{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/tweet/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	handler.ToggleTweet(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestLikeHandlerToggleMissingTarget(t *testing.T) {
	toggler := &scriptedToggler{err: fault.NotFound("comment not found")}
	handler := LikeHandler{Toggler: toggler, Likes: countingLikeStore{}}

	commentID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/comment/"+commentID, nil)
	req.SetPathValue("commentID", commentID)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: uuid.NewString()}))
	rec := httptest.NewRecorder()

	handler.ToggleComment(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSubscriptionHandlerToggle(t *testing.T) {
	toggler := &scriptedToggler{active: false}
	handler := SubscriptionHandler{Toggler: toggler, Subs: nil}

	channelID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/toggle/"+channelID, nil)
	req.SetPathValue("channelID", channelID)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: uuid.NewString()}))
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp toggleResponse
	decodeEnvelope(t, rec.Body, &resp)
	if resp.IsActive {
		t.Fatal("expected the toggle to report inactive")
	}
}

type scriptedReporter struct {
	profile reports.ChannelProfile
	stats   reports.ChannelStats
	videos  []models.Video
	err     error

	lastViewerID string
}

func (s *scriptedReporter) Profile(_ context.Context, username, viewerID string) (reports.ChannelProfile, error) {
	s.lastViewerID = viewerID
	return s.profile, s.err
}

func (s *scriptedReporter) Stats(context.Context, string) (reports.ChannelStats, error) {
	return s.stats, s.err
}

func (s *scriptedReporter) ChannelVideos(context.Context, string, repositories.VideoSort) ([]models.Video, error) {
	return s.videos, s.err
}

func TestChannelHandlerProfile(t *testing.T) {
	reporter := &scriptedReporter{
		profile: reports.ChannelProfile{
			User:             models.User{ID: uuid.NewString(), Username: "creator"},
			SubscribersCount: 12,
			IsSubscribed:     true,
		},
	}
	handler := ChannelHandler{Reports: reporter}

	viewer := models.User{ID: uuid.NewString()}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/creator", nil)
	req.SetPathValue("username", "Creator")
	req = req.WithContext(auth.WithIdentity(req.Context(), viewer))
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if reporter.lastViewerID != viewer.ID {
		t.Fatalf("expected viewer id to be forwarded, got %q", reporter.lastViewerID)
	}

	var resp profileResponse
	decodeEnvelope(t, rec.Body, &resp)
	if resp.Username != "creator" || resp.SubscribersCount != 12 || !resp.IsSubscribed {
		t.Fatalf("unexpected profile: %+v", resp)
	}
}

func TestChannelHandlerProfileUnknown(t *testing.T) {
	reporter := &scriptedReporter{err: fault.NotFound("channel not found")}
	handler := ChannelHandler{Reports: reporter}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/ghost", nil)
	req.SetPathValue("username", "ghost")
	rec := httptest.NewRecorder()

	handler.Profile(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestChannelHandlerStats(t *testing.T) {
	reporter := &scriptedReporter{
		stats: reports.ChannelStats{TotalVideos: 3, TotalViews: 450, SubscribersCount: 9, TotalLikes: 27},
	}
	handler := ChannelHandler{Reports: reporter}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), models.User{ID: uuid.NewString()}))
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp statsResponse
	decodeEnvelope(t, rec.Body, &resp)
	if resp.TotalVideos != 3 || resp.TotalViews != 450 || resp.SubscribersCount != 9 || resp.TotalLikes != 27 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestChannelHandlerStatsRequiresAuth(t *testing.T) {
	handler := ChannelHandler{Reports: &scriptedReporter{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}
