package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

// VideoHandler implements the video catalogue endpoints.
type VideoHandler struct {
	Videos  repositories.VideoRepository
	Users   repositories.UserRepository
	Likes   repositories.LikeRepository
	Media   storage.MediaHost
	NowFunc func() time.Time
}

type publishVideoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	VideoFile   string  `json:"videoFile"`
	Thumbnail   string  `json:"thumbnail"`
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
}

type videoDetailResponse struct {
	videoResponse
	Owner      userResponse `json:"owner"`
	LikesCount int64        `json:"likesCount"`
}

// Publish handles POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	var req publishVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, fault.InvalidArgument("title is required"))
		return
	}
	if req.VideoFile == "" {
		respondError(ctx, w, fault.InvalidArgument("videoFile is required"))
		return
	}
	if req.Duration < 0 {
		respondError(ctx, w, fault.InvalidArgument("duration must not be negative"))
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      user.ID,
		Title:        req.Title,
		Description:  req.Description,
		DurationSecs: req.Duration,
		VideoFileURL: req.VideoFile,
		ThumbnailURL: req.Thumbnail,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("video published", "videoId", video.ID, "ownerId", user.ID)
	respondData(ctx, w, http.StatusCreated, toVideoResponse(video), "video published successfully")
}

// List handles GET /api/v1/videos. Only published videos are returned.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, limit := pagination(r)
	params := repositories.ListVideosParams{
		OwnerID:    r.URL.Query().Get("userId"),
		TitleQuery: strings.TrimSpace(r.URL.Query().Get("query")),
		Sort:       videoSort(r),
		Page:       page,
		Limit:      limit,
	}
	if params.OwnerID != "" {
		if _, err := uuid.Parse(params.OwnerID); err != nil {
			respondError(ctx, w, fault.InvalidArgument("invalid userId"))
			return
		}
	}

	videos, err := h.Videos.List(ctx, params)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toVideoResponses(videos), "videos fetched successfully")
}

// Get handles GET /api/v1/videos/{videoID}. Fetching a video counts a view
// and, for signed-in viewers, records the video in their watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathUUID(r, "videoID")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	viewer, signedIn := auth.IdentityFromContext(ctx)
	if !video.IsPublished && (!signedIn || viewer.ID != video.OwnerID) {
		respondError(ctx, w, fault.NotFound("video not found"))
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logging.FromContext(ctx).Warn("increment views failed", "videoId", videoID, "error", err)
	} else {
		video.Views++
	}

	if signedIn {
		if err := h.Users.RecordWatch(ctx, viewer.ID, videoID); err != nil {
			logging.FromContext(ctx).Warn("record watch failed", "videoId", videoID, "userId", viewer.ID, "error", err)
		}
	}

	owner, err := h.Users.FindByID(ctx, video.OwnerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	target := models.LikeTarget{Kind: models.LikeKindVideo, ID: videoID}
	likes, err := h.Likes.CountForTarget(ctx, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	detail := videoDetailResponse{
		videoResponse: toVideoResponse(video),
		Owner:         toUserResponse(owner.PublicProfile()),
		LikesCount:    likes,
	}

	respondData(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoID}. Owner only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, user, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(ctx, w, fault.InvalidArgument("title must not be empty"))
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.Thumbnail != nil {
		video.ThumbnailURL = *req.Thumbnail
	}

	video.UpdatedAt = h.now()
	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("video updated", "videoId", video.ID, "ownerId", user.ID)
	respondData(ctx, w, http.StatusOK, toVideoResponse(video), "video updated successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoID}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, _, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video.IsPublished = !video.IsPublished
	video.UpdatedAt = h.now()
	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toVideoResponse(video), "publish status toggled successfully")
}

// Delete handles DELETE /api/v1/videos/{videoID}. Removing a video also
// removes its likes, comments, comment likes, playlist memberships and watch
// history entries. Stored media is deleted best effort after the database
// cascade commits.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, user, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	ctx, span := logging.StartSpan(ctx, "video.delete")
	defer span.End()

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	if h.Media != nil {
		for _, url := range []string{video.VideoFileURL, video.ThumbnailURL} {
			if url == "" {
				continue
			}
			if err := h.Media.Delete(ctx, url); err != nil {
				logging.FromContext(ctx).Warn("delete media failed", "videoId", video.ID, "url", url, "error", err)
			}
		}
	}

	logging.FromContext(ctx).Info("video deleted", "videoId", video.ID, "ownerId", user.ID)
	respondData(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// ownedVideo loads the path video and verifies the caller owns it.
func (h VideoHandler) ownedVideo(r *http.Request) (models.Video, models.User, error) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return models.Video{}, models.User{}, fault.Unauthorized("authentication required")
	}

	videoID, err := pathUUID(r, "videoID")
	if err != nil {
		return models.Video{}, models.User{}, err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, models.User{}, err
	}
	if video.OwnerID != user.ID {
		return models.Video{}, models.User{}, fault.Forbidden("only the owner may modify this video")
	}
	return video, user, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// pathUUID reads a path parameter and validates it as a UUID.
func pathUUID(r *http.Request, name string) (string, error) {
	value := r.PathValue(name)
	if _, err := uuid.Parse(value); err != nil {
		return "", fault.InvalidArgument("invalid " + name)
	}
	return value, nil
}
