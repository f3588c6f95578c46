package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// LikeHandler implements the like toggle endpoints. The toggle itself is
// delegated to the relationship toggler so the handler stays a thin shell.
type LikeHandler struct {
	Toggler RelationshipToggler
	Likes   repositories.LikeRepository
}

// ToggleVideo handles POST /api/v1/likes/toggle/video/{videoID}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindVideo, "videoID")
}

// ToggleComment handles POST /api/v1/likes/toggle/comment/{commentID}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindComment, "commentID")
}

// ToggleTweet handles POST /api/v1/likes/toggle/tweet/{tweetID}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeKindTweet, "tweetID")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, param string) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	targetID := r.PathValue(param)
	active, err := h.Toggler.ToggleLike(ctx, user.ID, models.LikeTarget{Kind: kind, ID: targetID})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "like removed successfully"
	if active {
		message = "liked successfully"
	}
	respondData(ctx, w, http.StatusOK, toggleResponse{IsActive: active}, message)
}

// LikedVideos handles GET /api/v1/likes/videos. Results are ordered by when
// the caller liked them, newest first.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	videos, err := h.Likes.ListLikedVideos(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toVideoResponses(videos), "liked videos fetched successfully")
}
