package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments repositories.CommentRepository
	Videos   repositories.VideoRepository
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListByVideo handles GET /api/v1/comments/video/{videoID}.
func (h CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathUUID(r, "videoID")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	page, limit := pagination(r)
	comments, err := h.Comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	respondData(ctx, w, http.StatusOK, out, "comments fetched successfully")
}

// Add handles POST /api/v1/comments/video/{videoID}.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	videoID, err := pathUUID(r, "videoID")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, fault.InvalidArgument("content is required"))
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, toCommentResponse(comment), "comment added successfully")
}

// Update handles PATCH /api/v1/comments/{commentID}. Owner only.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, fault.InvalidArgument("invalid request body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, fault.InvalidArgument("content is required"))
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = h.now()
	if err := h.Comments.Update(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toCommentResponse(comment), "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentID}. Owner only. Likes on
// the comment are removed with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

func (h CommentHandler) ownedComment(r *http.Request) (models.Comment, error) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return models.Comment{}, fault.Unauthorized("authentication required")
	}

	commentID, err := pathUUID(r, "commentID")
	if err != nil {
		return models.Comment{}, err
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if comment.OwnerID != user.ID {
		return models.Comment{}, fault.Forbidden("only the owner may modify this comment")
	}
	return comment, nil
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
