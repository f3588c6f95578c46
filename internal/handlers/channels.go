package handlers

import (
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
)

// ChannelHandler serves the public channel profile and the owner dashboard.
type ChannelHandler struct {
	Reports StatsReporter
}

// Profile handles GET /api/v1/channels/{username}. Works for anonymous
// callers; when a viewer is signed in the response says whether they are
// subscribed to the channel.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, fault.InvalidArgument("username is required"))
		return
	}

	viewerID := ""
	if viewer, ok := auth.IdentityFromContext(ctx); ok {
		viewerID = viewer.ID
	}

	profile, err := h.Reports.Profile(ctx, username, viewerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toProfileResponse(profile), "channel profile fetched successfully")
}

// Stats handles GET /api/v1/dashboard/stats.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	stats, err := h.Reports.Stats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toStatsResponse(stats), "channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos. Returns every video the
// caller owns, published or not.
func (h ChannelHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	videos, err := h.Reports.ChannelVideos(ctx, user.ID, videoSort(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toVideoResponses(videos), "channel videos fetched successfully")
}
