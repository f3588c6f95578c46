package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/repositories"
)

// SubscriptionHandler implements the subscriber graph endpoints.
type SubscriptionHandler struct {
	Toggler RelationshipToggler
	Subs    repositories.SubscriptionRepository
}

// Toggle handles POST /api/v1/subscriptions/toggle/{channelID}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	active, err := h.Toggler.ToggleSubscription(ctx, user.ID, r.PathValue("channelID"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "unsubscribed successfully"
	if active {
		message = "subscribed successfully"
	}
	respondData(ctx, w, http.StatusOK, toggleResponse{IsActive: active}, message)
}

// Subscribers handles GET /api/v1/subscriptions/channel/{channelID}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathUUID(r, "channelID")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	users, err := h.Subs.ListSubscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toUserResponses(users), "subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/me.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}

	channels, err := h.Subs.ListSubscribedChannels(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, toUserResponses(channels), "subscribed channels fetched successfully")
}
