package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
)

// successEnvelope is the shared shape of every successful response.
type successEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// errorEnvelope is the shared shape of every failed response.
type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	respondJSON(ctx, w, status, successEnvelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError translates a fault kind into the error envelope. Handlers never
// pick status codes themselves.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	status := fault.HTTPStatus(kind)

	logger := logging.FromContext(ctx)
	if kind == fault.KindInternal {
		logger.Error("request failed", "error", err)
	} else {
		logger.Warn("request returned client error", "status", status, "error", err)
	}

	respondJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Message:    fault.Message(err),
		Success:    false,
		Errors:     []string{},
	})
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
