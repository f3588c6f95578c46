package handlers

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/fault"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/storage"
)

// maxUploadBytes caps a single media upload at 512 MiB.
const maxUploadBytes = 512 << 20

// UploadHandler streams media files to the object store and returns the
// public URL clients then attach to videos or profiles.
type UploadHandler struct {
	Media storage.MediaHost
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /api/v1/uploads. Expects a multipart form with a
// single "file" field.
func (h UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, fault.Unauthorized("authentication required"))
		return
	}
	if h.Media == nil {
		respondError(ctx, w, fault.Internal("object storage is not configured", nil))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(ctx, w, fault.InvalidArgument("a file field is required"))
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if name == "" {
		respondError(ctx, w, fault.InvalidArgument("filename is required"))
		return
	}
	key := fmt.Sprintf("%s/%s-%s", user.ID, uuid.NewString(), name)

	ctx, span := logging.StartSpan(ctx, "media.upload")
	defer span.End()

	url, err := h.Media.Save(ctx, key, file)
	if err != nil {
		respondError(ctx, w, fault.Internal("store media file", err))
		return
	}

	logging.FromContext(ctx).Info("media uploaded", "userId", user.ID, "key", key, "size", header.Size)
	respondData(ctx, w, http.StatusCreated, uploadResponse{URL: url}, "file uploaded successfully")
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	return strings.Trim(name, "-.")
}
