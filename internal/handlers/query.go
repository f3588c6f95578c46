package handlers

import (
	"net/http"
	"strconv"

	"github.com/videotube/backend/internal/repositories"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

func pagination(r *http.Request) (page, limit int) {
	page = queryInt(r, "page", 1)
	limit = queryInt(r, "limit", defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func videoSort(r *http.Request) repositories.VideoSort {
	sort := repositories.VideoSort{
		Field:     r.URL.Query().Get("sortBy"),
		Ascending: r.URL.Query().Get("sortType") == "asc",
	}
	if sort.Field == "" {
		sort.Field = "created_at"
	}
	return sort
}
