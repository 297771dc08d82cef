package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// Search pagination bounds. An out-of-range per_page falls back to the
// default rather than clamping.
const (
	searchMinQueryLen  = 2
	searchDefaultLimit = 10
	searchMaxLimit     = 50
)

// UserHandler handles user search and public key lookups.
type UserHandler struct {
	store store.Store
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(st store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// PublicKeyResponse is the per-user payload of search results and the
// public key endpoint: exactly what a client needs to wrap a room key for
// that user.
type PublicKeyResponse struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

// Pagination is the paging metadata attached to search results.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// SearchResponse is the response body for GET /api/users/search.
type SearchResponse struct {
	Users      []PublicKeyResponse `json:"users"`
	Pagination Pagination          `json:"pagination"`
}

// Search handles GET /api/users/search.
//
// Matches usernames case-insensitively on a substring; the query must be
// at least two characters long. page defaults to 1, per_page to 10
// (max 50).
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		BadRequest(w, "Query parameter is required")
		return
	}
	if len(query) < searchMinQueryLen {
		BadRequest(w, "Query must be at least 2 characters long")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", searchDefaultLimit)
	if perPage < 1 || perPage > searchMaxLimit {
		perPage = searchDefaultLimit
	}

	users, total, err := h.store.SearchUsers(r.Context(), query, 0, page, perPage)
	if err != nil {
		InternalServerError(w, "Failed to search users")
		return
	}

	results := make([]PublicKeyResponse, len(users))
	for i, u := range users {
		results[i] = PublicKeyResponse{
			UserID:    u.ID,
			Username:  u.Username,
			PublicKey: u.PublicKey,
		}
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))

	WriteJSONOK(w, SearchResponse{
		Users: results,
		Pagination: Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalCount: total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// PublicKey handles GET /api/users/{user}/public-key.
//
// The path segment is a numeric user id or, failing to parse as one, a
// username.
func (h *UserHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	param := chi.URLParam(r, "user")

	var (
		user *models.User
		err  error
	)
	if id, convErr := strconv.ParseUint(param, 10, 32); convErr == nil {
		user, err = h.store.GetUserByID(r.Context(), uint(id))
	} else {
		user, err = h.store.GetUser(r.Context(), param)
	}
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			NotFound(w, "User not found")
			return
		}
		InternalServerError(w, "Failed to load user")
		return
	}

	WriteJSONOK(w, PublicKeyResponse{
		UserID:    user.ID,
		Username:  user.Username,
		PublicKey: user.PublicKey,
	})
}

// queryInt parses an integer query parameter, returning def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
