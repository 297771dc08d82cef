package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kyberchat/kyberchat/pkg/api/middleware"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// decodeJSONBody decodes the request body into v, answering 400 on malformed
// input. A false return means the response has already been written.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		BadRequest(w, "Invalid request body")
	}
	return err == nil
}

// requireUser resolves the authenticated account behind the request. Token
// validity was already checked by JWTAuth; this catches accounts deleted
// after the token was minted. On a false return the response has been
// written: 401 for missing claims or a vanished account, 500 for store
// errors.
func requireUser(w http.ResponseWriter, r *http.Request, st store.Store) (*models.User, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return nil, false
	}

	user, err := st.GetUserByID(r.Context(), claims.UserID)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		Unauthorized(w, "User no longer exists")
	case err != nil:
		InternalServerError(w, "Failed to load user")
	default:
		return user, true
	}
	return nil, false
}
