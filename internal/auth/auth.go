// Package auth resolves the caller identity for a request. It is a thin
// capability check: an API key maps to a user and role, and the resolved
// identity is passed explicitly into service operations rather than
// stashed in request-scoped state.
package auth

import (
	"net/http"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

const APIKeyHeader = "X-API-Key"

type Authenticator struct {
	Users repository.UserRepositoryInterface
}

// FromRequest returns the caller behind the request's API key, or an
// UnauthorizedError when the key is missing or unknown.
func (a *Authenticator) FromRequest(r *http.Request) (*model.User, error) {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return nil, &apperrors.UnauthorizedError{Reason: "missing " + APIKeyHeader + " header"}
	}
	user, err := a.Users.GetByAPIKey(key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &apperrors.UnauthorizedError{Reason: "unknown API key"}
	}
	return user, nil
}
