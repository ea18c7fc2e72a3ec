package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

type userContextKey struct{}

// userFrom returns the authenticated user stored by authenticated.
func userFrom(ctx context.Context) core.User {
	u, _ := ctx.Value(userContextKey{}).(core.User)
	return u
}

// authenticated resolves the bearer token to a user before calling next.
// Resolved tokens are cached under their SHA-256 digest.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			UnauthorizedError("authentication required").Write(w)
			return
		}

		sum := sha256.Sum256([]byte(token))
		key := hex.EncodeToString(sum[:])

		user, ok := s.authCache.Get(key)
		if !ok {
			var err error
			user, err = s.repo.GetUserByToken(r.Context(), token)
			if core.KindOf(err) == core.KindNotFound {
				applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Warn("Rejected unknown API token",
					applog.FieldPath, r.URL.Path)
				UnauthorizedError("invalid token").Write(w)
				return
			}
			if err != nil {
				s.fail(w, r, err)
				return
			}
			s.authCache.Set(key, user)
		}

		logger := applog.FromContext(r.Context()).With(applog.FieldUserID, user.ID)
		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		ctx = applog.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenResponse struct {
	APIToken string `json:"api_token"`
}

// handleRotateToken issues a new token for the caller. The old token stops
// working on this server at once; other replicas drop it when their auth
// cache entry expires.
func (s *Server) handleRotateToken(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	token := uuid.NewString()
	if err := s.repo.UpdateUserToken(r.Context(), user.ID, token); err != nil {
		s.fail(w, r, err)
		return
	}
	evicted := s.forgetUser(user.ID)
	applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).Info("Rotated API token",
		applog.FieldOperation, applog.OpUpdate,
		"evicted", evicted)
	NewJSONResponse().Body(tokenResponse{APIToken: token}).Write(w)
}

// forgetUser drops cached tokens of userID.
func (s *Server) forgetUser(userID int64) int {
	return s.authCache.DeleteFunc(func(u core.User) bool { return u.ID == userID })
}
