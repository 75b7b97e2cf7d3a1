package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/identity"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

type actorProfileKey struct{}

// contextWithProfile stashes the per-request actor profile snapshot. The
// snapshot is resolved once per request; later mutations in the same request
// do not refresh it, matching the resolve-then-query contract.
func contextWithProfile(ctx context.Context, p access.ActorProfile) context.Context {
	return context.WithValue(ctx, actorProfileKey{}, p)
}

func profileFromContext(ctx context.Context) (access.ActorProfile, bool) {
	p, ok := ctx.Value(actorProfileKey{}).(access.ActorProfile)
	return p, ok
}

// withAuth verifies the identity provider's bearer token, ensures a profile
// exists for the actor (first login creates a default plain-user profile) and
// attaches both identity and profile to the request context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := identity.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		profile, err := a.profiles.EnsureProfile(r.Context(), claims.Subject, claims.Email)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "profile lookup failed")
			return
		}

		ctx := identity.ContextWithActor(r.Context(), claims.Subject, claims.Email)
		ctx = contextWithProfile(ctx, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentProfile returns the authenticated actor's profile or replies 401.
func currentProfile(w http.ResponseWriter, r *http.Request) (access.ActorProfile, bool) {
	p, ok := profileFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return access.ActorProfile{}, false
	}
	return p, true
}

// requireAdmin replies 403 unless the caller's stored role is admin. Role
// checks always go through the stored profile, never through token claims.
func requireAdmin(w http.ResponseWriter, r *http.Request) (access.ActorProfile, bool) {
	p, ok := currentProfile(w, r)
	if !ok {
		return access.ActorProfile{}, false
	}
	if p.Role != access.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return access.ActorProfile{}, false
	}
	return p, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
