package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/shared/auth"
	"notes-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	guestHeader  = "X-Guest-Id"
	guestPrefix  = "guest:"
)

var (
	errBadToken    = errors.New("missing or invalid token")
	errNoIdentity  = errors.New("Missing identity")
	errGuestTooBig = errors.New("guest id too long")
)

const maxGuestIDLen = 128

// identity is the caller resolved from a bearer token or the guest header.
type identity struct {
	userID string
	email  string
	guest  bool
}

// Auth resolves the caller and stores it on the context. Every note and
// recording is scoped to the resolved user id.
func Auth(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		id, err := resolveIdentity(c.Request)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
			return
		}

		c.Set(userIDKey, id.userID)
		if id.email != "" {
			c.Set(userEmailKey, id.email)
		}
		c.Set("isGuest", id.guest)
		c.Next()
	}
}

func resolveIdentity(r *http.Request) (identity, error) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return identity{}, errBadToken
		}
		claims, err := auth.VerifyJWT(token)
		if err != nil {
			return identity{}, errBadToken
		}
		return identity{userID: claims.Sub, email: claims.Email}, nil
	}

	guestID := strings.TrimSpace(r.Header.Get(guestHeader))
	switch {
	case guestID == "":
		return identity{}, errNoIdentity
	case len(guestID) > maxGuestIDLen:
		return identity{}, errGuestTooBig
	}
	return identity{userID: guestPrefix + guestID, guest: true}, nil
}

// UserIDFromContext returns the owner id set by Auth.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userIDKey)
}

// UserEmailFromContext returns the signed-in user's email, empty for guests.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(userEmailKey)
}

// Signed audio links and health probes carry no identity.
func isPublicPath(path string) bool {
	switch {
	case strings.HasPrefix(path, "/api/v1/auth/google/"),
		strings.HasPrefix(path, "/api/v1/audio/"),
		path == "/api/v1/health":
		return true
	}
	return false
}
