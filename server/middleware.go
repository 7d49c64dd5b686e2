package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const ctxUserID = "user_id"

// apiKeyMiddleware rejects requests without the service key
func (s *Server) apiKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get("apikey")
		if key == "" {
			key = c.QueryParam("apikey")
		}
		if !keyMatches(key, s.config.APIKey) {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"message": "Invalid API key",
				"hint":    "Double check your Supabase `anon` or `service_role` API key.",
			})
		}
		return next(c)
	}
}

// keyMatches compares a presented key with the service key in constant time
func keyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// identityMiddleware resolves the bearer credential. The service key itself
// means anonymous; anything else must be a valid access token.
func (s *Server) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return next(c)
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid authorization format"})
		}
		if keyMatches(token, s.config.APIKey) {
			return next(c)
		}

		userID, err := s.parseToken(token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, pgError("PGRST301", "JWT invalid: "+err.Error()))
		}

		c.Set(ctxUserID, userID)
		return next(c)
	}
}

// requireUser rejects anonymous callers
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if callerID(c) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "authentication required"})
		}
		return next(c)
	}
}

// callerID returns the authenticated user id, or "" for anonymous
func callerID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}
