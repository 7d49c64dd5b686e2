package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud"`
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    string         `json:"created_at"`
}

type authResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	ExpiresAt   int64    `json:"expires_at"`
	User        authUser `json:"user"`
}

func toAuthUser(u User) authUser {
	meta := u.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return authUser{
		ID:           u.ID,
		Aud:          "authenticated",
		Role:         "authenticated",
		Email:        u.Email,
		UserMetadata: meta,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func authError(code int, errorCode, msg string) map[string]any {
	return map[string]any{"code": code, "error_code": errorCode, "msg": msg}
}

// handleSignUp creates a user and returns a session
func (s *Server) handleSignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, authError(http.StatusBadRequest, "bad_json", "invalid request"))
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, authError(http.StatusBadRequest, "validation_failed", "Unable to validate email address: invalid format"))
	}
	if len(req.Password) < minPasswordLength {
		return c.JSON(http.StatusUnprocessableEntity, authError(http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters."))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.Logger().Error("bcrypt error:", err)
		return c.JSON(http.StatusInternalServerError, authError(http.StatusInternalServerError, "unexpected_failure", "internal error"))
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Metadata:     req.Data,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(c.Request().Context(), u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return c.JSON(http.StatusUnprocessableEntity, authError(http.StatusUnprocessableEntity, "user_already_exists", "User already registered"))
		}
		c.Logger().Error("store error:", err)
		return c.JSON(http.StatusInternalServerError, authError(http.StatusInternalServerError, "unexpected_failure", "internal error"))
	}

	c.Logger().Infof("User registered: %s", u.Email)
	return s.respondWithSession(c, u)
}

// handleToken implements the password grant
func (s *Server) handleToken(c echo.Context) error {
	if grant := c.QueryParam("grant_type"); grant != "password" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":             "unsupported_grant_type",
			"error_description": "unsupported grant type: " + grant,
		})
	}

	var req passwordGrantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_request", "error_description": "invalid request"})
	}

	invalid := map[string]string{"error": "invalid_grant", "error_description": "Invalid login credentials"}

	u, err := s.store.UserByEmail(c.Request().Context(), strings.TrimSpace(req.Email))
	if err != nil {
		return c.JSON(http.StatusBadRequest, invalid)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusBadRequest, invalid)
	}

	c.Logger().Infof("User logged in: %s", u.Email)
	return s.respondWithSession(c, u)
}

// handleUser returns the caller's identity
func (s *Server) handleUser(c echo.Context) error {
	u, err := s.store.UserByID(c.Request().Context(), callerID(c))
	if err != nil {
		return c.JSON(http.StatusNotFound, authError(http.StatusNotFound, "user_not_found", "User not found"))
	}
	return c.JSON(http.StatusOK, toAuthUser(u))
}

func (s *Server) respondWithSession(c echo.Context, u User) error {
	token, expiresAt, err := s.issueToken(u)
	if err != nil {
		c.Logger().Error("token error:", err)
		return c.JSON(http.StatusInternalServerError, authError(http.StatusInternalServerError, "unexpected_failure", "internal error"))
	}

	return c.JSON(http.StatusOK, authResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.config.TokenTTL.Seconds()),
		ExpiresAt:   expiresAt.Unix(),
		User:        toAuthUser(u),
	})
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// issueToken signs an HS256 access token with sub = user id
func (s *Server) issueToken(u User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.config.TokenTTL)

	claims := accessClaims{
		Email: u.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.JWTSecret)
	return signed, expiresAt, err
}

// parseToken validates an access token and returns its subject
func (s *Server) parseToken(token string) (string, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.config.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
