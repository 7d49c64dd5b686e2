package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
)

// SignUpRequest carries the registration form
type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Plan      string
}

// SignUpResult is the created user. Session is set only when the backend
// issues a token immediately (no email confirmation step).
type SignUpResult struct {
	User    model.User
	Session session.Session
}

type authResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
	ID          string     `json:"id"`
	Email       string     `json:"email"`
}

func (a authResponse) userID() string {
	if a.User.ID != "" {
		return a.User.ID
	}
	return a.ID
}

// SignUp creates an auth user with profile metadata
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) (SignUpResult, error) {
	body := map[string]any{
		"email":    in.Email,
		"password": in.Password,
		"data": map[string]string{
			"nombre":   in.FirstName,
			"apellido": in.LastName,
			"plan":     in.Plan,
			"role":     "estudiante",
		},
	}

	var resp authResponse
	if err := c.do(ctx, request{
		op:     "signup",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   body,
	}, &resp); err != nil {
		return SignUpResult{}, err
	}

	id := resp.userID()
	if id == "" {
		return SignUpResult{}, fmt.Errorf("signup: response carried no user id")
	}

	email := resp.User.Email
	if email == "" {
		email = in.Email
	}
	result := SignUpResult{User: model.User{ID: id, Email: email}}
	if resp.AccessToken != "" {
		result.Session, _ = session.New(resp.AccessToken, id)
	}
	return result, nil
}

// SignIn exchanges email and password for a session
func (c *Client) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	var resp authResponse
	if err := c.do(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body: map[string]string{
			"email":    email,
			"password": password,
		},
	}, &resp); err != nil {
		return session.Session{}, err
	}

	s, err := session.New(resp.AccessToken, resp.userID())
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}
	return s, nil
}

// CurrentUser returns the identity behind the session's credential
func (c *Client) CurrentUser(ctx context.Context, sess session.Session) (model.User, error) {
	if err := requireSession("current user", sess); err != nil {
		return model.User{}, err
	}

	var u model.User
	err := c.do(ctx, request{
		op:         "current user",
		method:     http.MethodGet,
		path:       "/auth/v1/user",
		credential: sess.Credential,
	}, &u)
	return u, err
}
