package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
)

// ProfileUpdate holds editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FirstName   string `json:"nombre,omitempty"`
	LastName    string `json:"apellido,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// CreateProfile inserts the profile row for a freshly registered user
func (c *Client) CreateProfile(ctx context.Context, sess session.Session, p model.Profile) error {
	if err := requireSession("create profile", sess); err != nil {
		return err
	}
	if p.Role == "" {
		p.Role = model.RoleStudent
	}
	return c.do(ctx, request{
		op:         "create profile",
		method:     http.MethodPost,
		path:       "/rest/v1/profiles",
		body:       p,
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// GetProfile fetches a profile by user id
func (c *Client) GetProfile(ctx context.Context, sess session.Session, userID string) (model.Profile, error) {
	if err := requireSession("get profile", sess); err != nil {
		return model.Profile{}, err
	}

	var rows []model.Profile
	if err := c.do(ctx, request{
		op:         "get profile",
		method:     http.MethodGet,
		path:       "/rest/v1/profiles",
		query:      url.Values{"select": {"*"}, "id": {eq(userID)}},
		credential: sess.Credential,
	}, &rows); err != nil {
		return model.Profile{}, err
	}
	if len(rows) == 0 {
		return model.Profile{}, fmt.Errorf("profile %w", ErrNotFound)
	}
	return rows[0], nil
}

// UpdateProfile patches the session user's profile
func (c *Client) UpdateProfile(ctx context.Context, sess session.Session, upd ProfileUpdate) error {
	if err := requireSession("update profile", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:         "update profile",
		method:     http.MethodPatch,
		path:       "/rest/v1/profiles",
		query:      url.Values{"id": {eq(sess.SubjectID)}},
		body:       upd,
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// UploadAvatar stores an image in the avatars bucket and returns its public URL
func (c *Client) UploadAvatar(ctx context.Context, sess session.Session, name, contentType string, data []byte) (string, error) {
	if err := requireSession("upload avatar", sess); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if data == nil {
		data = []byte{}
	}

	escaped := url.PathEscape(name)
	if err := c.do(ctx, request{
		op:          "upload avatar",
		method:      http.MethodPost,
		path:        "/storage/v1/object/avatars/" + escaped,
		rawBody:     data,
		contentType: contentType,
		credential:  sess.Credential,
		header:      map[string]string{"x-upsert": "true"},
	}, nil); err != nil {
		return "", err
	}

	return c.baseURL + "/storage/v1/object/public/avatars/" + escaped, nil
}

// UpdatePhoto stores a new avatar URL on the session user's profile
func (c *Client) UpdatePhoto(ctx context.Context, sess session.Session, photoURL string) error {
	if err := requireSession("update photo", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:         "update photo",
		method:     http.MethodPatch,
		path:       "/rest/v1/profiles",
		query:      url.Values{"id": {eq(sess.SubjectID)}},
		body:       map[string]string{"foto_url": photoURL},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}
