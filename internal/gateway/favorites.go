package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
)

// IsFavorite reports whether the session user bookmarked a course. Failures read as false.
func (c *Client) IsFavorite(ctx context.Context, sess session.Session, courseID string) bool {
	return c.exists(ctx, "is favorite", "favoritos", sess, courseID)
}

// AddFavorite bookmarks a course
func (c *Client) AddFavorite(ctx context.Context, sess session.Session, courseID string) error {
	if err := requireSession("add favorite", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:         "add favorite",
		method:     http.MethodPost,
		path:       "/rest/v1/favoritos",
		body:       model.Favorite{StudentID: sess.SubjectID, CourseID: courseID},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// RemoveFavorite drops a bookmark
func (c *Client) RemoveFavorite(ctx context.Context, sess session.Session, courseID string) error {
	if err := requireSession("remove favorite", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "remove favorite",
		method: http.MethodDelete,
		path:   "/rest/v1/favoritos",
		query: url.Values{
			"usuario_id": {eq(sess.SubjectID)},
			"curso_id":   {eq(courseID)},
		},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// Favorites lists the session user's bookmarked courses
func (c *Client) Favorites(ctx context.Context, sess session.Session) ([]model.Course, error) {
	return c.joined(ctx, "favorites", "favoritos", sess)
}
