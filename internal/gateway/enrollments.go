package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
)

// Enroll records that the session user paid price for a course.
// A rejection is returned as *HTTPError carrying the backend body.
func (c *Client) Enroll(ctx context.Context, sess session.Session, courseID string, price decimal.Decimal) error {
	if err := requireSession("enroll", sess); err != nil {
		return err
	}
	return c.do(ctx, request{
		op:     "enroll",
		method: http.MethodPost,
		path:   "/rest/v1/inscripciones",
		body: model.Enrollment{
			StudentID: sess.SubjectID,
			CourseID:  courseID,
			PricePaid: price,
		},
		credential: sess.Credential,
		minimal:    true,
	}, nil)
}

// IsEnrolled reports whether the session user is enrolled. Failures read as false.
func (c *Client) IsEnrolled(ctx context.Context, sess session.Session, courseID string) bool {
	return c.exists(ctx, "is enrolled", "inscripciones", sess, courseID)
}

// EnrolledCourses lists the session user's purchased courses
func (c *Client) EnrolledCourses(ctx context.Context, sess session.Session) ([]model.Course, error) {
	return c.joined(ctx, "enrolled courses", "inscripciones", sess)
}

// exists reports whether table has a row for the session user and course
func (c *Client) exists(ctx context.Context, op, table string, sess session.Session, courseID string) bool {
	if !sess.Valid() {
		return false
	}

	var rows []map[string]any
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/rest/v1/" + table,
		query: url.Values{
			"select":     {"id"},
			"usuario_id": {eq(sess.SubjectID)},
			"curso_id":   {eq(courseID)},
		},
		credential: sess.Credential,
	}, &rows)
	if err != nil {
		logger.Warn("Membership check failed, assuming absent",
			logger.F("op", op),
			logger.F("course", courseID),
			logger.F("error", err))
		return false
	}
	return len(rows) > 0
}
