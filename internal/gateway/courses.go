package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
)

const (
	selectCourseList   = "*,profiles(nombre,apellido,foto_url)"
	selectCourseDetail = "*,profiles(nombre,apellido,foto_url,descripcion),secciones(id,nombre_seccion,tareas(id,titulo,instrucciones,recursos(*)))"
	selectJoinedCourse = "cursos(*,profiles(nombre,apellido,foto_url))"
)

// ListCourses returns every course newest first with author summaries
func (c *Client) ListCourses(ctx context.Context, sess session.Session) ([]model.Course, error) {
	if err := requireSession("list courses", sess); err != nil {
		return nil, err
	}

	var courses []model.Course
	if err := c.do(ctx, request{
		op:         "list courses",
		method:     http.MethodGet,
		path:       "/rest/v1/cursos",
		query:      url.Values{"select": {selectCourseList}, "order": {"created_at.desc"}},
		credential: sess.Credential,
	}, &courses); err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// GetCourse returns a course with its full section/task/resource tree
func (c *Client) GetCourse(ctx context.Context, sess session.Session, id string) (model.Course, error) {
	if err := requireSession("get course", sess); err != nil {
		return model.Course{}, err
	}

	var rows []model.Course
	if err := c.do(ctx, request{
		op:         "get course",
		method:     http.MethodGet,
		path:       "/rest/v1/cursos",
		query:      url.Values{"select": {selectCourseDetail}, "id": {eq(id)}},
		credential: sess.Credential,
	}, &rows); err != nil {
		return model.Course{}, err
	}
	if len(rows) == 0 {
		return model.Course{}, fmt.Errorf("course %w", ErrNotFound)
	}
	return rows[0], nil
}

type joinedCourse struct {
	Course *model.Course `json:"cursos"`
}

// joined fetches table rows for the session user and unwraps their embedded course.
// Rows whose course is gone are dropped.
func (c *Client) joined(ctx context.Context, op, table string, sess session.Session) ([]model.Course, error) {
	if err := requireSession(op, sess); err != nil {
		return nil, err
	}

	var rows []joinedCourse
	if err := c.do(ctx, request{
		op:         op,
		method:     http.MethodGet,
		path:       "/rest/v1/" + table,
		query:      url.Values{"select": {selectJoinedCourse}, "usuario_id": {eq(sess.SubjectID)}},
		credential: sess.Credential,
	}, &rows); err != nil {
		return nil, err
	}

	courses := make([]model.Course, 0, len(rows))
	for _, r := range rows {
		if r.Course != nil {
			courses = append(courses, *r.Course)
		}
	}
	return courses, nil
}
