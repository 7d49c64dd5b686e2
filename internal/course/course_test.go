package course

import (
	"context"
	"errors"
	"testing"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess = session.Session{Credential: "T", SubjectID: "U"}

type fakeGateway struct {
	course   model.Course
	err      error
	enrolled bool
	favorite bool
}

func (f fakeGateway) GetCourse(context.Context, session.Session, string) (model.Course, error) {
	return f.course, f.err
}

func (f fakeGateway) IsEnrolled(context.Context, session.Session, string) bool { return f.enrolled }

func (f fakeGateway) IsFavorite(context.Context, session.Session, string) bool { return f.favorite }

func sampleCourse() model.Course {
	return model.Course{
		ID:    "c1",
		Title: "Intro to Go",
		Sections: []model.Section{
			{ID: "s0", Tasks: []model.Task{}},
			{ID: "s1", Tasks: []model.Task{
				{ID: "t1", Title: "Welcome", Resources: []model.Resource{
					{ID: "r1", Kind: model.KindVideo, URL: "https://drive.google.com/file/d/vid1/view"},
					{ID: "r2", Kind: model.KindDocument, FileURL: "https://files/x.pdf"},
					{ID: "r3", Kind: model.KindLink},
				}},
				{ID: "t2", Title: "Reading", Resources: []model.Resource{
					{ID: "r4", Kind: model.KindDocument, URL: "https://files/y.pdf"},
				}},
			}},
		},
	}
}

func TestLoadDetail(t *testing.T) {
	d, err := LoadDetail(context.Background(), fakeGateway{course: sampleCourse(), favorite: true}, sess, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", d.Course.ID)
	assert.False(t, d.Enrolled)
	assert.True(t, d.Favorite)

	boom := errors.New("boom")
	_, err = LoadDetail(context.Background(), fakeGateway{err: boom}, sess, "c1")
	assert.ErrorIs(t, err, boom)
}

func TestOpenPlayerRequiresEnrollment(t *testing.T) {
	_, err := OpenPlayer(context.Background(), fakeGateway{course: sampleCourse()}, sess, "c1")
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestPlayerSelectsFirstTaskAndVideo(t *testing.T) {
	p, err := OpenPlayer(context.Background(), fakeGateway{course: sampleCourse(), enrolled: true}, sess, "c1")
	require.NoError(t, err)

	task, ok := p.Selected()
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)

	u, ok := p.VideoURL()
	require.True(t, ok)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=vid1", u)

	att := p.Attachments()
	require.Len(t, att, 1)
	assert.Equal(t, "r2", att[0].ID)

	require.NoError(t, p.Select("t2"))
	_, ok = p.VideoURL()
	assert.False(t, ok)
	assert.ErrorIs(t, p.Select("nope"), ErrUnknownTask)
}

func TestPlayerWithoutTasks(t *testing.T) {
	p := NewPlayer(model.Course{ID: "c1", Sections: []model.Section{}})
	_, ok := p.Selected()
	assert.False(t, ok)
	_, ok = p.VideoURL()
	assert.False(t, ok)
	assert.Nil(t, p.Attachments())
}
