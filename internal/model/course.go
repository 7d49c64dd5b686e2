package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the category selector value that disables category filtering
const AllCategories = "Todos"

// ProfileSummary is the author data embedded in a course
type ProfileSummary struct {
	FirstName   string `json:"nombre"`
	LastName    string `json:"apellido"`
	PhotoURL    string `json:"foto_url,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// FullName joins first and last name, falling back to "Unknown"
func (p ProfileSummary) FullName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return "Unknown"
	}
	return name
}

// Course is an immutable snapshot of a backend course row and its nested graph
type Course struct {
	ID          string          `json:"id"`
	Title       string          `json:"nombre_curso"`
	Description string          `json:"descripcion,omitempty"`
	Category    string          `json:"categoria"`
	Price       decimal.Decimal `json:"precio"`
	OwnerID     string          `json:"usuario_id"`
	BannerURL   string          `json:"banner_url,omitempty"`
	Author      *ProfileSummary `json:"profiles,omitempty"`
	Sections    []Section       `json:"secciones"`
}

// UnmarshalJSON decodes a course and guarantees non-nil nested lists
func (c *Course) UnmarshalJSON(data []byte) error {
	type raw Course
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Sections == nil {
		r.Sections = []Section{}
	}
	*c = Course(r)
	return nil
}

// AuthorName returns the author's display name
func (c Course) AuthorName() string {
	if c.Author == nil {
		return "Unknown"
	}
	return c.Author.FullName()
}

// FirstTask returns the first task of the first section that has one
func (c Course) FirstTask() (Task, bool) {
	for _, s := range c.Sections {
		if len(s.Tasks) > 0 {
			return s.Tasks[0], true
		}
	}
	return Task{}, false
}

// FindTask looks a task up by id across all sections
func (c Course) FindTask(id string) (Task, bool) {
	for _, s := range c.Sections {
		for _, t := range s.Tasks {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Task{}, false
}

// Section groups tasks inside a course
type Section struct {
	ID    string `json:"id"`
	Name  string `json:"nombre_seccion"`
	Tasks []Task `json:"tareas"`
}

// UnmarshalJSON decodes a section and guarantees a non-nil task list
func (s *Section) UnmarshalJSON(data []byte) error {
	type raw Section
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	*s = Section(r)
	return nil
}

// Task is a single lesson
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"titulo"`
	Instructions string     `json:"instrucciones,omitempty"`
	Resources    []Resource `json:"recursos"`
}

// UnmarshalJSON decodes a task and guarantees a non-nil resource list
func (t *Task) UnmarshalJSON(data []byte) error {
	type raw Task
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	if r.Resources == nil {
		r.Resources = []Resource{}
	}
	*t = Task(r)
	return nil
}

// Video returns the task's first video resource
func (t Task) Video() (Resource, bool) {
	for _, r := range t.Resources {
		if r.Kind == KindVideo {
			return r, true
		}
	}
	return Resource{}, false
}
