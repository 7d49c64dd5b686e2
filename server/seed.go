package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Demo accounts created by Seed
const (
	DemoStudentEmail    = "student@edugo.dev"
	DemoInstructorEmail = "instructor@edugo.dev"
	DemoPassword        = "password123"
)

type seedCourse struct {
	title, category, price, description string
	sections                            []seedSection
}

type seedSection struct {
	name  string
	tasks []seedTask
}

type seedTask struct {
	title, instructions string
	resources           []Row
}

var seedCourses = []seedCourse{
	{
		title: "Intro to Go", category: "Tecnología", price: "10",
		description: "Types, functions and goroutines from scratch.",
		sections: []seedSection{
			{name: "Getting started", tasks: []seedTask{
				{title: "Installing the toolchain", instructions: "Install Go and run hello world.", resources: []Row{
					{"nombre_archivo": "Welcome", "tipo": "video", "url": "https://drive.google.com/file/d/1intro-go-welcome/view"},
					{"nombre_archivo": "Cheatsheet.pdf", "tipo": "pdf", "archivo_url": "https://example.com/go-cheatsheet.pdf"},
				}},
				{title: "Variables and types", instructions: "Read the chapter and solve the exercises.", resources: []Row{
					{"nombre_archivo": "Tour of Go", "tipo": "link", "url": "https://go.dev/tour"},
				}},
			}},
			{name: "Concurrency", tasks: []seedTask{
				{title: "Goroutines and channels", resources: []Row{
					{"nombre_archivo": "Channels", "tipo": "Video", "url": "https://www.dropbox.com/s/demo/channels.mp4?dl=0"},
				}},
			}},
		},
	},
	{
		title: "Oil Painting", category: "Artes y diseño", price: "25.50",
		description: "Color mixing and brush technique.",
		sections: []seedSection{
			{name: "Materials", tasks: []seedTask{
				{title: "Choosing brushes", resources: []Row{
					{"nombre_archivo": "Brushes", "tipo": "video", "url": "https://example.com/brushes.mp4"},
				}},
			}},
		},
	},
	{
		title: "Personal Finance", category: "Negocios", price: "600",
		description: "Budgeting, saving and investing basics.",
	},
}

// Seed loads demo users, courses and a card. It fails if the demo users already exist.
func (s *Server) Seed(ctx context.Context) error {
	instructorID, err := s.seedUser(ctx, DemoInstructorEmail, "Laura", "Méndez", "Instructor")
	if err != nil {
		return err
	}
	studentID, err := s.seedUser(ctx, DemoStudentEmail, "Diego", "Torres", "Estudiante")
	if err != nil {
		return err
	}

	for _, sc := range seedCourses {
		courseID := uuid.NewString()
		if err := s.store.Put(ctx, "cursos", Row{
			"id":           courseID,
			"nombre_curso": sc.title,
			"descripcion":  sc.description,
			"categoria":    sc.category,
			"precio":       json.Number(sc.price),
			"usuario_id":   instructorID,
			"created_at":   s.now(),
		}); err != nil {
			return fmt.Errorf("failed to seed course %q: %w", sc.title, err)
		}

		for _, sec := range sc.sections {
			sectionID := uuid.NewString()
			if err := s.store.Put(ctx, "secciones", Row{
				"id":             sectionID,
				"curso_id":       courseID,
				"nombre_seccion": sec.name,
				"created_at":     s.now(),
			}); err != nil {
				return err
			}

			for _, t := range sec.tasks {
				taskID := uuid.NewString()
				if err := s.store.Put(ctx, "tareas", Row{
					"id":            taskID,
					"seccion_id":    sectionID,
					"titulo":        t.title,
					"instrucciones": t.instructions,
					"created_at":    s.now(),
				}); err != nil {
					return err
				}

				for _, res := range t.resources {
					r := res.Clone()
					r["id"] = uuid.NewString()
					r["tarea_id"] = taskID
					r["created_at"] = s.now()
					if err := s.store.Put(ctx, "recursos", r); err != nil {
						return err
					}
				}
			}
		}
	}

	return s.store.Put(ctx, "tarjetas_simuladas", Row{
		"id":                uuid.NewString(),
		"usuario_id":        studentID,
		"numero_tarjeta":    "4111111111111111",
		"titular":           "Diego Torres",
		"fecha_vencimiento": time.Now().AddDate(2, 0, 0).Format("01/06"),
		"cvv":               "123",
		"tipo":              "Visa",
		"saldo_simulado":    json.Number("500"),
		"created_at":        s.now(),
	})
}

func (s *Server) seedUser(ctx context.Context, email, first, last, role string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return "", err
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Metadata:     map[string]any{"nombre": first, "apellido": last, "role": role},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return "", fmt.Errorf("seed data already present: %w", err)
		}
		return "", err
	}

	return u.ID, s.store.Put(ctx, "profiles", Row{
		"id":          u.ID,
		"email":       email,
		"nombre":      first,
		"apellido":    last,
		"plan":        "Premium",
		"role":        role,
		"descripcion": fmt.Sprintf("%s %s on EduGo", first, last),
		"created_at":  s.now(),
	})
}
