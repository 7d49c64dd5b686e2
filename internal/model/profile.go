package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Roles
const (
	RoleStudent = "Estudiante"
)

// Profile is a user's public profile row
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"nombre"`
	LastName    string `json:"apellido"`
	Plan        string `json:"plan"`
	Role        string `json:"role"`
	PhotoURL    string `json:"foto_url,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// FullName joins first and last name
func (p Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// User is the identity returned by the auth endpoints
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Enrollment records that a student paid for a course
type Enrollment struct {
	StudentID string          `json:"usuario_id"`
	CourseID  string          `json:"curso_id"`
	PricePaid decimal.Decimal `json:"precio_pagado"`
}

// Favorite records that a student bookmarked a course
type Favorite struct {
	StudentID string `json:"usuario_id"`
	CourseID  string `json:"curso_id"`
}
