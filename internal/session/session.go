// Package session holds the authenticated identity used by every remote call.
package session

import (
	"errors"
	"strings"
)

// ErrIncomplete is returned when a session would be missing its credential or subject
var ErrIncomplete = errors.New("session requires both credential and subject id")

// ErrNoSession is returned by operations that need an authenticated user
var ErrNoSession = errors.New("not logged in")

// Session is an immutable credential/subject pair
type Session struct {
	Credential string
	SubjectID  string
}

// New builds a session, refusing blank values. Non-blank values are kept
// exactly as the backend issued them.
func New(credential, subjectID string) (Session, error) {
	if strings.TrimSpace(credential) == "" || strings.TrimSpace(subjectID) == "" {
		return Session{}, ErrIncomplete
	}
	return Session{Credential: credential, SubjectID: subjectID}, nil
}

// Valid reports whether both values are present
func (s Session) Valid() bool {
	return s.Credential != "" && s.SubjectID != ""
}
