// Package account implements the user-facing flows around identity, profile, cards and library.
package account

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/edugo/internal/gateway"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/existflow/edugo/internal/validate"
)

// DefaultPlan is assigned at registration when none is chosen
const DefaultPlan = "Gratis"

// Gateway is the subset of remote calls account flows need
type Gateway interface {
	SignUp(ctx context.Context, in gateway.SignUpRequest) (gateway.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (session.Session, error)
	CurrentUser(ctx context.Context, sess session.Session) (model.User, error)
	CreateProfile(ctx context.Context, sess session.Session, p model.Profile) error
	GetProfile(ctx context.Context, sess session.Session, userID string) (model.Profile, error)
	UpdateProfile(ctx context.Context, sess session.Session, upd gateway.ProfileUpdate) error
	UploadAvatar(ctx context.Context, sess session.Session, name, contentType string, data []byte) (string, error)
	UpdatePhoto(ctx context.Context, sess session.Session, photoURL string) error
	ListCards(ctx context.Context, sess session.Session) ([]model.Card, error)
	AddCard(ctx context.Context, sess session.Session, card model.NewCard) error
	DeleteCard(ctx context.Context, sess session.Session, id string) error
	EnrolledCourses(ctx context.Context, sess session.Session) ([]model.Course, error)
	Favorites(ctx context.Context, sess session.Session) ([]model.Course, error)
}

// Service runs account flows against the gateway and the session store
type Service struct {
	gw    Gateway
	store *session.Store
	now   func() time.Time
}

// New creates an account service
func New(gw Gateway, store *session.Store) *Service {
	return &Service{gw: gw, store: store, now: time.Now}
}

// Registration is the sign-up form
type Registration struct {
	validate.RegistrationInput
	Plan string
}

// Register validates the form, creates the auth user and its profile, and
// logs the new user in.
func (s *Service) Register(ctx context.Context, in Registration) (model.Profile, error) {
	if err := validate.Registration(in.RegistrationInput); err != nil {
		return model.Profile{}, err
	}

	email := strings.TrimSpace(in.Email)
	plan := in.Plan
	if plan == "" {
		plan = DefaultPlan
	}

	res, err := s.gw.SignUp(ctx, gateway.SignUpRequest{
		Email:     email,
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Plan:      plan,
	})
	if err != nil {
		return model.Profile{}, err
	}

	sess := res.Session
	if !sess.Valid() {
		sess, err = s.gw.SignIn(ctx, email, in.Password)
		if err != nil {
			return model.Profile{}, fmt.Errorf("account created but login failed: %w", err)
		}
	}

	profile := model.Profile{
		ID:        res.User.ID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Plan:      plan,
		Role:      model.RoleStudent,
	}
	if err := s.gw.CreateProfile(ctx, sess, profile); err != nil {
		return model.Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.store.Login(ctx, sess); err != nil {
		return model.Profile{}, err
	}

	logger.Info("Registered new user", logger.F("subject", sess.SubjectID))
	return profile, nil
}

// Login signs in and starts the session
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	sess, err := s.gw.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return session.Session{}, err
	}
	if err := s.store.Login(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// Logout ends the session
func (s *Service) Logout(ctx context.Context) error {
	return s.store.Logout(ctx)
}

// WhoAmI checks the stored credential against the backend and returns the
// identity it belongs to
func (s *Service) WhoAmI(ctx context.Context) (model.User, error) {
	sess, err := s.store.Require()
	if err != nil {
		return model.User{}, err
	}
	u, err := s.gw.CurrentUser(ctx, sess)
	if err != nil {
		return model.User{}, err
	}
	if u.ID != sess.SubjectID {
		logger.Warn("Stored session does not match its credential",
			logger.F("stored", sess.SubjectID),
			logger.F("token", u.ID))
		return model.User{}, fmt.Errorf("credential belongs to %s, not the stored user %s", u.ID, sess.SubjectID)
	}
	return u, nil
}

// Profile returns the session user's profile
func (s *Service) Profile(ctx context.Context) (model.Profile, error) {
	sess, err := s.store.Require()
	if err != nil {
		return model.Profile{}, err
	}
	return s.gw.GetProfile(ctx, sess, sess.SubjectID)
}

// UpdateProfile edits names and description
func (s *Service) UpdateProfile(ctx context.Context, upd gateway.ProfileUpdate) error {
	sess, err := s.store.Require()
	if err != nil {
		return err
	}
	upd.FirstName = strings.TrimSpace(upd.FirstName)
	upd.LastName = strings.TrimSpace(upd.LastName)
	return s.gw.UpdateProfile(ctx, sess, upd)
}

// SetAvatar uploads an image file and stores its public URL on the profile
func (s *Service) SetAvatar(ctx context.Context, path string) (string, error) {
	sess, err := s.store.Require()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s_%d%s", sess.SubjectID, s.now().Unix(), ext)

	publicURL, err := s.gw.UploadAvatar(ctx, sess, name, "", data)
	if err != nil {
		return "", err
	}
	if err := s.gw.UpdatePhoto(ctx, sess, publicURL); err != nil {
		return "", err
	}
	return publicURL, nil
}

// Cards lists the session user's simulated cards
func (s *Service) Cards(ctx context.Context) ([]model.Card, error) {
	sess, err := s.store.Require()
	if err != nil {
		return nil, err
	}
	return s.gw.ListCards(ctx, sess)
}

// AddCard validates the form and stores a card with the default simulated balance
func (s *Service) AddCard(ctx context.Context, in validate.CardInput) error {
	sess, err := s.store.Require()
	if err != nil {
		return err
	}
	if err := validate.Card(in, s.now()); err != nil {
		return err
	}

	number := validate.NormalizeCardNumber(in.Number)
	return s.gw.AddCard(ctx, sess, model.NewCard{
		OwnerID: sess.SubjectID,
		Number:  number,
		Holder:  strings.TrimSpace(in.Holder),
		Expiry:  strings.TrimSpace(in.Expiry),
		CVV:     strings.TrimSpace(in.CVV),
		Brand:   model.GuessBrand(number),
		Balance: model.DefaultSimulatedBalance,
	})
}

// DeleteCard removes a card
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	sess, err := s.store.Require()
	if err != nil {
		return err
	}
	return s.gw.DeleteCard(ctx, sess, id)
}

// MyCourses lists purchased courses
func (s *Service) MyCourses(ctx context.Context) ([]model.Course, error) {
	sess, err := s.store.Require()
	if err != nil {
		return nil, err
	}
	return s.gw.EnrolledCourses(ctx, sess)
}

// Favorites lists bookmarked courses
func (s *Service) Favorites(ctx context.Context) ([]model.Course, error) {
	sess, err := s.store.Require()
	if err != nil {
		return nil, err
	}
	return s.gw.Favorites(ctx, sess)
}
