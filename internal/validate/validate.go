// Package validate checks user-entered forms before they reach the backend.
package validate

import (
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// Errors maps form fields to a message. It is an error when non-empty.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when empty
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// CardInput is the add-card form
type CardInput struct {
	Number string
	Holder string
	Expiry string
	CVV    string
}

// NormalizeCardNumber strips spaces and dashes
func NormalizeCardNumber(n string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(n)
}

// Card validates the add-card form against the current time
func Card(in CardInput, now time.Time) error {
	errs := Errors{}

	if n := NormalizeCardNumber(in.Number); len(n) != 16 || !digits(n) {
		errs["number"] = "must be 16 digits"
	}
	if strings.TrimSpace(in.Holder) == "" {
		errs["holder"] = "is required"
	}
	if err := Expiry(in.Expiry, now); err != nil {
		errs["expiry"] = err.Error()
	}
	if cvv := strings.TrimSpace(in.CVV); len(cvv) != 3 || !digits(cvv) {
		errs["cvv"] = "must be 3 digits"
	}

	return errs.Err()
}

// Expiry checks an MM/YY date that is not in the past. A card expiring this
// month is still valid.
func Expiry(s string, now time.Time) error {
	s = strings.TrimSpace(s)
	mm, yy, ok := strings.Cut(s, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 || !digits(mm) || !digits(yy) {
		return fmt.Errorf("must be MM/YY")
	}

	month, _ := strconv.Atoi(mm)
	year, _ := strconv.Atoi(yy)
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be 01-12")
	}
	year += 2000

	curYear, curMonth := now.Year(), int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return fmt.Errorf("card has expired")
	}
	return nil
}

// RegistrationInput is the sign-up form
type RegistrationInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Registration validates the sign-up form
func Registration(in RegistrationInput) error {
	errs := Errors{}

	if strings.TrimSpace(in.FirstName) == "" {
		errs["first_name"] = "is required"
	}
	if strings.TrimSpace(in.LastName) == "" {
		errs["last_name"] = "is required"
	}
	if !Email(in.Email) {
		errs["email"] = "is not a valid address"
	}
	if len(in.Password) < MinPasswordLength {
		errs["password"] = fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	}
	if in.Password != in.ConfirmPassword {
		errs["confirm_password"] = "does not match"
	}

	return errs.Err()
}

// Email reports whether s is a bare address with a dotted domain
func Email(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	_, domain, _ := strings.Cut(s, "@")
	return strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
