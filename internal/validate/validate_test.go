package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

func validCard() CardInput {
	return CardInput{Number: "4111 1111 1111 1111", Holder: "Ana Ruiz", Expiry: "06/26", CVV: "123"}
}

func TestCardValid(t *testing.T) {
	assert.NoError(t, Card(validCard(), now))
}

func TestCardFieldErrors(t *testing.T) {
	err := Card(CardInput{Number: "4111", Expiry: "13/30", CVV: "12a"}, now)
	require.Error(t, err)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Contains(t, errs, "number")
	assert.Contains(t, errs, "holder")
	assert.Contains(t, errs, "expiry")
	assert.Contains(t, errs, "cvv")
	assert.Contains(t, err.Error(), "cvv: must be 3 digits")
}

func TestExpiry(t *testing.T) {
	assert.NoError(t, Expiry("06/26", now))
	assert.NoError(t, Expiry("01/27", now))
	assert.Error(t, Expiry("05/26", now))
	assert.Error(t, Expiry("12/25", now))
	assert.Error(t, Expiry("00/27", now))
	assert.Error(t, Expiry("6/26", now))
	assert.Error(t, Expiry("0626", now))
}

func TestRegistration(t *testing.T) {
	ok := RegistrationInput{FirstName: "Ana", LastName: "Ruiz", Email: "ana@example.com", Password: "12345678", ConfirmPassword: "12345678"}
	assert.NoError(t, Registration(ok))

	bad := ok
	bad.Password = "short"
	bad.ConfirmPassword = "other"
	bad.Email = "ana@"
	bad.LastName = " "
	var errs Errors
	require.True(t, errors.As(Registration(bad), &errs))
	assert.Len(t, errs, 4)
	assert.NotContains(t, errs, "first_name")
}

func TestEmail(t *testing.T) {
	assert.True(t, Email("a.b@example.co"))
	assert.False(t, Email("Ana <ana@example.com>"))
	assert.False(t, Email("ana@localhost"))
	assert.False(t, Email("ana@example."))
	assert.False(t, Email(""))
}
