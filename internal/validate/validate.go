package validate

import (
	"regexp"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
)

// Rules holds the compiled input validators for account creation.
// Build it once at startup with New and hand it to the account
// service; the patterns are immutable afterwards.
type Rules struct {
	username    *regexp.Regexp
	email       *regexp.Regexp
	minPassword int
}

// New compiles the default rule set: usernames are at least two
// word characters, emails must look like local@domain.tld, passwords
// are at least eight bytes.
func New() Rules {
	return Rules{
		username:    regexp.MustCompile(`^[a-zA-Z0-9_]{2,}$`),
		email:       regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		minPassword: 8,
	}
}

// Account checks registration input and returns an InvalidInput error
// naming the first offending field. Runs before any store access.
func (r Rules) Account(username, email, password string) error {
	if !r.username.MatchString(username) {
		return apperr.InvalidInput("username must be at least 2 letters, digits or underscores")
	}
	if !r.email.MatchString(email) {
		return apperr.InvalidInput("email address is not valid")
	}
	if len(password) < r.minPassword {
		return apperr.InvalidInput("password must be at least 8 characters")
	}
	return nil
}

// Password checks just the password rule, for credential updates.
func (r Rules) Password(password string) error {
	if len(password) < r.minPassword {
		return apperr.InvalidInput("password must be at least 8 characters")
	}
	return nil
}

// Email checks just the email rule, for credential updates.
func (r Rules) Email(email string) error {
	if !r.email.MatchString(email) {
		return apperr.InvalidInput("email address is not valid")
	}
	return nil
}
