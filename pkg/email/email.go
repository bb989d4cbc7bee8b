package email

import (
	"errors"
	"net/mail"
	"strings"
)

var ErrInvalid = errors.New("invalid email address")

// Normalize trims and lowercases an address after checking it is a bare
// addr-spec (no display name, no angle brackets).
func Normalize(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 254 {
		return "", ErrInvalid
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalid
	}
	at := strings.LastIndexByte(email, '@')
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return "", ErrInvalid
	}
	return strings.ToLower(email), nil
}
