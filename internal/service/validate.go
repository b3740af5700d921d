package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/and161185/goph-auth/internal/errs"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	maxNameLen     = 100
	maxContactLen  = 15

	// DeleteConfirmation must be typed verbatim to delete an account.
	DeleteConfirmation = "DELETE"
)

var (
	identityRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	contactRe  = regexp.MustCompile(`^\+?[0-9 ()-]*$`)
)

// NormalizeIdentity lower-cases and trims an email identity.
func NormalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkIdentity(v *errs.ValidationError, field, identity string) {
	switch {
	case identity == "":
		v.Add(field, "this field is required")
	case !identityRe.MatchString(identity):
		v.Add(field, "enter a valid email address")
	}
}

func checkNewPassword(v *errs.ValidationError, field, confirmField, password, confirm string) {
	switch n := utf8.RuneCountInString(password); {
	case password == "":
		v.Add(field, "this field is required")
	case n < minPasswordLen:
		v.Add(field, "password must be at least 8 characters")
	case len(password) > maxPasswordLen:
		v.Add(field, "password is too long")
	}
	if confirm != password {
		v.Add(confirmField, "passwords do not match")
	}
}

func checkRequired(v *errs.ValidationError, field, value string) {
	if value == "" {
		v.Add(field, "this field is required")
	}
}

func checkName(v *errs.ValidationError, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		v.Add("name", "this field is required")
	case utf8.RuneCountInString(name) > maxNameLen:
		v.Add("name", "ensure this field has no more than 100 characters")
	}
}

func checkContact(v *errs.ValidationError, contact *string) {
	if contact == nil || *contact == "" {
		return
	}
	if len(*contact) > maxContactLen {
		v.Add("mobile", "ensure this field has no more than 15 characters")
		return
	}
	if !contactRe.MatchString(*contact) {
		v.Add("mobile", "enter a valid phone number")
	}
}
