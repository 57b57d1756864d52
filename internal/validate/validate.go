// Package validate holds the client-side checks run before any request is sent.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength       = 100
	MinPasswordLength   = 8
	MaxExpressionLength = 500
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Result is the outcome of a single field check. Message is empty when Valid.
type Result struct {
	Valid   bool
	Message string
}

func pass() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Message: msg} }

func Email(raw string) Result {
	email := strings.TrimSpace(raw)
	if email == "" {
		return fail("Email address is required")
	}
	if !emailPattern.MatchString(email) {
		return fail("Please enter a valid email address")
	}
	return pass()
}

// Password only checks presence and length; content is never inspected.
func Password(raw string) Result {
	if raw == "" {
		return fail("Password is required")
	}
	if utf8.RuneCountInString(raw) < MinPasswordLength {
		return fail("Password must be at least 8 characters long")
	}
	return pass()
}

func Name(label, raw string) Result {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fail(label + " is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fail(label + " too long (max 100 characters)")
	}
	return pass()
}
