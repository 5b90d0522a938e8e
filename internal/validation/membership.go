package validation

import (
	"regexp"
	"strings"
)

// MembershipParams carries the submitted fields plus the per-form
// requirement flags for a signup or unsubscribe request.
type MembershipParams struct {
	Email            string
	FirstName        string
	LastName         string
	RequireFirstName bool
	RequireLastName  bool
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateMembership answers the list of validation errors for a
// membership request. Email is always required; first and last name only
// when the corresponding flag is set.
func ValidateMembership(p MembershipParams) []string {
	var errors []string

	email := strings.TrimSpace(p.Email)
	if email == "" {
		errors = append(errors, "Email Address is required")
	} else if !emailRegex.MatchString(email) {
		errors = append(errors, "Valid email is required")
	}

	if p.RequireFirstName && strings.TrimSpace(p.FirstName) == "" {
		errors = append(errors, "First Name is required")
	}

	if p.RequireLastName && strings.TrimSpace(p.LastName) == "" {
		errors = append(errors, "Last Name is required")
	}

	return errors
}

// ValidateHoneypot flags submissions that filled the hidden phone field.
// Humans never see it; bots autofill it.
func ValidateHoneypot(value string) []string {
	if strings.TrimSpace(value) != "" {
		return []string{"Honeypot field filled (bot detected)"}
	}
	return nil
}
