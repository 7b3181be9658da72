// Package forms validates user input before any network call is made and
// drives the shared submission state machine.
package forms

import (
	"fmt"
	"strconv"
	"strings"

	"greenhub-web-go/internal/models"
)

// FieldError reports the first failing validation rule for a form.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Rule is one validation check against a named field.
type Rule struct {
	Field   string
	Message string
	OK      func() bool
}

// firstFailing runs rules in order and returns the first failure.
func firstFailing(rules []Rule) *FieldError {
	for _, r := range rules {
		if !r.OK() {
			return &FieldError{Field: r.Field, Message: r.Message}
		}
	}
	return nil
}

// ParseAmount parses a user-supplied amount string into a positive number.
// Non-numeric or non-positive input fails validation before any network
// call.
func ParseAmount(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

// IssueForm is the add/update issue input.
type IssueForm struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

// Validate checks the issue form and returns the first failing rule.
func (f *IssueForm) Validate() *FieldError {
	return firstFailing([]Rule{
		{"title", "Issue title is required", func() bool { return strings.TrimSpace(f.Title) != "" }},
		{"category", "Category is required", func() bool { return strings.TrimSpace(f.Category) != "" }},
		{"category", "Unknown category", func() bool { return models.ValidCategory(f.Category) }},
		{"location", "Location is required", func() bool { return strings.TrimSpace(f.Location) != "" }},
		{"description", "Description is required", func() bool { return strings.TrimSpace(f.Description) != "" }},
		{"amount", "Please enter a valid amount greater than zero", func() bool { _, ok := ParseAmount(f.Amount); return ok }},
		{"status", "Status must be ongoing or ended", func() bool {
			return f.Status == "" || models.ValidStatus(f.Status)
		}},
	})
}

// ContributionForm is the contribute-to-issue input.
type ContributionForm struct {
	Amount          string `json:"amount"`
	ContributorName string `json:"contributorName"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
}

// Validate checks the contribution form.
func (f *ContributionForm) Validate() *FieldError {
	return firstFailing([]Rule{
		{"amount", "Please enter a valid contribution amount", func() bool { _, ok := ParseAmount(f.Amount); return ok }},
		{"contributorName", "Please enter your name", func() bool { return strings.TrimSpace(f.ContributorName) != "" }},
		{"phone", "Please enter your phone number", func() bool { return strings.TrimSpace(f.Phone) != "" }},
		{"address", "Please enter your address", func() bool { return strings.TrimSpace(f.Address) != "" }},
	})
}

// PasswordRules reports which password requirements are met, so each unmet
// rule can be flagged distinctly in the UI.
type PasswordRules struct {
	HasUpperCase bool `json:"hasUpperCase"`
	HasLowerCase bool `json:"hasLowerCase"`
	HasMinLength bool `json:"hasMinLength"`
}

// CheckPassword evaluates the password rules.
func CheckPassword(password string) PasswordRules {
	rules := PasswordRules{HasMinLength: len(password) >= 6}
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			rules.HasUpperCase = true
		case r >= 'a' && r <= 'z':
			rules.HasLowerCase = true
		}
	}
	return rules
}

// OK reports whether every rule is met.
func (p PasswordRules) OK() bool {
	return p.HasUpperCase && p.HasLowerCase && p.HasMinLength
}

// RegisterForm is the account registration input.
type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PhotoURL string `json:"photoURL"`
}

// Validate checks the register form; password rules are reported
// individually.
func (f *RegisterForm) Validate() *FieldError {
	rules := CheckPassword(f.Password)
	return firstFailing([]Rule{
		{"name", "Name is required", func() bool { return strings.TrimSpace(f.Name) != "" }},
		{"email", "Email is required", func() bool { return strings.TrimSpace(f.Email) != "" }},
		{"email", "Invalid email address", func() bool { return plausibleEmail(f.Email) }},
		{"password", "Password is required", func() bool { return f.Password != "" }},
		{"password", "Password must contain an uppercase letter", func() bool { return rules.HasUpperCase }},
		{"password", "Password must contain a lowercase letter", func() bool { return rules.HasLowerCase }},
		{"password", "Password must be at least 6 characters", func() bool { return rules.HasMinLength }},
	})
}

// LoginForm is the sign-in input.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login form.
func (f *LoginForm) Validate() *FieldError {
	return firstFailing([]Rule{
		{"email", "Email is required", func() bool { return strings.TrimSpace(f.Email) != "" }},
		{"password", "Password is required", func() bool { return f.Password != "" }},
	})
}

// ResetForm is the password-reset input.
type ResetForm struct {
	Email string `json:"email"`
}

// Validate checks the reset form.
func (f *ResetForm) Validate() *FieldError {
	return firstFailing([]Rule{
		{"email", "Please enter your email address", func() bool { return strings.TrimSpace(f.Email) != "" }},
		{"email", "Invalid email address", func() bool { return plausibleEmail(f.Email) }},
	})
}

// plausibleEmail is a cheap shape check; the identity service is the real
// authority on addresses.
func plausibleEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".")
}
