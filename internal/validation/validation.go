// Package validation holds the form validators. Each one maps a submitted form
// to FormErrors and never calls out to anything.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"jetcharter/internal/catalog"
	"jetcharter/internal/models"
)

var (
	strictEmail  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	relaxedEmail = regexp.MustCompile(`\S+@\S+\.\S+`)
)

// Form field names.
const (
	FieldUsername        = "username"
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldTerms           = "terms"
	FieldName            = "name"
	FieldSubject         = "subject"
	FieldMessage         = "message"
	FieldInquiryType     = "inquiryType"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// StrictEmail reports whether s passes the anchored email pattern used by the
// sign-in, contact and password reset forms.
func StrictEmail(s string) bool {
	return strictEmail.MatchString(s)
}

type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func SignIn(f SignInForm) models.FormErrors {
	errs := models.FormErrors{}
	if blank(f.Email) {
		errs.Set(FieldEmail, "Email is required")
	} else if !StrictEmail(f.Email) {
		errs.Set(FieldEmail, "Invalid email format")
	}

	if f.Password == "" {
		errs.Set(FieldPassword, "Password is required")
	} else if shorterThan(f.Password, 6) {
		errs.Set(FieldPassword, "Password must be at least 6 characters")
	}
	return errs
}

type SignUpForm struct {
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

// DisplayName is the name stored on the new account.
func (f SignUpForm) DisplayName() string {
	if !blank(f.Username) {
		return strings.TrimSpace(f.Username)
	}
	return strings.TrimSpace(strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName))
}

// SignUpRules selects one of the sign-up form variants. The two presets differ
// in password minimum and in which name fields they ask for.
type SignUpRules struct {
	Name              string
	MinPasswordLength int
	RequireUsername   bool
	RequireFullName   bool
	RequireTerms      bool
}

var (
	ClassicSignUp = SignUpRules{Name: "classic", MinPasswordLength: 8, RequireUsername: true}
	MemberSignUp  = SignUpRules{Name: "member", MinPasswordLength: 6, RequireFullName: true}
)

// SignUpRulesFor maps the configured variant name to its preset.
func SignUpRulesFor(variant string, requireTerms bool) SignUpRules {
	rules := ClassicSignUp
	if variant == MemberSignUp.Name {
		rules = MemberSignUp
	}
	rules.RequireTerms = requireTerms
	return rules
}

func SignUp(f SignUpForm, rules SignUpRules) models.FormErrors {
	errs := models.FormErrors{}
	if rules.RequireUsername && blank(f.Username) {
		errs.Set(FieldUsername, "Username is required")
	}
	if rules.RequireFullName {
		if blank(f.FirstName) {
			errs.Set(FieldFirstName, "First name is required")
		}
		if blank(f.LastName) {
			errs.Set(FieldLastName, "Last name is required")
		}
	}

	if blank(f.Email) {
		errs.Set(FieldEmail, "Email is required")
	} else if !relaxedEmail.MatchString(f.Email) {
		errs.Set(FieldEmail, "Email is invalid")
	}

	if f.Password == "" {
		errs.Set(FieldPassword, "Password is required")
	} else if shorterThan(f.Password, rules.MinPasswordLength) {
		errs.Set(FieldPassword, fmt.Sprintf("Password must be at least %d characters", rules.MinPasswordLength))
	}
	if f.Password != f.ConfirmPassword {
		errs.Set(FieldConfirmPassword, "Passwords do not match")
	}

	if rules.RequireTerms && !f.AcceptTerms {
		errs.Set(FieldTerms, "You must accept the terms of service")
	}
	return errs
}

type ContactForm struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	InquiryType string `json:"inquiryType"`
}

func Contact(f ContactForm) models.FormErrors {
	errs := models.FormErrors{}
	if blank(f.Name) {
		errs.Set(FieldName, "Name is required")
	}
	if blank(f.Email) {
		errs.Set(FieldEmail, "Email is required")
	} else if !StrictEmail(f.Email) {
		errs.Set(FieldEmail, "Please enter a valid email")
	}
	if blank(f.Subject) {
		errs.Set(FieldSubject, "Subject is required")
	}
	if blank(f.Message) {
		errs.Set(FieldMessage, "Message is required")
	}
	if f.InquiryType != "" && !knownInquiryType(f.InquiryType) {
		errs.Set(FieldInquiryType, "Please select a valid inquiry type")
	}
	return errs
}

func knownInquiryType(t string) bool {
	for _, known := range models.InquiryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PasswordReset checks the email a reset link is requested for.
func PasswordReset(email string) models.FormErrors {
	errs := models.FormErrors{}
	if blank(email) {
		errs.Set(FieldEmail, "Please enter your email to reset password")
	} else if !StrictEmail(email) {
		errs.Set(FieldEmail, "Please enter a valid email address")
	}
	return errs
}

// NewPassword checks the password chosen on the reset page against the
// sign-up minimum.
func NewPassword(password string, rules SignUpRules) models.FormErrors {
	errs := models.FormErrors{}
	if password == "" {
		errs.Set(FieldPassword, "Password is required")
	} else if shorterThan(password, rules.MinPasswordLength) {
		errs.Set(FieldPassword, fmt.Sprintf("Password must be at least %d characters", rules.MinPasswordLength))
	}
	return errs
}

// shorterThan counts characters, not bytes.
func shorterThan(s string, n int) bool {
	return utf8.RuneCountInString(s) < n
}

// FlightOptions carries what the flight validator needs from outside.
type FlightOptions struct {
	Now           time.Time
	MaxPassengers int
}

// FlightDetails guards the first wizard stage. A missing field gets its
// required message and nothing else.
func FlightDetails(d models.BookingDraft, opts FlightOptions) models.FormErrors {
	errs := models.FormErrors{}

	var from, to models.Airport
	var fromOK, toOK bool
	if blank(d.Departure) {
		errs.Set(models.FieldDeparture, "Departure airport is required")
	} else if from, fromOK = catalog.Lookup(d.Departure); !fromOK {
		errs.Set(models.FieldDeparture, "Please choose a departure airport from the list")
	}

	if blank(d.Arrival) {
		errs.Set(models.FieldArrival, "Arrival airport is required")
	} else if to, toOK = catalog.Lookup(d.Arrival); !toOK {
		errs.Set(models.FieldArrival, "Please choose an arrival airport from the list")
	} else if fromOK && from.Code == to.Code {
		errs.Set(models.FieldArrival, "Arrival airport must differ from departure")
	}

	if blank(d.Date) {
		errs.Set(models.FieldDate, "Date is required")
	} else if msg := checkDate(d.Date, opts.Now); msg != "" {
		errs.Set(models.FieldDate, msg)
	}

	switch {
	case d.Passengers == 0:
		errs.Set(models.FieldPassengers, "Number of passengers is required")
	case d.Passengers < 0 || (opts.MaxPassengers > 0 && d.Passengers > opts.MaxPassengers):
		errs.Set(models.FieldPassengers, fmt.Sprintf("Number of passengers must be between 1 and %d", opts.MaxPassengers))
	}
	return errs
}

func checkDate(value string, now time.Time) string {
	date, err := time.Parse(models.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "Date is invalid"
	}
	if now.IsZero() {
		return ""
	}
	today, _ := time.Parse(models.DateLayout, now.Format(models.DateLayout))
	if date.Before(today) {
		return "Date cannot be in the past"
	}
	return ""
}
