package identity

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures.
type Kind int

const (
	KindUnexpected Kind = iota
	KindEmailAlreadyInUse
	KindUserNotFound
	KindWrongPassword
	KindInvalidEmail
	KindUserDisabled
	KindTooManyRequests
)

// Kinds lists every kind, used to keep the message table complete.
var Kinds = []Kind{
	KindUnexpected,
	KindEmailAlreadyInUse,
	KindUserNotFound,
	KindWrongPassword,
	KindInvalidEmail,
	KindUserDisabled,
	KindTooManyRequests,
}

var kindCodes = map[Kind]string{
	KindUnexpected:        "auth/internal-error",
	KindEmailAlreadyInUse: "auth/email-already-in-use",
	KindUserNotFound:      "auth/user-not-found",
	KindWrongPassword:     "auth/wrong-password",
	KindInvalidEmail:      "auth/invalid-email",
	KindUserDisabled:      "auth/user-disabled",
	KindTooManyRequests:   "auth/too-many-requests",
}

// Code is the provider error code, e.g. "auth/wrong-password".
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnexpected]
}

func (k Kind) String() string {
	return k.Code()
}

// KindFromCode maps a provider code back to its kind; unknown codes are unexpected.
func KindFromCode(code string) Kind {
	for k, c := range kindCodes {
		if c == code {
			return k
		}
	}
	return KindUnexpected
}

// Error is a failure reported by the provider. Message is the provider's raw text.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Code()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the kind of err; anything that is not an *Error is unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// RawMessage is the text shown inside the generic banners.
func RawMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Operation is a user action that can fail at the provider.
type Operation int

const (
	OpSignIn Operation = iota
	OpSignUp
	OpPasswordReset
	OpSignOut
)

var Operations = []Operation{OpSignIn, OpSignUp, OpPasswordReset, OpSignOut}

func (op Operation) String() string {
	switch op {
	case OpSignIn:
		return "sign_in"
	case OpSignUp:
		return "sign_up"
	case OpPasswordReset:
		return "password_reset"
	case OpSignOut:
		return "sign_out"
	default:
		return "unknown"
	}
}

type banner struct {
	text    string
	withRaw bool
}

func fixed(text string) banner   { return banner{text: text} }
func generic(text string) banner { return banner{text: text, withRaw: true} }

const (
	genericSignIn  = "An error occurred during sign in: "
	genericSignUp  = "An error occurred during sign up: "
	genericReset   = "Failed to send password reset: "
	genericSignOut = "An error occurred during sign out: "
)

// banners holds one entry per operation and kind.
var banners = map[Operation]map[Kind]banner{
	OpSignIn: {
		KindUnexpected:        generic(genericSignIn),
		KindEmailAlreadyInUse: generic(genericSignIn),
		KindUserNotFound:      fixed("No account found with this email. Please sign up instead."),
		KindWrongPassword:     fixed("Incorrect password. Please try again."),
		KindInvalidEmail:      fixed("Invalid email format"),
		KindUserDisabled:      fixed("This account has been disabled"),
		KindTooManyRequests:   fixed("Too many failed login attempts. Please try again later."),
	},
	OpSignUp: {
		KindUnexpected:        generic(genericSignUp),
		KindEmailAlreadyInUse: fixed("This email is already in use. Please try a different one."),
		KindUserNotFound:      generic(genericSignUp),
		KindWrongPassword:     generic(genericSignUp),
		KindInvalidEmail:      generic(genericSignUp),
		KindUserDisabled:      generic(genericSignUp),
		KindTooManyRequests:   generic(genericSignUp),
	},
	OpPasswordReset: {
		KindUnexpected:        generic(genericReset),
		KindEmailAlreadyInUse: generic(genericReset),
		KindUserNotFound:      fixed("No account found with this email"),
		KindWrongPassword:     generic(genericReset),
		KindInvalidEmail:      fixed("Invalid email format"),
		KindUserDisabled:      generic(genericReset),
		KindTooManyRequests:   generic(genericReset),
	},
	OpSignOut: {
		KindUnexpected:        generic(genericSignOut),
		KindEmailAlreadyInUse: generic(genericSignOut),
		KindUserNotFound:      generic(genericSignOut),
		KindWrongPassword:     generic(genericSignOut),
		KindInvalidEmail:      generic(genericSignOut),
		KindUserDisabled:      generic(genericSignOut),
		KindTooManyRequests:   generic(genericSignOut),
	},
}

// Message renders the form banner for a failed operation.
func Message(op Operation, err error) string {
	b, ok := banners[op][KindOf(err)]
	if !ok {
		b = generic(genericSignIn)
	}
	if b.withRaw {
		return b.text + RawMessage(err)
	}
	return b.text
}
