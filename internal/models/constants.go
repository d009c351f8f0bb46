package models

const (
	// DefaultStateTTL is how long a session state lives in redis, in seconds.
	DefaultStateTTL = 24 * 60 * 60

	// MaxAirportSuggestions caps the autocomplete list.
	MaxAirportSuggestions = 5

	// SignInRateLimitAttempts counts every sign-in attempt per email, successful or not, within SignInRateLimitWindow seconds.
	SignInRateLimitAttempts = 5
	SignInRateLimitWindow   = 15 * 60

	// InquiryQueueSize is the in-memory buffer of the inquiry worker.
	InquiryQueueSize = 256

	SessionCookieName = "jc_sid"
	DateLayout        = "2006-01-02"
)
