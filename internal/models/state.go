package models

import "time"

// SessionState is everything the server keeps for one browser session.
type SessionState struct {
	SessionID string       `json:"session_id"`
	SignedIn  bool         `json:"signed_in"`
	Username  string       `json:"username,omitempty"`
	Email     string       `json:"email,omitempty"`
	UID       string       `json:"uid,omitempty"`
	Stage     Stage        `json:"stage"`
	Draft     BookingDraft `json:"draft"`
	Errors    FormErrors   `json:"errors,omitempty"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewSessionState returns an empty state with the wizard at its first stage.
func NewSessionState(sessionID string) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Stage:     StageFlightDetails,
		Draft:     NewBookingDraft(),
		UpdatedAt: time.Now(),
	}
}

// SignOut clears the identity part of the state and keeps the wizard.
func (s *SessionState) SignOut() {
	s.SignedIn = false
	s.Username = ""
	s.Email = ""
	s.UID = ""
}
