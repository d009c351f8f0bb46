// Package identity is the contract with the identity provider plus a
// self-hosted implementation of it.
package identity

import (
	"context"
	"strings"
)

// User is the signed-in identity as the provider reports it.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Username is the display name, or the local part of the email when no
// display name has been set.
func (u *User) Username() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at >= 0 {
		return u.Email[:at]
	}
	return u.Email
}

// AuthStateListener receives the new user of a client, or nil after sign-out.
type AuthStateListener func(clientID string, user *User)

// Provider is what the site needs from an identity service. A client is one
// browser session; sign-in state is kept per client.
type Provider interface {
	SignIn(ctx context.Context, clientID, email, password string) (*User, error)
	CreateAccount(ctx context.Context, clientID, email, password string) (*User, error)
	UpdateDisplayName(ctx context.Context, clientID, name string) (*User, error)
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context, clientID string) error
	// CurrentUser returns nil without error when the client is signed out.
	CurrentUser(ctx context.Context, clientID string) (*User, error)
	VerifyToken(ctx context.Context, token string) (*User, error)
	OnAuthStateChanged(listener AuthStateListener) (unsubscribe func())
}
