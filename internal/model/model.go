// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account represents a registered account. PasswordHash is an opaque hasher
// output and is never returned to clients.
type Account struct {
	ID           uuid.UUID // PK
	Identity     string    // unique, immutable (normalized email)
	Name         string
	PasswordHash string
	Contact      *string // optional mobile number
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountPatch is a partial account update; nil fields are left unchanged.
// An empty Contact clears the stored value.
type AccountPatch struct {
	Name         *string
	Contact      *string
	PasswordHash *string
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Contact == nil && p.PasswordHash == nil
}

// Apply copies patched fields onto a.
func (p AccountPatch) Apply(a *Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Contact != nil {
		if *p.Contact == "" {
			a.Contact = nil
		} else {
			c := *p.Contact
			a.Contact = &c
		}
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
}

// TokenKind distinguishes access from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPair collects an issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenClaims is the verified payload of a session token.
type TokenClaims struct {
	ID        string    // jti
	AccountID uuid.UUID // uid
	Identity  string    // sub
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RevokedToken is a revocation registry entry. ExpiresAt is the natural
// expiry of the token, after which the entry may be pruned.
type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
