// Package token mints and verifies signed session tokens (HS256 JWT).
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// RevocationChecker reports whether a refresh token identifier was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Claims is the JWT payload: registered claims plus the token kind and the
// account primary key. sub holds the identity; uid pins the token to one
// account so a re-registered identity never inherits it.
type Claims struct {
	jwt.RegisteredClaims
	Kind      model.TokenKind `json:"typ"`
	AccountID string          `json:"uid"`
}

// Issuer signs access/refresh pairs with a process-held key.
// The key is read-only after construction, so Issuer is safe for concurrent use.
type Issuer struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationChecker
	now        func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat/exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer constructs an Issuer. The key must be non-empty and both TTLs positive.
func NewIssuer(key []byte, accessTTL, refreshTTL time.Duration, revoked RevocationChecker, opts ...Option) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("token: empty signing key")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token: non-positive ttl")
	}
	if revoked == nil {
		return nil, errors.New("token: nil revocation checker")
	}
	i := &Issuer{
		key:        append([]byte(nil), key...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// Issue mints a fresh access/refresh pair bound to the account.
func (i *Issuer) Issue(accountID uuid.UUID, identity string) (model.TokenPair, error) {
	if identity == "" {
		return model.TokenPair{}, errors.New("token: empty identity")
	}
	if accountID == uuid.Nil {
		return model.TokenPair{}, errors.New("token: nil account id")
	}
	now := i.now()
	access, accessExp, err := i.sign(accountID, identity, model.TokenAccess, now, i.accessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, refreshExp, err := i.sign(accountID, identity, model.TokenRefresh, now, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh: %w", err)
	}
	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(accountID uuid.UUID, identity string, kind model.TokenKind, now time.Time, ttl time.Duration) (string, time.Time, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind:      kind,
		AccountID: accountID.String(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	return signed, claims.ExpiresAt.Time, err
}

// VerifyAccess checks signature, expiry and kind of an access token.
// Access tokens are never looked up in the revocation registry.
func (i *Issuer) VerifyAccess(tok string) (model.TokenClaims, error) {
	c, err := i.parse(tok, model.TokenAccess)
	if err != nil {
		return model.TokenClaims{}, err
	}
	return c.toModel(), nil
}

// VerifyRefresh checks a refresh token like VerifyAccess and additionally
// fails with errs.ErrRevoked when its identifier was revoked.
func (i *Issuer) VerifyRefresh(ctx context.Context, tok string) (model.TokenClaims, error) {
	c, err := i.parse(tok, model.TokenRefresh)
	if err != nil {
		return model.TokenClaims{}, err
	}
	revoked, err := i.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return model.TokenClaims{}, errs.ErrRevoked
	}
	return c.toModel(), nil
}

// Inspect parses a refresh token without consulting the registry. Used to
// extract the identifier and expiry of a token about to be revoked.
func (i *Issuer) Inspect(tok string) (model.TokenClaims, error) {
	c, err := i.parse(tok, model.TokenRefresh)
	if err != nil {
		return model.TokenClaims{}, err
	}
	return c.toModel(), nil
}

func (i *Issuer) parse(tok string, kind model.TokenKind) (*Claims, error) {
	if tok == "" {
		return nil, errs.ErrInvalidToken
	}
	var c Claims
	_, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) { return i.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
	if c.Kind != kind || c.Subject == "" || c.ID == "" {
		return nil, errs.ErrInvalidToken
	}
	if id, err := uuid.FromString(c.AccountID); err != nil || id == uuid.Nil {
		return nil, errs.ErrInvalidToken
	}
	return &c, nil
}

func (c *Claims) toModel() model.TokenClaims {
	tc := model.TokenClaims{
		ID:        c.ID,
		AccountID: uuid.FromStringOrNil(c.AccountID),
		Identity:  c.Subject,
		Kind:      c.Kind,
	}
	if c.IssuedAt != nil {
		tc.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		tc.ExpiresAt = c.ExpiresAt.Time
	}
	return tc
}
