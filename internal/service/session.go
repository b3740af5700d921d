// Package service contains the session lifecycle manager: registration,
// authentication, token refresh/revocation and guarded account mutations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/limiter"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/and161185/goph-auth/internal/repository"
	"github.com/and161185/goph-auth/internal/revocation"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// SessionService defines the account and session operations exposed to transports.
type SessionService interface {
	// Register creates an account and returns it with a fresh token pair.
	Register(ctx context.Context, in RegisterInput) (Session, error)
	// Authenticate checks credentials (rate-limited by identity and ip) and issues a pair.
	Authenticate(ctx context.Context, identity, password, ip string) (Session, error)
	// Authorize is the guard for protected operations.
	Authorize(ctx context.Context, accessToken string) (*model.Account, error)
	// Refresh redeems a refresh token for a new pair.
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	// Logout revokes a refresh token. It never fails.
	Logout(ctx context.Context, refreshToken string)
	// Profile returns the account of an authorized identity.
	Profile(ctx context.Context, identity string) (*model.Account, error)
	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, identity string, p ProfilePatch) (*model.Account, error)
	// ChangeCredential replaces the password and issues a fresh pair.
	ChangeCredential(ctx context.Context, identity, current, next, confirm string) (model.TokenPair, error)
	// DeleteAccount removes the account after password confirmation.
	DeleteAccount(ctx context.Context, identity, password, confirmation string) error
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	Issue(accountID uuid.UUID, identity string) (model.TokenPair, error)
	VerifyAccess(tok string) (model.TokenClaims, error)
	VerifyRefresh(ctx context.Context, tok string) (model.TokenClaims, error)
	Inspect(tok string) (model.TokenClaims, error)
}

// RegisterInput carries registration fields.
type RegisterInput struct {
	Identity        string
	Name            string
	Password        string
	PasswordConfirm string
	Contact         *string
}

// ProfilePatch is a partial profile update; nil fields are unchanged.
type ProfilePatch struct {
	Name    *string
	Contact *string
}

// Session is an account together with the pair issued for it.
type Session struct {
	Account model.Account
	Tokens  model.TokenPair
}

// Deps bundles SessionManager collaborators.
type Deps struct {
	Accounts repository.AccountRepository
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Revoked  revocation.Registry
	Limiter  limiter.Limiter
	Log      *zap.Logger
}

// SessionManager implements SessionService.
type SessionManager struct {
	accounts      repository.AccountRepository
	hasher        PasswordHasher
	tokens        TokenIssuer
	revoked       revocation.Registry
	lim           limiter.Limiter
	log           *zap.Logger
	rotateRefresh bool

	locks *keyLock

	dummyOnce sync.Once
	dummyHash string
}

// NewSessionManager wires a SessionManager. With rotateRefresh set, a redeemed
// refresh token is revoked before the new pair is returned.
func NewSessionManager(d Deps, rotateRefresh bool) *SessionManager {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		accounts:      d.Accounts,
		hasher:        d.Hasher,
		tokens:        d.Tokens,
		revoked:       d.Revoked,
		lim:           d.Limiter,
		log:           log,
		rotateRefresh: rotateRefresh,
		locks:         newKeyLock(),
	}
}

// Register validates input, hashes the password, persists the account and issues a pair.
func (s *SessionManager) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Identity = NormalizeIdentity(in.Identity)
	in.Name = strings.TrimSpace(in.Name)
	var v errs.ValidationError
	checkIdentity(&v, "email", in.Identity)
	checkName(&v, in.Name)
	checkNewPassword(&v, "password", "password_confirm", in.Password, in.PasswordConfirm)
	checkContact(&v, in.Contact)
	if err := v.OrNil(); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return Session{}, err
	}
	acc := &model.Account{
		ID:           id,
		Identity:     in.Identity,
		Name:         in.Name,
		PasswordHash: hash,
	}
	if in.Contact != nil && *in.Contact != "" {
		c := *in.Contact
		acc.Contact = &c
	}

	unlock := s.locks.Lock(in.Identity)
	err = s.accounts.Create(ctx, acc)
	unlock()
	if err != nil {
		sessionEvents.WithLabelValues("register", "error").Inc()
		return Session{}, err
	}

	pair, err := s.tokens.Issue(acc.ID, acc.Identity)
	if err != nil {
		return Session{}, err
	}
	sessionEvents.WithLabelValues("register", "ok").Inc()
	s.log.Info("account registered", zap.String("account_id", acc.ID.String()))
	return Session{Account: *acc, Tokens: pair}, nil
}

// Authenticate verifies credentials. Unknown identity and wrong password both
// yield errs.ErrInvalidCredentials.
func (s *SessionManager) Authenticate(ctx context.Context, identity, password, ip string) (Session, error) {
	identity = NormalizeIdentity(identity)
	var v errs.ValidationError
	checkRequired(&v, "email", identity)
	checkRequired(&v, "password", password)
	if err := v.OrNil(); err != nil {
		return Session{}, err
	}

	ipHash := limiter.HashIP(ip)
	allowed, _, err := s.lim.Allow(ctx, identity, ipHash)
	if err != nil {
		return Session{}, fmt.Errorf("limiter: %w", err)
	}
	if !allowed {
		sessionEvents.WithLabelValues("login", "rate_limited").Inc()
		return Session{}, errs.ErrRateLimited
	}

	acc, err := s.accounts.Find(ctx, identity)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return Session{}, fmt.Errorf("find account: %w", err)
	}

	var ok bool
	if acc != nil {
		ok, err = s.hasher.Verify(password, acc.PasswordHash)
		if err != nil {
			s.log.Warn("stored hash unreadable", zap.String("account_id", acc.ID.String()), zap.Error(err))
			ok = false
		}
	} else {
		// equalize timing with the existing-account path
		_, _ = s.hasher.Verify(password, s.dummy())
	}

	if !ok {
		sessionEvents.WithLabelValues("login", "invalid").Inc()
		if blocked, _, ferr := s.lim.Failure(ctx, identity, ipHash); ferr != nil {
			s.log.Warn("limiter failure not recorded", zap.Error(ferr))
		} else if blocked {
			s.log.Info("login blocked", zap.String("identity_hash", identityHash(identity)))
		}
		return Session{}, errs.ErrInvalidCredentials
	}

	if err := s.lim.Success(ctx, identity, ipHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}
	s.upgradeHash(ctx, acc, password)

	pair, err := s.tokens.Issue(acc.ID, acc.Identity)
	if err != nil {
		return Session{}, err
	}
	sessionEvents.WithLabelValues("login", "ok").Inc()
	return Session{Account: *acc, Tokens: pair}, nil
}

// upgradeHash re-hashes a verified password stored with outdated parameters.
// Failures are logged only; the login already succeeded.
func (s *SessionManager) upgradeHash(ctx context.Context, acc *model.Account, password string) {
	if !s.hasher.NeedsRehash(acc.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn("rehash failed", zap.Error(err))
		return
	}
	unlock := s.locks.Lock(acc.Identity)
	defer unlock()
	if _, err := s.accounts.Update(ctx, acc.Identity, model.AccountPatch{PasswordHash: &hash}); err != nil {
		s.log.Warn("rehash not stored", zap.Error(err))
		return
	}
	acc.PasswordHash = hash
}

func (s *SessionManager) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("dummy-password-for-timing")
	})
	return s.dummyHash
}

// Authorize verifies an access token and reloads its account. Every failure,
// including a deleted account, is errs.ErrUnauthenticated.
func (s *SessionManager) Authorize(ctx context.Context, accessToken string) (*model.Account, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}
	return s.ownerOf(ctx, claims)
}

// ownerOf loads the account a token was issued to. A token whose account was
// deleted, including one whose identity has since been registered again, has
// no owner.
func (s *SessionManager) ownerOf(ctx context.Context, claims model.TokenClaims) (*model.Account, error) {
	acc, err := s.accounts.Find(ctx, claims.Identity)
	if err != nil {
		return nil, guardErr(err)
	}
	if acc.ID != claims.AccountID {
		return nil, errs.ErrUnauthenticated
	}
	return acc, nil
}

// Refresh verifies a refresh token against the registry and issues a new pair.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		sessionEvents.WithLabelValues("refresh", errs.Kind(err)).Inc()
		return model.TokenPair{}, err
	}

	unlock := s.locks.Lock("jti:" + claims.ID)
	defer unlock()

	if s.rotateRefresh {
		// re-check under the token lock: a concurrent refresh may have rotated it
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return model.TokenPair{}, fmt.Errorf("revocation lookup: %w", err)
		}
		if revoked {
			return model.TokenPair{}, errs.ErrRevoked
		}
	}

	acc, err := s.ownerOf(ctx, claims)
	if err != nil {
		return model.TokenPair{}, err
	}

	if s.rotateRefresh {
		if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
			return model.TokenPair{}, fmt.Errorf("rotate refresh: %w", err)
		}
	}
	pair, err := s.tokens.Issue(acc.ID, acc.Identity)
	if err != nil {
		return model.TokenPair{}, err
	}
	sessionEvents.WithLabelValues("refresh", "ok").Inc()
	return pair, nil
}

// Profile returns the stored account.
func (s *SessionManager) Profile(ctx context.Context, identity string) (*model.Account, error) {
	acc, err := s.accounts.Find(ctx, identity)
	if err != nil {
		return nil, guardErr(err)
	}
	return acc, nil
}

// UpdateProfile applies name/contact changes. Tokens are not rotated.
func (s *SessionManager) UpdateProfile(ctx context.Context, identity string, p ProfilePatch) (*model.Account, error) {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	var v errs.ValidationError
	if p.Name != nil {
		checkName(&v, *p.Name)
	}
	checkContact(&v, p.Contact)
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	patch := model.AccountPatch{Name: p.Name, Contact: p.Contact}
	if patch.IsEmpty() {
		return s.Profile(ctx, identity)
	}

	unlock := s.locks.Lock(identity)
	defer unlock()
	acc, err := s.accounts.Update(ctx, identity, patch)
	if err != nil {
		return nil, guardErr(err)
	}
	return acc, nil
}

// ChangeCredential verifies the current password, stores the new hash and
// issues a fresh pair. Previously issued refresh tokens stay valid.
func (s *SessionManager) ChangeCredential(ctx context.Context, identity, current, next, confirm string) (model.TokenPair, error) {
	var v errs.ValidationError
	checkRequired(&v, "current_password", current)
	checkNewPassword(&v, "new_password", "confirm_new_password", next, confirm)
	if err := v.OrNil(); err != nil {
		return model.TokenPair{}, err
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	if err := s.confirmPassword(ctx, identity, current); err != nil {
		return model.TokenPair{}, err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	acc, err := s.accounts.Update(ctx, identity, model.AccountPatch{PasswordHash: &hash})
	if err != nil {
		return model.TokenPair{}, guardErr(err)
	}

	pair, err := s.tokens.Issue(acc.ID, acc.Identity)
	if err != nil {
		return model.TokenPair{}, err
	}
	s.log.Info("password changed", zap.String("identity_hash", identityHash(identity)))
	return pair, nil
}

// DeleteAccount removes the account after the password and the literal
// confirmation word check out. Issued access tokens stop authorizing because
// Authorize reloads the account.
func (s *SessionManager) DeleteAccount(ctx context.Context, identity, password, confirmation string) error {
	var v errs.ValidationError
	checkRequired(&v, "password", password)
	if confirmation != DeleteConfirmation {
		v.Add("confirmation", `please type "DELETE" to confirm`)
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	unlock := s.locks.Lock(identity)
	defer unlock()

	if err := s.confirmPassword(ctx, identity, password); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, identity); err != nil {
		return guardErr(err)
	}
	s.log.Info("account deleted", zap.String("identity_hash", identityHash(identity)))
	return nil
}

func (s *SessionManager) confirmPassword(ctx context.Context, identity, password string) error {
	acc, err := s.accounts.Find(ctx, identity)
	if err != nil {
		return guardErr(err)
	}
	ok, err := s.hasher.Verify(password, acc.PasswordHash)
	if err != nil || !ok {
		return errs.ErrInvalidCredentials
	}
	return nil
}

// guardErr maps a vanished account to ErrUnauthenticated.
func guardErr(err error) error {
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrUnauthenticated
	}
	return err
}
