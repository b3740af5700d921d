package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/goph-auth/internal/errs"
	"github.com/and161185/goph-auth/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type fakeRevocations struct {
	ids map[string]bool
	err error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

func newTestIssuer(t *testing.T, now *time.Time, rev *fakeRevocations) *Issuer {
	t.Helper()
	iss, err := NewIssuer([]byte("test-secret"), 15*time.Minute, 24*time.Hour, rev,
		WithClock(func() time.Time { return *now }))
	require.NoError(t, err)
	return iss
}

var testAccount = uuid.Must(uuid.FromString("6f1c2a8e-3b5d-4c7a-9e2f-1a2b3c4d5e6f"))

func TestNewIssuer_Validation(t *testing.T) {
	t.Parallel()

	rev := &fakeRevocations{}
	_, err := NewIssuer(nil, time.Minute, time.Hour, rev)
	require.Error(t, err)
	_, err = NewIssuer([]byte("k"), 0, time.Hour, rev)
	require.Error(t, err)
	_, err = NewIssuer([]byte("k"), time.Minute, -time.Hour, rev)
	require.Error(t, err)
	_, err = NewIssuer([]byte("k"), time.Minute, time.Hour, nil)
	require.Error(t, err)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := newTestIssuer(t, &now, &fakeRevocations{})

	pair, err := iss.Issue(testAccount, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, now.Add(15*time.Minute), pair.AccessExpiresAt)
	require.Equal(t, now.Add(24*time.Hour), pair.RefreshExpiresAt)

	ac, err := iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", ac.Identity)
	require.Equal(t, testAccount, ac.AccountID)
	require.Equal(t, model.TokenAccess, ac.Kind)
	require.True(t, now.Equal(ac.IssuedAt))
	require.True(t, pair.AccessExpiresAt.Equal(ac.ExpiresAt))

	rc, err := iss.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", rc.Identity)
	require.Equal(t, testAccount, rc.AccountID)
	require.Equal(t, model.TokenRefresh, rc.Kind)
	require.NotEqual(t, ac.ID, rc.ID)

	other, err := iss.Issue(testAccount, "alice@example.com")
	require.NoError(t, err)
	oc, err := iss.VerifyAccess(other.AccessToken)
	require.NoError(t, err)
	require.NotEqual(t, ac.ID, oc.ID, "every token gets a fresh identifier")

	_, err = iss.Issue(testAccount, "")
	require.Error(t, err)
	_, err = iss.Issue(uuid.Nil, "alice@example.com")
	require.Error(t, err)
}

func TestIssuer_KindsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(t, &now, &fakeRevocations{})
	pair, err := iss.Issue(testAccount, "bob@example.com")
	require.NoError(t, err)

	_, err = iss.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	_, err = iss.VerifyRefresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	_, err = iss.Inspect(pair.AccessToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestIssuer_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, &now, &fakeRevocations{})
	pair, err := iss.Issue(testAccount, "carol@example.com")
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = iss.VerifyAccess(pair.AccessToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	_, err = iss.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err, "refresh outlives access")

	now = now.Add(24 * time.Hour)
	_, err = iss.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
	_, err = iss.Inspect(pair.RefreshToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestIssuer_RejectsForgedAndMalformed(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(t, &now, &fakeRevocations{})

	otherKey, err := NewIssuer([]byte("other-secret"), time.Minute, time.Hour, &fakeRevocations{})
	require.NoError(t, err)
	forged, err := otherKey.Issue(testAccount, "mallory@example.com")
	require.NoError(t, err)
	_, err = iss.VerifyAccess(forged.AccessToken)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "01HZZZZZZZZZZZZZZZZZZZZZZZ",
			Subject:   "mallory@example.com",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Kind:      model.TokenAccess,
		AccountID: testAccount.String(),
	}
	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = iss.VerifyAccess(hs384)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	noExp := claims
	noExp.ExpiresAt = nil
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = iss.VerifyAccess(tok)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	noSub := claims
	noSub.Subject = ""
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, noSub).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = iss.VerifyAccess(tok)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	for _, uid := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		badUID := claims
		badUID.AccountID = uid
		tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, badUID).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = iss.VerifyAccess(tok)
		require.ErrorIs(t, err, errs.ErrInvalidToken, "uid %q", uid)
	}

	for _, s := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err = iss.VerifyAccess(s)
		require.ErrorIs(t, err, errs.ErrInvalidToken, "token %q", s)
	}
}

func TestIssuer_VerifyRefreshRevocation(t *testing.T) {
	t.Parallel()

	now := time.Now()
	rev := &fakeRevocations{ids: map[string]bool{}}
	iss := newTestIssuer(t, &now, rev)
	pair, err := iss.Issue(testAccount, "dave@example.com")
	require.NoError(t, err)

	c, err := iss.Inspect(pair.RefreshToken)
	require.NoError(t, err)
	rev.ids[c.ID] = true

	_, err = iss.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, errs.ErrRevoked)

	// Inspect ignores the registry.
	_, err = iss.Inspect(pair.RefreshToken)
	require.NoError(t, err)

	// access tokens are stateless
	_, err = iss.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)

	rev.err = errors.New("db down")
	_, err = iss.VerifyRefresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrInvalidToken)
	require.NotErrorIs(t, err, errs.ErrRevoked)
}
