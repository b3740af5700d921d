package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{&ValidationError{Fields: map[string]string{"email": "required"}}, KindValidation},
		{fmt.Errorf("create: %w", ErrAlreadyExists), KindAlreadyExists},
		{ErrInvalidCredentials, KindInvalidCredentials},
		{ErrInvalidToken, KindInvalidToken},
		{fmt.Errorf("refresh: %w", ErrRevoked), KindRevoked},
		{ErrUnauthenticated, KindUnauthenticated},
		{fmt.Errorf("update: %w", ErrNotFound), KindUnauthenticated},
		{ErrRateLimited, KindRateLimited},
		{errors.New("boom"), KindInternal},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Kind(c.err), "err=%v", c.err)
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	var v ValidationError
	require.True(t, v.Empty())
	require.NoError(t, v.OrNil())

	v.Add("password", "too short")
	v.Add("email", "required")
	v.Add("password", "ignored second message")

	err := v.OrNil()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, []string{"email", "password"}, v.SortedFields())
	require.Equal(t, "validation failed: email: required; password: too short", err.Error())

	var ve *ValidationError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &ve))
	require.Equal(t, "too short", ve.Fields["password"])
}
