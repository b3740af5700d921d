package grpcserver

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/goph-auth/internal/model"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const accountKey ctxKey = "auth.account"

// WithAccount stores the authorized account in context.
func WithAccount(ctx context.Context, a *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromCtx fetches the authorized account from context.
func AccountFromCtx(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok && a != nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
