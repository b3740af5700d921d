package grpcserver

import (
	"context"
	"testing"

	"github.com/and161185/goph-auth/internal/model"
	"google.golang.org/grpc/metadata"
)

func TestWithAccount_And_AccountFromCtx(t *testing.T) {
	t.Parallel()

	if a, ok := AccountFromCtx(context.Background()); ok || a != nil {
		t.Fatalf("expected no account in empty ctx")
	}

	want := &model.Account{Identity: "bob@example.com"}
	got, ok := AccountFromCtx(WithAccount(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("mismatch: got %v, want %v", got, want)
	}

	if _, ok := AccountFromCtx(WithAccount(context.Background(), nil)); ok {
		t.Fatalf("expected miss on nil account")
	}

	bad := context.WithValue(context.Background(), accountKey, "not-an-account")
	if _, ok := AccountFromCtx(bad); ok {
		t.Fatalf("expected miss on wrong typed value")
	}
}

func Test_bearerTokenFromMD_OkAndErrors(t *testing.T) {
	t.Parallel()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer abc.def.ghi"))
	got, err := bearerTokenFromMD(ctx)
	if err != nil || got != "abc.def.ghi" {
		t.Fatalf("ok: got=%q err=%v", got, err)
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic foo"))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on non-bearer")
	}

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer   "))
	if _, err := bearerTokenFromMD(ctx); err == nil {
		t.Fatalf("want error on empty token")
	}

	if _, err := bearerTokenFromMD(context.Background()); err == nil {
		t.Fatalf("want error on no metadata")
	}
}
