package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/and161185/goph-auth/internal/model"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// serverMetrics is shared by every server in the process; the collectors
// can only be registered once.
var serverMetrics = grpcprometheus.NewServerMetrics()

func init() {
	serverMetrics.EnableHandlingTimeHistogram()
	prometheus.MustRegister(serverMetrics)
}

// Authorizer verifies access tokens for guarded methods.
type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (*model.Account, error)
}

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, never payloads: requests carry passwords and tokens
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// MetricsUnary counts handled RPCs by code and observes handling time.
func MetricsUnary() grpc.UnaryServerInterceptor {
	return serverMetrics.UnaryServerInterceptor()
}

// AuthUnary guards the methods in guarded: the bearer access token must
// authorize, and the account is placed into the handler context.
// Other methods pass through untouched.
func AuthUnary(auth Authorizer, guarded map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !guarded[info.FullMethod] {
			return next(ctx, req)
		}
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, unauthenticated()
		}
		acc, err := auth.Authorize(ctx, tok)
		if err != nil {
			return nil, toStatus(err)
		}
		return next(WithAccount(ctx, acc), req)
	}
}
